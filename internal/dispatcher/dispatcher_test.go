package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/lifecycle"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

type recordingNotifier struct {
	terminal chan *action.Action
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{terminal: make(chan *action.Action, 16)}
}

func (n *recordingNotifier) NotifyTerminal(a *action.Action, state action.State) {
	n.terminal <- a
}

func newCountingAction(id int64, limit int, resultCode actionerrors.Code) *action.Action {
	d := action.NewDescription(action.Pair{Key: "name", Value: "counting"})
	a := action.New(id, d, nil)
	a.SetPlugin(&countingStepper{limit: limit, resultCode: resultCode, a: a})
	return a
}

type countingStepper struct {
	calls      int
	limit      int
	resultCode actionerrors.Code
	a          *action.Action
}

func (s *countingStepper) First() bool { return s.step() }
func (s *countingStepper) Next() bool  { return s.step() }
func (s *countingStepper) step() bool {
	s.calls++
	if s.calls >= s.limit {
		if s.resultCode != actionerrors.CodeOK {
			s.a.SetResult(s.resultCode, "boom")
		}
		return false
	}
	return true
}

func TestDispatcherDrivesActionToCompletion(t *testing.T) {
	t.Parallel()

	observer := lifecycle.NewObserver()
	observer.StateChange(lifecycle.StateInWait)
	notifier := newRecordingNotifier()
	d := New(observer, notifier)
	d.Start(1)

	a := newCountingAction(1, 3, actionerrors.CodeOK)
	d.Enqueue(a)

	select {
	case got := <-notifier.terminal:
		require.Same(t, a, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for terminal notification")
	}
	require.Equal(t, action.StateComplete, a.State())
	d.Shutdown()
}

func TestDispatcherDoesNotStartBeforeReady(t *testing.T) {
	t.Parallel()

	observer := lifecycle.NewObserver()
	notifier := newRecordingNotifier()
	d := New(observer, notifier)

	started := make(chan struct{})
	go func() {
		d.Start(1)
		close(started)
	}()

	select {
	case <-started:
		t.Fatal("dispatcher started before host reported ready")
	case <-time.After(100 * time.Millisecond):
	}

	observer.StateChange(lifecycle.StateInWait)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher never started after host became ready")
	}
	d.Shutdown()
}

func TestDispatcherBackoffDelaysRetry(t *testing.T) {
	t.Parallel()

	observer := lifecycle.NewObserver()
	observer.StateChange(lifecycle.StateInWait)
	notifier := newRecordingNotifier()
	d := New(observer, notifier, WithActionsBlock(150*time.Millisecond))
	d.Start(1)

	a := newCountingAction(1, 2, actionerrors.CodeOK)
	start := time.Now()
	d.Enqueue(a)

	select {
	case <-notifier.terminal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for terminal notification")
	}
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	d.Shutdown()
}

func TestDispatcherShutdownJoinsWorkers(t *testing.T) {
	t.Parallel()

	observer := lifecycle.NewObserver()
	observer.StateChange(lifecycle.StateInWait)
	d := New(observer, newRecordingNotifier())
	d.Start(2)

	done := make(chan struct{})
	go func() {
		d.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not join workers")
	}
}
