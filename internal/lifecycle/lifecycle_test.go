package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitForReadyBlocksUntilStateChange(t *testing.T) {
	t.Parallel()

	o := NewObserver()
	require.False(t, o.Ready())

	done := make(chan struct{})
	go func() {
		o.WaitForReady()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitForReady returned before StateChange(StateInWait)")
	case <-time.After(50 * time.Millisecond):
	}

	o.StateChange(StateInWait)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForReady never returned")
	}
	require.True(t, o.Ready())
}

func TestStateChangeIgnoresOtherStates(t *testing.T) {
	t.Parallel()

	o := NewObserver()
	o.StateChange(StateUnknown)
	require.False(t, o.Ready())
}

func TestStateChangeIsIdempotent(t *testing.T) {
	t.Parallel()

	o := NewObserver()
	o.StateChange(StateInWait)
	o.StateChange(StateInWait)
	require.True(t, o.Ready())
}

func TestBeginShutdownBroadcastsOnce(t *testing.T) {
	t.Parallel()

	o := NewObserver()
	require.False(t, o.ShuttingDown())

	done := make(chan struct{})
	go func() {
		o.WaitForShutdown()
		close(done)
	}()

	o.BeginShutdown()
	o.BeginShutdown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForShutdown never returned")
	}
	require.True(t, o.ShuttingDown())
}

func TestFeatureChangeIsNoop(t *testing.T) {
	t.Parallel()

	o := NewObserver()
	o.FeatureChange(StateInWait, "some-feature")
	require.False(t, o.Ready())
}
