package scheduler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/actionplugins/testaction"
	"github.com/clusterops/maintenanced/internal/lifecycle"
	"github.com/clusterops/maintenanced/internal/registry"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(Config{})
	require.NoError(t, s.Plugins().Register(testaction.Name, testaction.Factory()))
	return s
}

func describe(extras ...action.Pair) *action.Description {
	pairs := append([]action.Pair{{Key: "name", Value: testaction.Name}}, extras...)
	return action.NewDescription(pairs...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition was not met before timeout")
}

// TestThreeActionsOneDuplicateOneWorker mirrors the dispatcher-driven
// scenario: two distinct actions and a duplicate of the first are admitted,
// then a single worker drains the queue.
func TestThreeActionsOneDuplicateOneWorker(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	s.Observer().StateChange(lifecycle.StateInWait)

	descA := describe(action.Pair{Key: "shard_id", Value: "A"})
	descB := describe(action.Pair{Key: "shard_id", Value: "B"})

	_, a, err := s.AddAction(descA, map[string]any{"iterate_count": 100, "result_code": int(actionerrors.CodeActionFailed)}, false)
	require.NoError(t, err)

	_, b, err := s.AddAction(descB, map[string]any{"iterate_count": 2, "result_code": 0}, false)
	require.NoError(t, err)

	_, _, err = s.AddAction(descA, map[string]any{"iterate_count": 100, "result_code": int(actionerrors.CodeActionFailed)}, false)
	require.Error(t, err)

	var actErr *actionerrors.Error
	require.ErrorAs(t, err, &actErr)
	require.Equal(t, actionerrors.CodeTaskDuplicate, actErr.Code)

	s.SetMaintenanceThreadsMax(1)

	waitFor(t, 5*time.Second, func() bool { return a.Done() && b.Done() })

	require.Equal(t, action.StateFailed, a.State())
	require.Equal(t, action.StateComplete, b.State())
	require.Equal(t, int64(1), a.ID())
	require.Equal(t, int64(2), b.ID())

	s.BeginShutdown()
}

// TestZeroWorkersThenRaiseToOne mirrors the scenario where an action is
// admitted asynchronously while the pool has no workers (it must remain
// READY), then the pool is started and the action drains.
func TestZeroWorkersThenRaiseToOne(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	s.Observer().StateChange(lifecycle.StateInWait)

	desc := describe(action.Pair{Key: "shard_id", Value: "B"})
	_, b, err := s.AddAction(desc, map[string]any{"iterate_count": 2, "result_code": 0}, false)
	require.NoError(t, err)

	require.Equal(t, action.StateReady, b.State())
	require.Equal(t, int64(0), b.Progress())

	s.SetMaintenanceThreadsMax(1)
	waitFor(t, 5*time.Second, func() bool { return b.Done() })

	require.Equal(t, action.StateComplete, b.State())
	s.BeginShutdown()
}

func TestAddActionExecuteNowSynchronous(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	desc := describe()
	result, a, err := s.AddAction(desc, map[string]any{"iterate_count": 0, "result_code": 0}, true)
	require.NoError(t, err)
	require.True(t, result.Ok())
	require.Equal(t, action.StateComplete, a.State())
}

func TestToStructuredDocumentRoundTripsAdmissionOrder(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	for i := 0; i < 3; i++ {
		desc := describe(action.Pair{Key: "shard_id", Value: string(rune('a' + i))})
		_, _, err := s.AddAction(desc, map[string]any{"iterate_count": 0}, true)
		require.NoError(t, err)
	}

	doc, err := s.ToStructuredDocument()
	require.NoError(t, err)
	require.NotEmpty(t, doc)

	var records []registry.Record
	require.NoError(t, json.Unmarshal(doc, &records))
	require.Len(t, records, 3)
	for i, rec := range records {
		require.Equal(t, int64(i+1), rec.ID)
	}
}
