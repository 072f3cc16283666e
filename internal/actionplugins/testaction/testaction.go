// Package testaction provides the TestActionBasic plugin used to exercise
// the scheduler's admission, execution, and retry-backoff paths without any
// external side effects. It reads iterate_count and result_code from the
// admitted properties blob (falling back to the description's extras) and
// counts down, failing with result_code once the counter is exhausted.
package testaction

import (
	"fmt"
	"sync"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/actionplugin"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

// Name is the plugin name this package registers under.
const Name = "TestActionBasic"

const (
	keyIterateCount = "iterate_count"
	keyResultCode   = "result_code"
)

// Factory returns the actionplugin.Factory for TestActionBasic, ready to
// pass to actionplugin.Registry.Register.
func Factory() actionplugin.Factory {
	return func(ctx action.Context, results action.ResultSetter, description *action.Description, properties map[string]any) (action.Stepper, error) {
		iterateCount := intInput(properties, description, keyIterateCount, 1)
		resultCode := intInput(properties, description, keyResultCode, 0)
		return &testActionBasic{
			counter:    iterateCount,
			resultCode: actionerrors.Code(resultCode),
			results:    results,
		}, nil
	}
}

// testActionBasic is the concrete Stepper. It records whether First has run
// to self-check that First is never called more than once, matching the
// progress == 0 invariant the dispatcher maintains on its behalf.
type testActionBasic struct {
	mu          sync.Mutex
	counter     int
	resultCode  actionerrors.Code
	results     action.ResultSetter
	firstCalled bool
}

func (t *testActionBasic) First() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.firstCalled {
		panic("testaction: First called more than once")
	}
	t.firstCalled = true
	return t.step()
}

func (t *testActionBasic) Next() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.firstCalled {
		panic("testaction: Next called before First")
	}
	return t.step()
}

// step decrements the counter once per call while it is positive and
// returns true. The call that finds it already exhausted does not decrement;
// it sets the configured result and returns false.
func (t *testActionBasic) step() bool {
	if t.counter <= 0 {
		if t.resultCode == actionerrors.CodeOK {
			t.results.SetResult(actionerrors.CodeOK, "")
		} else {
			t.results.SetResult(t.resultCode, fmt.Sprintf("testaction: result_code=%d", t.resultCode))
		}
		return false
	}
	t.counter--
	return true
}

func intInput(properties map[string]any, description *action.Description, key string, def int) int {
	if properties != nil {
		if v, ok := properties[key]; ok {
			switch n := v.(type) {
			case int:
				return n
			case int64:
				return int(n)
			case float64:
				return int(n)
			}
		}
	}
	if description != nil {
		if v, ok := description.Get(key); ok {
			var parsed int
			if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil {
				return parsed
			}
		}
	}
	return def
}
