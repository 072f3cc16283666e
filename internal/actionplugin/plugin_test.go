package actionplugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

type stubStepper struct{}

func (stubStepper) First() bool { return false }
func (stubStepper) Next() bool  { return false }

func TestRegisterRejectsNilFactory(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	err := r.Register("x", nil)
	require.Error(t, err)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	factory := func(action.Context, action.ResultSetter, *action.Description, map[string]any) (action.Stepper, error) {
		return stubStepper{}, nil
	}
	require.NoError(t, r.Register("x", factory))
	require.Error(t, r.Register("x", factory))
}

func TestBuildUnknownNameIsBadParameter(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	d := action.NewDescription(action.Pair{Key: "name", Value: "missing"})
	a := action.New(1, d, nil)

	_, err := r.Build(nil, a, d, nil)
	require.Error(t, err)

	var actErr *actionerrors.Error
	require.ErrorAs(t, err, &actErr)
	require.Equal(t, actionerrors.CodeBadParameter, actErr.Code)
}

func TestBuildInvokesRegisteredFactory(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var gotResults action.ResultSetter
	factory := func(ctx action.Context, results action.ResultSetter, description *action.Description, properties map[string]any) (action.Stepper, error) {
		gotResults = results
		return stubStepper{}, nil
	}
	require.NoError(t, r.Register("x", factory))

	d := action.NewDescription(action.Pair{Key: "name", Value: "x"})
	a := action.New(1, d, nil)

	stepper, err := r.Build(nil, a, d, nil)
	require.NoError(t, err)
	require.NotNil(t, stepper)
	require.Same(t, a, gotResults)
}

func TestNamesReflectsRegistrations(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	factory := func(action.Context, action.ResultSetter, *action.Description, map[string]any) (action.Stepper, error) {
		return stubStepper{}, nil
	}
	require.NoError(t, r.Register("a", factory))
	require.NoError(t, r.Register("b", factory))

	require.ElementsMatch(t, []string{"a", "b"}, r.Names())
}
