// Package schemaapply is an illustrative plugin standing in for a real
// schema-migration action. It is a single-step action: it applies (in a
// real deployment) the migration named by the description's "schema_version"
// field and reports success.
package schemaapply

import (
	"fmt"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/actionplugin"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

// Name is the plugin name this package registers under.
const Name = "SchemaApply"

// Apply is the real work a deployment would plug in. The default used by
// Factory always succeeds.
type Apply func(schemaVersion string) error

// Factory returns an actionplugin.Factory that runs apply once per action.
func Factory(apply Apply) actionplugin.Factory {
	if apply == nil {
		apply = func(string) error { return nil }
	}
	return func(ctx action.Context, results action.ResultSetter, description *action.Description, properties map[string]any) (action.Stepper, error) {
		version, _ := description.Get("schema_version")
		return &schemaApply{version: version, apply: apply, results: results}, nil
	}
}

type schemaApply struct {
	version string
	apply   Apply
	results action.ResultSetter
}

func (s *schemaApply) First() bool {
	if err := s.apply(s.version); err != nil {
		s.results.SetResult(actionerrors.CodeActionFailed, fmt.Sprintf("schema apply %q: %v", s.version, err))
	}
	return false
}

func (s *schemaApply) Next() bool {
	panic("schemaapply: Next called after a single-step action completed")
}
