// Package indexbuild is an illustrative plugin standing in for a real
// index-build action. It processes a configurable number of batches, one
// per step, so it exercises the dispatcher's retry-backoff path on
// longer-running actions.
package indexbuild

import (
	"fmt"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/actionplugin"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

// Name is the plugin name this package registers under.
const Name = "IndexBuild"

// BatchBuilder processes a single batch of an index build. The default used
// by Factory always succeeds.
type BatchBuilder func(indexName string, batch int) error

// Factory returns an actionplugin.Factory that calls build once per
// remaining batch, reading "index_name" from the description and
// "batch_count" (default 1) from properties.
func Factory(build BatchBuilder) actionplugin.Factory {
	if build == nil {
		build = func(string, int) error { return nil }
	}
	return func(ctx action.Context, results action.ResultSetter, description *action.Description, properties map[string]any) (action.Stepper, error) {
		indexName, ok := description.Get("index_name")
		if !ok || indexName == "" {
			return nil, actionerrors.BadParameter("indexbuild: description missing \"index_name\"")
		}
		batchCount := 1
		if properties != nil {
			if v, ok := properties["batch_count"].(float64); ok {
				batchCount = int(v)
			} else if v, ok := properties["batch_count"].(int); ok {
				batchCount = v
			}
		}
		return &indexBuild{indexName: indexName, remaining: batchCount, build: build, results: results}, nil
	}
}

type indexBuild struct {
	indexName string
	remaining int
	batch     int
	build     BatchBuilder
	results   action.ResultSetter
}

func (b *indexBuild) First() bool { return b.step() }
func (b *indexBuild) Next() bool  { return b.step() }

func (b *indexBuild) step() bool {
	if b.remaining <= 0 {
		return false
	}
	b.batch++
	if err := b.build(b.indexName, b.batch); err != nil {
		b.results.SetResult(actionerrors.CodeActionFailed, fmt.Sprintf("indexbuild %s batch %d: %v", b.indexName, b.batch, err))
		return false
	}
	b.remaining--
	return b.remaining > 0
}
