// Package shardmove is an illustrative plugin standing in for a real
// shard-relocation action. It models the operation as two cooperative
// checkpoints: announce the move, then confirm it landed, so the dispatcher
// demonstrates driving a multi-step action to completion.
package shardmove

import (
	"fmt"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/actionplugin"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

// Name is the plugin name this package registers under.
const Name = "ShardMove"

// Mover performs the two halves of a shard relocation. The default used by
// Factory always succeeds.
type Mover interface {
	Announce(shardID, targetNode string) error
	Confirm(shardID, targetNode string) error
}

type noopMover struct{}

func (noopMover) Announce(string, string) error { return nil }
func (noopMover) Confirm(string, string) error  { return nil }

// Factory returns an actionplugin.Factory driving a Mover across two steps.
func Factory(mover Mover) actionplugin.Factory {
	if mover == nil {
		mover = noopMover{}
	}
	return func(ctx action.Context, results action.ResultSetter, description *action.Description, properties map[string]any) (action.Stepper, error) {
		shardID, ok := description.Get("shard_id")
		if !ok || shardID == "" {
			return nil, actionerrors.BadParameter("shardmove: description missing \"shard_id\"")
		}
		targetNode, ok := description.Get("target_node")
		if !ok || targetNode == "" {
			return nil, actionerrors.BadParameter("shardmove: description missing \"target_node\"")
		}
		return &shardMove{shardID: shardID, targetNode: targetNode, mover: mover, results: results}, nil
	}
}

type shardMove struct {
	shardID    string
	targetNode string
	mover      Mover
	results    action.ResultSetter
}

func (s *shardMove) First() bool {
	if err := s.mover.Announce(s.shardID, s.targetNode); err != nil {
		s.results.SetResult(actionerrors.CodeActionFailed, fmt.Sprintf("shardmove announce %s->%s: %v", s.shardID, s.targetNode, err))
		return false
	}
	return true
}

func (s *shardMove) Next() bool {
	if err := s.mover.Confirm(s.shardID, s.targetNode); err != nil {
		s.results.SetResult(actionerrors.CodeActionFailed, fmt.Sprintf("shardmove confirm %s->%s: %v", s.shardID, s.targetNode, err))
	}
	return false
}
