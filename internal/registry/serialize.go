package registry

import (
	"encoding/json"
	"time"

	"github.com/clusterops/maintenanced/internal/action"
)

// Record is one entry of the registry's structured diagnostic document, per
// spec §6's wire format.
type Record struct {
	ID         int64      `json:"id"`
	State      int        `json:"state"`
	Result     int        `json:"result"`
	Progress   int64      `json:"progress"`
	Name       string     `json:"name"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// recordFor converts a live action into its diagnostic record through the
// action's own accessors (the mutable fields are each read under the
// action's lock).
func recordFor(a *action.Action) Record {
	created, started, finished := a.Timestamps()
	result := a.Result()

	rec := Record{
		ID:       a.ID(),
		State:    int(a.State()),
		Result:   int(result.Code),
		Progress: a.Progress(),
		Name:     a.Name(),
	}
	if !created.IsZero() {
		rec.CreatedAt = &created
	}
	if !started.IsZero() {
		rec.StartedAt = &started
	}
	if !finished.IsZero() {
		rec.FinishedAt = &finished
	}
	return rec
}

// Records returns the admission-ordered sequence of diagnostic records for
// every action currently tracked.
func (r *Registry) Records() []Record {
	actions := r.Iterate()
	out := make([]Record, len(actions))
	for i, a := range actions {
		out[i] = recordFor(a)
	}
	return out
}

// Serialize renders the registry into the neutral structured document
// described in spec §6: an ordered JSON array of records, one per admitted
// action, in admission order.
func (r *Registry) Serialize() ([]byte, error) {
	return json.Marshal(r.Records())
}
