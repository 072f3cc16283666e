// Package registry holds the process-wide, ordered index of every action
// admitted this process lifetime: the shared set Action handles are
// borrowed from, and the source of the serialized diagnostic snapshot.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/actionplugin"
	"github.com/clusterops/maintenanced/internal/logger"
	"github.com/clusterops/maintenanced/internal/metrics"
	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

// Enqueuer receives newly admitted READY actions for asynchronous
// execution. The dispatcher implements this interface; the registry never
// imports the dispatcher package directly, avoiding a cycle.
type Enqueuer interface {
	Enqueue(a *action.Action)
}

// Registry is the ordered, hash-indexed set of all admitted actions. It is
// safe for concurrent use.
type Registry struct {
	mu sync.Mutex

	nextID            int64
	order             []*action.Action
	byID              map[int64]*action.Action
	nonTerminalByHash map[uint64]*action.Action

	factory     *actionplugin.Registry
	actionCtx   action.Context
	enqueuer    Enqueuer
	graceWindow time.Duration

	metrics metrics.Recorder
	log     *logger.Logger

	shuttingDown bool
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithGraceWindow sets the minimum age a terminal action must reach before
// Evict will remove it.
func WithGraceWindow(d time.Duration) Option {
	return func(r *Registry) { r.graceWindow = d }
}

// WithMetrics attaches a metrics recorder. The zero value (nil) records
// nothing.
func WithMetrics(m metrics.Recorder) Option {
	return func(r *Registry) {
		if m == nil {
			m = metrics.NoOp{}
		}
		r.metrics = m
	}
}

// WithLogger attaches a structured logger. The zero value (nil) logs
// nothing.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// New constructs an empty Registry. factory resolves plugin names to
// concrete action.Stepper implementations; actionCtx is handed to every
// constructed Stepper that asks for one via its Factory signature.
func New(factory *actionplugin.Registry, actionCtx action.Context, opts ...Option) *Registry {
	r := &Registry{
		factory:           factory,
		actionCtx:         actionCtx,
		byID:              make(map[int64]*action.Action),
		nonTerminalByHash: make(map[uint64]*action.Action),
		metrics:           metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetEnqueuer wires the dispatcher that asynchronously admitted actions are
// handed to. Must be called before the first asynchronous Admit.
func (r *Registry) SetEnqueuer(e Enqueuer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueuer = e
}

// BeginShutdown rejects all future admissions with CodeShuttingDown. It
// does not touch existing actions: terminal and non-terminal alike remain
// in the registry for post-mortem inspection, per spec §4.4.
func (r *Registry) BeginShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shuttingDown = true
}

// Admit implements spec §4.3's admit operation. On success it returns the
// newly constructed action and a nil error. On a duplicate, it returns the
// existing non-terminal action alongside a CodeTaskDuplicate error. When
// executeNow is true, Admit drives the action to completion before
// returning and result reflects the action's final outcome.
func (r *Registry) Admit(description *action.Description, properties map[string]any, executeNow bool) (action.Result, *action.Action, error) {
	r.mu.Lock()

	if r.shuttingDown {
		r.mu.Unlock()
		return action.Result{}, nil, actionerrors.ShuttingDown("registry is shutting down")
	}

	if _, err := description.Name(); err != nil {
		r.mu.Unlock()
		return action.Result{}, nil, err
	}

	hash := description.Hash()
	if existing, ok := r.nonTerminalByHash[hash]; ok {
		r.mu.Unlock()
		return action.Result{}, existing, actionerrors.TaskDuplicate(
			fmt.Sprintf("action %d with identical description is still non-terminal", existing.ID()))
	}

	r.nextID++
	id := r.nextID
	a := action.New(id, description, properties)

	stepper, err := r.factory.Build(r.actionCtx, a, description, properties)
	if err != nil {
		r.mu.Unlock()
		return action.Result{}, nil, err
	}
	a.SetPlugin(stepper)

	r.order = append(r.order, a)
	r.byID[id] = a
	r.nonTerminalByHash[hash] = a
	r.metrics.ActionAdmitted()

	r.mu.Unlock()

	// admissionID only ties together the handful of log lines this single
	// Admit call emits; it is not retained on the Action.
	admissionID := uuid.NewString()
	r.logf("admitted action id=%d name=%s hash=%x admission=%s", id, a.Name(), hash, admissionID)

	if executeNow {
		r.drainSync(a)
		r.releaseIfTerminal(a)
		return a.Result(), a, nil
	}

	if r.enqueuer != nil {
		r.enqueuer.Enqueue(a)
	}
	return action.Result{Code: actionerrors.CodeOK}, a, nil
}

// drainSync runs First()/Next() to completion on the calling goroutine,
// used for executeNow admissions and for dispatcher-less deployments.
func (r *Registry) drainSync(a *action.Action) {
	for {
		action.BeginAttempt(a, time.Now())
		state := action.Step(a)
		if state.Terminal() {
			r.onTerminal(a, state)
			return
		}
	}
}

// onTerminal updates bookkeeping common to both the synchronous and
// dispatcher-driven paths once an action reaches a terminal state.
func (r *Registry) onTerminal(a *action.Action, state action.State) {
	r.mu.Lock()
	delete(r.nonTerminalByHash, a.Description().Hash())
	r.mu.Unlock()

	if state == action.StateComplete {
		r.metrics.ActionCompleted()
	} else {
		r.metrics.ActionFailed()
	}
	r.logf("action id=%d reached terminal state=%s result=%v", a.ID(), state, a.Result())
}

// releaseIfTerminal does no work: for executeNow admissions the terminal
// bookkeeping (hash-index release, metrics, log line) has already been done
// by drainSync through onTerminal.
func (r *Registry) releaseIfTerminal(a *action.Action) {
	if !a.Done() {
		return
	}
}

// Lookup returns the action with the given id.
func (r *Registry) Lookup(id int64) (*action.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	return a, ok
}

// LookupByHash returns the non-terminal action matching an identity hash,
// if any.
func (r *Registry) LookupByHash(hash uint64) (*action.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.nonTerminalByHash[hash]
	return a, ok
}

// Iterate returns a snapshot-stable, admission-ordered slice of every
// action currently tracked. Actions admitted after the snapshot is taken
// are not observed, per spec §5's ordering guarantee 3.
func (r *Registry) Iterate() []*action.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*action.Action, len(r.order))
	copy(out, r.order)
	return out
}

// NotifyTerminal is called by the dispatcher whenever a driven action
// reaches a terminal state, so the registry's hash index and metrics stay
// in sync with asynchronous execution.
func (r *Registry) NotifyTerminal(a *action.Action, state action.State) {
	r.onTerminal(a, state)
}

// Evict removes terminal actions older than the configured grace window
// from the id/hash indices and the admission-ordered slice. Non-terminal
// actions are never evicted (invariant: Registry §3).
func (r *Registry) Evict(now time.Time) int {
	if r.graceWindow <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.order[:0:0]
	evicted := 0
	for _, a := range r.order {
		if !a.Done() {
			kept = append(kept, a)
			continue
		}
		_, _, finished := a.Timestamps()
		if finished.IsZero() || now.Sub(finished) < r.graceWindow {
			kept = append(kept, a)
			continue
		}
		delete(r.byID, a.ID())
		evicted++
	}
	r.order = kept
	if evicted > 0 {
		r.metrics.ActionsEvicted(evicted)
	}
	return evicted
}

func (r *Registry) logf(format string, args ...interface{}) {
	if r.log == nil {
		return
	}
	r.log.Debug(fmt.Sprintf(format, args...))
}
