package action

import (
	"sync"
	"time"

	"github.com/clusterops/maintenanced/pkg/actionerrors"
)

// State is the wire-coded lifecycle state of an Action. Numeric values
// match the external serialization format exactly, including the
// intentional gap at 4.
type State int

const (
	// StateReady means the action is queued but not yet picked up by a worker.
	StateReady State = 1
	// StateExecuting means a worker currently holds the action.
	StateExecuting State = 2
	// StateWaiting means the action returned true but is backing off before
	// its next step attempt.
	StateWaiting State = 3
	// (4 is reserved.)

	// StateComplete is a sticky terminal success state.
	StateComplete State = 5
	// StateFailed is a sticky terminal failure state.
	StateFailed State = 6
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateExecuting:
		return "EXECUTING"
	case StateWaiting:
		return "WAITING"
	case StateComplete:
		return "COMPLETE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the state is sticky (no further transitions).
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Result is the outcome pair recorded on an Action. Code == 0 means success.
type Result struct {
	Code    actionerrors.Code
	Message string
}

// Ok reports whether the result represents success.
func (r Result) Ok() bool {
	return r.Code == actionerrors.CodeOK
}

// Context is the capability set an Action implementation receives at
// construction time instead of a raw back-pointer to the owning facade.
// It deliberately exposes only what a step function needs.
type Context interface {
	// NowMs returns the current wall-clock time in Unix milliseconds.
	NowMs() int64
	// ShutdownRequested reports whether the host has begun shutdown, so a
	// long-running plugin can cooperatively stop between steps.
	ShutdownRequested() bool
	// Config exposes the owning scheduler's configuration values. It is
	// shared by every action and carries no per-action description or
	// properties data.
	Config() map[string]any
}

// Stepper is the capability every concrete Action implementation must
// satisfy: a two-method step protocol driven by the dispatcher.
//
// First is called exactly once, when progress == 0. Next is called on every
// subsequent step. Both return true if more work remains (the dispatcher
// must call again) or false if the action is done. Before returning, an
// implementation may set a non-zero result via the Action it was
// constructed with to signal failure.
type Stepper interface {
	First() (more bool)
	Next() (more bool)
}

// Action is the central, mutable entity tracked by the registry. All
// observable field access goes through its accessor methods, which take mu,
// so a held *Action reference is safe to read concurrently with a worker
// driving it.
type Action struct {
	mu sync.Mutex

	id          int64
	description *Description
	properties  map[string]any
	plugin      Stepper

	state    State
	progress int64
	result   Result

	createdAt     time.Time
	startedAt     time.Time
	finishedAt    time.Time
	lastAttemptAt time.Time
}

// New constructs a fresh Action in state READY, without a bound Stepper.
// id must be assigned by the registry under its own lock to preserve
// admission ordering (invariant 5). Callers must call SetPlugin before the
// action is exposed to any other goroutine (i.e. before it leaves the
// registry's admission critical section).
func New(id int64, description *Description, properties map[string]any) *Action {
	return &Action{
		id:          id,
		description: description,
		properties:  properties,
		state:       StateReady,
		result:      Result{Code: actionerrors.CodeOK},
		createdAt:   time.Now(),
	}
}

// ResultSetter is the narrow capability a plugin implementation receives
// instead of a raw back-pointer to its owning Action, so it can record a
// failure result before returning false/true from First or Next (spec §9).
type ResultSetter interface {
	SetResult(code actionerrors.Code, message string)
}

// SetPlugin binds the concrete Stepper built by the plugin factory. It must
// be called exactly once, before the Action is admitted into the registry.
func (a *Action) SetPlugin(s Stepper) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.plugin = s
}

// ID returns the monotonic admission id.
func (a *Action) ID() int64 {
	return a.id
}

// Description returns the shared, immutable description that produced this
// action.
func (a *Action) Description() *Description {
	return a.description
}

// Name returns the plugin name recorded in the description, ignoring the
// error: by construction, an Action only exists for descriptions that
// already passed Description.Name() validation at admission time.
func (a *Action) Name() string {
	name, _ := a.description.Name()
	return name
}

// State returns the current lifecycle state under lock.
func (a *Action) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Progress returns the current step counter under lock.
func (a *Action) Progress() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress
}

// Result returns the current result pair under lock.
func (a *Action) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Done reports whether the action has reached a terminal state.
func (a *Action) Done() bool {
	return a.State().Terminal()
}

// Timestamps returns the created/started/finished times under lock. Zero
// values mean "not yet reached."
func (a *Action) Timestamps() (created, started, finished time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.createdAt, a.startedAt, a.finishedAt
}

// LastAttemptAt returns the timestamp of the most recent step attempt,
// consulted by the dispatcher's retry-backoff policy.
func (a *Action) LastAttemptAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAttemptAt
}

// SetResult overwrites the result pair. Plugin implementations reach it
// through the ResultSetter their factory receives (see internal/actionplugin).
func (a *Action) SetResult(code actionerrors.Code, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result = Result{Code: code, Message: message}
}

// beginAttempt marks the action EXECUTING, stamping startedAt on first
// entry and lastAttemptAt on every entry. Called by the dispatcher while it
// exclusively holds the action.
func (a *Action) beginAttempt(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.startedAt.IsZero() {
		a.startedAt = now
	}
	a.lastAttemptAt = now
	a.state = StateExecuting
}

// step runs exactly one First()/Next() call depending on progress, recovers
// from a panicking plugin by converting it into an INTERNAL_ERROR result,
// and returns whether the dispatcher should call again.
func (a *Action) step() (more bool) {
	a.mu.Lock()
	first := a.progress == 0
	plugin := a.plugin
	a.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			a.mu.Lock()
			a.result = Result{Code: actionerrors.CodeInternalError, Message: panicMessage(r)}
			a.mu.Unlock()
			more = false
		}
	}()

	if first {
		more = plugin.First()
	} else {
		more = plugin.Next()
	}
	return more
}

// finishStep applies the §4.2 transition table: increments progress, sets
// finishedAt and the terminal state when appropriate, and returns the
// resulting state.
func (a *Action) finishStep(more bool) State {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.progress++

	ok := a.result.Ok()
	switch {
	case more && ok:
		a.state = StateExecuting
	case !more && ok:
		a.state = StateComplete
		a.finishedAt = time.Now()
	case more && !ok:
		a.state = StateFailed
		a.finishedAt = time.Now()
	default: // !more && !ok
		a.state = StateFailed
		a.finishedAt = time.Now()
	}
	return a.state
}

// markWaiting transitions a still-running action to WAITING so the
// dispatcher's backoff policy can hold it before the next attempt. It is a
// no-op once the action has reached a terminal state.
func (a *Action) markWaiting() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.Terminal() {
		a.state = StateWaiting
	}
}

// Step is the package-level hook the dispatcher uses to drive an action
// through exactly one First()/Next() call and apply the resulting
// transition. It is exported at the package (not method) level so the
// dispatcher package, which only ever sees *Action, can invoke the same
// logic the registry uses for synchronous (executeNow) admission.
func Step(a *Action) State {
	more := a.step()
	return a.finishStep(more)
}

// MarkWaiting exposes markWaiting to the dispatcher package.
func MarkWaiting(a *Action) {
	a.markWaiting()
}

// BeginAttempt exposes beginAttempt to the dispatcher package.
func BeginAttempt(a *Action, now time.Time) {
	a.beginAttempt(now)
}

func panicMessage(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "panic: action step terminated abnormally"
}
