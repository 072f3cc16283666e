// Package dispatcher implements the bounded worker pool that drains the
// registry's READY actions, drives them through their step function, and
// applies retry backoff and terminal transitions.
package dispatcher

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/lifecycle"
	"github.com/clusterops/maintenanced/internal/logger"
	"github.com/clusterops/maintenanced/internal/metrics"
)

// TerminalNotifier is informed whenever a dispatcher-driven action reaches
// a terminal state. The registry implements this to keep its hash index
// and counters in sync with asynchronous execution.
type TerminalNotifier interface {
	NotifyTerminal(a *action.Action, state action.State)
}

// Dispatcher is a bounded pool of worker goroutines draining a FIFO queue
// of pending actions. It must not begin executing work before the host
// lifecycle observer reports ready (spec §4.4).
type Dispatcher struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []*action.Action

	shuttingDown bool
	startOnce    sync.Once
	workerCount  int

	actionsBlock time.Duration

	observer *lifecycle.Observer
	notifier TerminalNotifier
	metrics  metrics.Recorder
	log      *logger.Logger

	active int32
	wg     sync.WaitGroup
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithActionsBlock sets the retry-backoff window between a step that left
// an action non-terminal and its next attempt. Zero disables backoff.
func WithActionsBlock(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.actionsBlock = d }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger attaches a structured logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// New constructs a Dispatcher bound to a lifecycle observer (for the
// host-ready gate) and a TerminalNotifier (normally the registry).
func New(observer *lifecycle.Observer, notifier TerminalNotifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		observer: observer,
		notifier: notifier,
		metrics:  metrics.NoOp{},
	}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetActionsBlock updates the retry-backoff window. Safe to call before or
// after Start; workers observe the new value on their next wait cycle.
func (d *Dispatcher) SetActionsBlock(block time.Duration) {
	d.mu.Lock()
	d.actionsBlock = block
	d.mu.Unlock()
}

// Enqueue appends a READY (or re-scheduled) action to the tail of the
// pending queue and wakes any worker blocked waiting for work.
func (d *Dispatcher) Enqueue(a *action.Action) {
	d.mu.Lock()
	d.queue = append(d.queue, a)
	depth := len(d.queue)
	d.mu.Unlock()

	d.metrics.QueueDepth(depth)
	d.cond.Broadcast()
}

// Start blocks until the host lifecycle observer reports ready, then spawns
// n worker goroutines. Calling Start more than once is undefined; only the
// first call has effect (spec §4.4: "single-shot").
func (d *Dispatcher) Start(n int) {
	d.startOnce.Do(func() {
		if d.observer != nil {
			d.observer.WaitForReady()
		}
		if n <= 0 {
			return
		}
		d.mu.Lock()
		d.workerCount = n
		d.mu.Unlock()

		d.wg.Add(n)
		for i := 0; i < n; i++ {
			go d.workerLoop()
		}
		d.cond.Broadcast()
		if d.log != nil {
			d.log.Info("maintenance dispatcher started", "workers", n)
		}
	})
}

// Shutdown stops the dispatcher from handing out new work and blocks until
// every worker goroutine has exited. Actions left in the queue remain
// there, still reachable through the registry, for post-mortem inspection.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	d.shuttingDown = true
	d.mu.Unlock()
	d.cond.Broadcast()
	d.wg.Wait()
}

func (d *Dispatcher) workerLoop() {
	defer d.wg.Done()
	for {
		a, ok := d.waitForEligible()
		if !ok {
			return
		}
		atomic.AddInt32(&d.active, 1)
		d.metrics.WorkersActive(int(atomic.LoadInt32(&d.active)))
		d.runStep(a)
		atomic.AddInt32(&d.active, -1)
		d.metrics.WorkersActive(int(atomic.LoadInt32(&d.active)))
	}
}

// waitForEligible blocks until either an action in the queue is eligible to
// run now, or shutdown has been signalled. Eligibility and backoff timing
// are re-evaluated whenever the condition variable wakes (enqueue,
// shutdown) and, separately, by sleeping until the soonest backoff expiry
// when nothing else is pending.
func (d *Dispatcher) waitForEligible() (*action.Action, bool) {
	for {
		d.mu.Lock()
		if d.shuttingDown {
			d.mu.Unlock()
			return nil, false
		}

		idx, waitUntil := d.findEligibleLocked()
		if idx >= 0 {
			a := d.queue[idx]
			d.queue = append(d.queue[:idx], d.queue[idx+1:]...)
			depth := len(d.queue)
			d.mu.Unlock()
			d.metrics.QueueDepth(depth)
			return a, true
		}

		if waitUntil.IsZero() {
			d.cond.Wait()
			d.mu.Unlock()
			continue
		}
		d.mu.Unlock()

		if delay := time.Until(waitUntil); delay > 0 {
			time.Sleep(delay)
		}
	}
}

// findEligibleLocked scans the queue for the first action eligible to run
// now. It must be called with mu held. It returns (-1, zero) if the queue
// is empty, or (-1, earliest) if every queued action is WAITING and still
// within its backoff window.
func (d *Dispatcher) findEligibleLocked() (int, time.Time) {
	now := time.Now()
	var earliest time.Time

	for i, a := range d.queue {
		if a.State() != action.StateWaiting || d.actionsBlock <= 0 {
			return i, time.Time{}
		}
		readyAt := a.LastAttemptAt().Add(d.actionsBlock)
		if !now.Before(readyAt) {
			return i, time.Time{}
		}
		if earliest.IsZero() || readyAt.Before(earliest) {
			earliest = readyAt
		}
	}
	return -1, earliest
}

// runStep drives one First()/Next() call on a, applies the spec §4.2
// transition table (already done inside action.Step), and either notifies
// the registry of a terminal transition or re-enqueues the action at the
// tail of the queue.
func (d *Dispatcher) runStep(a *action.Action) {
	action.BeginAttempt(a, time.Now())
	state := action.Step(a)

	if state.Terminal() {
		if d.notifier != nil {
			d.notifier.NotifyTerminal(a, state)
		}
		return
	}

	d.mu.Lock()
	block := d.actionsBlock
	d.mu.Unlock()
	if block > 0 {
		action.MarkWaiting(a)
	}
	d.Enqueue(a)
}

// QueueDepth returns the current number of pending actions, for diagnostics
// and tests.
func (d *Dispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
