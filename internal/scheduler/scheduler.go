// Package scheduler assembles the maintenance action scheduler's public
// surface: the thin facade that validates and admits descriptions,
// constructs Actions via the plugin factory, and coordinates the registry,
// the dispatcher, and the host lifecycle observer.
package scheduler

import (
	"time"

	"github.com/clusterops/maintenanced/internal/action"
	"github.com/clusterops/maintenanced/internal/actionplugin"
	"github.com/clusterops/maintenanced/internal/dispatcher"
	"github.com/clusterops/maintenanced/internal/lifecycle"
	"github.com/clusterops/maintenanced/internal/logger"
	"github.com/clusterops/maintenanced/internal/metrics"
	"github.com/clusterops/maintenanced/internal/registry"
)

// Scheduler is the public entry point for the maintenance action
// subsystem. Construct one with New, register plugins against its
// Plugins() registry before the host reports ready, then drive its
// lifecycle through the returned Observer.
type Scheduler struct {
	registry   *registry.Registry
	dispatcher *dispatcher.Dispatcher
	observer   *lifecycle.Observer
	plugins    *actionplugin.Registry
	log        *logger.Logger
}

// Config are the recognized configuration inputs from spec §6.
type Config struct {
	// MaintenanceThreadsMax is the configured worker pool size, reported to
	// plugins through action.Context.Config. The pool itself is started by
	// SetMaintenanceThreadsMax, which takes the size as its argument.
	MaintenanceThreadsMax int
	// SecondsActionsBlock is the retry-backoff window, in seconds. Zero
	// disables backoff.
	SecondsActionsBlock int
	// GraceWindow is how long a terminal action is kept after it finished
	// before Evict may remove it. Zero disables eviction.
	GraceWindow time.Duration
}

// Option configures a Scheduler at construction time.
type Option func(*schedulerOptions)

type schedulerOptions struct {
	metrics metrics.Recorder
	log     *logger.Logger
}

// WithMetrics attaches a metrics recorder shared by the registry and the
// dispatcher.
func WithMetrics(m metrics.Recorder) Option {
	return func(o *schedulerOptions) { o.metrics = m }
}

// WithLogger attaches a structured logger shared by the registry and the
// dispatcher.
func WithLogger(l *logger.Logger) Option {
	return func(o *schedulerOptions) { o.log = l }
}

// New constructs a Scheduler. cfg.SecondsActionsBlock and cfg.GraceWindow
// are applied here; New itself never starts workers, per the single-shot
// startup ordering in spec §4.4. Workers start only when
// SetMaintenanceThreadsMax is called, with the count passed to it;
// cfg.MaintenanceThreadsMax is not read for that.
func New(cfg Config, opts ...Option) *Scheduler {
	o := &schedulerOptions{metrics: metrics.NoOp{}}
	for _, opt := range opts {
		opt(o)
	}

	observer := lifecycle.NewObserver()
	plugins := actionplugin.NewRegistry()

	reg := registry.New(
		plugins,
		&schedulerContext{observer: observer, cfg: cfg},
		registry.WithGraceWindow(cfg.GraceWindow),
		registry.WithMetrics(o.metrics),
		registry.WithLogger(o.log),
	)

	disp := dispatcher.New(observer, reg,
		dispatcher.WithActionsBlock(time.Duration(cfg.SecondsActionsBlock)*time.Second),
		dispatcher.WithMetrics(o.metrics),
		dispatcher.WithLogger(o.log),
	)
	reg.SetEnqueuer(disp)

	return &Scheduler{
		registry:   reg,
		dispatcher: disp,
		observer:   observer,
		plugins:    plugins,
		log:        o.log,
	}
}

// Plugins exposes the plugin factory registry so the host application can
// register its concrete action implementations before admitting work.
func (s *Scheduler) Plugins() *actionplugin.Registry {
	return s.plugins
}

// Observer exposes the host lifecycle reporter the host application must
// wire its ready/shutdown callbacks into.
func (s *Scheduler) Observer() *lifecycle.Observer {
	return s.observer
}

// AddAction validates and admits a description, delegating to the
// registry. See spec §4.3/§4.5 for the full admission contract.
func (s *Scheduler) AddAction(description *action.Description, properties map[string]any, executeNow bool) (action.Result, *action.Action, error) {
	return s.registry.Admit(description, properties, executeNow)
}

// ToStructuredDocument renders the registry's admission-ordered diagnostic
// snapshot as a neutral structured document (JSON), per spec §6.
func (s *Scheduler) ToStructuredDocument() ([]byte, error) {
	return s.registry.Serialize()
}

// Lookup returns the action with the given id, for diagnostics and tests.
func (s *Scheduler) Lookup(id int64) (*action.Action, bool) {
	return s.registry.Lookup(id)
}

// SetMaintenanceThreadsMax blocks the calling goroutine until the host has
// reported ready, then starts n worker goroutines. This sequence is
// single-shot: calling it more than once is undefined, per spec §4.4.
func (s *Scheduler) SetMaintenanceThreadsMax(n int) {
	s.dispatcher.Start(n)
}

// SetSecondsActionsBlock updates the retry-backoff window at runtime.
func (s *Scheduler) SetSecondsActionsBlock(seconds int) {
	s.dispatcher.SetActionsBlock(time.Duration(seconds) * time.Second)
}

// BeginShutdown signals the shutdown-begin edge, stops the registry from
// admitting new work, and joins every worker goroutine. Terminal and
// non-terminal actions alike remain in the registry for post-mortem
// inspection afterward.
func (s *Scheduler) BeginShutdown() {
	s.observer.BeginShutdown()
	s.registry.BeginShutdown()
	s.dispatcher.Shutdown()
}

// Evict removes terminal actions older than the configured grace window.
// Intended to be called periodically by the host application; the
// scheduler does not run its own eviction timer.
func (s *Scheduler) Evict(now time.Time) int {
	return s.registry.Evict(now)
}

// schedulerContext implements action.Context on behalf of every plugin
// constructed through this Scheduler, so plugin implementations never hold
// a raw back-pointer to the facade (spec §9).
type schedulerContext struct {
	observer *lifecycle.Observer
	cfg      Config
}

func (c *schedulerContext) NowMs() int64 {
	return time.Now().UnixMilli()
}

func (c *schedulerContext) ShutdownRequested() bool {
	return c.observer.ShuttingDown()
}

func (c *schedulerContext) Config() map[string]any {
	return map[string]any{
		"maintenanceThreadsMax": c.cfg.MaintenanceThreadsMax,
		"secondsActionsBlock":   c.cfg.SecondsActionsBlock,
	}
}
