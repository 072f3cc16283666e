// Package metrics instruments the dispatcher and registry with optional
// Prometheus collectors. The core scheduler depends only on the Recorder
// interface, so wiring a real prometheus.Registry is opt-in.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder receives scheduler lifecycle events. All methods must be safe
// for concurrent use.
type Recorder interface {
	ActionAdmitted()
	ActionCompleted()
	ActionFailed()
	ActionsEvicted(n int)
	QueueDepth(n int)
	WorkersActive(n int)
}

// NoOp is the zero-cost default Recorder used when no Prometheus registry
// is supplied.
type NoOp struct{}

func (NoOp) ActionAdmitted()     {}
func (NoOp) ActionCompleted()    {}
func (NoOp) ActionFailed()       {}
func (NoOp) ActionsEvicted(int)  {}
func (NoOp) QueueDepth(int)      {}
func (NoOp) WorkersActive(int)   {}

// Prometheus is a Recorder backed by standard client_golang collectors.
type Prometheus struct {
	admitted  prometheus.Counter
	completed prometheus.Counter
	failed    prometheus.Counter
	evicted   prometheus.Counter
	queue     prometheus.Gauge
	workers   prometheus.Gauge
}

// NewPrometheus constructs and registers the maintenance scheduler's
// collectors on reg. Pass a dedicated *prometheus.Registry rather than the
// global default registry so repeated construction in tests doesn't panic
// on duplicate registration.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	p := &Prometheus{
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "maintenance", Name: "actions_admitted_total",
			Help: "Total number of actions admitted into the registry.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "maintenance", Name: "actions_completed_total",
			Help: "Total number of actions that reached COMPLETE.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "maintenance", Name: "actions_failed_total",
			Help: "Total number of actions that reached FAILED.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "maintenance", Name: "actions_evicted_total",
			Help: "Total number of terminal actions evicted by the grace-window policy.",
		}),
		queue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "maintenance", Name: "queue_depth",
			Help: "Number of actions currently pending in the dispatcher queue.",
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "maintenance", Name: "workers_active",
			Help: "Number of worker goroutines currently executing a step.",
		}),
	}
	reg.MustRegister(p.admitted, p.completed, p.failed, p.evicted, p.queue, p.workers)
	return p
}

func (p *Prometheus) ActionAdmitted()    { p.admitted.Inc() }
func (p *Prometheus) ActionCompleted()   { p.completed.Inc() }
func (p *Prometheus) ActionFailed()      { p.failed.Inc() }
func (p *Prometheus) ActionsEvicted(n int) { p.evicted.Add(float64(n)) }
func (p *Prometheus) QueueDepth(n int)   { p.queue.Set(float64(n)) }
func (p *Prometheus) WorkersActive(n int) { p.workers.Set(float64(n)) }
