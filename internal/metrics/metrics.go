// Package metrics exposes Prometheus collectors for daemon requests and
// executed graph tasks.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/neoform/pkg/daemon"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure" // the worker reported the task as failed
	OutcomeAborted = "aborted" // the session ended before a completion arrived
)

// Collector holds the daemon and task collectors.
type Collector struct {
	requests    prometheus.Counter
	completions *prometheus.CounterVec
	duration    prometheus.Histogram
	pending     prometheus.Gauge
	tasks       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neoform_daemon_requests_total",
			Help: "Requests submitted to the daemon.",
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neoform_daemon_completions_total",
			Help: "Daemon requests resolved, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "neoform_daemon_request_duration_seconds",
			Help:    "Time from submission to completion of daemon requests.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neoform_daemon_pending_requests",
			Help: "Daemon requests awaiting completion.",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neoform_tasks_total",
			Help: "Graph tasks executed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	for _, col := range []prometheus.Collector{c.requests, c.completions, c.duration, c.pending, c.tasks} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DaemonHooks returns hooks that feed the daemon collectors.
func (c *Collector) DaemonHooks() daemon.Hooks {
	return daemon.Hooks{
		OnSubmit: func(int32, []string) {
			c.requests.Inc()
			c.pending.Inc()
		},
		OnComplete: func(_ int32, err error, elapsed time.Duration) {
			c.pending.Dec()
			c.completions.WithLabelValues(outcome(err)).Inc()
			c.duration.Observe(elapsed.Seconds())
		},
	}
}

// ObserveTask counts one executed graph task.
func (c *Collector) ObserveTask(kind string, err error) {
	c.tasks.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, daemon.ErrRemoteTask):
		return OutcomeFailure
	default:
		return OutcomeAborted
	}
}

// Handler serves /metrics from g and a trivial /healthz.
func Handler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}
