// Package metrics exposes scan and extraction counters to Prometheus.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leakhound"

type Collector struct {
	registry *prometheus.Registry

	rulesRun       *prometheus.CounterVec
	matches        *prometheus.CounterVec
	ruleFaults     *prometheus.CounterVec
	budgetExceeded prometheus.Counter
	truncated      prometheus.Counter
	extractSeconds prometheus.Histogram

	merges        *prometheus.CounterVec
	findings      prometheus.Gauge
	fetches       *prometheus.CounterVec
	unitsInFlight prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		rulesRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extractor", Name: "rules_run_total",
			Help: "Pattern rules executed, by category.",
		}, []string{"category"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extractor", Name: "matches_total",
			Help: "Raw matches by category and outcome.",
		}, []string{"category", "outcome"}),
		ruleFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extractor", Name: "rule_faults_total",
			Help: "Rules whose execution failed or timed out.",
		}, []string{"category"}),
		budgetExceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extractor", Name: "budget_exceeded_total",
			Help: "Extractions that ran out of wall-clock budget.",
		}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extractor", Name: "truncated_total",
			Help: "Content blobs truncated before matching.",
		}),
		extractSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "extractor", Name: "duration_seconds",
			Help:    "Time spent in one extraction call.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "merges_total",
			Help: "Accumulator merges by whether they changed the result set.",
		}, []string{"changed"}),
		findings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "session", Name: "findings",
			Help: "Findings held by the current session accumulator.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "fetches_total",
			Help: "Content fetches by outcome.",
		}, []string{"outcome"}),
		unitsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "session", Name: "units_in_flight",
			Help: "Fetch and extract units currently running.",
		}),
	}

	c.registry.MustRegister(
		c.rulesRun, c.matches, c.ruleFaults, c.budgetExceeded, c.truncated, c.extractSeconds,
		c.merges, c.findings, c.fetches, c.unitsInFlight,
	)
	return c
}

// Registry exposes the underlying registry, e.g. for testutil.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collected metrics. A nil collector serves 404.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RuleRun(category string) {
	if c == nil {
		return
	}
	c.rulesRun.WithLabelValues(category).Inc()
}

// Match records one raw match; outcome is "accepted", "rejected" or "duplicate".
func (c *Collector) Match(category, outcome string) {
	if c == nil {
		return
	}
	c.matches.WithLabelValues(category, outcome).Inc()
}

func (c *Collector) RuleFault(category string) {
	if c == nil {
		return
	}
	c.ruleFaults.WithLabelValues(category).Inc()
}

func (c *Collector) BudgetExceeded() {
	if c == nil {
		return
	}
	c.budgetExceeded.Inc()
}

func (c *Collector) Truncated() {
	if c == nil {
		return
	}
	c.truncated.Inc()
}

func (c *Collector) ObserveExtraction(d time.Duration) {
	if c == nil {
		return
	}
	c.extractSeconds.Observe(d.Seconds())
}

func (c *Collector) Merge(changed bool, total int) {
	if c == nil {
		return
	}
	label := "false"
	if changed {
		label = "true"
	}
	c.merges.WithLabelValues(label).Inc()
	c.findings.Set(float64(total))
}

func (c *Collector) Fetch(outcome string) {
	if c == nil {
		return
	}
	c.fetches.WithLabelValues(outcome).Inc()
}

func (c *Collector) UnitStarted() {
	if c == nil {
		return
	}
	c.unitsInFlight.Inc()
}

func (c *Collector) UnitDone() {
	if c == nil {
		return
	}
	c.unitsInFlight.Dec()
}
