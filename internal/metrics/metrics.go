// Package metrics records Prometheus metrics for plan compilations.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
)

// Recorder holds the compile metrics and observes compilation results.
type Recorder struct {
	Compilations     *prometheus.CounterVec
	CompileFailures  *prometheus.CounterVec
	PlanSteps        prometheus.Histogram
	AgentResolutions *prometheus.CounterVec
	Ungrounded       *prometheus.CounterVec
	Diagnostics      *prometheus.CounterVec
}

var _ compile.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with all metrics registered on registry.
func NewRecorder(registry prometheus.Registerer) *Recorder {
	factory := promauto.With(registry)

	return &Recorder{
		Compilations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planc_compilations_total",
				Help: "Total number of plan compilations by outcome",
			},
			[]string{"outcome"},
		),
		CompileFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planc_compile_failures_total",
				Help: "Total number of failed compilations by error kind",
			},
			[]string{"kind"},
		),
		PlanSteps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planc_plan_steps",
				Help:    "Number of steps in successfully compiled plans",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
		AgentResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planc_agent_resolutions_total",
				Help: "Agent references resolved in compiled plans by matching rule",
			},
			[]string{"confidence"},
		),
		Ungrounded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planc_ungrounded_entities_total",
				Help: "Problem statement entities missing from compiled plans by kind",
			},
			[]string{"kind"},
		),
		Diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planc_diagnostics_total",
				Help: "Non-fatal compilation diagnostics by kind",
			},
			[]string{"kind"},
		),
	}
}

// NewRegistry creates a new Prometheus registry with a Recorder on it.
func NewRegistry() (*prometheus.Registry, *Recorder) {
	reg := prometheus.NewRegistry()
	return reg, NewRecorder(reg)
}

// ObserveResult records one compilation.
func (r *Recorder) ObserveResult(res compile.Result) {
	for _, d := range res.Diagnostics {
		r.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}

	if !res.OK() {
		r.Compilations.WithLabelValues("failure").Inc()
		if res.Err != nil {
			r.CompileFailures.WithLabelValues(string(res.Err.Kind)).Inc()
		}
		return
	}

	r.Compilations.WithLabelValues("success").Inc()
	r.PlanSteps.Observe(float64(res.Graph.Len()))
	for _, n := range res.Graph.Nodes {
		r.AgentResolutions.WithLabelValues(string(n.Agent.Confidence)).Inc()
	}
	for _, w := range res.Warnings {
		r.Ungrounded.WithLabelValues(string(w.Kind)).Inc()
	}
}

// Dump writes all metrics gathered from g in the Prometheus text format.
func Dump(g prometheus.Gatherer, w io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
