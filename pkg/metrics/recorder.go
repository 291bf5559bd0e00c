// Package metrics exports simulation progress as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/physics"
)

const namespace = "nbody"

// Recorder updates its metrics after every simulation step.
type Recorder struct {
	gatherer prometheus.Gatherer

	steps    prometheus.Counter
	merges   prometheus.Counter
	live     prometheus.Gauge
	mass     prometheus.Gauge
	duration prometheus.Histogram
}

// NewRecorder registers the metrics on reg; Handler serves gatherer. A nil
// reg means a fresh registry for both. A nil gatherer falls back to reg when
// it can gather, and to the default gatherer otherwise.
func NewRecorder(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	}
	if gatherer == nil {
		if g, ok := reg.(prometheus.Gatherer); ok {
			gatherer = g
		} else {
			gatherer = prometheus.DefaultGatherer
		}
	}
	factory := promauto.With(reg)

	return &Recorder{
		gatherer: gatherer,
		steps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Number of integration steps taken.",
		}),
		merges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Number of bodies absorbed by collisions.",
		}),
		live: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_bodies",
			Help:      "Bodies with non-zero mass after the last step.",
		}),
		mass: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_mass",
			Help:      "Sum of all masses after the last step.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of one integration step.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
}

func (r *Recorder) ObserveStep(stats physics.StepStats, elapsed time.Duration, store *physics.Store) {
	r.steps.Inc()
	r.merges.Add(float64(stats.Merges))
	r.live.Set(float64(stats.Live))
	r.mass.Set(store.TotalMass())
	r.duration.Observe(elapsed.Seconds())
}

// Handler serves the recorder's gatherer in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
