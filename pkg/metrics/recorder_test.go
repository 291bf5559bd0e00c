package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andrewnolan13/Nbody-Simulation/pkg/physics"
)

func TestRecorder(t *testing.T) {
	store, err := physics.NewStore(
		[]physics.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}},
		make([]physics.Vec2, 2),
		[]float32{3, 0},
		[]float32{1, 0},
	)
	require.NoError(t, err)

	r := NewRecorder(nil, nil)
	r.ObserveStep(physics.StepStats{Merges: 2, Live: 5}, time.Millisecond, store)
	r.ObserveStep(physics.StepStats{Merges: 1, Live: 1}, time.Millisecond, store)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.steps))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.merges))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.live))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.mass))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestRecorderHandler(t *testing.T) {
	r := NewRecorder(nil, nil)
	r.steps.Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "nbody_steps_total 1"), body)
	assert.Contains(t, body, "nbody_step_duration_seconds_bucket")
}

func TestRecorderWrappedRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(prometheus.WrapRegistererWith(prometheus.Labels{"scenario": "solar"}, reg), reg)
	r.steps.Inc()

	n, err := testutil.GatherAndCount(reg, "nbody_steps_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `nbody_steps_total{scenario="solar"} 1`)
}

func TestRecorderGathersFromRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, nil)
	r.merges.Add(4)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "nbody_merges_total 4")
}
