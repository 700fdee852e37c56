package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ActivityGenerated()
	m.ActivityGenerated()
	m.ActivityGenerationFailed()
	m.ActivityGraded()
	m.ParentMutationConflict()
	m.SpellingSession(OutcomeFinished)
	m.SpellingSession(OutcomeAbandoned)
	m.SpellingSession(OutcomeAbandoned)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.activitiesGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generationFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activitiesGraded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.spellingSessions.WithLabelValues(OutcomeFinished)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.spellingSessions.WithLabelValues(OutcomeAbandoned)))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ActivityGenerated()
		m.ActivityGenerationFailed()
		m.ActivityGraded()
		m.ParentMutationConflict()
		m.SpellingSession(OutcomeFinished)
		m.ObserveGeneration("daily", time.Second)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveGeneration("spelling", 300*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `studybuddy_content_generation_seconds_count{kind="spelling"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
