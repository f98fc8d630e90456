package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

func TestObserveCycle_Success(t *testing.T) {
	m := New()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	stats := &domain.CycleStats{
		StartedAt: start,
		EndedAt:   start.Add(3 * time.Second),
		Scanned:   10,
		Unchanged: 4,
		Indexed:   5,
		Folders:   1,
		Deleted:   2,
		Failures:  []domain.ItemError{{Path: "/a", Err: errors.New("bad")}},
	}

	m.ObserveCycle("docs", stats, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("docs", "success")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.documents.WithLabelValues("docs", "indexed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues("docs", "deleted")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.documents.WithLabelValues("docs", "unchanged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("docs")))
	assert.Equal(t, float64(stats.EndedAt.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("docs")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.cycleDuration))
}

func TestObserveCycle_Outcomes(t *testing.T) {
	m := New()

	m.ObserveCycle("docs", &domain.CycleStats{}, fmt.Errorf("scan: %w", domain.ErrCycleAborted))
	m.ObserveCycle("docs", nil, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("docs", "aborted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("docs", "failure")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.lastSuccess))
}

func TestObserveUpload(t *testing.T) {
	m := New()

	m.ObserveUpload(nil)
	m.ObserveUpload(fmt.Errorf("tags: %w", domain.ErrMalformedOverlay))
	m.ObserveUpload(errors.New("store down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("failure")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveUpload(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `fscrawler_uploads_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
