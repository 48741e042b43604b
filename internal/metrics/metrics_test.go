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

	m.ApplicationOutcome("submitted")
	m.ApplicationOutcome("submitted")
	m.ApplicationOutcome("failed")
	m.StageFailure("auth")
	m.ChannelPost("no_match")
	m.ObserveGraphQL("ApplyToJob", 300*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.applications.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.applications.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stages.WithLabelValues("auth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsSeen.WithLabelValues("no_match")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.graphql, "autoapply_graphql_duration_seconds"))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ApplicationOutcome("already_applied")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `autoapply_applications_total{outcome="already_applied"} 1`)
}
