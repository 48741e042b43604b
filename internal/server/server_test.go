package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-afriwork-autoapply/internal/afriwork"
	"go-afriwork-autoapply/internal/store"
	"go-afriwork-autoapply/internal/workflow"
)

const jobID = "1da3bfc7-f753-4064-9c2d-0d1af77073d6"

type fakeApplier struct {
	got workflow.Request
	out workflow.Outcome
	err error
}

func (f *fakeApplier) Apply(_ context.Context, req workflow.Request) (workflow.Outcome, error) {
	f.got = req
	return f.out, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, applier Applier, opts ...Option) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC))
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(applier, st, opts...), st
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakeApplier{})

	w := do(s, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Afriwork Auto-Apply", decode(t, w)["system"])
}

func TestPendingRoundTrip(t *testing.T) {
	s, st := newTestServer(t, &fakeApplier{})

	w := do(s, http.MethodPost, "/api/bot/pending",
		`{"jobId":"`+jobID+`","jobTitle":"Go Developer","companyName":"Acme","coverLetter":"Dear Acme","matchedKeywords":["golang"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	rec, err := st.Load(context.Background(), "1da3bfc7")
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, rec.Status)
	assert.Equal(t, "Dear Acme", rec.CoverLetter)

	w = do(s, http.MethodGet, "/api/bot/pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["applications"], 1)

	w = do(s, http.MethodGet, "/api/applications/"+jobID, "")
	require.Equal(t, http.StatusOK, w.Code)
	app := decode(t, w)["application"].(map[string]any)
	assert.Equal(t, "Go Developer", app["job_title"])
}

func TestPending_RequiresJobID(t *testing.T) {
	s, _ := newTestServer(t, &fakeApplier{})

	w := do(s, http.MethodPost, "/api/bot/pending", `{"jobTitle":"x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetApplication_NotFound(t *testing.T) {
	s, _ := newTestServer(t, &fakeApplier{})

	w := do(s, http.MethodGet, "/api/applications/deadbeef", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListApplications_Empty(t *testing.T) {
	s, _ := newTestServer(t, &fakeApplier{})

	w := do(s, http.MethodGet, "/api/applications?status=failed", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["applications"])
}

func TestManualApply(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		applier := &fakeApplier{out: workflow.Outcome{
			Result:      afriwork.ApplicationResult{ApplicationID: "app-123"},
			Job:         afriwork.JobDetails{Title: "Go Developer", Company: "Acme"},
			CoverLetter: "Dear Acme",
		}}
		s, _ := newTestServer(t, applier, WithHandle("@am4nuel"))

		w := do(s, http.MethodPost, "/api/bot/manual-apply",
			`{"jobId":"`+jobID+`","manualCoverLetter":"Dear Acme","shareId":"ref-1"}`)

		require.Equal(t, http.StatusOK, w.Code)
		result := decode(t, w)["result"].(map[string]any)
		assert.Equal(t, "app-123", result["applicationId"])
		assert.Equal(t, "Acme", result["companyName"])

		assert.Equal(t, store.MethodManual, applier.got.Method)
		assert.Equal(t, "Dear Acme", applier.got.Application.CoverLetter)
		require.NotNil(t, applier.got.Application.Handle)
		assert.Equal(t, "@am4nuel", *applier.got.Application.Handle)
		require.NotNil(t, applier.got.Application.ReferralID)
		assert.Equal(t, "ref-1", *applier.got.Application.ReferralID)
	})

	t.Run("workflow failure is a 400", func(t *testing.T) {
		applier := &fakeApplier{err: &workflow.StageError{
			Stage: afriwork.StageSubmit,
			Err:   &afriwork.SubmissionFailed{Reason: "Already applied"},
		}}
		s, _ := newTestServer(t, applier)

		w := do(s, http.MethodPost, "/api/bot/manual-apply", `{"jobId":"`+jobID+`"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Already applied", body["error"])
		assert.Equal(t, "submit", body["stage"])
	})

	t.Run("unexpected error is a 500", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeApplier{err: errors.New("boom")})

		w := do(s, http.MethodPost, "/api/bot/manual-apply", `{"jobId":"`+jobID+`"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("missing job id", func(t *testing.T) {
		applier := &fakeApplier{}
		s, _ := newTestServer(t, applier)

		w := do(s, http.MethodPost, "/api/bot/manual-apply", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, applier.got.Application.JobID)
	})
}

func TestMetricsRoute(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("autoapply_applications_total 0"))
	})
	s, _ := newTestServer(t, &fakeApplier{}, WithMetrics(h))

	w := do(s, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "autoapply_applications_total")
}
