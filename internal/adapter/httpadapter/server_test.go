package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bom-forecast-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
	"github.com/couchcryptid/bom-forecast-etl/internal/pipeline"
)

type mockRuns struct {
	err  error
	last *pipeline.Result
}

func (m *mockRuns) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockRuns) LastResult() (pipeline.Result, bool) {
	if m.last == nil {
		return pipeline.Result{}, false
	}
	return *m.last, true
}

func newTestServer(runs *mockRuns) *httpadapter.Server {
	return httpadapter.NewServer(":0", runs, slog.Default())
}

func get(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func savedResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:   "run-1",
		Outcome: pipeline.OutcomeSaved,
		Excerpt: domain.Excerpt{
			Profile:  "western-detailed",
			Area:     "Western",
			Text:     "Issued Wednesday morning at 6:30am.\n\nforecast: Showers.",
			Rendered: []domain.Source{domain.SourceIssueTime, domain.SourcePeriod},
			IssuedAt: time.Date(2024, 5, 1, 6, 30, 0, 0, time.FixedZone("", 10*60*60)),
		},
		FinishedAt: time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC),
	}
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(&mockRuns{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(&mockRuns{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(&mockRuns{err: fmt.Errorf("no successful run yet")}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(&mockRuns{}), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestForecastReturnsLastExcerpt(t *testing.T) {
	rec := get(newTestServer(&mockRuns{last: savedResult()}), "/forecast")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Tue, 30 Apr 2024 20:30:00 GMT", rec.Header().Get("Last-Modified"))
	assert.Equal(t, "Issued Wednesday morning at 6:30am.\n\nforecast: Showers.", rec.Body.String())
}

func TestForecastReturns404WithoutSavedExcerpt(t *testing.T) {
	tests := []struct {
		name string
		last *pipeline.Result
	}{
		{"no runs", nil},
		{"nothing to save", &pipeline.Result{Outcome: pipeline.OutcomeNothingToSave}},
		{"transfer failed", &pipeline.Result{Outcome: pipeline.OutcomeTransferFailed, Err: errors.New("dial")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestServer(&mockRuns{last: tt.last}), "/forecast")
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestStatusReportsLastRun(t *testing.T) {
	rec := get(newTestServer(&mockRuns{last: savedResult()}), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, `{
		"run_id": "run-1",
		"outcome": "saved",
		"profile": "western-detailed",
		"area": "Western",
		"sections": ["issue_time", "period"],
		"issued_at": "2024-05-01T06:30:00+10:00",
		"finished_at": "2024-05-01T07:00:00Z"
	}`, rec.Body.String())
}

func TestStatusIncludesRunError(t *testing.T) {
	last := &pipeline.Result{
		RunID:   "run-2",
		Outcome: pipeline.OutcomeTransferFailed,
		Err:     &domain.TransferError{Step: "dial", Err: errors.New("connection refused")},
	}
	rec := get(newTestServer(&mockRuns{last: last}), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "transfer_failed", body["outcome"])
	assert.Equal(t, "transfer dial: connection refused", body["error"])
	assert.Empty(t, body["sections"])
}

func TestStatusReturns404BeforeFirstRun(t *testing.T) {
	rec := get(newTestServer(&mockRuns{}), "/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
