package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

func TestHealthEndpoint(t *testing.T) {
	s := New(0, zap.NewNop())

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestSummaryBeforeAnyRun(t *testing.T) {
	s := New(0, zap.NewNop())

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summary", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryAfterRun(t *testing.T) {
	s := New(0, zap.NewNop())
	s.SetSummary(registry.Summary{
		RunID:    "run-42",
		Admitted: 7,
		Started:  time.Date(2025, 7, 10, 6, 0, 0, 0, time.UTC),
	})

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got registry.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "run-42", got.RunID)
	require.Equal(t, 7, got.Admitted)
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(0, zap.NewNop())

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.String())
}
