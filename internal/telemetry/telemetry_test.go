package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUpstreamRequest(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("report", "ok"))
	bytesBefore := testutil.ToFloat64(upstreamBytesTotal.WithLabelValues("report"))

	ObserveUpstreamRequest("report", "ok", 120*time.Millisecond, 2048)

	if got := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("report", "ok")); got != before+1 {
		t.Errorf("expected counter %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(upstreamBytesTotal.WithLabelValues("report")); got != bytesBefore+2048 {
		t.Errorf("expected bytes %v, got %v", bytesBefore+2048, got)
	}
}

func TestObserveUpstreamRequestErrorSkipsHistogram(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("page", "error"))

	// No duration and no bytes on a failed fetch.
	ObserveUpstreamRequest("page", "error", 0, 0)

	if got := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("page", "error")); got != before+1 {
		t.Errorf("expected counter %v, got %v", before+1, got)
	}
}

func TestObserveExtractionAndCacheEvents(t *testing.T) {
	extBefore := testutil.ToFloat64(extractionsTotal.WithLabelValues("success"))
	hitBefore := testutil.ToFloat64(cacheEventsTotal.WithLabelValues("hit"))

	ObserveExtraction("success")
	ObserveCacheEvent("hit")

	if got := testutil.ToFloat64(extractionsTotal.WithLabelValues("success")); got != extBefore+1 {
		t.Errorf("expected extractions %v, got %v", extBefore+1, got)
	}
	if got := testutil.ToFloat64(cacheEventsTotal.WithLabelValues("hit")); got != hitBefore+1 {
		t.Errorf("expected cache hits %v, got %v", hitBefore+1, got)
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418"))

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/prices", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/prices", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418")); got != before+1 {
		t.Errorf("expected http counter %v, got %v", before+1, got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected a metrics exposition body")
	}
}
