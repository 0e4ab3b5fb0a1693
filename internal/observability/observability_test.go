package observability

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestInitMetrics_ServesPrometheusEndpoint(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer shutdown(context.Background())

	if handler == nil {
		t.Fatal("expected non-nil metrics handler")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Errorf("metrics endpoint returned %d", rec.Code)
	}
}

func TestInitTracer_NoCollector(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "pipegate-test", "")
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}
