package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestServeHTTPPing(t *testing.T) {
	s := NewServer(":0", false, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "pong\n" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestServeHTTPReadyDefaultsToOK(t *testing.T) {
	s := NewServer(":0", false, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestServeHTTPReadyReflectsReadyFunc(t *testing.T) {
	s := NewServer(":0", false, func() bool { return false })
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestServeHTTPMetrics(t *testing.T) {
	s := NewServer(":0", false, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestServeHTTPUnknownPathIsNotFound(t *testing.T) {
	s := NewServer(":0", false, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
