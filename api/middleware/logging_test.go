package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusRecorderCapturesExplicitStatus(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	rec.WriteHeader(http.StatusTeapot)

	if rec.status != http.StatusTeapot {
		t.Fatalf("expected %d captured, got %d", http.StatusTeapot, rec.status)
	}
}

func TestStatusRecorderDefaultsToOKOnWrite(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: inner}

	if _, err := rec.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.status != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", rec.status)
	}
	if inner.Body.String() != "hello" {
		t.Fatalf("body not forwarded: %q", inner.Body.String())
	}
}

func TestLoggingPreservesHandlerResponse(t *testing.T) {
	mw := Logging(nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rewards", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if resp.Body.String() != `{"ok":true}` {
		t.Fatalf("body altered: %q", resp.Body.String())
	}
}
