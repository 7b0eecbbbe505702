package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"leavehub/internal/transport/http/api"
)

func TestRecovererConvertsPanicTo500(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var envelope api.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("body not an envelope: %v", err)
	}
	if envelope.Success {
		t.Fatal("expected failure envelope")
	}
	if envelope.Error == nil || envelope.Error.Code != "internal_error" {
		t.Fatalf("unexpected error payload: %+v", envelope.Error)
	}
}

func TestRecovererPassThrough(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected passthrough status, got %d", rec.Code)
	}
}
