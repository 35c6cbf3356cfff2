package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLoggingSetsRequestID(t *testing.T) {
	handler := requestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))

	tests := []struct {
		name   string
		sent   string
		expect func(string) bool
	}{
		{"generated", "", func(id string) bool { return len(id) == 36 }},
		{"echoed", "req-42", func(id string) bool { return id == "req-42" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
			if tt.sent != "" {
				req.Header.Set("X-Request-ID", tt.sent)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("X-Request-ID"); !tt.expect(got) {
				t.Errorf("unexpected X-Request-ID %q", got)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestRequestLoggingSkipsSocketIO(t *testing.T) {
	handler := requestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(*statusRecorder); ok {
			t.Error("socket.io requests should get the raw writer")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/socket.io/?EIO=4&transport=polling", nil))

	if rec.Header().Get("X-Request-ID") != "" {
		t.Error("socket.io responses should not carry a request id")
	}
}

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)
	rw.Write([]byte("x"))
	rw.Flush()

	if rw.status != http.StatusCreated || rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got recorder %d writer %d", rw.status, rec.Code)
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap should return the wrapped writer")
	}
}

func TestRecovery(t *testing.T) {
	handler := recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
