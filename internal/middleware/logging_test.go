package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// captureHandler records every slog record it receives.
type captureHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) last(t *testing.T) slog.Record {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) == 0 {
		t.Fatal("no log records captured")
	}
	return h.records[len(h.records)-1]
}

func recordAttr(r slog.Record, key string) (slog.Value, bool) {
	var v slog.Value
	var found bool
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v = a.Value
			found = true
			return false
		}
		return true
	})
	return v, found
}

func TestRequestLoggerRecordsStatusAndSize(t *testing.T) {
	capture := &captureHandler{}
	handler := RequestLogger(slog.New(capture))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"r1"}`))
		}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/reports", nil))

	rec := capture.last(t)
	if rec.Level != slog.LevelInfo {
		t.Errorf("level = %v, want info", rec.Level)
	}
	if v, ok := recordAttr(rec, "status"); !ok || v.Int64() != http.StatusCreated {
		t.Errorf("status attr = %v, want 201", v)
	}
	if v, ok := recordAttr(rec, "bytes"); !ok || v.Int64() != int64(len(`{"id":"r1"}`)) {
		t.Errorf("bytes attr = %v, want body length", v)
	}
}

func TestRequestLoggerWarnsOnClientError(t *testing.T) {
	capture := &captureHandler{}
	handler := RequestLogger(slog.New(capture))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/nope", nil))

	if got := capture.last(t).Level; got != slog.LevelWarn {
		t.Errorf("level = %v, want warn", got)
	}
}

func TestRequestLoggerErrorsOnServerError(t *testing.T) {
	capture := &captureHandler{}
	handler := RequestLogger(slog.New(capture))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	if got := capture.last(t).Level; got != slog.LevelError {
		t.Errorf("level = %v, want error", got)
	}
}

func TestRequestLoggerDemotesHealthProbes(t *testing.T) {
	capture := &captureHandler{}
	handler := RequestLogger(slog.New(capture))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := capture.last(t).Level; got != slog.LevelDebug {
		t.Errorf("level = %v, want debug", got)
	}
}
