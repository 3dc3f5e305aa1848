package testutil

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"testing"
)

// MockLogger is a test logger that captures log calls for verification.
// It implements the logger.Logger interface used by the HTTP handler.
type MockLogger struct {
	InfoCalls  []LogCall
	ErrorCalls []LogCall
}

// LogCall represents a single log method invocation
type LogCall struct {
	Msg  string
	Args []any
}

// Info implements logger.Logger
func (m *MockLogger) Info(msg string, args ...any) {
	m.InfoCalls = append(m.InfoCalls, LogCall{Msg: msg, Args: args})
}

// Error implements logger.Logger
func (m *MockLogger) Error(msg string, args ...any) {
	m.ErrorCalls = append(m.ErrorCalls, LogCall{Msg: msg, Args: args})
}

// Reset clears all captured log calls
func (m *MockLogger) Reset() {
	m.InfoCalls = nil
	m.ErrorCalls = nil
}

// AssertInfoCount verifies the number of Info calls
func (m *MockLogger) AssertInfoCount(t *testing.T, expected int) {
	t.Helper()
	if len(m.InfoCalls) != expected {
		t.Errorf("expected %d Info calls, got %d", expected, len(m.InfoCalls))
	}
}

// AssertErrorCount verifies the number of Error calls
func (m *MockLogger) AssertErrorCount(t *testing.T, expected int) {
	t.Helper()
	if len(m.ErrorCalls) != expected {
		t.Errorf("expected %d Error calls, got %d", expected, len(m.ErrorCalls))
	}
}

// CapturedRecord is a single slog record captured by CaptureHandler
type CapturedRecord struct {
	Msg   string
	Attrs []slog.Attr
}

// CaptureHandler is a slog.Handler that records everything logged through it,
// for code paths that take a *slog.Logger rather than the logger interface
type CaptureHandler struct {
	mu         sync.Mutex
	InfoCalls  []CapturedRecord
	WarnCalls  []CapturedRecord
	ErrorCalls []CapturedRecord
}

// NewTestLogger returns a slog.Logger wired to a CaptureHandler
func NewTestLogger() (*slog.Logger, *CaptureHandler) {
	h := &CaptureHandler{}
	return slog.New(h), h
}

// Enabled implements slog.Handler
func (h *CaptureHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	var attrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	rec := CapturedRecord{Msg: r.Message, Attrs: attrs}

	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case r.Level >= slog.LevelError:
		h.ErrorCalls = append(h.ErrorCalls, rec)
	case r.Level >= slog.LevelWarn:
		h.WarnCalls = append(h.WarnCalls, rec)
	default:
		h.InfoCalls = append(h.InfoCalls, rec)
	}
	return nil
}

// WithAttrs implements slog.Handler; captured records keep only per-call attrs
func (h *CaptureHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

// WithGroup implements slog.Handler
func (h *CaptureHandler) WithGroup(_ string) slog.Handler {
	return h
}

// AssertInfoCount verifies the number of info-level records
func (h *CaptureHandler) AssertInfoCount(t *testing.T, expected int) {
	t.Helper()
	if len(h.InfoCalls) != expected {
		t.Errorf("expected %d info records, got %d", expected, len(h.InfoCalls))
	}
}

// AssertErrorCount verifies the number of error-level records
func (h *CaptureHandler) AssertErrorCount(t *testing.T, expected int) {
	t.Helper()
	if len(h.ErrorCalls) != expected {
		t.Errorf("expected %d error records, got %d", expected, len(h.ErrorCalls))
	}
}

// MockMCPServer is a test MCP HTTP server
type MockMCPServer struct {
	ServeHTTPFunc func(http.ResponseWriter, *http.Request)
}

// ServeHTTP implements http.Handler
func (m *MockMCPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Handle nil receiver (shouldn't happen in practice, but tests may pass nil)
	if m == nil {
		http.Error(w, "MockMCPServer is nil", http.StatusInternalServerError)
		return
	}

	if m.ServeHTTPFunc != nil {
		m.ServeHTTPFunc(w, r)
	} else {
		// Default behavior if no func is set
		w.WriteHeader(http.StatusOK)
	}
}
