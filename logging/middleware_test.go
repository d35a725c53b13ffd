package logging

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func loggerInto(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRequestLogger_LogsRequests(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(loggerInto(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/debug/thing?x=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status passed through, got %d", rec.Code)
	}
	logged := buf.String()
	if !strings.Contains(logged, "HTTP request") {
		t.Fatalf("Expected request logged, got: %s", logged)
	}
	if !strings.Contains(logged, "status_code=418") {
		t.Errorf("Expected captured status code in log, got: %s", logged)
	}
	if !strings.Contains(logged, "path=/debug/thing") {
		t.Errorf("Expected path in log, got: %s", logged)
	}
}

// Scrape endpoints are polled constantly and must not flood the log.
func TestRequestLogger_SkipsScrapeEndpoints(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(loggerInto(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/metrics", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected %s served, got %d", path, rec.Code)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no log output for scrape endpoints, got: %s", buf.String())
	}
}

func TestResponseWriterWrapper_CountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriterWrapper{ResponseWriter: rec, statusCode: 200}

	ww.WriteHeader(http.StatusCreated)
	ww.Write([]byte("hello"))
	ww.Write([]byte(" world"))

	if ww.statusCode != http.StatusCreated {
		t.Errorf("Expected 201, got %d", ww.statusCode)
	}
	if ww.bytesWritten != len("hello world") {
		t.Errorf("Expected %d bytes counted, got %d", len("hello world"), ww.bytesWritten)
	}
}
