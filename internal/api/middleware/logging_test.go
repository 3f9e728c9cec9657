package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func logOne(t *testing.T, path string, handler http.HandlerFunc) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	wrapped := Logger(zerolog.New(&buf))(handler)
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

	entry := map[string]interface{}{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not one JSON line: %v", err)
	}
	return entry
}

func TestLoggerRecordsStatusAndRoute(t *testing.T) {
	entry := logOne(t, "/api/dms", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if entry["status"] != float64(http.StatusNotFound) {
		t.Fatalf("status: got %v", entry["status"])
	}
	if entry["path"] != "/api/dms" || entry["route"] != "/api/dms" {
		t.Fatalf("path/route: got %v / %v", entry["path"], entry["route"])
	}
}

func TestLoggerCollapsesUnknownRoutes(t *testing.T) {
	entry := logOne(t, "/api/dms/D001/extra", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if entry["route"] != "other" {
		t.Fatalf("unknown paths must collapse to other, got %v", entry["route"])
	}
	if entry["path"] != "/api/dms/D001/extra" {
		t.Fatalf("raw path must stay verbatim, got %v", entry["path"])
	}
}
