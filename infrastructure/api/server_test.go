package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gragdev/grag/domain/retrieval"
	"github.com/gragdev/grag/internal/log"
	"github.com/gragdev/grag/internal/mcp"
)

type stubRetriever struct{}

func (stubRetriever) Retrieve(context.Context, string, int) (retrieval.Result, error) {
	return retrieval.NewResult(nil), nil
}

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	mcpSrv := mcp.NewServer("grag", "test", stubRetriever{}, time.Second, log.Discard())
	return NewServer("127.0.0.1:0", mcpSrv, log.Discard()).router()
}

func TestHealthEndpoints(t *testing.T) {
	handler := testHandler(t)

	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, w.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode body: %v", path, err)
		}
		if body["status"] != "ok" {
			t.Errorf("%s: body = %v", path, body)
		}
	}
}

func TestUnknownPathIs404(t *testing.T) {
	handler := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCORSPreflightOnMCP(t *testing.T) {
	handler := testHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestShutdownStopsServer(t *testing.T) {
	mcpSrv := mcp.NewServer("grag", "test", stubRetriever{}, time.Second, log.Discard())
	srv := NewServer("127.0.0.1:0", mcpSrv, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	// Give the listener a moment to come up, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("shutdown returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
