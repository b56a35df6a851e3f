package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vanshika/routegraph/internal/config"
	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/graph"
	"github.com/vanshika/routegraph/internal/logging"
	"github.com/vanshika/routegraph/internal/service"
)

func newTestRouter(t *testing.T, client graph.Client) (http.Handler, *engine.Graph) {
	t.Helper()
	g, err := engine.Open(context.Background())
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })

	svc := service.NewRouteService(g, nil)
	router := NewRouter(logging.Discard(), RouterDependencies{
		Health: GraphHealthService{Engine: svc, Client: client},
		API:    NewAPIHandlers(logging.Discard(), svc),
	})
	return router, g
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seedExample(t *testing.T, h http.Handler) {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/edges/batch", `[
		{"from":"s","to":"c","cost":7},
		{"from":"c","to":"e","cost":7},
		{"from":"s","to":"a","cost":2},
		{"from":"a","to":"b","cost":7},
		{"from":"b","to":"e","cost":2}
	]`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode batch response: %v", err)
	}
	if payload.Inserted != 5 {
		t.Fatalf("expected 5 inserted, got %d", payload.Inserted)
	}
}

func TestHandleShortestPath(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	seedExample(t, h)

	rec := do(t, h, http.MethodGet, "/paths/shortest?from=s&to=e", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload pathResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload.Found || payload.Weight != 11 || payload.Hops != 3 {
		t.Fatalf("unexpected path: %+v", payload)
	}
	names := make([]string, 0, len(payload.Nodes))
	for _, n := range payload.Nodes {
		names = append(names, n.Name)
	}
	if strings.Join(names, ",") != "s,a,b,e" {
		t.Fatalf("expected s,a,b,e, got %v", names)
	}
	if len(payload.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(payload.Edges))
	}
}

func TestHandleShortestPath_NoPath(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	seedExample(t, h)
	if rec := do(t, h, http.MethodPost, "/edges", `{"from":"x","to":"y","cost":1}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/paths/shortest?from=s&to=y", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload pathResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Found || len(payload.Nodes) != 0 || payload.Nodes == nil {
		t.Fatalf("expected empty not-found result, got %+v", payload)
	}
}

func TestHandleShortestPath_UnknownEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	seedExample(t, h)

	cases := map[string]string{
		"/paths/shortest?from=nope&to=e": "start node",
		"/paths/shortest?from=s&to=nope": "end node",
	}
	for target, want := range cases {
		rec := do(t, h, http.MethodGet, target, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("%s: expected %q in body, got %s", target, want, rec.Body.String())
		}
	}

	if rec := do(t, h, http.MethodGet, "/paths/shortest?from=s", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing to, got %d", rec.Code)
	}
}

func TestHandleEdges_Validation(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	cases := map[string]string{
		"negative cost": `{"from":"a","to":"b","cost":-1}`,
		"missing cost":  `{"from":"a","to":"b"}`,
		"missing name":  `{"from":"","to":"b","cost":1}`,
		"unknown field": `{"from":"a","to":"b","cost":1,"weight":2}`,
		"not json":      `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/edges", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	if rec := do(t, h, http.MethodGet, "/edges", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleEdges_Created(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/edges", `{"from":"a","to":"b","cost":2.5,"type":"ROAD"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var payload edgeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.ID != 1 || payload.FromID != 1 || payload.ToID != 2 || payload.Cost != 2.5 || payload.Type != "ROAD" {
		t.Fatalf("unexpected edge: %+v", payload)
	}
}

func TestHandleEdgesBatch_PartialFailure(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/edges/batch", `[{"from":"a","to":"b","cost":1},{"from":"b","to":"c","cost":-1}]`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var payload batchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Inserted != 1 || payload.Error == "" {
		t.Fatalf("unexpected batch response: %+v", payload)
	}
}

func TestHandleNodeAndStats(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	seedExample(t, h)

	rec := do(t, h, http.MethodGet, "/nodes/a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var node nodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &node); err != nil {
		t.Fatalf("failed to decode node: %v", err)
	}
	if node.Name != "a" || node.ID != 4 {
		t.Fatalf("unexpected node: %+v", node)
	}

	if rec := do(t, h, http.MethodGet, "/nodes/zzz", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/stats", "")
	var st statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if st.Nodes != 5 || st.Edges != 5 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestClosedGraphReturnsUnavailable(t *testing.T) {
	h, g := newTestRouter(t, nil)
	seedExample(t, h)
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, target := range []string{"/paths/shortest?from=s&to=e", "/stats", "/nodes/s", "/healthz"} {
		rec := do(t, h, http.MethodGet, target, "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", target, rec.Code)
		}
	}
	rec := do(t, h, http.MethodPost, "/edges", `{"from":"a","to":"b","cost":1}`)
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "graph closed") {
		t.Fatalf("expected 503 graph closed, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	mem := graph.NewMemoryClient()
	h, _ := newTestRouter(t, mem)

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	mem.WithConnectivityError(errors.New("bolt unreachable"))
	rec := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "degraded") {
		t.Fatalf("expected degraded status, got %s", rec.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/stats", "")
	if id := rec.Header().Get(RequestIDHeader); len(id) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if id := rec.Header().Get(RequestIDHeader); id != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", id)
	}
}

func TestLoggingMiddlewareRecordsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := loggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestIDFrom(r.Context()) != "req-1" {
			t.Errorf("request id missing from context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}

func TestCORS(t *testing.T) {
	g, err := engine.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer g.Close()
	svc := service.NewRouteService(g, nil)
	h := NewRouter(logging.Discard(), RouterDependencies{
		API:            NewAPIHandlers(logging.Discard(), svc),
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/edges", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("missing allow-origin header")
	}

	req = httptest.NewRequest(http.MethodOptions, "/edges", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown origin, got %d", rec.Code)
	}
}

func TestServerRunShutsDownOnCancel(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := New(logging.Discard(), config.HTTPConfig{ShutdownTimeout: time.Second}, h)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
