package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/gragdev/grag/domain/fault"
	"github.com/gragdev/grag/domain/retrieval"
	"github.com/gragdev/grag/internal/log"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
	texts  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Info() retrieval.ModelInfo {
	return retrieval.NewModelInfo("fake-model", len(f.vector))
}

type fakeGraph struct {
	hits      []retrieval.Hit
	searchErr error

	contexts  []retrieval.Context
	expandErr error

	searchCalls int
	expandCalls int
	lastK       int
	lastIDs     []string
}

func (f *fakeGraph) VectorSearch(_ context.Context, _ []float32, k int) ([]retrieval.Hit, error) {
	f.searchCalls++
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeGraph) Expand(_ context.Context, chunkIDs []string) ([]retrieval.Context, error) {
	f.expandCalls++
	f.lastIDs = chunkIDs
	if f.expandErr != nil {
		return nil, f.expandErr
	}
	return f.contexts, nil
}

func (f *fakeGraph) Close(context.Context) error { return nil }

func newTestRetriever(e *fakeEmbedder, g *fakeGraph) *Retriever {
	return NewRetriever(e, g, retrieval.DefaultLimit, retrieval.MaxLimit, log.Discard())
}

func TestRetrieve_HappyPath(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	graph := &fakeGraph{
		hits: []retrieval.Hit{
			retrieval.NewHit("c1", "first chunk", 0.95),
			retrieval.NewHit("c2", "second chunk", 0.80),
		},
		contexts: []retrieval.Context{
			retrieval.NewContext("c1", "Attention Is All You Need", "Vaswani"),
			retrieval.NewContext("c2", "BERT", "Devlin"),
		},
	}

	result, err := newTestRetriever(embedder, graph).Retrieve(context.Background(), "transformer models", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := result.Rows()
	if len(rows) != 2 || result.TotalResults() != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Author() != "Vaswani" || rows[0].Article() != "Attention Is All You Need" {
		t.Errorf("row 0 = %q by %q", rows[0].Article(), rows[0].Author())
	}
	if rows[0].Score() < rows[1].Score() {
		t.Error("rows must be ordered by score descending")
	}
	if graph.lastK != 2 {
		t.Errorf("vector search k = %d, want 2", graph.lastK)
	}
	if len(graph.lastIDs) != 2 || graph.lastIDs[0] != "c1" {
		t.Errorf("expand ids = %v", graph.lastIDs)
	}
}

func TestRetrieve_EmptyQueryFailsBeforeBackends(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	graph := &fakeGraph{}

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := newTestRetriever(embedder, graph).Retrieve(context.Background(), text, 5)
		fe, ok := fault.As(err)
		if !ok || fe.Code() != fault.CodeEmptyQuery {
			t.Errorf("query %q: expected code 5001, got %v", text, err)
		}
	}
	if embedder.calls != 0 || graph.searchCalls != 0 {
		t.Errorf("backends must not be called for empty queries: embed=%d search=%d",
			embedder.calls, graph.searchCalls)
	}
}

func TestRetrieve_TrimsQueryBeforeEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	graph := &fakeGraph{}

	_, err := newTestRetriever(embedder, graph).Retrieve(context.Background(), "  padded query  ", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embedder.texts) != 1 || embedder.texts[0] != "padded query" {
		t.Errorf("embedded text = %v", embedder.texts)
	}
}

func TestRetrieve_LimitClamping(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		wantK int
	}{
		{"zero uses default", 0, retrieval.DefaultLimit},
		{"negative uses default", -3, retrieval.DefaultLimit},
		{"above cap clamps", 500, retrieval.MaxLimit},
		{"in range passes through", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := &fakeGraph{}
			r := newTestRetriever(&fakeEmbedder{vector: []float32{0.1}}, graph)
			if _, err := r.Retrieve(context.Background(), "query", tt.limit); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if graph.lastK != tt.wantK {
				t.Errorf("k = %d, want %d", graph.lastK, tt.wantK)
			}
		})
	}
}

func TestRetrieve_NoHitsSkipsExpansion(t *testing.T) {
	graph := &fakeGraph{}
	result, err := newTestRetriever(&fakeEmbedder{vector: []float32{0.1}}, graph).
		Retrieve(context.Background(), "nothing matches", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalResults() != 0 {
		t.Errorf("expected empty result, got %d rows", result.TotalResults())
	}
	if graph.expandCalls != 0 {
		t.Error("expansion must be skipped when the search returns no hits")
	}
}

func TestRetrieve_EmbedErrorPropagates(t *testing.T) {
	embedErr := fault.New(fault.CodeEmbedEncode, "encoding failed")
	graph := &fakeGraph{}

	_, err := newTestRetriever(&fakeEmbedder{err: embedErr}, graph).
		Retrieve(context.Background(), "query", 5)
	fe, ok := fault.As(err)
	if !ok || fe.Code() != fault.CodeEmbedEncode {
		t.Errorf("expected code 3002, got %v", err)
	}
	if graph.searchCalls != 0 {
		t.Error("search must not run after an embedding failure")
	}
}

func TestRetrieve_SearchErrorPropagates(t *testing.T) {
	graph := &fakeGraph{
		searchErr: fault.New(fault.CodeGraphIndexMissing, "vector index not found"),
	}

	_, err := newTestRetriever(&fakeEmbedder{vector: []float32{0.1}}, graph).
		Retrieve(context.Background(), "query", 5)
	fe, ok := fault.As(err)
	if !ok || fe.Code() != fault.CodeGraphIndexMissing {
		t.Errorf("expected code 2003, got %v", err)
	}
	if graph.expandCalls != 0 {
		t.Error("expansion must not run after a search failure")
	}
}

func TestRetrieve_ExpandErrorWrappedAsExpansionFailed(t *testing.T) {
	graph := &fakeGraph{
		hits:      []retrieval.Hit{retrieval.NewHit("c1", "text", 0.9)},
		expandErr: fault.New(fault.CodeGraphQuery, "graph query failed"),
	}

	_, err := newTestRetriever(&fakeEmbedder{vector: []float32{0.1}}, graph).
		Retrieve(context.Background(), "query", 5)
	fe, ok := fault.As(err)
	if !ok || fe.Code() != fault.CodeExpansionFailed {
		t.Fatalf("expected code 5002, got %v", err)
	}
	if fe.Details()["cause_code"] != "2004" {
		t.Errorf("details = %v, want cause_code=2004", fe.Details())
	}
}

// retrieveRecords runs one Retrieve against a JSON logger and returns the
// decoded log records whose operation is "retrieve".
func retrieveRecords(t *testing.T, embedder *fakeEmbedder, graph *fakeGraph, requestID string) []map[string]any {
	t.Helper()

	var buf bytes.Buffer
	r := NewRetriever(embedder, graph, retrieval.DefaultLimit, retrieval.MaxLimit, log.New(&buf, "json", "INFO"))

	ctx := log.WithRequestID(context.Background(), requestID)
	_, _ = r.Retrieve(ctx, "some query", 5)

	var records []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("log line is not JSON: %v: %s", err, line)
		}
		if rec["operation"] == "retrieve" {
			records = append(records, rec)
		}
	}
	return records
}

func TestRetrieve_EmitsOneOperationRecord(t *testing.T) {
	graph := &fakeGraph{
		hits:     []retrieval.Hit{retrieval.NewHit("c1", "text", 0.9)},
		contexts: []retrieval.Context{retrieval.NewContext("c1", "Title", "Author")},
	}

	records := retrieveRecords(t, &fakeEmbedder{vector: []float32{0.1}}, graph, "req-123")
	if len(records) != 1 {
		t.Fatalf("expected exactly one retrieve record, got %d", len(records))
	}
	rec := records[0]
	if rec["request_id"] != "req-123" {
		t.Errorf("request_id = %v, want req-123", rec["request_id"])
	}
	if rec["outcome"] != "ok" {
		t.Errorf("outcome = %v, want ok", rec["outcome"])
	}
	if _, present := rec["duration_ms"]; !present {
		t.Error("record must carry duration_ms")
	}
}

func TestRetrieve_EmitsOneOperationRecordOnFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: fault.New(fault.CodeEmbedEncode, "encoding failed")}

	records := retrieveRecords(t, embedder, &fakeGraph{}, "req-456")
	if len(records) != 1 {
		t.Fatalf("expected exactly one retrieve record, got %d", len(records))
	}
	rec := records[0]
	if rec["outcome"] != "error" {
		t.Errorf("outcome = %v, want error", rec["outcome"])
	}
	if rec["request_id"] != "req-456" {
		t.Errorf("request_id = %v, want req-456", rec["request_id"])
	}
}

func TestRetrieve_MissingContextGetsUnknown(t *testing.T) {
	graph := &fakeGraph{
		hits: []retrieval.Hit{retrieval.NewHit("orphan", "orphan chunk", 0.7)},
	}

	result, err := newTestRetriever(&fakeEmbedder{vector: []float32{0.1}}, graph).
		Retrieve(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := result.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Author() != retrieval.Unknown || rows[0].Article() != retrieval.Unknown {
		t.Errorf("row = %q by %q, want Unknown sentinels", rows[0].Article(), rows[0].Author())
	}
}
