// Package service orchestrates the retrieval flow: embed the query, run
// the vector search, expand the hits through the graph, and merge the
// results into ranked rows.
package service

import (
	"context"
	"strconv"
	"time"

	"github.com/gragdev/grag/domain/fault"
	"github.com/gragdev/grag/domain/retrieval"
	"github.com/gragdev/grag/internal/log"
)

// Retriever runs the retrieval pipeline against an embedder and a graph.
// It is safe for concurrent use when its dependencies are.
type Retriever struct {
	embedder     retrieval.Embedder
	graph        retrieval.Graph
	defaultLimit int
	maxLimit     int
	logger       *log.Logger
}

// NewRetriever creates a Retriever. Non-positive limits fall back to the
// package defaults.
func NewRetriever(embedder retrieval.Embedder, graph retrieval.Graph, defaultLimit, maxLimit int, logger *log.Logger) *Retriever {
	if logger == nil {
		logger = log.Discard()
	}
	if defaultLimit <= 0 {
		defaultLimit = retrieval.DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = retrieval.MaxLimit
	}
	return &Retriever{
		embedder:     embedder,
		graph:        graph,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger.Component("retriever"),
	}
}

// Retrieve answers one query: embed, vector-search, expand, merge.
//
// An empty or whitespace-only query fails with 5001 before any backend
// call. Zero vector hits short-circuit to an empty success without an
// expansion query. An expansion failure after a successful search is
// wrapped as 5002 with the underlying code preserved in the details; all
// other failures propagate with their original code.
func (r *Retriever) Retrieve(ctx context.Context, text string, limit int) (result retrieval.Result, err error) {
	start := time.Now()
	defer func() {
		r.logger.Operation(ctx, "retrieve", start, err,
			"limit", limit,
			"total_results", result.TotalResults(),
		)
	}()

	query := retrieval.NewQuery(text, limit, r.defaultLimit, r.maxLimit)
	if query.IsEmpty() {
		return retrieval.Result{}, fault.New(fault.CodeEmptyQuery, "query text is empty")
	}

	vector, err := r.embedder.Embed(ctx, query.Text())
	if err != nil {
		return retrieval.Result{}, err
	}

	hits, err := r.graph.VectorSearch(ctx, vector, query.Limit())
	if err != nil {
		return retrieval.Result{}, err
	}
	if len(hits) == 0 {
		return retrieval.NewResult(nil), nil
	}

	chunkIDs := make([]string, len(hits))
	for i, hit := range hits {
		chunkIDs[i] = hit.ChunkID()
	}

	contexts, err := r.graph.Expand(ctx, chunkIDs)
	if err != nil {
		return retrieval.Result{}, wrapExpandError(err)
	}

	return retrieval.NewResult(retrieval.Merge(hits, contexts)), nil
}

// wrapExpandError converts an expansion failure into 5002, keeping the
// underlying code visible in the details.
func wrapExpandError(err error) error {
	opts := []fault.Option{fault.WithCause(err)}
	if fe, ok := fault.As(err); ok {
		opts = append(opts, fault.WithDetail("cause_code", strconv.Itoa(int(fe.Code()))))
	}
	return fault.New(fault.CodeExpansionFailed, "graph expansion failed after a successful search", opts...)
}
