// Package graph owns all interaction with the Neo4j property graph: the
// pooled driver, the vector index query, and the context expansion query.
package graph

import (
	"context"
	"sync/atomic"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/gragdev/grag/domain/fault"
	"github.com/gragdev/grag/domain/retrieval"
	"github.com/gragdev/grag/internal/log"
)

// Cypher issued by the client. Both queries are fully parameterized; user
// input never reaches the query text.
const (
	vectorSearchQuery = `
CALL db.index.vector.queryNodes($index_name, $k, $query_vector)
YIELD node, score
RETURN elementId(node) AS chunk_id, node.text AS chunk_text, score`

	expandQuery = `
UNWIND $chunk_ids AS cid
MATCH (c:Chunk) WHERE elementId(c) = cid
OPTIONAL MATCH (article:Article)-[:HAS_CHUNK]->(c)
OPTIONAL MATCH (author:Author)-[:WROTE]->(article)
RETURN cid AS chunk_id, article.title AS article_title, author.name AS author_name`
)

// connection states. Transport errors never change the state; pool
// recovery is the driver's job.
const (
	stateConnected int32 = iota + 1
	stateClosed
)

// Config holds the connection parameters for a Client.
type Config struct {
	Endpoint  string
	Username  string
	Password  string
	Database  string
	IndexName string
}

// Client wraps the Neo4j driver and its connection pool. It exposes the
// two retrieval operations and an idempotent Close.
type Client struct {
	driver    neo4j.DriverWithContext
	database  string
	indexName string
	state     atomic.Int32
	logger    *log.Logger
}

// Connect opens the pooled driver and verifies connectivity with a
// round-trip. Rejected credentials fail with 2002, anything else with 2001.
func Connect(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.Component("graph")

	driver, err := neo4j.NewDriverWithContext(
		cfg.Endpoint,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fault.New(fault.CodeGraphConnect, "cannot create graph driver", fault.WithCause(err))
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, classifyConnectError(err)
	}

	c := &Client{
		driver:    driver,
		database:  cfg.Database,
		indexName: cfg.IndexName,
		logger:    logger,
	}
	c.state.Store(stateConnected)

	logger.Info(ctx, "connected to graph",
		"endpoint", cfg.Endpoint,
		"database", cfg.Database,
		"vector_index", cfg.IndexName,
	)
	return c, nil
}

// VectorSearch queries the configured vector index for the k nearest
// chunks under cosine similarity. Scores pass through unchanged; an empty
// index yields an empty, non-error result.
func (c *Client) VectorSearch(ctx context.Context, vec []float32, k int) ([]retrieval.Hit, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}

	result, err := neo4j.ExecuteQuery(ctx, c.driver, vectorSearchQuery,
		map[string]any{
			"index_name":   c.indexName,
			"k":            k,
			"query_vector": toFloat64(vec),
		},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, classifyQueryError(err)
	}

	hits := make([]retrieval.Hit, 0, len(result.Records))
	for _, record := range result.Records {
		hit, err := hitFromRecord(record)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}

	c.logger.Debug(ctx, "vector search completed", "k", k, "hits", len(hits))
	return hits, nil
}

// Expand resolves article/author context for the given chunk IDs in a
// single query. IDs that no longer resolve to a chunk are dropped from the
// result; the caller substitutes its sentinel for missing entries.
func (c *Client) Expand(ctx context.Context, chunkIDs []string) ([]retrieval.Context, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	ids := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		ids[i] = id
	}

	result, err := neo4j.ExecuteQuery(ctx, c.driver, expandQuery,
		map[string]any{"chunk_ids": ids},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return nil, classifyQueryError(err)
	}

	contexts := make([]retrieval.Context, 0, len(result.Records))
	for _, record := range result.Records {
		chunkCtx, err := contextFromRecord(record)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, chunkCtx)
	}

	c.logger.Debug(ctx, "expand completed", "requested", len(chunkIDs), "resolved", len(contexts))
	return contexts, nil
}

// Close releases the pool and driver. Safe to call any number of times.
func (c *Client) Close(ctx context.Context) error {
	if !c.state.CompareAndSwap(stateConnected, stateClosed) {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) requireConnected() error {
	if c.state.Load() != stateConnected {
		return fault.New(fault.CodeGraphQuery, "graph client is closed")
	}
	return nil
}

// toFloat64 widens the embedding for the driver, which has no packed
// float32 list type.
func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

var _ retrieval.Graph = (*Client)(nil)
