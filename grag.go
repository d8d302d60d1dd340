// Package grag provides graph-backed retrieval over a Neo4j knowledge
// graph: queries are embedded, matched against a vector index, and the
// hits are annotated with article and author context from the graph.
//
// Basic usage:
//
//	client, err := grag.New(ctx,
//	    grag.WithGraph("neo4j://localhost:7687", "neo4j", os.Getenv("GRAG_GRAPH_PASSWORD")),
//	    grag.WithVectorIndex("chunk_embeddings", 384),
//	    grag.WithLocalModel("sentence-transformers/all-MiniLM-L6-v2"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	result, err := client.Retrieve(ctx, "how do transformers work", 5)
//	for _, row := range result.Rows() {
//	    fmt.Println(row.Article(), row.Author(), row.Score())
//	}
package grag

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gragdev/grag/application/service"
	"github.com/gragdev/grag/domain/retrieval"
	"github.com/gragdev/grag/infrastructure/graph"
	"github.com/gragdev/grag/infrastructure/provider"
	"github.com/gragdev/grag/internal/config"
	"github.com/gragdev/grag/internal/log"
	"github.com/gragdev/grag/internal/mcp"
)

// Version is the library version reported over MCP and by the CLI.
const Version = "0.1.0"

// Client is the main entry point for the grag library. It owns the graph
// connection and the embedding model and is safe for concurrent use.
type Client struct {
	retriever *service.Retriever
	embedder  retrieval.Embedder
	graph     *graph.Client
	cfg       config.AppConfig
	logger    *log.Logger

	closeOnce sync.Once
	closeErr  error
}

// New creates a Client from options. The graph connection is verified and
// the embedding model loaded before New returns; both failures surface as
// classified errors.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := config.NewAppConfig().Apply(toConfigOptions(opts)...)
	return NewFromConfig(ctx, cfg, loggerFromOptions(opts))
}

// NewFromConfig creates a Client from an already-assembled configuration.
// The configuration is validated first.
func NewFromConfig(ctx context.Context, cfg config.AppConfig, logger *log.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewStderr(string(cfg.LogFormat()), cfg.LogLevel())
	}

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	graphClient, err := graph.Connect(ctx, graph.Config{
		Endpoint:  cfg.GraphEndpoint(),
		Username:  cfg.GraphUsername(),
		Password:  cfg.GraphPassword(),
		Database:  cfg.GraphDatabase(),
		IndexName: cfg.IndexName(),
	}, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		retriever: service.NewRetriever(embedder, graphClient, cfg.DefaultLimit(), cfg.MaxLimit(), logger),
		embedder:  embedder,
		graph:     graphClient,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

func newEmbedder(ctx context.Context, cfg config.AppConfig) (retrieval.Embedder, error) {
	switch cfg.EmbeddingProvider() {
	case config.ProviderOpenAI:
		return provider.NewOpenAIEmbedder(ctx, provider.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey(),
			BaseURL: cfg.OpenAIBaseURL(),
			ModelID: cfg.ModelID(),
			Timeout: cfg.PerCallTimeout(),
		}, cfg.Dimension())
	default:
		return provider.NewHugotEmbedder(cfg.ModelID(), cfg.ModelDir(), cfg.Dimension())
	}
}

// Retrieve answers one query. See service.Retriever.Retrieve for the
// failure semantics.
func (c *Client) Retrieve(ctx context.Context, text string, limit int) (retrieval.Result, error) {
	return c.retriever.Retrieve(ctx, text, limit)
}

// Retriever returns the underlying retrieval service.
func (c *Client) Retriever() *service.Retriever { return c.retriever }

// ModelInfo returns the loaded embedding model's identity and dimension.
func (c *Client) ModelInfo() retrieval.ModelInfo { return c.embedder.Info() }

// Config returns the configuration the client was built from.
func (c *Client) Config() config.AppConfig { return c.cfg }

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger { return c.logger }

// MCPServer builds an MCP server exposing this client's retrieval as the
// graph_retrieve tool.
func (c *Client) MCPServer(name string) *mcp.Server {
	return mcp.NewServer(name, Version, c.retriever, c.cfg.PerCallTimeout(), c.logger)
}

// Status reports the health of the client's backends. The graph and the
// embedding model are probed concurrently; the first failure is returned.
func (c *Client) Status(ctx context.Context) (Status, error) {
	status := Status{
		ModelID:   c.embedder.Info().ModelID(),
		Dimension: c.embedder.Info().Dimension(),
		IndexName: c.cfg.IndexName(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A one-hit search against the live index proves connectivity,
		// auth, and index existence in a single round-trip.
		_, err := c.graph.VectorSearch(ctx, probeVector(c.cfg.Dimension()), 1)
		return err
	})
	g.Go(func() error {
		_, err := c.embedder.Embed(ctx, "status probe")
		return err
	})

	if err := g.Wait(); err != nil {
		return status, err
	}
	status.GraphOK = true
	status.ModelOK = true
	return status, nil
}

// probeVector returns a unit vector of the given dimension. Cosine indexes
// reject zero-norm query vectors, so the probe must carry a non-zero
// component to be valid against a healthy deployment.
func probeVector(dim int) []float32 {
	vec := make([]float32, dim)
	if dim > 0 {
		vec[0] = 1
	}
	return vec
}

// Status is the outcome of a health probe.
type Status struct {
	GraphOK   bool   `json:"graph_ok"`
	ModelOK   bool   `json:"model_ok"`
	ModelID   string `json:"model_id"`
	Dimension int    `json:"dimension"`
	IndexName string `json:"index_name"`
}

// Close releases the graph connection. Idempotent: the first call's
// outcome is returned on every subsequent call.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeErr = c.graph.Close(ctx)
	})
	return c.closeErr
}
