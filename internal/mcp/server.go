// Package mcp exposes retrieval over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gragdev/grag/domain/fault"
	"github.com/gragdev/grag/domain/retrieval"
	"github.com/gragdev/grag/internal/log"
)

// ToolName is the single tool this server registers.
const ToolName = "graph_retrieve"

// Retriever answers retrieval queries for the tool handler.
type Retriever interface {
	Retrieve(ctx context.Context, text string, limit int) (retrieval.Result, error)
}

// Server wraps the MCP server with the graph_retrieve tool. Every tool
// invocation gets a fresh request ID that appears in both the logs and the
// response envelope.
type Server struct {
	mcpServer      *server.MCPServer
	retriever      Retriever
	perCallTimeout time.Duration
	draining       atomic.Bool
	logger         *log.Logger
}

// NewServer creates an MCP server serving graph_retrieve. A non-positive
// perCallTimeout disables the per-invocation deadline.
func NewServer(name, version string, retriever Retriever, perCallTimeout time.Duration, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		retriever:      retriever,
		perCallTimeout: perCallTimeout,
		logger:         logger.Component("mcp"),
	}

	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)

	tool := mcp.NewTool(ToolName,
		mcp.WithDescription("Retrieve article chunks by semantic similarity, annotated with article and author context from the knowledge graph"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The natural-language query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-50, default 5)"),
		),
	)
	mcpServer.AddTool(tool, s.handleRetrieve)

	s.mcpServer = mcpServer
	return s
}

// resultRow is one entry of the success envelope.
type resultRow struct {
	Author    string  `json:"author"`
	Article   string  `json:"article"`
	ChunkText string  `json:"chunk_text"`
	Score     float64 `json:"score"`
}

// successEnvelope is the JSON body of a successful graph_retrieve call.
type successEnvelope struct {
	Results      []resultRow `json:"results"`
	TotalResults int         `json:"total_results"`
	RequestID    string      `json:"request_id"`
}

// knownParams are the only arguments graph_retrieve accepts. Anything else
// in the request is rejected rather than silently ignored.
var knownParams = map[string]bool{
	"query": true,
	"limit": true,
}

// handleRetrieve handles one graph_retrieve invocation. All failures are
// reported in-band as a tool error carrying the failure envelope; the
// handler itself never returns a protocol error.
func (s *Server) handleRetrieve(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, retErr error) {
	requestID := log.NewRequestID()
	ctx = log.WithRequestID(ctx, requestID)

	defer func() {
		if recovered := recover(); recovered != nil {
			err := fault.FromPanic(recovered)
			s.logger.Error(ctx, "tool handler panicked", "error", err)
			result, retErr = s.failure(err, requestID), nil
		}
	}()

	if s.draining.Load() {
		return s.failure(fault.New(fault.CodeServerShutdown, "server is shutting down"), requestID), nil
	}

	args := request.GetArguments()
	for key := range args {
		if !knownParams[key] {
			return s.failure(fault.Newf(fault.CodeToolParams, "unknown parameter: %s", key), requestID), nil
		}
	}

	query, err := request.RequireString("query")
	if err != nil {
		return s.failure(fault.New(fault.CodeToolParams, "query is required and must be a string"), requestID), nil
	}
	// limit zero means absent: the retriever substitutes its default. An
	// explicitly supplied value clamps below at 1.
	limit := 0
	if rawLimit, present := args["limit"]; present {
		f, ok := rawLimit.(float64)
		if !ok {
			return s.failure(fault.New(fault.CodeToolParams, "limit must be a number"), requestID), nil
		}
		limit = int(f)
		if limit < 1 {
			limit = 1
		}
	}

	if s.perCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.perCallTimeout)
		defer cancel()
	}

	res, err := s.retriever.Retrieve(ctx, query, limit)
	if err != nil {
		return s.failure(err, requestID), nil
	}

	rows := res.Rows()
	results := make([]resultRow, len(rows))
	for i, row := range rows {
		results[i] = resultRow{
			Author:    row.Author(),
			Article:   row.Article(),
			ChunkText: row.ChunkText(),
			Score:     row.Score(),
		}
	}

	body, err := json.Marshal(successEnvelope{
		Results:      results,
		TotalResults: res.TotalResults(),
		RequestID:    requestID,
	})
	if err != nil {
		return s.failure(fault.New(fault.CodePanic, "cannot marshal results", fault.WithCause(err)), requestID), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// failure renders an error as an in-band tool error with the failure
// envelope as its text.
func (s *Server) failure(err error, requestID string) *mcp.CallToolResult {
	body, marshalErr := fault.MarshalEnvelope(err, requestID)
	if marshalErr != nil {
		return mcp.NewToolResultError(`{"error":true,"error_code":4099,"error_message":"cannot marshal failure envelope","request_id":"` + requestID + `"}`)
	}
	return mcp.NewToolResultError(string(body))
}

// StartDraining makes subsequent tool calls fail fast with a shutdown
// failure. In-flight calls are unaffected.
func (s *Server) StartDraining() {
	s.draining.Store(true)
}

// MCPServer returns the underlying MCP server for transport wiring.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
