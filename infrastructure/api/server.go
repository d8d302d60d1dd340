// Package api hosts the MCP endpoint over HTTP alongside health probes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gragdev/grag/internal/log"
	"github.com/gragdev/grag/internal/mcp"
)

// drainGrace is how long in-flight requests get to finish after shutdown
// starts.
const drainGrace = 10 * time.Second

// Server hosts the MCP server on /mcp with health probes on /health and
// /healthz.
type Server struct {
	mcpSrv     *mcp.Server
	httpServer *http.Server
	addr       string
	logger     *log.Logger
}

// NewServer builds the HTTP server around the MCP server.
func NewServer(addr string, mcpSrv *mcp.Server, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	return &Server{
		mcpSrv: mcpSrv,
		addr:   addr,
		logger: logger.Component("api"),
	}
}

func (s *Server) router() chi.Router {
	router := chi.NewRouter()

	// No chi Timeout middleware: the MCP endpoint streams responses and
	// manages its own session state, which Timeout's ResponseWriter wrapper
	// breaks. Per-call deadlines live inside the tool handler.
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	}))
	router.Use(s.requestLogging())

	router.Get("/health", s.handleHealth)
	router.Get("/healthz", s.handleHealth)
	router.Mount("/mcp", mcpserver.NewStreamableHTTPServer(s.mcpSrv.MCPServer()))

	return router
}

// requestLogging logs one line per completed request with the status and
// timing.
func (s *Server) requestLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				s.logger.Info(r.Context(), "request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"remote_addr", r.RemoteAddr,
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ListenAndServe runs the HTTP server until the context is cancelled, then
// drains: new tool calls fail fast while in-flight requests get a grace
// period to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting http server", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "shutting down http server")
	s.mcpSrv.StartDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}
