// HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/llmgate/internal/api"
	"github.com/matiasleandrokruk/llmgate/internal/infra/config"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration.
// WriteTimeout must cover the slowest upstream call, so it is derived from
// the dispatch request timeout at wiring time; the default here assumes the
// stock 120s dispatch budget.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server wraps the HTTP server and database.
type Server struct {
	config Config
	db     *sql.DB
	http   *http.Server
	cancel context.CancelFunc // stops router background goroutines
	log    zerolog.Logger
}

// NewServer creates a new HTTP server with the given database and configuration.
func NewServer(db *sql.DB, serverCfg Config, appCfg config.Config, log zerolog.Logger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	router, err := api.NewRouter(ctx, db, appCfg, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("server: build router: %w", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port),
		Handler:      router,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  serverCfg.IdleTimeout,
	}

	return &Server{
		config: serverCfg,
		db:     db,
		http:   httpServer,
		cancel: cancel,
		log:    log.With().Str("component", "server").Logger(),
	}, nil
}

// Start starts the HTTP server and blocks until an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes the database connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down server")

	// Shutdown HTTP server
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Stop background goroutines (reaction recorder)
	s.cancel()

	// Close database connection
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("database close error: %w", err)
	}

	s.log.Info().Msg("server shutdown complete")
	return nil
}
