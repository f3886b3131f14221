// llmgate - chat-to-LLM gateway
// Entry point: flag handling plus the serve lifecycle (config → migrations →
// HTTP server → graceful shutdown).

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/llmgate/internal/infra/config"
	"github.com/matiasleandrokruk/llmgate/internal/infra/sqlite"
	"github.com/matiasleandrokruk/llmgate/internal/server"
	"github.com/matiasleandrokruk/llmgate/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("llmgate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	switch fs.Arg(0) {
	case "", "serve":
		return serve(out)
	default:
		fmt.Fprintf(out, "unknown command %q\n\n", fs.Arg(0)) //nolint:errcheck
		printHelp(out)
		return 2
	}
}

func serve(out io.Writer) int {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Load()

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
		return 1
	}

	if err := sqlite.MigrateUp(db); err != nil {
		log.Error().Err(err).Msg("failed to apply migrations")
		db.Close() //nolint:errcheck
		return 1
	}

	serverCfg := server.DefaultConfig()
	serverCfg.Host = cfg.Host
	serverCfg.Port = cfg.Port
	// The write timeout must outlive the slowest dispatch (provider timeout
	// plus retries); pad the configured budget.
	serverCfg.WriteTimeout = cfg.RequestTimeout + 30*time.Second

	srv, err := server.NewServer(db, serverCfg, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to build server")
		db.Close() //nolint:errcheck
		return 1
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(context.Background())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			return 1
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
			return 1
		}
	}

	return 0
}

func printHelp(out io.Writer) {
	helpText := `llmgate - chat-to-LLM gateway

Usage:
  llmgate [options] [command]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  serve        Start the gateway server (default)

Examples:
  llmgate --version
  llmgate serve`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
