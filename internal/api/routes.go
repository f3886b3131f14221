// Route registration and go-chi router setup.
// Public routes (/health, /auth/token) vs JWT-protected routes (/api/v1/*).
// All application services are wired here from the loaded configuration.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/llmgate/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/llmgate/internal/api/middleware"
	domainaudit "github.com/matiasleandrokruk/llmgate/internal/domain/audit"
	"github.com/matiasleandrokruk/llmgate/internal/domain/capability"
	"github.com/matiasleandrokruk/llmgate/internal/domain/conversation"
	"github.com/matiasleandrokruk/llmgate/internal/domain/dispatch"
	"github.com/matiasleandrokruk/llmgate/internal/domain/plugin"
	"github.com/matiasleandrokruk/llmgate/internal/domain/ratelimit"
	"github.com/matiasleandrokruk/llmgate/internal/domain/reaction"
	"github.com/matiasleandrokruk/llmgate/internal/infra/config"
	"github.com/matiasleandrokruk/llmgate/internal/infra/eventbus"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
	"github.com/matiasleandrokruk/llmgate/internal/infra/webfetch"
)

// NewRouter creates and configures a new chi router with all routes.
// Construction fails only on configuration errors (bad capability file,
// duplicate plugin name); those are fatal at startup by design.
//
// ctx bounds the background goroutines the router spawns (the reaction
// recorder); cancelling it stops them.
func NewRouter(ctx context.Context, db *sql.DB, cfg config.Config, log zerolog.Logger) (*chi.Mux, error) {
	caps, err := loadCapabilities(cfg)
	if err != nil {
		return nil, err
	}

	providers := llm.NewRegistry(map[string]llm.Provider{
		"openai":    llm.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel),
		"anthropic": llm.NewAnthropicProvider(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, cfg.AnthropicModel),
		"gemini":    llm.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel),
	})

	// Pipeline plugins in fixed registration order — this is the scan order,
	// first applicable plugin wins.
	registry, err := plugin.NewRegistry([]plugin.Plugin{
		plugin.NewGeneratePicture(caps),
		plugin.NewListenAudio(caps),
		plugin.NewSummarizeYouTube(webfetch.NewTranscriptClient()),
		plugin.NewWatchPicture(caps),
		plugin.NewWatchVideo(caps),
		plugin.NewWebReader(webfetch.NewExtractor()),
	}, cfg.InitialPluginState())
	if err != nil {
		return nil, fmt.Errorf("api: build plugin registry: %w", err)
	}

	bus := eventbus.New()
	dispatcher := dispatch.NewDispatcher(
		conversation.NewStore(cfg.MaxMessages, cfg.SystemPrompt),
		plugin.NewPipeline(registry, log),
		ratelimit.NewLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxCalls),
		providers,
		bus,
		dispatch.Config{
			DefaultProvider: cfg.DefaultProvider,
			MaxMediaItems:   cfg.MaxMediaItems,
			MaxMediaBytes:   cfg.MaxMediaSizeMB * 1024 * 1024,
			RequestTimeout:  cfg.RequestTimeout,
		},
		log,
	)

	reactionStore := reaction.NewStore(db)
	go reaction.NewRecorder(reactionStore, log).Start(ctx, bus)

	auditService := domainaudit.NewService(db)

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES (no auth required) =====

	// Health check — unauthenticated, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Token endpoint — public, exchanges the gateway password for a JWT
	tokenHandler := handlers.NewTokenHandler(cfg)
	r.Post("/auth/token", tokenHandler.Issue)

	// ===== PROTECTED ROUTES (JWT + allow-list via AuthMiddleware) =====

	chatHandler := handlers.NewChatHandler(dispatcher)
	pluginHandler := handlers.NewPluginHandler(registry)
	providerHandler := handlers.NewProviderHandler(providers, caps)
	reactionHandler := handlers.NewReactionHandler(reactionStore, bus)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuthMiddleware(cfg))
		r.Use(apmiddleware.AuditMiddleware(auditService))

		r.Post("/chat", chatHandler.Chat) // POST /api/v1/chat

		r.Route("/plugins", func(r chi.Router) {
			r.Get("/", pluginHandler.List) // GET /api/v1/plugins

			// Mutations require the admin claim
			r.Group(func(r chi.Router) {
				r.Use(apmiddleware.RequireAdmin)
				r.Post("/enable_all", pluginHandler.EnableAll)    // POST /api/v1/plugins/enable_all
				r.Post("/disable_all", pluginHandler.DisableAll)  // POST /api/v1/plugins/disable_all
				r.Post("/{name}/enable", pluginHandler.Enable)    // POST /api/v1/plugins/{name}/enable
				r.Post("/{name}/disable", pluginHandler.Disable)  // POST /api/v1/plugins/{name}/disable
			})
		})

		r.Get("/providers", providerHandler.List) // GET /api/v1/providers

		r.Route("/reactions", func(r chi.Router) {
			r.Post("/", reactionHandler.Record)        // POST /api/v1/reactions
			r.Get("/summary", reactionHandler.Summary) // GET /api/v1/reactions/summary
		})
	})

	return r, nil
}

// loadCapabilities reads the declared capability matrix, falling back to the
// built-in one when no file is configured.
func loadCapabilities(cfg config.Config) (*capability.Matrix, error) {
	if cfg.CapabilityFile == "" {
		return capability.Default(), nil
	}
	caps, err := capability.LoadFile(cfg.CapabilityFile)
	if err != nil {
		return nil, fmt.Errorf("api: load capability file: %w", err)
	}
	return caps, nil
}
