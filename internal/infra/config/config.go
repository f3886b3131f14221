// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally without any env
// setup, except the provider API keys (empty key = adapter still constructed,
// upstream rejects) and GATEWAY_PASSWORD_HASH (empty = token endpoint refuses
// everyone).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultSystemPrompt is the stock system message pinned at the front of
// every conversation. German, matching the deployment this gateway grew out
// of; override with SYSTEM_PROMPT.
const defaultSystemPrompt = `Sie sind ein hilfreicher Assistent.
Dies ist ein Instant-Messaging-Chat, also halten Sie Ihre Antworten kurz und präzise. Geben Sie aber eine ausführliche Antwort, wenn Sie dem Nutzer damit am besten helfen können.
Zum Beispiel, wenn der Benutzer eine einfache Frage gestellt hat, ist eine kurze Antwort vorzuziehen. Wenn der Benutzer jedoch eine komplizierte E-Mail schreiben möchte, schreiben Sie sie vollständig.
Oft ist es hilfreich, dem Benutzer Fragen zu stellen, um ihm einen maßgeschneiderten Rat zu geben oder das Thema zu vertiefen.
Aber der Benutzer tippt nicht gerne, also versuchen Sie, unnötige Fragen zu vermeiden. Und es ist besser, eine Frage zu stellen, NACHDEM Sie dem Nutzer bereits geholfen haben, als eine Option zum Weitermachen.
Verwenden Sie die Sprache des Benutzers, es sei denn, eine Aufgabe erfordert etwas anderes.`

// Config holds runtime configuration for llmgate.
type Config struct {
	// Routing
	DefaultProvider string // DEFAULT_PROVIDER — default: "openai"

	// Provider endpoints and credentials
	OpenAIBaseURL    string // OPENAI_BASE_URL — default: "https://api.openai.com"
	OpenAIAPIKey     string // OPENAI_API_KEY
	OpenAIModel      string // OPENAI_MODEL — default: "gpt-4o"
	AnthropicBaseURL string // ANTHROPIC_BASE_URL — default: "https://api.anthropic.com"
	AnthropicAPIKey  string // ANTHROPIC_API_KEY
	AnthropicModel   string // ANTHROPIC_MODEL — default: "claude-sonnet-4-20250514"
	GeminiBaseURL    string // GEMINI_BASE_URL — default: "https://generativelanguage.googleapis.com"
	GeminiAPIKey     string // GEMINI_API_KEY
	GeminiModel      string // GEMINI_MODEL — default: "gemini-2.0-flash"

	// Conversation and admission limits
	MaxMessages    int   // MAX_MESSAGES — default: 100 (history bound incl. system prompt)
	MaxMediaItems  int   // MAX_MEDIA_ITEMS — default: 1 (albums rejected)
	MaxMediaSizeMB int64 // MAX_MEDIA_SIZE_MB — default: 30

	// Rate limiting (fixed window per user)
	RateLimitWindow   time.Duration // RATE_LIMIT_WINDOW_SECONDS — default: 60
	RateLimitMaxCalls int           // RATE_LIMIT_MAX_CALLS — default: 10

	// Dispatch
	RequestTimeout time.Duration // REQUEST_TIMEOUT_SECONDS — default: 120
	SystemPrompt   string        // SYSTEM_PROMPT — default: defaultSystemPrompt

	// Access control
	AllowedUserIDs      []string // ALLOWED_USER_IDS — comma-separated, empty = nobody passes
	GatewayPasswordHash string   // GATEWAY_PASSWORD_HASH — bcrypt hash for /auth/token
	AdminUserIDs        []string // ADMIN_USER_IDS — users granted the admin claim

	// Files and storage
	DBPath          string // DB_PATH — default: "llmgate.db"
	CapabilityFile  string // CAPABILITY_FILE — optional YAML; empty = built-in matrix
	DisabledPlugins []string // DISABLED_PLUGINS — comma-separated names starting disabled

	// Server
	Host string // HOST — default: "0.0.0.0"
	Port int    // PORT — default: 8080
}

const (
	envKeyDefaultProvider     = "DEFAULT_PROVIDER"
	envKeyOpenAIBaseURL       = "OPENAI_BASE_URL"
	envKeyOpenAIAPIKey        = "OPENAI_API_KEY"
	envKeyOpenAIModel         = "OPENAI_MODEL"
	envKeyAnthropicBaseURL    = "ANTHROPIC_BASE_URL"
	envKeyAnthropicAPIKey     = "ANTHROPIC_API_KEY"
	envKeyAnthropicModel      = "ANTHROPIC_MODEL"
	envKeyGeminiBaseURL       = "GEMINI_BASE_URL"
	envKeyGeminiAPIKey        = "GEMINI_API_KEY"
	envKeyGeminiModel         = "GEMINI_MODEL"
	envKeyMaxMessages         = "MAX_MESSAGES"
	envKeyMaxMediaItems       = "MAX_MEDIA_ITEMS"
	envKeyMaxMediaSizeMB      = "MAX_MEDIA_SIZE_MB"
	envKeyRateLimitWindow     = "RATE_LIMIT_WINDOW_SECONDS"
	envKeyRateLimitMaxCalls   = "RATE_LIMIT_MAX_CALLS"
	envKeyRequestTimeout      = "REQUEST_TIMEOUT_SECONDS"
	envKeySystemPrompt        = "SYSTEM_PROMPT"
	envKeyAllowedUserIDs      = "ALLOWED_USER_IDS"
	envKeyGatewayPasswordHash = "GATEWAY_PASSWORD_HASH"
	envKeyAdminUserIDs        = "ADMIN_USER_IDS"
	envKeyDBPath              = "DB_PATH"
	envKeyCapabilityFile      = "CAPABILITY_FILE"
	envKeyDisabledPlugins     = "DISABLED_PLUGINS"
	envKeyHost                = "HOST"
	envKeyPort                = "PORT"
)

// Load reads configuration from environment variables, applying defaults for missing values.
func Load() Config {
	return Config{
		DefaultProvider:     envOr(envKeyDefaultProvider, "openai"),
		OpenAIBaseURL:       envOr(envKeyOpenAIBaseURL, "https://api.openai.com"),
		OpenAIAPIKey:        os.Getenv(envKeyOpenAIAPIKey),
		OpenAIModel:         envOr(envKeyOpenAIModel, "gpt-4o"),
		AnthropicBaseURL:    envOr(envKeyAnthropicBaseURL, "https://api.anthropic.com"),
		AnthropicAPIKey:     os.Getenv(envKeyAnthropicAPIKey),
		AnthropicModel:      envOr(envKeyAnthropicModel, "claude-sonnet-4-20250514"),
		GeminiBaseURL:       envOr(envKeyGeminiBaseURL, "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:        os.Getenv(envKeyGeminiAPIKey),
		GeminiModel:         envOr(envKeyGeminiModel, "gemini-2.0-flash"),
		MaxMessages:         envOrInt(envKeyMaxMessages, 100),
		MaxMediaItems:       envOrInt(envKeyMaxMediaItems, 1),
		MaxMediaSizeMB:      int64(envOrInt(envKeyMaxMediaSizeMB, 30)),
		RateLimitWindow:     time.Duration(envOrInt(envKeyRateLimitWindow, 60)) * time.Second,
		RateLimitMaxCalls:   envOrInt(envKeyRateLimitMaxCalls, 10),
		RequestTimeout:      time.Duration(envOrInt(envKeyRequestTimeout, 120)) * time.Second,
		SystemPrompt:        envOr(envKeySystemPrompt, defaultSystemPrompt),
		AllowedUserIDs:      envList(envKeyAllowedUserIDs),
		GatewayPasswordHash: os.Getenv(envKeyGatewayPasswordHash),
		AdminUserIDs:        envList(envKeyAdminUserIDs),
		DBPath:              envOr(envKeyDBPath, "llmgate.db"),
		CapabilityFile:      os.Getenv(envKeyCapabilityFile),
		DisabledPlugins:     envList(envKeyDisabledPlugins),
		Host:                envOr(envKeyHost, "0.0.0.0"),
		Port:                envOrInt(envKeyPort, 8080),
	}
}

// IsUserAllowed reports whether userID is on the allow-list.
// An empty allow-list admits nobody — a gateway with no configured users
// should refuse all chat traffic rather than serve the world.
func (c Config) IsUserAllowed(userID string) bool {
	for _, id := range c.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// PasswordHash returns the bcrypt hash the token endpoint verifies against.
func (c Config) PasswordHash() string {
	return c.GatewayPasswordHash
}

// IsUserAdmin reports whether userID holds the admin claim.
func (c Config) IsUserAdmin(userID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// InitialPluginState maps the DISABLED_PLUGINS list into the registry's
// initial enabled map (names absent from the map default to enabled).
func (c Config) InitialPluginState() map[string]bool {
	if len(c.DisabledPlugins) == 0 {
		return nil
	}
	state := make(map[string]bool, len(c.DisabledPlugins))
	for _, name := range c.DisabledPlugins {
		state[name] = false
	}
	return state
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrInt returns the integer value of the environment variable key, or
// fallback if not set or not a number.
func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envList splits a comma-separated environment variable into trimmed,
// non-empty values.
func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
