// HTTP audit middleware for protected routes.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/matiasleandrokruk/llmgate/internal/api/ctxkeys"
	domainaudit "github.com/matiasleandrokruk/llmgate/internal/domain/audit"
)

// AuditLogger is the minimal contract used by AuditMiddleware.
// domainaudit.Service satisfies this interface.
type AuditLogger interface {
	Log(ctx context.Context, ev domainaudit.Event) error
}

// AuditMiddleware logs protected HTTP requests into audit_events.
// Expected order in router: AuthMiddleware -> AuditMiddleware -> handlers.
func AuditMiddleware(logger AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := r.Context().Value(ctxkeys.UserID).(string)
			if !ok || userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			action, entity := actionFromRequest(r.Method, r.URL.Path)
			details, _ := json.Marshal(map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": recorder.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			_ = logger.Log(r.Context(), domainaudit.Event{
				ActorID: userID,
				Action:  action,
				Entity:  entity,
				Details: details,
				Outcome: outcomeFromStatus(recorder.statusCode),
			})
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func outcomeFromStatus(statusCode int) domainaudit.Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return domainaudit.OutcomeSuccess
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return domainaudit.OutcomeDenied
	default:
		return domainaudit.OutcomeError
	}
}

// actionFromRequest derives an audit action name and entity from the route.
//
//	POST /api/v1/chat                    → chat.dispatch, ""
//	POST /api/v1/plugins/foo/enable      → plugin.enable, "foo"
//	POST /api/v1/plugins/enable_all      → plugin.enable_all, ""
//	POST /api/v1/reactions               → reaction.record, ""
func actionFromRequest(method, path string) (string, string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 3 || segments[0] != "api" || segments[1] != "v1" {
		return strings.ToLower(method) + "_request", ""
	}

	switch segments[2] {
	case "chat":
		return "chat.dispatch", ""
	case "plugins":
		return pluginAction(method, segments[3:])
	case "reactions":
		if method == http.MethodPost {
			return "reaction.record", ""
		}
		return "reaction.query", ""
	case "providers":
		return "provider.list", ""
	default:
		return strings.ToLower(method) + "_request", ""
	}
}

func pluginAction(method string, rest []string) (string, string) {
	if len(rest) == 0 {
		return "plugin.list", ""
	}
	if len(rest) == 1 {
		// enable_all / disable_all
		return "plugin." + rest[0], ""
	}
	// {name}/enable or {name}/disable
	return "plugin." + rest[1], rest[0]
}
