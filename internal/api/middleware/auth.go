// Bearer JWT AuthMiddleware plus the chat allow-list gate.
// Reads Authorization: Bearer <token>, validates it, injects user_id + admin
// into context. The allow-list is checked here — before routing, before the
// pipeline — so unauthorized users never touch conversation state or quota.
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/llmgate/internal/api/ctxkeys"
	pkgauth "github.com/matiasleandrokruk/llmgate/pkg/auth"
)

// AllowList answers whether a user may use the gateway and whether they hold
// admin rights. config.Config satisfies this interface.
type AllowList interface {
	IsUserAllowed(userID string) bool
	IsUserAdmin(userID string) bool
}

// AuthMiddleware validates the Bearer JWT token, enforces the allow-list and
// injects claims into context. Used on all /api/v1/* routes.
//
// Flow:
//  1. Read "Authorization: Bearer <token>" header
//  2. Reject if missing or not Bearer scheme → 401
//  3. Parse + validate JWT → 401 on invalid/expired
//  4. Reject users off the allow-list → 403 (the refusal echoes the user id,
//     so users can ask the operator to add them)
//  5. Inject ctxkeys.UserID and ctxkeys.Admin into context
//  6. Call next handler
func AuthMiddleware(allowList AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := pkgauth.ParseJWT(tokenString)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			if !allowList.IsUserAllowed(claims.UserID) {
				writeForbidden(w, fmt.Sprintf("No permission. Your user_id is %s.", claims.UserID))
				return
			}

			// Inject claims into context using typed keys (prevents collision)
			ctx := r.Context()
			ctx = ctxkeys.WithValue(ctx, ctxkeys.UserID, claims.UserID)
			ctx = ctxkeys.WithValue(ctx, ctxkeys.Admin, claims.Admin && allowList.IsUserAdmin(claims.UserID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose token lacks the admin claim.
// Stacked after AuthMiddleware on plugin-mutation routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, _ := r.Context().Value(ctxkeys.Admin).(bool)
		if !admin {
			writeForbidden(w, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// Returns empty string if header is missing, wrong scheme, or token is empty.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 7235)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	token := strings.TrimPrefix(header, prefix)
	token = strings.TrimSpace(token)
	return token
}

// writeUnauthorized writes a 401 JSON response.
// Uses consistent format with writeError in handlers package.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}

// writeForbidden writes a 403 JSON response.
func writeForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
