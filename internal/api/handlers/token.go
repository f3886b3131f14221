// HTTP handler for POST /auth/token (public endpoint — no AuthMiddleware).
// The gateway has one shared password; possession of it plus a user id yields
// a JWT. Whether that user id may actually chat is decided later by the
// allow-list in AuthMiddleware, so minting a token for an unknown id is
// harmless.
package handlers

import (
	"encoding/json"
	"net/http"

	pkgauth "github.com/matiasleandrokruk/llmgate/pkg/auth"
)

// TokenPolicy supplies the credential hash and the admin grant.
// config.Config satisfies this interface.
type TokenPolicy interface {
	PasswordHash() string
	IsUserAdmin(userID string) bool
}

// TokenHandler handles token issuance.
type TokenHandler struct {
	policy TokenPolicy
}

// NewTokenHandler creates a TokenHandler backed by the given policy.
func NewTokenHandler(policy TokenPolicy) *TokenHandler {
	return &TokenHandler{policy: policy}
}

// TokenRequest is the request body for POST /auth/token.
type TokenRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

// TokenResponse is the response body returned after successful issuance.
type TokenResponse struct {
	Token string `json:"token"`
	Admin bool   `json:"admin"`
}

// Issue handles POST /auth/token.
//
// Response codes:
//   - 200 OK: token issued
//   - 400 Bad Request: invalid JSON or missing required fields
//   - 401 Unauthorized: wrong password, or no password configured at all
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	// An unset hash refuses everyone: a gateway with no configured password
	// must not mint tokens.
	hash := h.policy.PasswordHash()
	if hash == "" || !pkgauth.VerifyPassword(hash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	admin := h.policy.IsUserAdmin(req.UserID)
	token, err := pkgauth.GenerateJWT(req.UserID, admin)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token, Admin: admin})
}
