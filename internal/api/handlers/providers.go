// HTTP handler for GET /api/v1/providers.
package handlers

import (
	"net/http"

	"github.com/matiasleandrokruk/llmgate/internal/domain/capability"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// ProviderHandler lists the registered providers with their capability rows.
type ProviderHandler struct {
	registry *llm.Registry
	caps     *capability.Matrix
}

// NewProviderHandler creates a ProviderHandler.
func NewProviderHandler(registry *llm.Registry, caps *capability.Matrix) *ProviderHandler {
	return &ProviderHandler{registry: registry, caps: caps}
}

type providerInfo struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	Capabilities []llm.Kind `json:"capabilities"`
}

type providerListResponse struct {
	Providers []providerInfo `json:"providers"`
}

// List handles GET /api/v1/providers.
// Capability rows come from the matrix, not the adapters — a registered
// provider with no matrix row shows an empty capability list, which is
// exactly how the gates will treat it (fail closed).
func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	var out []providerInfo
	for _, id := range h.registry.Keys() {
		info := providerInfo{ID: id, Capabilities: h.caps.Row(id)}
		if p, err := h.registry.Get(id); err == nil {
			info.Model = p.Meta().Model
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, providerListResponse{Providers: out})
}
