// HTTP handlers for the plugin administration endpoints.
// Toggles are idempotent and take effect for the next dispatched message;
// in-flight pipeline runs keep the active set they started with.
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/llmgate/internal/domain/plugin"
)

// PluginAdmin is the registry contract used by the handler.
// plugin.Registry satisfies this interface.
type PluginAdmin interface {
	StatusList() []plugin.Status
	SetEnabled(name string, on bool) error
	SetAll(on bool)
}

// PluginHandler handles plugin status and toggle requests.
type PluginHandler struct {
	registry PluginAdmin
}

// NewPluginHandler creates a PluginHandler over the given registry.
func NewPluginHandler(registry PluginAdmin) *PluginHandler {
	return &PluginHandler{registry: registry}
}

type pluginListResponse struct {
	Plugins []plugin.Status `json:"plugins"`
}

// List handles GET /api/v1/plugins.
// The order of the response is the registry's registration order, which is
// also the pipeline's scan order.
func (h *PluginHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pluginListResponse{Plugins: h.registry.StatusList()})
}

// Enable handles POST /api/v1/plugins/{name}/enable.
func (h *PluginHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// Disable handles POST /api/v1/plugins/{name}/disable.
func (h *PluginHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

// toggle flips one plugin and returns the full status list so clients see
// the post-toggle state without a second request.
//
// Response codes:
//   - 200 OK: toggled (or already in the requested state — idempotent)
//   - 404 Not Found: unknown plugin name
func (h *PluginHandler) toggle(w http.ResponseWriter, r *http.Request, on bool) {
	name := chi.URLParam(r, "name")
	if err := h.registry.SetEnabled(name, on); err != nil {
		if errors.Is(err, plugin.ErrUnknownPlugin) {
			writeError(w, http.StatusNotFound, "unknown plugin: "+name)
			return
		}
		writeError(w, http.StatusInternalServerError, "plugin toggle failed")
		return
	}
	writeJSON(w, http.StatusOK, pluginListResponse{Plugins: h.registry.StatusList()})
}

// EnableAll handles POST /api/v1/plugins/enable_all.
func (h *PluginHandler) EnableAll(w http.ResponseWriter, r *http.Request) {
	h.registry.SetAll(true)
	writeJSON(w, http.StatusOK, pluginListResponse{Plugins: h.registry.StatusList()})
}

// DisableAll handles POST /api/v1/plugins/disable_all.
func (h *PluginHandler) DisableAll(w http.ResponseWriter, r *http.Request) {
	h.registry.SetAll(false)
	writeJSON(w, http.StatusOK, pluginListResponse{Plugins: h.registry.StatusList()})
}
