package options

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-interview/backend/internal/model/interview"
	"github.com/zhouzirui/z-interview/backend/pkg/utils"
)

// Handler serves the profile form options.
type Handler struct {
	catalog interview.Store
}

// New creates the options handler.
func New(catalog interview.Store) *Handler {
	return &Handler{catalog: catalog}
}

// RegisterRoutes registers the options routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/options", h.handleListOptions)
}

func (h *Handler) handleListOptions(w http.ResponseWriter, _ *http.Request) {
	_ = utils.RespondJSON(w, http.StatusOK, h.catalog.Options())
}
