package companies

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/blanketorder/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	directory *Directory
}

func NewHandler(logger *slog.Logger, directory *Directory) *Handler {
	return &Handler{logger: logger, directory: directory}
}

// MountRoutes registers the company endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/reload", h.Reload)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": h.directory.List()})
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.Load(r.Context()); err != nil {
		h.logger.Error("reload companies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": h.directory.List()})
}
