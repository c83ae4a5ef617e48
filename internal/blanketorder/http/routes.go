package blanketorderhttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the form session endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/", h.open)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.show)
		r.Delete("/", h.close)
		r.Put("/fields/{field}", h.setField)
		r.Post("/items", h.addRow)
		r.Put("/items/{row}/{field}", h.setRowField)
		r.Post("/refresh", h.refresh)
		r.Post("/buttons/{key}", h.clickButton)
		r.Get("/queries/{field}", h.query)
	})
}
