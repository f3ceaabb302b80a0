package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ZNE routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/zne", func(r chi.Router) {
		r.Post("/extrapolate", h.HandleExtrapolate)
		r.Get("/methods", h.HandleGetMethods)
	})
}
