package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all PEC routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pec", func(r chi.Router) {
		r.Post("/sample", h.HandleSample)
		r.Post("/representations", h.HandleRepresent)
	})
}
