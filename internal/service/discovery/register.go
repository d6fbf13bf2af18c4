package discovery

import (
	"github.com/go-chi/chi/v5"

	"github.com/kindredapp/kindred-backend/internal/app"
)

// Registrar ties the discovery service into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the discovery service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the discovery routes to the router.
func (r *Registrar) Register(router chi.Router) {
	h := NewHandler(NewService(r.appCtx))
	router.Get("/discovery/feed", h.GetFeed)
	router.Get("/profiles/{userID}", h.GetProfile)
}
