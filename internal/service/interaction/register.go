package interaction

import (
	"github.com/go-chi/chi/v5"

	"github.com/kindredapp/kindred-backend/internal/app"
)

// Registrar ties the interaction service into the HTTP router.
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the interaction service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the interaction routes to the router.
func (r *Registrar) Register(router chi.Router) {
	h := NewHandler(NewService(r.appCtx))
	router.Post("/interactions/like", h.Like)
	router.Post("/interactions/pass", h.Pass)
	router.Post("/interactions/rewind", h.Rewind)
	router.Get("/matches", h.ListMatches)
	router.Delete("/matches/{otherUserID}", h.Unmatch)
	router.Get("/likes/received", h.ListLikedMe)
	router.Get("/likes/received/count", h.CountLikedMe)
}
