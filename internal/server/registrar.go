package server

import "github.com/go-chi/chi/v5"

// Registrar is a common interface for wiring service routes into the router.
type Registrar interface {
	Register(r chi.Router)
}
