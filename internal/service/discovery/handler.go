package discovery

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/profile"
	"github.com/kindredapp/kindred-backend/internal/server"
)

var validate = validator.New()

// feedQuery is the parsed and validated query string of a feed request.
type feedQuery struct {
	Limit      int      `validate:"min=0,max=50"`
	DistanceKm *int     `validate:"omitempty,min=1,max=20000"`
	Lat        *float64 `validate:"omitempty,min=-90,max=90"`
	Lng        *float64 `validate:"omitempty,min=-180,max=180"`
}

type feedResponse struct {
	Candidates []profile.Profile `json:"candidates"`
	NextCursor *string           `json:"next_cursor"`
}

// Handler exposes the discovery service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := server.UserIDFromContext(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	q, err := parseFeedQuery(r)
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(q); err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid feed parameters")
		return
	}
	if (q.Lat == nil) != (q.Lng == nil) {
		server.RespondError(w, http.StatusBadRequest, "lat and lng must be supplied together")
		return
	}

	params := FeedParams{
		Limit:      q.Limit,
		Cursor:     r.URL.Query().Get("cursor"),
		DistanceKm: q.DistanceKm,
		OnlyOnline: r.URL.Query().Get("only_online") == "true",
	}
	if q.Lat != nil {
		params.Location = &profile.Location{Lat: *q.Lat, Lng: *q.Lng}
	}

	candidates, nextCursor, err := h.svc.GetFeed(r.Context(), userID, params)
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}

	server.RespondJSON(w, http.StatusOK, feedResponse{Candidates: candidates, NextCursor: nextCursor})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		server.RespondError(w, http.StatusBadRequest, "user id required")
		return
	}

	p, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}
	server.RespondJSON(w, http.StatusOK, p)
}

func parseFeedQuery(r *http.Request) (feedQuery, error) {
	q := feedQuery{}
	values := r.URL.Query()

	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, errBadParam("limit")
		}
		q.Limit = n
	}
	if v := values.Get("distance_km"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, errBadParam("distance_km")
		}
		q.DistanceKm = &n
	}
	if v := values.Get("lat"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, errBadParam("lat")
		}
		q.Lat = &f
	}
	if v := values.Get("lng"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, errBadParam("lng")
		}
		q.Lng = &f
	}
	return q, nil
}

type paramError string

func (e paramError) Error() string { return string(e) + " must be numeric" }

func errBadParam(name string) error { return paramError(name) }
