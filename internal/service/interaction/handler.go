package interaction

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	svcErr "github.com/kindredapp/kindred-backend/internal/errors"
	"github.com/kindredapp/kindred-backend/internal/profile"
	"github.com/kindredapp/kindred-backend/internal/server"
)

var validate = validator.New()

type swipeRequest struct {
	ToUserID string `json:"to_user_id" validate:"required"`
}

type likeResponse struct {
	Token   Token `json:"token"`
	Matched bool  `json:"matched"`
}

type passResponse struct {
	Token Token `json:"token"`
}

type rewindRequest struct {
	Kind string `json:"kind" validate:"required,oneof=LIKE PASS"`
	ID   string `json:"id" validate:"required"`
}

type rewindResponse struct {
	Rewound bool `json:"rewound"`
}

type unmatchResponse struct {
	Unmatched bool `json:"unmatched"`
}

type likersResponse struct {
	Likers     []profile.Profile `json:"likers"`
	NextCursor *string           `json:"next_cursor"`
}

// Handler exposes the interaction ledger over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := server.UserIDFromContext(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	var req swipeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		server.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, matched, err := h.svc.Like(r.Context(), userID, req.ToUserID)
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}
	server.RespondJSON(w, http.StatusCreated, likeResponse{Token: token, Matched: matched})
}

func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	userID, ok := server.UserIDFromContext(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	var req swipeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		server.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.svc.Pass(r.Context(), userID, req.ToUserID)
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}
	server.RespondJSON(w, http.StatusCreated, passResponse{Token: token})
}

func (h *Handler) Rewind(w http.ResponseWriter, r *http.Request) {
	userID, ok := server.UserIDFromContext(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	var req rewindRequest
	if err := decodeAndValidate(r, &req); err != nil {
		server.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rewound, err := h.svc.Rewind(r.Context(), userID, Token{Kind: TokenKind(req.Kind), ID: req.ID})
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}
	server.RespondJSON(w, http.StatusOK, rewindResponse{Rewound: rewound})
}

func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := server.UserIDFromContext(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	otherID := chi.URLParam(r, "otherUserID")
	if otherID == "" {
		server.RespondError(w, http.StatusBadRequest, "other user id required")
		return
	}

	unmatched, err := h.svc.Unmatch(r.Context(), userID, otherID)
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}
	server.RespondJSON(w, http.StatusOK, unmatchResponse{Unmatched: unmatched})
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := server.UserIDFromContext(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	matches, err := h.svc.ListMatches(r.Context(), userID)
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (h *Handler) ListLikedMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := server.UserIDFromContext(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			server.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	var token *string
	if v := r.URL.Query().Get("cursor"); v != "" {
		token = &v
	}

	likers, nextCursor, err := h.svc.ListLikedMe(r.Context(), userID, token, limit)
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}
	server.RespondJSON(w, http.StatusOK, likersResponse{Likers: likers, NextCursor: nextCursor})
}

func (h *Handler) CountLikedMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := server.UserIDFromContext(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	count, err := h.svc.CountLikedMe(r.Context(), userID)
	if err != nil {
		server.RespondError(w, svcErr.HTTPStatus(err), err.Error())
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadBody
	}
	if err := validate.Struct(dst); err != nil {
		return errBadBody
	}
	return nil
}

var errBadBody = svcErr.InvalidArgument("invalid request payload")
