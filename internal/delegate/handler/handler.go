// Package handler exposes delegate registration over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/httputil"
	"stow/pkg/requestcontext"
)

// Service registers and checks delegate authorizations.
type Service interface {
	Register(ctx context.Context, caller, delegate id.Identity) error
	IsDelegate(ctx context.Context, owner, delegate id.Identity) (bool, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated read route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/delegates/{owner}/{delegate}", h.check)
}

// Register mounts the authenticated registration route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/delegates", h.register)
}

type registerRequest struct {
	Delegate string `json:"delegate"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	delegate, err := id.ParseIdentity(req.Delegate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.service.Register(r.Context(), caller, delegate); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkResponse struct {
	Authorized bool `json:"authorized"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	owner, err := id.ParseIdentity(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	delegate, err := id.ParseIdentity(chi.URLParam(r, "delegate"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	authorized, err := h.service.IsDelegate(r.Context(), owner, delegate)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "delegate check failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "check delegate"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, checkResponse{Authorized: authorized})
}
