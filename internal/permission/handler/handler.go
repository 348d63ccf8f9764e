// Package handler exposes the ledger over HTTP. Mutating routes expect the
// caller identity established by the auth middleware; the access check is an
// unauthenticated read so storage nodes can gate downloads without holding
// credentials.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stow/internal/permission"
	"stow/internal/policy"
	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/httputil"
	"stow/pkg/requestcontext"
)

// Service is the ledger surface the handler drives.
type Service interface {
	CheckAccess(ctx context.Context, viewer id.Identity, record id.RecordHash) (permission.Permission, error)
	Grant(ctx context.Context, caller id.Identity, record id.RecordHash, viewer id.Identity, keyReference string) error
	GrantByDelegate(ctx context.Context, caller, owner id.Identity, record id.RecordHash, viewer id.Identity, keyReference string) error
	GrantWithPolicies(ctx context.Context, caller id.Identity, record id.RecordHash, viewer id.Identity, keyReference string, evaluators []policy.Evaluator) error
	Revoke(ctx context.Context, caller id.Identity, record id.RecordHash, viewer id.Identity) error
	RevokeByDelegate(ctx context.Context, caller, owner id.Identity, record id.RecordHash, viewer id.Identity) error
}

type Handler struct {
	service    Service
	evaluators map[string]policy.Evaluator
	logger     *slog.Logger
}

// New creates the handler. evaluators maps policy names accepted in
// policy-gated grant requests to their evaluator implementations.
func New(service Service, evaluators map[string]policy.Evaluator, logger *slog.Logger) *Handler {
	return &Handler{service: service, evaluators: evaluators, logger: logger}
}

// RegisterPublic mounts the unauthenticated read routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/permissions/{record}/{viewer}", h.checkAccess)
}

// Register mounts the authenticated mutation routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/permissions/grant", h.grant)
	r.Post("/permissions/grant-delegated", h.grantDelegated)
	r.Post("/permissions/grant-policied", h.grantPolicied)
	r.Post("/permissions/revoke", h.revoke)
	r.Post("/permissions/revoke-delegated", h.revokeDelegated)
}

type checkAccessResponse struct {
	CanAccess    bool   `json:"can_access"`
	KeyReference string `json:"key_reference,omitempty"`
}

func (h *Handler) checkAccess(w http.ResponseWriter, r *http.Request) {
	record, err := id.ParseRecordHash(chi.URLParam(r, "record"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	viewer, err := id.ParseIdentity(chi.URLParam(r, "viewer"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.CheckAccess(r.Context(), viewer, record)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "access check failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, checkAccessResponse{
		CanAccess:    p.CanAccess,
		KeyReference: p.KeyReference,
	})
}

type grantRequest struct {
	Record       string `json:"record"`
	Viewer       string `json:"viewer"`
	KeyReference string `json:"key_reference"`
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, viewer, err := parsePair(req.Record, req.Viewer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.service.Grant(r.Context(), caller, record, viewer, req.KeyReference); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type delegatedGrantRequest struct {
	Owner        string `json:"owner"`
	Record       string `json:"record"`
	Viewer       string `json:"viewer"`
	KeyReference string `json:"key_reference"`
}

func (h *Handler) grantDelegated(w http.ResponseWriter, r *http.Request) {
	var req delegatedGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	owner, err := id.ParseIdentity(req.Owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, viewer, err := parsePair(req.Record, req.Viewer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.service.GrantByDelegate(r.Context(), caller, owner, record, viewer, req.KeyReference); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type policiedGrantRequest struct {
	Record       string   `json:"record"`
	Viewer       string   `json:"viewer"`
	KeyReference string   `json:"key_reference"`
	Policies     []string `json:"policies"`
}

func (h *Handler) grantPolicied(w http.ResponseWriter, r *http.Request) {
	var req policiedGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, viewer, err := parsePair(req.Record, req.Viewer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	evaluators := make([]policy.Evaluator, 0, len(req.Policies))
	for _, name := range req.Policies {
		evaluator, ok := h.evaluators[name]
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown policy: "+name))
			return
		}
		evaluators = append(evaluators, evaluator)
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.service.GrantWithPolicies(r.Context(), caller, record, viewer, req.KeyReference, evaluators); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type revokeRequest struct {
	Record string `json:"record"`
	Viewer string `json:"viewer"`
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, viewer, err := parsePair(req.Record, req.Viewer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.service.Revoke(r.Context(), caller, record, viewer); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type delegatedRevokeRequest struct {
	Owner  string `json:"owner"`
	Record string `json:"record"`
	Viewer string `json:"viewer"`
}

func (h *Handler) revokeDelegated(w http.ResponseWriter, r *http.Request) {
	var req delegatedRevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	owner, err := id.ParseIdentity(req.Owner)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, viewer, err := parsePair(req.Record, req.Viewer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Caller(r.Context())
	if err := h.service.RevokeByDelegate(r.Context(), caller, owner, record, viewer); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parsePair(rawRecord, rawViewer string) (id.RecordHash, id.Identity, error) {
	record, err := id.ParseRecordHash(rawRecord)
	if err != nil {
		return id.RecordHash{}, id.ZeroIdentity, err
	}
	viewer, err := id.ParseIdentity(rawViewer)
	if err != nil {
		return id.RecordHash{}, id.ZeroIdentity, err
	}
	return record, viewer, nil
}
