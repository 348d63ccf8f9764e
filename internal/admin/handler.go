// Package admin exposes operator endpoints: the ledger pause switch and the
// audit trail. Routes are gated by the admin token middleware, not by JWT;
// the operators flipping the pause switch are not ledger users.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"stow/internal/lifecycle"
	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/audit"
	"stow/pkg/platform/httputil"
	"stow/pkg/requestcontext"
)

const defaultAuditLimit = 100

// AuditReader lists recorded audit events.
type AuditReader interface {
	Emit(ctx context.Context, event audit.Event) error
	ListByRecord(ctx context.Context, record id.RecordHash) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	gate    lifecycle.Gate
	auditor AuditReader
	logger  *slog.Logger
}

func New(gate lifecycle.Gate, auditor AuditReader, logger *slog.Logger) *Handler {
	return &Handler{gate: gate, auditor: auditor, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/pause", h.pause)
	r.Post("/resume", h.resume)
	r.Get("/status", h.status)
	r.Get("/audit", h.listRecent)
	r.Get("/audit/{record}", h.listByRecord)
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.gate.Pause(ctx); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "pause ledger"))
		return
	}
	if err := h.auditor.Emit(ctx, audit.Event{
		Action:    string(audit.ActionLedgerPaused),
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		// Unaudited state changes must not stand, so the gate is reverted.
		if revertErr := h.gate.Resume(ctx); revertErr != nil {
			h.logger.ErrorContext(ctx, "failed to revert unaudited pause", "error", revertErr)
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "record pause"))
		return
	}
	h.logger.WarnContext(ctx, "ledger paused")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.gate.Resume(ctx); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "resume ledger"))
		return
	}
	if err := h.auditor.Emit(ctx, audit.Event{
		Action:    string(audit.ActionLedgerResumed),
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		if revertErr := h.gate.Pause(ctx); revertErr != nil {
			h.logger.ErrorContext(ctx, "failed to revert unaudited resume", "error", revertErr)
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "record resume"))
		return
	}
	h.logger.InfoContext(ctx, "ledger resumed")
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Paused bool `json:"paused"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	paused, err := h.gate.Paused(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "read pause state"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Paused: paused})
}

type eventResponse struct {
	Category     string    `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
	Record       string    `json:"record,omitempty"`
	Owner        string    `json:"owner,omitempty"`
	Viewer       string    `json:"viewer,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	Action       string    `json:"action"`
	KeyReference string    `json:"key_reference,omitempty"`
	Evaluator    string    `json:"evaluator,omitempty"`
	Decision     string    `json:"decision,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
}

type eventsResponse struct {
	Events []eventResponse `json:"events"`
	Total  int             `json:"total"`
}

func (h *Handler) listRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := h.auditor.ListRecent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventsResponse(events))
}

func (h *Handler) listByRecord(w http.ResponseWriter, r *http.Request) {
	record, err := id.ParseRecordHash(chi.URLParam(r, "record"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.auditor.ListByRecord(r.Context(), record)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventsResponse(events))
}

func toEventsResponse(events []audit.Event) eventsResponse {
	out := eventsResponse{Events: make([]eventResponse, 0, len(events)), Total: len(events)}
	for _, event := range events {
		resp := eventResponse{
			Category:     string(event.Category),
			Timestamp:    event.Timestamp,
			Action:       event.Action,
			KeyReference: event.KeyReference,
			Evaluator:    event.Evaluator,
			Decision:     event.Decision,
			Reason:       event.Reason,
			RequestID:    event.RequestID,
		}
		if !event.Record.IsZero() {
			resp.Record = event.Record.String()
		}
		if !event.Owner.IsZero() {
			resp.Owner = event.Owner.String()
		}
		if !event.Viewer.IsZero() {
			resp.Viewer = event.Viewer.String()
		}
		if !event.Actor.IsZero() {
			resp.Actor = event.Actor.String()
		}
		out.Events = append(out.Events, resp)
	}
	return out
}
