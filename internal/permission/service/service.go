// Package service implements the ledger operations: checking, granting, and
// revoking viewer access to record decryption keys.
//
// Every mutating operation walks the same precondition ladder, in order:
// pause gate, input validation, caller authorization, ledger state, then (for
// policy-gated grants) the policy chain. Only when every rung holds does the
// ledger mutate, and the mutation commits together with its audit event.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stow/internal/lifecycle"
	"stow/internal/permission"
	"stow/internal/permission/metrics"
	"stow/internal/policy"
	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/audit"
	txcontext "stow/pkg/platform/tx"
	"stow/pkg/requestcontext"
)

// Authorizer checks who may mutate a record's grants.
type Authorizer interface {
	AuthorizeOwner(ctx context.Context, caller id.Identity, record id.RecordHash) error
	AuthorizeDelegate(ctx context.Context, caller, owner id.Identity, record id.RecordHash) error
}

// PolicyGateway evaluates an ordered policy chain before a gated grant.
type PolicyGateway interface {
	Evaluate(ctx context.Context, record id.RecordHash, owner, viewer id.Identity, keyReference string, evaluators []policy.Evaluator) error
}

// AuditPort records ledger transitions. Emission is fail-closed.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the access ledger.
type Service struct {
	gate     lifecycle.Gate
	guard    Authorizer
	store    permission.Store
	policies PolicyGateway
	auditor  AuditPort
	runner   txcontext.Runner
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

func New(
	gate lifecycle.Gate,
	guard Authorizer,
	store permission.Store,
	policies PolicyGateway,
	auditor AuditPort,
	runner txcontext.Runner,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		gate:     gate,
		guard:    guard,
		store:    store,
		policies: policies,
		auditor:  auditor,
		runner:   runner,
		metrics:  m,
		tracer:   otel.Tracer("stow/internal/permission/service"),
		logger:   logger,
	}
}

// CheckAccess reports whether viewer may decrypt record, and with which key
// reference. It is a pure read: no caller authorization, no pause gate, so
// existing viewers keep their keys even while the ledger is paused.
func (s *Service) CheckAccess(ctx context.Context, viewer id.Identity, record id.RecordHash) (permission.Permission, error) {
	p, err := s.store.Get(ctx, record, viewer)
	if err != nil {
		return permission.Permission{}, dErrors.Wrap(err, dErrors.CodeInternal, "read permission")
	}
	return p, nil
}

// Grant lets the record owner share the decryption key reference with viewer.
// Granting to an already-permitted viewer overwrites the stored reference,
// which is how owners rotate keys.
func (s *Service) Grant(ctx context.Context, caller id.Identity, record id.RecordHash, viewer id.Identity, keyReference string) error {
	if err := s.requireActive(ctx); err != nil {
		return s.deny(err)
	}
	if err := validateGrantInput(record, viewer, keyReference); err != nil {
		return s.deny(err)
	}
	if err := s.guard.AuthorizeOwner(ctx, caller, record); err != nil {
		return s.deny(err)
	}
	return s.grant(ctx, caller, caller, record, viewer, keyReference)
}

// GrantByDelegate lets a registered delegate grant on owner's behalf. The
// delegate must be authorized by owner, and owner must own the record.
func (s *Service) GrantByDelegate(ctx context.Context, caller, owner id.Identity, record id.RecordHash, viewer id.Identity, keyReference string) error {
	if err := s.requireActive(ctx); err != nil {
		return s.deny(err)
	}
	if err := validateGrantInput(record, viewer, keyReference); err != nil {
		return s.deny(err)
	}
	if owner.IsZero() {
		return s.deny(dErrors.New(dErrors.CodeInvalidInput, "owner identity is required"))
	}
	if err := s.guard.AuthorizeDelegate(ctx, caller, owner, record); err != nil {
		return s.deny(err)
	}
	return s.grant(ctx, caller, owner, record, viewer, keyReference)
}

// GrantWithPolicies grants only if every evaluator in the chain allows the
// share. The chain runs in order and the first rejection aborts the grant;
// each consulted evaluator leaves a policy_checked audit event.
func (s *Service) GrantWithPolicies(ctx context.Context, caller id.Identity, record id.RecordHash, viewer id.Identity, keyReference string, evaluators []policy.Evaluator) error {
	if err := s.requireActive(ctx); err != nil {
		return s.deny(err)
	}
	if err := validateGrantInput(record, viewer, keyReference); err != nil {
		return s.deny(err)
	}
	if err := s.guard.AuthorizeOwner(ctx, caller, record); err != nil {
		return s.deny(err)
	}
	if err := s.policies.Evaluate(ctx, record, caller, viewer, keyReference, evaluators); err != nil {
		return s.deny(err)
	}
	return s.grant(ctx, caller, caller, record, viewer, keyReference)
}

// Revoke withdraws viewer's access to record. Revoking a viewer with no
// active grant fails; the ledger refuses transitions that would record a
// revocation of nothing.
func (s *Service) Revoke(ctx context.Context, caller id.Identity, record id.RecordHash, viewer id.Identity) error {
	if err := s.requireActive(ctx); err != nil {
		return s.deny(err)
	}
	if err := validateRevokeInput(record, viewer); err != nil {
		return s.deny(err)
	}
	if err := s.guard.AuthorizeOwner(ctx, caller, record); err != nil {
		return s.deny(err)
	}
	return s.revoke(ctx, caller, caller, record, viewer)
}

// RevokeByDelegate withdraws access on owner's behalf.
func (s *Service) RevokeByDelegate(ctx context.Context, caller, owner id.Identity, record id.RecordHash, viewer id.Identity) error {
	if err := s.requireActive(ctx); err != nil {
		return s.deny(err)
	}
	if err := validateRevokeInput(record, viewer); err != nil {
		return s.deny(err)
	}
	if owner.IsZero() {
		return s.deny(dErrors.New(dErrors.CodeInvalidInput, "owner identity is required"))
	}
	if err := s.guard.AuthorizeDelegate(ctx, caller, owner, record); err != nil {
		return s.deny(err)
	}
	return s.revoke(ctx, caller, owner, record, viewer)
}

func (s *Service) requireActive(ctx context.Context) error {
	paused, err := s.gate.Paused(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check pause state")
	}
	if paused {
		return dErrors.New(dErrors.CodePaused, "ledger is paused")
	}
	return nil
}

func validateGrantInput(record id.RecordHash, viewer id.Identity, keyReference string) error {
	if record.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "record hash is required")
	}
	if viewer.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "viewer identity is required")
	}
	if err := id.ValidateKeyReference(keyReference); err != nil {
		return err
	}
	return nil
}

func validateRevokeInput(record id.RecordHash, viewer id.Identity) error {
	if record.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "record hash is required")
	}
	if viewer.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "viewer identity is required")
	}
	return nil
}

func (s *Service) grant(ctx context.Context, actor, owner id.Identity, record id.RecordHash, viewer id.Identity, keyReference string) error {
	ctx, span := s.tracer.Start(ctx, "ledger.grant",
		trace.WithAttributes(attribute.String("ledger.record", record.String())))
	defer span.End()

	entry := permission.Permission{
		CanAccess:    true,
		KeyReference: keyReference,
		GrantedBy:    actor,
		UpdatedAt:    requestcontext.Now(ctx),
	}
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.Set(ctx, record, viewer, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "store permission")
		}
		event := audit.Event{
			Record:       record,
			Owner:        owner,
			Viewer:       viewer,
			Actor:        actor,
			Action:       string(audit.ActionAccessGranted),
			KeyReference: keyReference,
			RequestID:    requestcontext.RequestID(ctx),
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record grant")
		}
		return nil
	})
	if err != nil {
		return s.deny(err)
	}

	s.metrics.Grants.Inc()
	s.logger.InfoContext(ctx, "access granted",
		"record", record.String(),
		"owner", owner.String(),
		"viewer", viewer.String(),
		"actor", actor.String(),
	)
	return nil
}

func (s *Service) revoke(ctx context.Context, actor, owner id.Identity, record id.RecordHash, viewer id.Identity) error {
	ctx, span := s.tracer.Start(ctx, "ledger.revoke",
		trace.WithAttributes(attribute.String("ledger.record", record.String())))
	defer span.End()

	current, err := s.store.Get(ctx, record, viewer)
	if err != nil {
		return s.deny(dErrors.Wrap(err, dErrors.CodeInternal, "read permission"))
	}
	if !current.CanAccess {
		return s.deny(dErrors.New(dErrors.CodeInvalidState, "viewer has no active grant to revoke"))
	}

	err = s.runner.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, record, viewer); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete permission")
		}
		event := audit.Event{
			Record:    record,
			Owner:     owner,
			Viewer:    viewer,
			Actor:     actor,
			Action:    string(audit.ActionAccessRevoked),
			RequestID: requestcontext.RequestID(ctx),
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record revocation")
		}
		return nil
	})
	if err != nil {
		return s.deny(err)
	}

	s.metrics.Revokes.Inc()
	s.logger.InfoContext(ctx, "access revoked",
		"record", record.String(),
		"owner", owner.String(),
		"viewer", viewer.String(),
		"actor", actor.String(),
	)
	return nil
}

// deny counts a refused operation by its error code and passes the error on.
func (s *Service) deny(err error) error {
	s.metrics.Denials.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
	return err
}
