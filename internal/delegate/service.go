package delegate

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"stow/internal/lifecycle"
	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/audit"
	txcontext "stow/pkg/platform/tx"
	"stow/pkg/requestcontext"
)

// UserAuthorizer verifies that a caller is a registered user.
type UserAuthorizer interface {
	RequireUser(ctx context.Context, caller id.Identity) error
}

// AuditPort records delegate registrations. Emission is fail-closed: if the
// event cannot be recorded the operation fails.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service registers delegates on behalf of record owners.
type Service struct {
	gate          lifecycle.Gate
	guard         UserAuthorizer
	store         Store
	auditor       AuditPort
	runner        txcontext.Runner
	registrations prometheus.Counter
	logger        *slog.Logger
}

type Option func(*Service)

// WithRegistrationCounter counts successful registrations.
func WithRegistrationCounter(c prometheus.Counter) Option {
	return func(s *Service) { s.registrations = c }
}

func NewService(gate lifecycle.Gate, guard UserAuthorizer, store Store, auditor AuditPort, runner txcontext.Runner, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gate:    gate,
		guard:   guard,
		store:   store,
		auditor: auditor,
		runner:  runner,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register authorizes delegate to act on the caller's behalf. The caller must
// be a registered user; the delegate need not be. Re-registering an existing
// delegate succeeds and is audited again.
func (s *Service) Register(ctx context.Context, caller, delegate id.Identity) error {
	paused, err := s.gate.Paused(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check pause state")
	}
	if paused {
		return dErrors.New(dErrors.CodePaused, "ledger is paused")
	}

	if delegate.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "delegate identity is required")
	}
	if delegate == caller {
		return dErrors.New(dErrors.CodeInvalidInput, "caller cannot be their own delegate")
	}

	if err := s.guard.RequireUser(ctx, caller); err != nil {
		return err
	}

	// The audit event is emitted before the authorization is written: on
	// transactional backends both commit together, and on the in-memory and
	// badger backends a failed emit then leaves no state behind.
	err = s.runner.InTx(ctx, func(ctx context.Context) error {
		event := audit.Event{
			Owner:     caller,
			Viewer:    delegate,
			Actor:     caller,
			Action:    string(audit.ActionDelegateAdded),
			RequestID: requestcontext.RequestID(ctx),
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record delegate registration")
		}
		if err := s.store.Authorize(ctx, caller, delegate); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "store delegate authorization")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.registrations != nil {
		s.registrations.Inc()
	}
	s.logger.InfoContext(ctx, "delegate registered",
		"owner", caller.String(),
		"delegate", delegate.String(),
	)
	return nil
}

// IsDelegate reports whether delegate is authorized to act for owner.
func (s *Service) IsDelegate(ctx context.Context, owner, delegate id.Identity) (bool, error) {
	return s.store.IsDelegate(ctx, owner, delegate)
}
