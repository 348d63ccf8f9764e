package policy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/audit"
	"stow/pkg/requestcontext"
)

const (
	decisionAllowed = "allowed"
	decisionDenied  = "denied"
)

// AuditPort records one policy_checked event per evaluated policy, including
// the rejecting one.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Gateway runs evaluators in order and stops at the first rejection.
type Gateway struct {
	auditor AuditPort
	logger  *slog.Logger
	tracer  trace.Tracer
	checks  *prometheus.CounterVec
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithCheckCounter counts each policy evaluation, labeled by decision.
func WithCheckCounter(checks *prometheus.CounterVec) Option {
	return func(g *Gateway) {
		g.checks = checks
	}
}

func NewGateway(auditor AuditPort, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		auditor: auditor,
		logger:  logger,
		tracer:  otel.Tracer("stow/internal/policy"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate runs the evaluators in the order given. It returns nil when every
// evaluator allows the share (an empty chain allows vacuously), and a
// policy_rejected error naming the first evaluator that did not. Evaluators
// after the rejecting one are not consulted and leave no audit trace.
func (g *Gateway) Evaluate(ctx context.Context, record id.RecordHash, owner, viewer id.Identity, keyReference string, evaluators []Evaluator) error {
	ctx, span := g.tracer.Start(ctx, "policy.Evaluate",
		trace.WithAttributes(attribute.Int("policy.chain_length", len(evaluators))))
	defer span.End()

	for _, evaluator := range evaluators {
		allowed, reason := g.check(ctx, evaluator, record, viewer, keyReference)

		decision := decisionAllowed
		if !allowed {
			decision = decisionDenied
		}
		if g.checks != nil {
			g.checks.WithLabelValues(decision).Inc()
		}
		event := audit.Event{
			Record:       record,
			Owner:        owner,
			Viewer:       viewer,
			Actor:        owner,
			Action:       string(audit.ActionPolicyChecked),
			KeyReference: keyReference,
			Evaluator:    evaluator.ID(),
			Decision:     decision,
			Reason:       reason,
			RequestID:    requestcontext.RequestID(ctx),
		}
		if err := g.auditor.Emit(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record policy check")
		}

		if !allowed {
			span.SetAttributes(attribute.String("policy.rejected_by", evaluator.ID()))
			return dErrors.New(dErrors.CodePolicyRejected,
				fmt.Sprintf("policy %q rejected the grant", evaluator.ID()))
		}
	}
	return nil
}

// check runs one evaluator and maps every failure mode to a denial. A reason
// is returned only for denials.
func (g *Gateway) check(ctx context.Context, evaluator Evaluator, record id.RecordHash, viewer id.Identity, keyReference string) (allowed bool, reason string) {
	ctx, span := g.tracer.Start(ctx, "policy.check",
		trace.WithAttributes(attribute.String("policy.evaluator", evaluator.ID())))
	defer span.End()

	allowed, err := g.safeCheck(ctx, evaluator, record, viewer, keyReference)
	if err != nil {
		g.logger.WarnContext(ctx, "policy evaluator failed, denying",
			"evaluator", evaluator.ID(),
			"error", err,
		)
		span.SetAttributes(attribute.String("policy.decision", decisionDenied))
		return false, err.Error()
	}

	if !allowed {
		span.SetAttributes(attribute.String("policy.decision", decisionDenied))
		return false, ""
	}
	span.SetAttributes(attribute.String("policy.decision", decisionAllowed))
	return true, ""
}

// safeCheck contains evaluator panics so a misbehaving policy can only deny.
func (g *Gateway) safeCheck(ctx context.Context, evaluator Evaluator, record id.RecordHash, viewer id.Identity, keyReference string) (allowed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			allowed = false
			err = fmt.Errorf("evaluator panicked: %v", r)
		}
	}()
	return evaluator.CheckPolicy(ctx, record, viewer, keyReference)
}
