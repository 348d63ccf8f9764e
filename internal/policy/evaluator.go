// Package policy evaluates access-grant requests against an ordered chain of
// policy evaluators. Evaluation is fail-closed: an evaluator that errors,
// panics, or is unreachable counts as a rejection, and the first rejection
// aborts both the chain and the grant.
package policy

import (
	"context"

	id "stow/pkg/domain"
)

// Evaluator decides whether a single policy permits sharing a record's key
// reference with a viewer.
type Evaluator interface {
	// ID names the evaluator in audit events and error messages.
	ID() string
	CheckPolicy(ctx context.Context, record id.RecordHash, viewer id.Identity, keyReference string) (bool, error)
}

type evaluatorFunc struct {
	id string
	fn func(ctx context.Context, record id.RecordHash, viewer id.Identity, keyReference string) (bool, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
func EvaluatorFunc(evalID string, fn func(ctx context.Context, record id.RecordHash, viewer id.Identity, keyReference string) (bool, error)) Evaluator {
	return &evaluatorFunc{id: evalID, fn: fn}
}

func (e *evaluatorFunc) ID() string { return e.id }

func (e *evaluatorFunc) CheckPolicy(ctx context.Context, record id.RecordHash, viewer id.Identity, keyReference string) (bool, error) {
	return e.fn(ctx, record, viewer, keyReference)
}
