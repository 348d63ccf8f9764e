package audit

import (
	"time"

	id "stow/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: grants, revocations, delegate registrations.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics: rejected operations, pause toggles.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Actor is always the caller that triggered the operation; Owner is the
// identity the operation was executed on behalf of. They differ exactly when
// a delegate acts for an owner. Viewer is the identity receiving the
// capability: the viewer of a grant, or the delegate of a registration.
type Event struct {
	Category     EventCategory
	Timestamp    time.Time
	Record       id.RecordHash
	Owner        id.Identity
	Viewer       id.Identity
	Actor        id.Identity
	Action       string
	KeyReference string
	// Evaluator and Decision are populated for policy_checked events only.
	Evaluator string
	Decision  string
	Reason    string
	RequestID string
}

// Action identifies the ledger transition or check an event records.
type Action string

const (
	ActionAccessGranted Action = "access_granted"
	ActionAccessRevoked Action = "access_revoked"
	ActionDelegateAdded Action = "delegate_added"
	ActionPolicyChecked Action = "policy_checked"
	ActionLedgerPaused  Action = "ledger_paused"
	ActionLedgerResumed Action = "ledger_resumed"
)

// actionCategories maps each action to its category. Grants, revocations, and
// delegate registrations carry regulatory weight; policy checks are routine
// visibility; pause toggles are security-relevant.
var actionCategories = map[Action]EventCategory{
	ActionAccessGranted: CategoryCompliance,
	ActionAccessRevoked: CategoryCompliance,
	ActionDelegateAdded: CategoryCompliance,
	ActionPolicyChecked: CategoryOperations,
	ActionLedgerPaused:  CategorySecurity,
	ActionLedgerResumed: CategorySecurity,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
