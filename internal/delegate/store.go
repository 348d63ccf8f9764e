// Package delegate manages owner-to-delegate authorizations. A delegate may
// grant and revoke record access on an owner's behalf. Authorization is
// add-only: once registered, a delegate stays registered for the life of the
// deployment. There is deliberately no removal operation; revoking a delegate
// would silently invalidate the audit trail of grants made through them.
package delegate

import (
	"context"

	id "stow/pkg/domain"
)

// Store persists delegate authorizations.
//
// Authorize is idempotent: registering an existing pair is a no-op at the
// storage layer. The service still emits an audit event for every successful
// call, so repeated registrations remain visible in the trail.
type Store interface {
	Authorize(ctx context.Context, owner, delegate id.Identity) error
	IsDelegate(ctx context.Context, owner, delegate id.Identity) (bool, error)
}
