// Package permission is the core of the access ledger. It records which
// viewer may decrypt which record, holding the reference to the re-encrypted
// decryption key alongside each active grant.
package permission

import (
	"time"

	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
)

// Permission is the ledger entry for one (record, viewer) pair. The zero
// value means no access, which is also what stores return for pairs that were
// never granted or have been revoked.
//
// Invariant: CanAccess implies a non-empty KeyReference. A grant without a
// key reference would tell the viewer they may decrypt while giving them
// nothing to decrypt with.
type Permission struct {
	CanAccess    bool
	KeyReference string
	GrantedBy    id.Identity
	UpdatedAt    time.Time
}

// Validate checks the entry invariant. Stores call it before persisting; a
// violation indicates a programming error upstream, not bad user input.
func (p Permission) Validate() error {
	if p.CanAccess && p.KeyReference == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "active permission requires a key reference")
	}
	if !p.CanAccess && p.KeyReference != "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "inactive permission must not hold a key reference")
	}
	return nil
}
