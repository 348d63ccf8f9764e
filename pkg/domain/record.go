package domain

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	dErrors "stow/pkg/domain-errors"
)

// RecordHashSize is the width of a record content hash in bytes.
const RecordHashSize = 32

// RecordHash identifies a unit of externally stored data by its content hash.
// The ledger never sees the data itself, only this identifier. The zero value
// is not a valid record identifier.
type RecordHash [RecordHashSize]byte

// ParseRecordHash constructs a RecordHash from its hex form.
//
// Errors: returns CodeInvalidInput when the value is empty, not valid hex,
// the wrong length, or all zero.
func ParseRecordHash(s string) (RecordHash, error) {
	var h RecordHash
	if s == "" {
		return h, dErrors.New(dErrors.CodeInvalidInput, "record hash cannot be empty")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, dErrors.New(dErrors.CodeInvalidInput, "record hash must be hex encoded")
	}
	if len(raw) != RecordHashSize {
		return h, dErrors.New(dErrors.CodeInvalidInput, "record hash must be 32 bytes")
	}
	copy(h[:], raw)
	if h.IsZero() {
		return h, dErrors.New(dErrors.CodeInvalidInput, "record hash cannot be zero")
	}
	return h, nil
}

// HashRecord derives the record identifier for a blob of content. Callers that
// already hold the hash should use ParseRecordHash instead.
func HashRecord(content []byte) RecordHash {
	return RecordHash(blake3.Sum256(content))
}

// IsZero reports whether the hash is the invalid all-zero value.
func (h RecordHash) IsZero() bool {
	return h == RecordHash{}
}

// String returns the lowercase hex form.
func (h RecordHash) String() string {
	return hex.EncodeToString(h[:])
}

// ValidateKeyReference checks an opaque key-material locator. The ledger does
// not interpret the reference; it only requires one to be present on a grant.
//
// Errors: returns CodeInvalidInput when the reference is empty.
func ValidateKeyReference(ref string) error {
	if ref == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "key reference cannot be empty")
	}
	return nil
}
