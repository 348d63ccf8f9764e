package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	id "stow/pkg/domain"
)

// BadgerStore persists ledger entries in an embedded Badger database. It
// suits single-node deployments that need the ledger to survive restarts
// without operating a PostgreSQL instance.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database at dir with the options
// the ledger expects. The permission and delegate stores share one database.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return db, nil
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func permissionKey(record id.RecordHash, viewer id.Identity) []byte {
	return []byte("perm:" + record.String() + ":" + viewer.String())
}

type permissionRecord struct {
	CanAccess    bool      `json:"can_access"`
	KeyReference string    `json:"key_reference"`
	GrantedBy    string    `json:"granted_by"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *BadgerStore) Get(_ context.Context, record id.RecordHash, viewer id.Identity) (Permission, error) {
	var stored permissionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(permissionKey(record, viewer))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Permission{}, nil
	}
	if err != nil {
		return Permission{}, fmt.Errorf("read permission: %w", err)
	}

	grantedBy := id.ZeroIdentity
	if stored.GrantedBy != "" {
		grantedBy, err = id.ParseIdentity(stored.GrantedBy)
		if err != nil {
			return Permission{}, fmt.Errorf("stored permission has invalid granter: %w", err)
		}
	}
	return Permission{
		CanAccess:    stored.CanAccess,
		KeyReference: stored.KeyReference,
		GrantedBy:    grantedBy,
		UpdatedAt:    stored.UpdatedAt,
	}, nil
}

func (s *BadgerStore) Set(_ context.Context, record id.RecordHash, viewer id.Identity, p Permission) error {
	if err := p.Validate(); err != nil {
		return err
	}
	grantedBy := ""
	if !p.GrantedBy.IsZero() {
		grantedBy = p.GrantedBy.String()
	}
	value, err := json.Marshal(permissionRecord{
		CanAccess:    p.CanAccess,
		KeyReference: p.KeyReference,
		GrantedBy:    grantedBy,
		UpdatedAt:    p.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode permission: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(permissionKey(record, viewer), value)
	})
	if err != nil {
		return fmt.Errorf("write permission: %w", err)
	}
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, record id.RecordHash, viewer id.Identity) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(permissionKey(record, viewer))
	})
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}
