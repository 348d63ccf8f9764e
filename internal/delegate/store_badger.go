package delegate

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	id "stow/pkg/domain"
)

// BadgerStore persists delegate authorizations in an embedded Badger
// database, usually the same one backing the permission store.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func delegateKey(owner, delegate id.Identity) []byte {
	return []byte("delg:" + owner.String() + ":" + delegate.String())
}

func (s *BadgerStore) Authorize(_ context.Context, owner, delegate id.Identity) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(delegateKey(owner, delegate), []byte{1})
	})
	if err != nil {
		return fmt.Errorf("write delegate authorization: %w", err)
	}
	return nil
}

func (s *BadgerStore) IsDelegate(_ context.Context, owner, delegate id.Identity) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(delegateKey(owner, delegate))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read delegate authorization: %w", err)
	}
	return true, nil
}
