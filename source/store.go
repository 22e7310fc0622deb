package source

import (
	"context"
	"fmt"

	"github.com/zkasp/attestation/db"
)

// addrKeyPrefix namespaces address keys in the backing store.
const addrKeyPrefix = byte(0)

// Store is a persistent, mutable exclusion list over a key/value database.
// Addresses are stored as keys, so listing returns them in ascending order
// and duplicates collapse for free. Only the address list persists; the
// attestation commitment itself remains in-memory.
type Store struct {
	db db.Database
}

var _ Source = (*Store)(nil)

func NewStore(database db.Database) *Store {
	return &Store{db: database}
}

// Add inserts an address into the exclusion list. Adding an existing
// address is a no-op.
func (s *Store) Add(address string) error {
	return s.db.Set(addrKey(address), nil)
}

// Remove deletes an address from the exclusion list.
func (s *Store) Remove(address string) error {
	return s.db.Delete(addrKey(address))
}

func (s *Store) Addresses(_ context.Context) ([]string, error) {
	keys, err := s.db.All([]byte{addrKeyPrefix})
	if err != nil {
		return nil, fmt.Errorf("%w: list addresses: %v", ErrLoad, err)
	}
	addresses := make([]string, len(keys))
	for i, k := range keys {
		addresses[i] = string(k)
	}
	return addresses, nil
}

func addrKey(address string) []byte {
	return append([]byte{addrKeyPrefix}, address...)
}
