// Package poe implements the proof-of-existence module: a claim string to
// owning account map, with create and revoke dispatchables.
package poe

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"ledgerd/codec"
	"ledgerd/keyring"
	"ledgerd/kv"
)

const prefixClaim = "poe:"

// ErrClaimExists means the claim is already owned by someone.
var ErrClaimExists = errors.New("poe: claim already exists")

// ErrClaimNotFound means the claim has no owner.
var ErrClaimNotFound = errors.New("poe: claim not found")

// ErrNotClaimOwner means the caller does not own the claim it tried to
// revoke.
var ErrNotClaimOwner = errors.New("poe: caller does not own claim")

// Module owns the claim map.
type Module struct {
	store kv.Store
	owner map[string]keyring.AccountId
}

// New hydrates a Module from every poe:<claim> key in store.
func New(store kv.Store) (*Module, error) {
	m := &Module{store: store, owner: make(map[string]keyring.AccountId)}

	pairs, err := store.ScanPrefix([]byte(prefixClaim))
	if err != nil {
		return nil, fmt.Errorf("poe: scan: %w", err)
	}
	for _, p := range pairs {
		claim := string(bytes.TrimPrefix(p.Key, []byte(prefixClaim)))
		var acc keyring.AccountId
		if err := codec.Decode(p.Value, &acc); err != nil {
			continue
		}
		m.owner[claim] = acc
	}
	return m, nil
}

// GetClaim returns claim's current owner, if any.
func (m *Module) GetClaim(claim string) (keyring.AccountId, bool) {
	acc, ok := m.owner[claim]
	return acc, ok
}

// CreateClaim registers who as claim's owner. It fails with ErrClaimExists
// if the claim is already owned, by anyone, including who.
func (m *Module) CreateClaim(who keyring.AccountId, claim string) error {
	if _, exists := m.owner[claim]; exists {
		return ErrClaimExists
	}
	m.owner[claim] = who
	m.persist(claim, who)
	return nil
}

// RevokeClaim releases claim's ownership, but only if who currently owns
// it.
func (m *Module) RevokeClaim(who keyring.AccountId, claim string) error {
	acc, exists := m.owner[claim]
	if !exists {
		return ErrClaimNotFound
	}
	if acc != who {
		return ErrNotClaimOwner
	}
	delete(m.owner, claim)
	key := append([]byte(prefixClaim), []byte(claim)...)
	if err := m.store.Delete(key); err != nil {
		logrus.Warnf("poe: failed to delete claim %q: %v", claim, err)
	}
	return nil
}

func (m *Module) persist(claim string, who keyring.AccountId) {
	key := append([]byte(prefixClaim), []byte(claim)...)
	if err := m.store.Put(key, codec.Encode(who)); err != nil {
		logrus.Warnf("poe: failed to persist claim %q: %v", claim, err)
	}
}
