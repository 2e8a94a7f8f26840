// Package balances implements the balances module: a per-account u128
// balance map and the transfer dispatchable.
package balances

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"ledgerd/codec"
	"ledgerd/keyring"
	"ledgerd/kv"
	"ledgerd/u128"
)

const prefixBalance = "balances:"

// ErrInsufficientBalance means the sender does not hold enough funds to
// cover a transfer.
var ErrInsufficientBalance = errors.New("balances: insufficient balance")

// Module owns the balance map.
type Module struct {
	store   kv.Store
	balance map[keyring.AccountId]u128.U128
}

// New hydrates a Module from every balances:<account> key in store.
func New(store kv.Store) (*Module, error) {
	m := &Module{store: store, balance: make(map[keyring.AccountId]u128.U128)}

	pairs, err := store.ScanPrefix([]byte(prefixBalance))
	if err != nil {
		return nil, fmt.Errorf("balances: scan: %w", err)
	}
	for _, p := range pairs {
		rest := bytes.TrimPrefix(p.Key, []byte(prefixBalance))
		if len(rest) != 32 {
			continue
		}
		var acc keyring.AccountId
		if err := codec.Decode(rest, &acc); err != nil {
			continue
		}
		var amt u128.U128
		if err := codec.Decode(p.Value, &amt); err != nil {
			continue
		}
		m.balance[acc] = amt
	}
	return m, nil
}

// Balance returns who's current balance, or zero if they hold nothing.
func (m *Module) Balance(who keyring.AccountId) u128.U128 {
	return m.balance[who]
}

// SetBalance overwrites who's balance directly and persists it. Used only
// by genesis funding, never by a dispatchable.
func (m *Module) SetBalance(who keyring.AccountId, amount u128.U128) {
	m.balance[who] = amount
	m.persist(who, amount)
}

func (m *Module) persist(who keyring.AccountId, amount u128.U128) {
	key := append([]byte(prefixBalance), who[:]...)
	if err := m.store.Put(key, codec.Encode(amount)); err != nil {
		logrus.Warnf("balances: failed to persist balance for %s: %v", who, err)
	}
}

// Transfer moves amount from `from` to `to`. It fails with
// ErrInsufficientBalance if from's balance cannot cover amount; both
// balances are left untouched on failure.
func (m *Module) Transfer(from, to keyring.AccountId, amount u128.U128) error {
	fromBal := m.balance[from]
	newFrom, ok := fromBal.CheckedSub(amount)
	if !ok {
		return ErrInsufficientBalance
	}

	toBal := m.balance[to]
	newTo, ok := toBal.CheckedAdd(amount)
	if !ok {
		return errors.New("balances: recipient balance overflow")
	}

	m.balance[from] = newFrom
	m.balance[to] = newTo
	m.persist(from, newFrom)
	m.persist(to, newTo)
	return nil
}
