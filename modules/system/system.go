// Package system implements the system module: the block height counter
// and the per-account nonce map, both persisted under fixed key prefixes.
package system

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"

	"ledgerd/codec"
	"ledgerd/keyring"
	"ledgerd/kv"
)

const (
	keyBlockNumber = "system:block_number"
	prefixNonce    = "system:nonce:"
)

// Module owns the block height counter and the nonce map.
type Module struct {
	store       kv.Store
	blockNumber uint32
	nonce       map[keyring.AccountId]uint32
}

// New hydrates a Module from store: block_number defaults to 0 if absent,
// and every system:nonce:<account> key is scanned and loaded.
func New(store kv.Store) (*Module, error) {
	m := &Module{store: store, nonce: make(map[keyring.AccountId]uint32)}

	if raw, ok := store.Get([]byte(keyBlockNumber)); ok {
		var n uint32val
		if err := codec.Decode(raw, &n); err != nil {
			return nil, fmt.Errorf("system: decode block_number: %w", err)
		}
		m.blockNumber = uint32(n)
	}

	pairs, err := store.ScanPrefix([]byte(prefixNonce))
	if err != nil {
		return nil, fmt.Errorf("system: scan nonces: %w", err)
	}
	for _, p := range pairs {
		rest := bytes.TrimPrefix(p.Key, []byte(prefixNonce))
		if len(rest) != 32 {
			continue
		}
		var acc keyring.AccountId
		if err := codec.Decode(rest, &acc); err != nil {
			continue
		}
		var n uint32val
		if err := codec.Decode(p.Value, &n); err != nil {
			continue
		}
		m.nonce[acc] = uint32(n)
	}
	return m, nil
}

// BlockNumber returns the current block height.
func (m *Module) BlockNumber() uint32 { return m.blockNumber }

// Nonce returns the stored nonce for who, or 0 for an unknown account.
func (m *Module) Nonce(who keyring.AccountId) uint32 { return m.nonce[who] }

// IncBlockNumber increments the height by exactly 1 and persists it. It
// panics on u32 overflow, which is unreachable in practice.
func (m *Module) IncBlockNumber() {
	if m.blockNumber == ^uint32(0) {
		panic("system: block number overflow")
	}
	m.blockNumber++
	m.persistBlockNumber()
}

func (m *Module) persistBlockNumber() {
	enc := codec.Encode(uint32val(m.blockNumber))
	if err := m.store.Put([]byte(keyBlockNumber), enc); err != nil {
		logrus.Warnf("system: failed to persist block number: %v", err)
	}
}

// IncNonce increments who's nonce by exactly 1 and persists it.
func (m *Module) IncNonce(who keyring.AccountId) {
	next := m.nonce[who] + 1
	m.nonce[who] = next

	key := append([]byte(prefixNonce), who[:]...)
	enc := codec.Encode(uint32val(next))
	if err := m.store.Put(key, enc); err != nil {
		logrus.Warnf("system: failed to persist nonce for %s: %v", who, err)
	}
}

// uint32val is the canonical 4-byte little-endian encoding for a bare u32,
// used directly (without a wrapping struct) for the two scalar persisted
// keys this module owns.
type uint32val uint32

func (v uint32val) Encode(e *codec.Encoder) { e.PutUint32(uint32(v)) }

func (v *uint32val) Decode(d *codec.Decoder) error {
	n, err := d.Uint32()
	if err != nil {
		return err
	}
	*v = uint32val(n)
	return nil
}
