// Package keyring implements the account identity type and the fixed
// development keyring (Alice, Bob, Charlie) used throughout the node.
package keyring

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"ledgerd/codec"
)

// AccountId is an Ed25519 public key, and the sole identity type in the
// runtime. It orders lexicographically on its raw bytes.
type AccountId [32]byte

// Encode appends the raw 32 bytes with no length prefix.
func (a AccountId) Encode(e *codec.Encoder) { e.PutBytes(a[:]) }

// Decode reads 32 raw bytes.
func (a *AccountId) Decode(d *codec.Decoder) error {
	b, err := d.Bytes(32)
	if err != nil {
		return err
	}
	copy(a[:], b)
	return nil
}

// Less reports whether a sorts before b, for BTree-style ordered maps.
func (a AccountId) Less(b AccountId) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// String renders the abbreviated display form 0x<hex[0..4]>…<hex[28..32]>.
func (a AccountId) String() string {
	full := hex.EncodeToString(a[:])
	return fmt.Sprintf("0x%s…%s", full[:8], full[56:64])
}

// Keypair is a signing identity: an Ed25519 private key and its derived
// AccountId.
type Keypair struct {
	Private ed25519.PrivateKey
	Public  AccountId
}

// Sign produces an Ed25519 signature over payload.
func (k Keypair) Sign(payload []byte) [64]byte {
	sig := ed25519.Sign(k.Private, payload)
	var out [64]byte
	copy(out[:], sig)
	return out
}

// FromSeed derives a Keypair from a 32-byte seed, exactly as Ed25519 key
// generation defines: the seed IS the private key material.
func FromSeed(seed [32]byte) Keypair {
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)
	var acc AccountId
	copy(acc[:], pub)
	return Keypair{Private: priv, Public: acc}
}

// seedFromName right-pads the UTF-8 name bytes with zeros to 32 bytes to
// derive a deterministic, reproducible seed for each dev identity.
func seedFromName(name string) [32]byte {
	var seed [32]byte
	copy(seed[:], []byte(name))
	return seed
}

// devKeyring holds the three fixed development identities, keyed by
// lowercase name for case-insensitive lookup.
var devKeyring = map[string]Keypair{
	"alice":   FromSeed(seedFromName("Alice")),
	"bob":     FromSeed(seedFromName("Bob")),
	"charlie": FromSeed(seedFromName("Charlie")),
}

// FromName looks up a fixed dev identity by name, case-insensitively.
func FromName(name string) (Keypair, bool) {
	kp, ok := devKeyring[strings.ToLower(name)]
	return kp, ok
}

// Alice, Bob and Charlie are the three fixed development identities.
func Alice() Keypair   { kp, _ := FromName("alice"); return kp }
func Bob() Keypair     { kp, _ := FromName("bob"); return kp }
func Charlie() Keypair { kp, _ := FromName("charlie"); return kp }
