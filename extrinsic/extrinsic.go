// Package extrinsic implements the signed call envelope: the unchecked
// wire form, its deterministic signing payload, and signature verification
// (single and batched).
package extrinsic

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"ledgerd/codec"
	"ledgerd/keyring"
	"ledgerd/runtimecall"
)

// ErrBadPublicKey is returned by Verify when the signer field is not the
// length of an Ed25519 public key, which a 32-byte AccountId never is in
// practice. Signer bytes of the right length that are not a valid curve
// point are not detected separately: Verify reports them as ErrBadSignature.
var ErrBadPublicKey = errors.New("extrinsic: invalid public key bytes")

// ErrBadSignature means the signature does not match the signing payload.
var ErrBadSignature = errors.New("extrinsic: signature does not match payload")

// Unchecked is the only form an extrinsic takes on the wire: a signer, an
// Ed25519 signature, the claimed nonce, and the call to dispatch.
type Unchecked struct {
	Signer    keyring.AccountId
	Signature [64]byte
	Nonce     uint32
	Call      runtimecall.Call
}

// signingPayload reconstructs encode((signer.bytes, nonce, call)), the
// exact bytes an Ed25519 signature is computed over.
func signingPayload(signer keyring.AccountId, nonce uint32, call runtimecall.Call) []byte {
	e := codec.NewEncoder()
	signer.Encode(e)
	e.PutUint32(nonce)
	call.Encode(e)
	return e.Bytes()
}

// Sign builds a signed Unchecked extrinsic for call at nonce, signed by kp.
func Sign(kp keyring.Keypair, nonce uint32, call runtimecall.Call) Unchecked {
	payload := signingPayload(kp.Public, nonce, call)
	return Unchecked{
		Signer:    kp.Public,
		Signature: kp.Sign(payload),
		Nonce:     nonce,
		Call:      call,
	}
}

// Verify reconstructs the signing payload from the claimed signer and nonce
// inside the struct and checks the signature against it.
func (u Unchecked) Verify() error {
	if len(u.Signer) != ed25519.PublicKeySize {
		return ErrBadPublicKey
	}
	payload := signingPayload(u.Signer, u.Nonce, u.Call)
	if !ed25519.Verify(ed25519.PublicKey(u.Signer[:]), payload, u.Signature[:]) {
		return ErrBadSignature
	}
	return nil
}

// Encode writes signer ∥ signature ∥ nonce(LE) ∥ call.
func (u Unchecked) Encode(e *codec.Encoder) {
	u.Signer.Encode(e)
	e.PutBytes(u.Signature[:])
	e.PutUint32(u.Nonce)
	u.Call.Encode(e)
}

// Decode reads an Unchecked extrinsic back off the wire.
func (u *Unchecked) Decode(d *codec.Decoder) error {
	if err := u.Signer.Decode(d); err != nil {
		return fmt.Errorf("extrinsic: decode signer: %w", err)
	}
	sig, err := d.Bytes(64)
	if err != nil {
		return fmt.Errorf("extrinsic: decode signature: %w", err)
	}
	copy(u.Signature[:], sig)
	nonce, err := d.Uint32()
	if err != nil {
		return fmt.Errorf("extrinsic: decode nonce: %w", err)
	}
	u.Nonce = nonce
	call, err := runtimecall.Decode(d)
	if err != nil {
		return fmt.Errorf("extrinsic: decode call: %w", err)
	}
	u.Call = call
	return nil
}

// BatchVerify verifies every extrinsic in exts concurrently across
// available cores and returns one result per extrinsic in input order.
// Correctness does not depend on how the work is scheduled: each slot is
// written exactly once by the goroutine that owns it, so a sync.WaitGroup
// bounding a burst of workers needs no further locking around the result
// slice.
func BatchVerify(exts []Unchecked) []error {
	results := make([]error, len(exts))
	if len(exts) == 0 {
		return results
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(exts) {
		workers = len(exts)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = exts[i].Verify()
			}
		}()
	}
	for i := range exts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
