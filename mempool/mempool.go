// Package mempool implements the pending-extrinsic FIFO buffer: a bounded
// queue with two independent knobs (a hard capacity and a block-fill
// watermark). The pool itself is not internally synchronized; the caller
// (the node) wraps it in its own mutex.
//
// Backed by a plain slice mutated by index rather than a channel or a map,
// since ordering must be FIFO and entries need by-index removal (Remove,
// Retain).
package mempool

import (
	"errors"

	"github.com/google/uuid"

	"ledgerd/extrinsic"
	"ledgerd/keyring"
)

// ErrFull is returned by Submit when the pool is at MaxCapacity.
var ErrFull = errors.New("mempool: full")

// entry pairs a pending extrinsic with a trace id assigned at submission,
// attached purely for log correlation — it never goes out over the wire.
type entry struct {
	ext   extrinsic.Unchecked
	trace string
}

// Pool is a bounded FIFO of pending extrinsics. The zero value is usable
// with both knobs unset (unbounded, never block-ready).
type Pool struct {
	// MaxCapacity, if non-zero, rejects Submit with ErrFull once reached.
	MaxCapacity int
	// BlockLimit, if non-zero, is the length threshold IsBlockReady reports.
	BlockLimit int

	entries []entry
}

// New returns an empty Pool with the given optional knobs (0 = unset).
func New(maxCapacity, blockLimit int) *Pool {
	return &Pool{MaxCapacity: maxCapacity, BlockLimit: blockLimit}
}

// Submit appends ext to the back of the queue and returns the trace id
// assigned to it. It returns ErrFull without modifying the pool if
// MaxCapacity is set and already reached.
func (p *Pool) Submit(ext extrinsic.Unchecked) (string, error) {
	if p.MaxCapacity > 0 && len(p.entries) >= p.MaxCapacity {
		return "", ErrFull
	}
	trace := uuid.NewString()
	p.entries = append(p.entries, entry{ext: ext, trace: trace})
	return trace, nil
}

// Len returns the number of pending extrinsics.
func (p *Pool) Len() int { return len(p.entries) }

// IsBlockReady reports whether the pool has reached BlockLimit. Always
// false when BlockLimit is unset.
func (p *Pool) IsBlockReady() bool {
	return p.BlockLimit > 0 && len(p.entries) >= p.BlockLimit
}

// PendingExtrinsics returns a read-only, insertion-ordered snapshot of the
// queue's extrinsics.
func (p *Pool) PendingExtrinsics() []extrinsic.Unchecked {
	out := make([]extrinsic.Unchecked, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.ext
	}
	return out
}

// CountFrom returns how many pending extrinsics are signed by who.
func (p *Pool) CountFrom(who keyring.AccountId) int {
	n := 0
	for _, e := range p.entries {
		if e.ext.Signer == who {
			n++
		}
	}
	return n
}

// DrainForBlock removes and returns up to n extrinsics from the front of
// the queue, in FIFO order.
func (p *Pool) DrainForBlock(n int) []extrinsic.Unchecked {
	if n > len(p.entries) {
		n = len(p.entries)
	}
	out := make([]extrinsic.Unchecked, n)
	for i := 0; i < n; i++ {
		out[i] = p.entries[i].ext
	}
	p.entries = p.entries[n:]
	return out
}

// Remove deletes the entry at index i, preserving the order of the rest.
func (p *Pool) Remove(i int) {
	if i < 0 || i >= len(p.entries) {
		return
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
}

// Retain keeps only the entries for which keep returns true, preserving
// relative order.
func (p *Pool) Retain(keep func(ext extrinsic.Unchecked) bool) {
	out := p.entries[:0]
	for _, e := range p.entries {
		if keep(e.ext) {
			out = append(out, e)
		}
	}
	p.entries = out
}
