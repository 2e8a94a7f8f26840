// Package p2p implements the gossip transport (libp2p host + gossipsub over
// the "extrinsics" and "blocks" topics) and the slot-based authorship
// scheduler: a zero-message round-robin over the lexicographically sorted
// set of currently connected peers.
package p2p

import (
	"sort"
	"time"
)

// DefaultSlotWidth is the slot width used when no override is configured.
const DefaultSlotWidth = 20 * time.Second

// CurrentSlot returns floor(now.Unix() / width), the slot index for now.
func CurrentSlot(now time.Time, width time.Duration) uint64 {
	return uint64(now.Unix()) / uint64(width/time.Second)
}

// SortedPeers returns ids sorted lexicographically, the canonical ordering
// every node computes independently from the same connected-peer set.
func SortedPeers(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

// Author returns the peer ID authorized to produce the block for slot,
// given the (already sorted) list of connected peer IDs including self.
// Panics if sorted is empty — callers must check IsSoloNode first.
func Author(slot uint64, sorted []string) string {
	return sorted[slot%uint64(len(sorted))]
}

// IsMySlot reports whether self is the author for the current slot among
// sorted, which must include self and every peer connected right now.
func IsMySlot(self string, sorted []string, now time.Time, width time.Duration) bool {
	if len(sorted) <= 1 {
		return false
	}
	return Author(CurrentSlot(now, width), sorted) == self
}

// IsSoloNode reports whether sorted has no peers besides self — a solitary
// node refuses to produce: it would otherwise advance a history that
// later-joining peers would reject.
func IsSoloNode(sorted []string) bool {
	return len(sorted) <= 1
}
