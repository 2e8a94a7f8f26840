package p2p

import (
	"testing"
	"time"
)

func TestCurrentSlot(t *testing.T) {
	now := time.Unix(100, 0)
	if got := CurrentSlot(now, 20*time.Second); got != 5 {
		t.Fatalf("CurrentSlot = %d, want 5", got)
	}
	now = time.Unix(119, 0)
	if got := CurrentSlot(now, 20*time.Second); got != 5 {
		t.Fatalf("CurrentSlot = %d, want 5", got)
	}
	now = time.Unix(120, 0)
	if got := CurrentSlot(now, 20*time.Second); got != 6 {
		t.Fatalf("CurrentSlot = %d, want 6", got)
	}
}

func TestSortedPeersIsDeterministic(t *testing.T) {
	ids := []string{"zeta", "alpha", "mike"}
	got := SortedPeers(ids)
	want := []string{"alpha", "mike", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedPeers = %v, want %v", got, want)
		}
	}
	// original must be untouched
	if ids[0] != "zeta" {
		t.Fatal("SortedPeers mutated its input")
	}
}

func TestIsMySlotRefusesSoloNode(t *testing.T) {
	now := time.Unix(100, 0)
	if IsMySlot("self", []string{"self"}, now, 20*time.Second) {
		t.Fatal("a solo node must refuse to produce")
	}
}

func TestIsMySlotRoundRobin(t *testing.T) {
	sorted := SortedPeers([]string{"b", "a", "c"})
	width := 20 * time.Second

	var authors []string
	for slot := uint64(0); slot < 6; slot++ {
		now := time.Unix(int64(slot)*20, 0)
		for _, id := range sorted {
			if IsMySlot(id, sorted, now, width) {
				authors = append(authors, id)
			}
		}
	}
	if len(authors) != 6 {
		t.Fatalf("expected exactly one author per slot, got %v", authors)
	}
	// round-robin: slot 0 and slot 3 (3 peers) share the same author
	if authors[0] != authors[3] {
		t.Fatalf("round-robin should repeat every len(sorted) slots: %v", authors)
	}
}

func TestAuthorPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty peer set")
		}
	}()
	Author(0, nil)
}
