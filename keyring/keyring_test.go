package keyring

import (
	"testing"

	"ledgerd/codec"
)

func TestFromNameCaseInsensitive(t *testing.T) {
	a, ok := FromName("Alice")
	if !ok {
		t.Fatalf("expected alice to resolve")
	}
	b, ok := FromName("ALICE")
	if !ok || a.Public != b.Public {
		t.Fatalf("expected case-insensitive lookup to match")
	}
	if _, ok := FromName("dave"); ok {
		t.Fatalf("expected unknown name to fail")
	}
}

func TestDevKeyringIsStable(t *testing.T) {
	if Alice().Public == Bob().Public {
		t.Fatalf("expected distinct identities")
	}
	if Alice().Public != Alice().Public {
		t.Fatalf("expected deterministic derivation")
	}
}

func TestAccountIdEncodeDecodeRoundTrip(t *testing.T) {
	acc := Alice().Public
	enc := codec.Encode(acc)
	var got AccountId
	if err := codec.Decode(enc, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != acc {
		t.Fatalf("roundtrip mismatch")
	}
}
