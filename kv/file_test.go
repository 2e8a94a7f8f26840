package kv

import (
	"testing"

	"ledgerd/internal/testutil"
)

func TestFileStorePutGetDelete(t *testing.T) {
	sb := testutil.NewSandbox(t)
	s, err := Open(sb.Path("db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, ok := s.Get([]byte("missing")); ok {
		t.Fatalf("expected missing key to be absent")
	}
	if err := s.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok := s.Get([]byte("a"))
	if !ok || string(v) != "1" {
		t.Fatalf("get after put: %q, %v", v, ok)
	}
	if err := s.Delete([]byte("a")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get([]byte("a")); ok {
		t.Fatalf("expected key gone after delete")
	}
}

func TestFileStoreScanPrefixOrdering(t *testing.T) {
	sb := testutil.NewSandbox(t)
	s, err := Open(sb.Path("db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	keys := [][]byte{
		{0x01, 0x03},
		{0x01, 0x01},
		{0x01, 0x02},
		{0x02, 0x00},
	}
	for _, k := range keys {
		if err := s.Put(k, []byte{0xAA}); err != nil {
			t.Fatalf("put %x: %v", k, err)
		}
	}

	pairs, err := s.ScanPrefix([]byte{0x01})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	want := [][]byte{{0x01, 0x01}, {0x01, 0x02}, {0x01, 0x03}}
	for i, p := range pairs {
		if string(p.Key) != string(want[i]) {
			t.Fatalf("pair %d: got %x want %x", i, p.Key, want[i])
		}
	}
}

func TestFileStoreRehydratesOnReopen(t *testing.T) {
	sb := testutil.NewSandbox(t)
	dir := sb.Path("db")
	s1, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s1.Put([]byte("persisted"), []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}

	s2, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok := s2.Get([]byte("persisted"))
	if !ok || string(v) != "value" {
		t.Fatalf("expected rehydrated value, got %q, %v", v, ok)
	}
}
