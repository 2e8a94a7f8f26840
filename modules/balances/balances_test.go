package balances

import (
	"testing"

	"ledgerd/keyring"
	"ledgerd/kv"
	"ledgerd/u128"
)

func TestSetBalanceAndBalance(t *testing.T) {
	m, err := New(kv.NewMemory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	alice := keyring.Alice().Public
	m.SetBalance(alice, u128.FromUint64(1_000_000))
	if got := m.Balance(alice); got.Cmp(u128.FromUint64(1_000_000)) != 0 {
		t.Fatalf("expected 1000000, got %s", got)
	}
}

func TestTransferHappyPath(t *testing.T) {
	m, err := New(kv.NewMemory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	alice, bob := keyring.Alice().Public, keyring.Bob().Public
	m.SetBalance(alice, u128.FromUint64(100))

	if err := m.Transfer(alice, bob, u128.FromUint64(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := m.Balance(alice); got.Cmp(u128.FromUint64(60)) != 0 {
		t.Fatalf("expected alice 60, got %s", got)
	}
	if got := m.Balance(bob); got.Cmp(u128.FromUint64(40)) != 0 {
		t.Fatalf("expected bob 40, got %s", got)
	}
}

func TestTransferInsufficientBalanceLeavesBothUntouched(t *testing.T) {
	m, err := New(kv.NewMemory())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	alice, bob := keyring.Alice().Public, keyring.Bob().Public
	m.SetBalance(alice, u128.FromUint64(10))

	err = m.Transfer(alice, bob, u128.FromUint64(11))
	if err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := m.Balance(alice); got.Cmp(u128.FromUint64(10)) != 0 {
		t.Fatalf("alice balance should be unchanged, got %s", got)
	}
	if got := m.Balance(bob); got.Cmp(u128.Zero) != 0 {
		t.Fatalf("bob balance should be unchanged, got %s", got)
	}
}

func TestBalancesSurviveReopen(t *testing.T) {
	store := kv.NewMemory()
	m, err := New(store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	alice := keyring.Alice().Public
	m.SetBalance(alice, u128.FromUint64(250))

	reopened, err := New(store)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Balance(alice); got.Cmp(u128.FromUint64(250)) != 0 {
		t.Fatalf("expected persisted 250, got %s", got)
	}
}
