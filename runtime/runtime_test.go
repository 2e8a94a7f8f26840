package runtime

import (
	"errors"
	"testing"

	"ledgerd/block"
	"ledgerd/extrinsic"
	"ledgerd/keyring"
	"ledgerd/kv"
	"ledgerd/runtimecall"
	"ledgerd/u128"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(kv.NewMemory(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rt
}

func TestExecuteBlockTransferHappyPath(t *testing.T) {
	rt := newTestRuntime(t)
	alice, bob := keyring.Alice(), keyring.Bob()
	rt.Balances.SetBalance(alice.Public, u128.FromUint64(1000))

	ext := extrinsic.Sign(alice, 0, runtimecall.Transfer{To: bob.Public, Amount: u128.FromUint64(300)})
	b := block.Block{Header: block.Header{BlockNumber: 1}, Extrinsics: []extrinsic.Unchecked{ext}}

	if err := rt.ExecuteBlock(b); err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	if got := rt.Balances.Balance(alice.Public); got.Cmp(u128.FromUint64(700)) != 0 {
		t.Fatalf("alice balance = %s, want 700", got)
	}
	if got := rt.Balances.Balance(bob.Public); got.Cmp(u128.FromUint64(300)) != 0 {
		t.Fatalf("bob balance = %s, want 300", got)
	}
	if got := rt.System.Nonce(alice.Public); got != 1 {
		t.Fatalf("alice nonce = %d, want 1", got)
	}
	if got := rt.System.BlockNumber(); got != 1 {
		t.Fatalf("height = %d, want 1", got)
	}
}

func TestExecuteBlockInsufficientFundsStillIncrementsNonce(t *testing.T) {
	rt := newTestRuntime(t)
	alice, bob := keyring.Alice(), keyring.Bob()
	rt.Balances.SetBalance(alice.Public, u128.FromUint64(50))

	ext := extrinsic.Sign(alice, 0, runtimecall.Transfer{To: bob.Public, Amount: u128.FromUint64(9999)})
	b := block.Block{Header: block.Header{BlockNumber: 1}, Extrinsics: []extrinsic.Unchecked{ext}}

	if err := rt.ExecuteBlock(b); err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	if got := rt.Balances.Balance(alice.Public); got.Cmp(u128.FromUint64(50)) != 0 {
		t.Fatalf("alice balance = %s, want unchanged 50", got)
	}
	if got := rt.Balances.Balance(bob.Public); got.Cmp(u128.Zero) != 0 {
		t.Fatalf("bob balance = %s, want 0", got)
	}
	if got := rt.System.Nonce(alice.Public); got != 1 {
		t.Fatalf("alice nonce = %d, want 1 (incremented despite dispatch failure)", got)
	}
}

func TestExecuteBlockWrongHeaderNumber(t *testing.T) {
	rt := newTestRuntime(t)
	b := block.Block{Header: block.Header{BlockNumber: 5}}

	err := rt.ExecuteBlock(b)
	if !errors.Is(err, ErrBlockNumberMismatch) {
		t.Fatalf("ExecuteBlock err = %v, want ErrBlockNumberMismatch", err)
	}
}

func TestExecuteBlockPoELifecycle(t *testing.T) {
	rt := newTestRuntime(t)
	alice, bob := keyring.Alice(), keyring.Bob()

	e1 := extrinsic.Sign(alice, 0, runtimecall.CreateClaim{Claim: "doc"})
	e2 := extrinsic.Sign(bob, 0, runtimecall.CreateClaim{Claim: "doc"})
	b1 := block.Block{Header: block.Header{BlockNumber: 1}, Extrinsics: []extrinsic.Unchecked{e1, e2}}
	if err := rt.ExecuteBlock(b1); err != nil {
		t.Fatalf("ExecuteBlock b1: %v", err)
	}
	owner, ok := rt.PoE.GetClaim("doc")
	if !ok || owner != alice.Public {
		t.Fatalf("doc owner = %v, %v; want alice", owner, ok)
	}

	e3 := extrinsic.Sign(alice, 1, runtimecall.RevokeClaim{Claim: "doc"})
	e4 := extrinsic.Sign(bob, 1, runtimecall.CreateClaim{Claim: "doc"})
	b2 := block.Block{Header: block.Header{BlockNumber: 2}, Extrinsics: []extrinsic.Unchecked{e3, e4}}
	if err := rt.ExecuteBlock(b2); err != nil {
		t.Fatalf("ExecuteBlock b2: %v", err)
	}
	owner, ok = rt.PoE.GetClaim("doc")
	if !ok || owner != bob.Public {
		t.Fatalf("doc owner = %v, %v; want bob", owner, ok)
	}
}

func TestExecuteBlockBadSignatureSkipsWithoutNonceIncrement(t *testing.T) {
	rt := newTestRuntime(t)
	alice, bob := keyring.Alice(), keyring.Bob()

	ext := extrinsic.Sign(alice, 0, runtimecall.Transfer{To: bob.Public, Amount: u128.FromUint64(1)})
	ext.Signature[0] ^= 0xFF
	b := block.Block{Header: block.Header{BlockNumber: 1}, Extrinsics: []extrinsic.Unchecked{ext}}

	if err := rt.ExecuteBlock(b); err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	if got := rt.System.Nonce(alice.Public); got != 0 {
		t.Fatalf("nonce = %d, want 0 (not incremented on bad signature)", got)
	}
}

func TestExecuteBlockNonceMismatchSkipsWithoutIncrement(t *testing.T) {
	rt := newTestRuntime(t)
	alice, bob := keyring.Alice(), keyring.Bob()

	ext := extrinsic.Sign(alice, 7, runtimecall.Transfer{To: bob.Public, Amount: u128.FromUint64(1)})
	b := block.Block{Header: block.Header{BlockNumber: 1}, Extrinsics: []extrinsic.Unchecked{ext}}

	if err := rt.ExecuteBlock(b); err != nil {
		t.Fatalf("ExecuteBlock: %v", err)
	}
	if got := rt.System.Nonce(alice.Public); got != 0 {
		t.Fatalf("nonce = %d, want 0", got)
	}
}
