package extrinsic

import (
	"testing"

	"ledgerd/codec"
	"ledgerd/keyring"
	"ledgerd/runtimecall"
	"ledgerd/u128"
)

func transferExt(t *testing.T, from keyring.Keypair, nonce uint32, to keyring.AccountId, amount uint64) Unchecked {
	t.Helper()
	call := runtimecall.Transfer{To: to, Amount: u128.FromUint64(amount)}
	return Sign(from, nonce, call)
}

func TestSignThenVerifySucceeds(t *testing.T) {
	ext := transferExt(t, keyring.Alice(), 0, keyring.Bob().Public, 10)
	if err := ext.Verify(); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestMutatingAnyFieldInvalidatesSignature(t *testing.T) {
	base := transferExt(t, keyring.Alice(), 0, keyring.Bob().Public, 10)

	withNonce := base
	withNonce.Nonce = 99
	if err := withNonce.Verify(); err == nil {
		t.Fatalf("expected mutated nonce to fail verification")
	}

	withSigner := base
	withSigner.Signer = keyring.Charlie().Public
	if err := withSigner.Verify(); err == nil {
		t.Fatalf("expected mutated signer to fail verification")
	}

	withSig := base
	withSig.Signature[0] ^= 0xFF
	if err := withSig.Verify(); err == nil {
		t.Fatalf("expected mutated signature to fail verification")
	}

	withCall := base
	withCall.Call = runtimecall.Transfer{To: keyring.Bob().Public, Amount: u128.FromUint64(11)}
	if err := withCall.Verify(); err == nil {
		t.Fatalf("expected mutated call to fail verification")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ext := transferExt(t, keyring.Alice(), 3, keyring.Bob().Public, 500)
	enc := codec.Encode(ext)

	var got Unchecked
	if err := codec.Decode(enc, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Signer != ext.Signer || got.Nonce != ext.Nonce || got.Signature != ext.Signature {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, ext)
	}
	if err := got.Verify(); err != nil {
		t.Fatalf("decoded extrinsic should still verify: %v", err)
	}
}

// Builds 4 valid extrinsics, tampers with extrinsics[2].nonce, and expects
// BatchVerify to return [nil, nil, err, nil] in input order.
func TestBatchVerifyWithTamperedEntry(t *testing.T) {
	exts := []Unchecked{
		transferExt(t, keyring.Alice(), 0, keyring.Bob().Public, 1),
		transferExt(t, keyring.Bob(), 0, keyring.Alice().Public, 2),
		transferExt(t, keyring.Charlie(), 0, keyring.Alice().Public, 3),
		transferExt(t, keyring.Alice(), 1, keyring.Charlie().Public, 4),
	}
	exts[2].Nonce = 99

	results := BatchVerify(exts)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, want := range []bool{true, true, false, true} {
		got := results[i] == nil
		if got != want {
			t.Fatalf("result[%d]: got ok=%v want ok=%v (err=%v)", i, got, want, results[i])
		}
	}
}

func TestBatchVerifyMatchesIndividualVerify(t *testing.T) {
	exts := make([]Unchecked, 0, 20)
	for i := 0; i < 20; i++ {
		exts = append(exts, transferExt(t, keyring.Alice(), uint32(i), keyring.Bob().Public, uint64(i)))
	}
	exts[5].Nonce = 777

	results := BatchVerify(exts)
	for i, ext := range exts {
		want := ext.Verify()
		got := results[i]
		if (want == nil) != (got == nil) {
			t.Fatalf("index %d: batch result %v does not match individual %v", i, got, want)
		}
	}
}
