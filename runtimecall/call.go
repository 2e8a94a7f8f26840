// Package runtimecall defines Call, the tagged sum of every dispatchable
// call a signed extrinsic can carry. A single discriminant byte precedes
// the variant payload on the wire; the enum is flat rather than nested by
// owning module since only proof-of-existence has more than one variant.
package runtimecall

import (
	"fmt"

	"ledgerd/codec"
	"ledgerd/keyring"
	"ledgerd/u128"
)

// Discriminant tags, in encoding order.
const (
	TagBalancesTransfer byte = iota
	TagPoECreateClaim
	TagPoERevokeClaim
)

// Call is any dispatchable payload. The concrete type identifies both the
// owning module and the operation.
type Call interface {
	codec.Encodable
	callTag() byte
}

// Transfer moves amount from the caller to To. Owned by the balances module.
type Transfer struct {
	To     keyring.AccountId
	Amount u128.U128
}

func (Transfer) callTag() byte { return TagBalancesTransfer }

func (c Transfer) Encode(e *codec.Encoder) {
	e.PutByte(TagBalancesTransfer)
	c.To.Encode(e)
	c.Amount.Encode(e)
}

// CreateClaim registers the caller as owner of claim. Owned by the
// proof-of-existence module.
type CreateClaim struct {
	Claim string
}

func (CreateClaim) callTag() byte { return TagPoECreateClaim }

func (c CreateClaim) Encode(e *codec.Encoder) {
	e.PutByte(TagPoECreateClaim)
	e.PutString(c.Claim)
}

// RevokeClaim releases claim's ownership if the caller currently owns it.
// Owned by the proof-of-existence module.
type RevokeClaim struct {
	Claim string
}

func (RevokeClaim) callTag() byte { return TagPoERevokeClaim }

func (c RevokeClaim) Encode(e *codec.Encoder) {
	e.PutByte(TagPoERevokeClaim)
	e.PutString(c.Claim)
}

// Encode appends tag ∥ payload for any Call.
func Encode(c Call, e *codec.Encoder) { c.Encode(e) }

// Decode reads a tag byte and the matching variant payload.
func Decode(d *codec.Decoder) (Call, error) {
	tag, err := d.Byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagBalancesTransfer:
		var to keyring.AccountId
		if err := to.Decode(d); err != nil {
			return nil, fmt.Errorf("runtimecall: decode transfer.to: %w", err)
		}
		var amt u128.U128
		if err := amt.Decode(d); err != nil {
			return nil, fmt.Errorf("runtimecall: decode transfer.amount: %w", err)
		}
		return Transfer{To: to, Amount: amt}, nil
	case TagPoECreateClaim:
		s, err := d.String()
		if err != nil {
			return nil, fmt.Errorf("runtimecall: decode create_claim.claim: %w", err)
		}
		return CreateClaim{Claim: s}, nil
	case TagPoERevokeClaim:
		s, err := d.String()
		if err != nil {
			return nil, fmt.Errorf("runtimecall: decode revoke_claim.claim: %w", err)
		}
		return RevokeClaim{Claim: s}, nil
	default:
		return nil, fmt.Errorf("runtimecall: unknown discriminant %d", tag)
	}
}
