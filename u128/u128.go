// Package u128 implements the unsigned 128-bit integer used for account
// balances. Go has no native 128-bit integer type, so values are carried as
// two little-endian uint64 halves, the same split the codec encodes to the
// canonical 16-byte little-endian wire layout.
package u128

import (
	"math/big"

	"ledgerd/codec"
)

// U128 is an unsigned 128-bit integer, zero value zero.
type U128 struct {
	Lo uint64
	Hi uint64
}

// Zero is the additive identity.
var Zero = U128{}

// FromUint64 widens a uint64 into a U128.
func FromUint64(v uint64) U128 {
	return U128{Lo: v}
}

// FromString parses a base-10 string into a U128, failing on a negative
// value, malformed input, or a value that doesn't fit in 128 bits. Used by
// the CLI's submit-transfer amount argument, which may exceed uint64 range.
func FromString(s string) (U128, bool) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 || b.Cmp(maxU128) > 0 {
		return Zero, false
	}
	return fromBig(b), true
}

func (u U128) big() *big.Int {
	hi := new(big.Int).SetUint64(u.Hi)
	hi.Lsh(hi, 64)
	lo := new(big.Int).SetUint64(u.Lo)
	return hi.Or(hi, lo)
}

func fromBig(b *big.Int) U128 {
	mask64 := new(big.Int).SetUint64(^uint64(0))
	lo := new(big.Int).And(b, mask64).Uint64()
	hi := new(big.Int).Rsh(b, 64)
	hi.And(hi, mask64)
	return U128{Lo: lo, Hi: hi.Uint64()}
}

var maxU128 = func() *big.Int {
	one := big.NewInt(1)
	max := new(big.Int).Lsh(one, 128)
	return max.Sub(max, one)
}()

// CheckedAdd returns u+v and true, or (Zero, false) on overflow past 2^128-1.
func (u U128) CheckedAdd(v U128) (U128, bool) {
	sum := new(big.Int).Add(u.big(), v.big())
	if sum.Cmp(maxU128) > 0 {
		return Zero, false
	}
	return fromBig(sum), true
}

// CheckedSub returns u-v and true, or (Zero, false) on underflow below 0.
func (u U128) CheckedSub(v U128) (U128, bool) {
	diff := new(big.Int).Sub(u.big(), v.big())
	if diff.Sign() < 0 {
		return Zero, false
	}
	return fromBig(diff), true
}

// Cmp compares u and v: -1, 0, or 1.
func (u U128) Cmp(v U128) int {
	return u.big().Cmp(v.big())
}

// String renders the decimal representation.
func (u U128) String() string {
	return u.big().String()
}

// Encode writes the canonical 16-byte little-endian form: Lo then Hi.
func (u U128) Encode(e *codec.Encoder) {
	e.PutUint64(u.Lo)
	e.PutUint64(u.Hi)
}

// Decode reads the canonical 16-byte little-endian form.
func (u *U128) Decode(d *codec.Decoder) error {
	lo, err := d.Uint64()
	if err != nil {
		return err
	}
	hi, err := d.Uint64()
	if err != nil {
		return err
	}
	u.Lo, u.Hi = lo, hi
	return nil
}
