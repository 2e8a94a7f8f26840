// Package block defines the Header and Block types: an ordered extrinsic
// batch with a header carrying nothing but a block number — there is no
// parent hash and no state-root commitment.
package block

import (
	"fmt"

	"ledgerd/codec"
	"ledgerd/extrinsic"
)

// Header carries only a sequence number.
type Header struct {
	BlockNumber uint32
}

func (h Header) Encode(e *codec.Encoder) { e.PutUint32(h.BlockNumber) }

func (h *Header) Decode(d *codec.Decoder) error {
	n, err := d.Uint32()
	if err != nil {
		return err
	}
	h.BlockNumber = n
	return nil
}

// Block is an ordered extrinsic batch plus its header.
type Block struct {
	Header     Header
	Extrinsics []extrinsic.Unchecked
}

func (b Block) Encode(e *codec.Encoder) {
	b.Header.Encode(e)
	e.PutUint32(uint32(len(b.Extrinsics)))
	for _, ext := range b.Extrinsics {
		ext.Encode(e)
	}
}

func (b *Block) Decode(d *codec.Decoder) error {
	if err := b.Header.Decode(d); err != nil {
		return fmt.Errorf("block: decode header: %w", err)
	}
	n, err := d.Uint32()
	if err != nil {
		return fmt.Errorf("block: decode extrinsic count: %w", err)
	}
	exts := make([]extrinsic.Unchecked, n)
	for i := range exts {
		if err := exts[i].Decode(d); err != nil {
			return fmt.Errorf("block: decode extrinsic %d: %w", i, err)
		}
	}
	b.Extrinsics = exts
	return nil
}
