// Package genesis implements the one-shot chain bootstrap: fund the three
// dev identities and seal an empty block 1.
package genesis

import (
	"fmt"

	"ledgerd/block"
	"ledgerd/keyring"
	"ledgerd/runtime"
	"ledgerd/u128"
)

// FundingAmount is the number of units each dev identity receives at
// genesis.
var FundingAmount = u128.FromUint64(1_000_000)

// MaybeApply funds Alice, Bob and Charlie and advances the chain to height
// 1 by executing an empty block, but only when rt is freshly constructed
// (block_number == 0). A second call on a chain that has already moved
// past height 0 is a no-op, making genesis idempotent across restarts of a
// node with an existing database.
func MaybeApply(rt *runtime.Runtime) error {
	if rt.System.BlockNumber() != 0 {
		return nil
	}
	for _, kp := range []keyring.Keypair{keyring.Alice(), keyring.Bob(), keyring.Charlie()} {
		rt.Balances.SetBalance(kp.Public, FundingAmount)
	}
	empty := block.Block{Header: block.Header{BlockNumber: 1}}
	if err := rt.ExecuteBlock(empty); err != nil {
		return fmt.Errorf("genesis: seal empty block 1: %w", err)
	}
	return nil
}
