// Package runtime holds the three state-transition modules and implements
// block execution: parallel signature verification, sequential per-extrinsic
// nonce checks and dispatch. It is the sole owner of the system, balances
// and proof-of-existence modules.
package runtime

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"ledgerd/block"
	"ledgerd/extrinsic"
	"ledgerd/keyring"
	"ledgerd/kv"
	"ledgerd/modules/balances"
	"ledgerd/modules/poe"
	"ledgerd/modules/system"
	"ledgerd/runtimecall"
)

// ErrBlockNumberMismatch is fatal: ExecuteBlock aborts the block, though
// the height increment applied earlier in the pass is not rolled back.
var ErrBlockNumberMismatch = fmt.Errorf("runtime: block number mismatch")

// Runtime owns the three modules and routes dispatch between them.
type Runtime struct {
	System   *system.Module
	Balances *balances.Module
	PoE      *poe.Module

	log *logrus.Logger
}

// New constructs a Runtime by hydrating each module from store.
func New(store kv.Store, log *logrus.Logger) (*Runtime, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	sys, err := system.New(store)
	if err != nil {
		return nil, fmt.Errorf("runtime: system module: %w", err)
	}
	bal, err := balances.New(store)
	if err != nil {
		return nil, fmt.Errorf("runtime: balances module: %w", err)
	}
	claims, err := poe.New(store)
	if err != nil {
		return nil, fmt.Errorf("runtime: poe module: %w", err)
	}
	return &Runtime{System: sys, Balances: bal, PoE: claims, log: log}, nil
}

// Dispatch routes call to its owning module with who bound as the caller.
// The module sees who as the extrinsic's signer; dispatch never touches the
// nonce, which the caller (ExecuteBlock) has already incremented.
func (rt *Runtime) Dispatch(who keyring.AccountId, call runtimecall.Call) error {
	switch c := call.(type) {
	case runtimecall.Transfer:
		return rt.Balances.Transfer(who, c.To, c.Amount)
	case runtimecall.CreateClaim:
		return rt.PoE.CreateClaim(who, c.Claim)
	case runtimecall.RevokeClaim:
		return rt.PoE.RevokeClaim(who, c.Claim)
	default:
		return fmt.Errorf("runtime: unknown call type %T", call)
	}
}

// ExecuteBlock applies block in full:
//
//  1. Increments the block height. If the declared header number doesn't
//     match the new height, returns ErrBlockNumberMismatch — fatally, the
//     height increment already happened and is not undone.
//  2. Verifies every extrinsic's signature in parallel.
//  3. Applies extrinsics sequentially in block order: a bad signature or a
//     nonce mismatch skips the extrinsic without incrementing its nonce; a
//     good nonce increments it unconditionally before dispatch, so a failed
//     dispatch never leaves the nonce behind for replay.
func (rt *Runtime) ExecuteBlock(b block.Block) error {
	rt.System.IncBlockNumber()
	if b.Header.BlockNumber != rt.System.BlockNumber() {
		return ErrBlockNumberMismatch
	}

	results := extrinsic.BatchVerify(b.Extrinsics)

	for i, ext := range b.Extrinsics {
		if err := results[i]; err != nil {
			rt.log.WithFields(logrus.Fields{"index": i, "signer": ext.Signer}).
				Warnf("runtime: bad signature: %v", err)
			continue
		}
		if rt.System.Nonce(ext.Signer) != ext.Nonce {
			rt.log.WithFields(logrus.Fields{
				"index": i, "signer": ext.Signer,
				"expected": rt.System.Nonce(ext.Signer), "got": ext.Nonce,
			}).Warn("runtime: nonce mismatch")
			continue
		}

		rt.System.IncNonce(ext.Signer)
		if err := rt.Dispatch(ext.Signer, ext.Call); err != nil {
			rt.log.WithFields(logrus.Fields{"index": i, "signer": ext.Signer}).
				Warnf("runtime: dispatch failed: %v", err)
		}
	}
	return nil
}
