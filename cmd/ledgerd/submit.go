package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"ledgerd/codec"
	"ledgerd/extrinsic"
	"ledgerd/keyring"
	"ledgerd/runtimecall"
	"ledgerd/u128"
)

const defaultNodeURL = "http://127.0.0.1:8080"

// fetchNonce asks a running node's /nonce/<hex> for who's next nonce,
// which already folds in that node's pending mempool entries from who.
func fetchNonce(nodeURL string, who keyring.AccountId) (uint32, error) {
	resp, err := http.Get(nodeURL + "/nonce/" + hex.EncodeToString(who[:]))
	if err != nil {
		return 0, fmt.Errorf("fetch nonce: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read nonce response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch nonce: node returned %d: %s", resp.StatusCode, body)
	}
	n, err := strconv.ParseUint(string(bytes.TrimSpace(body)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse nonce response %q: %w", body, err)
	}
	return uint32(n), nil
}

// submitExtrinsic POSTs an encoded extrinsic to a running node's /submit.
func submitExtrinsic(nodeURL string, ext extrinsic.Unchecked) error {
	resp, err := http.Post(nodeURL+"/submit", "application/octet-stream", bytes.NewReader(codec.Encode(ext)))
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("submit: node returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

func submitTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-transfer <from> <to> <amount>",
		Short: "sign and submit a balances.transfer extrinsic to a running node",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodeURL, _ := cmd.Flags().GetString("node")

			from, ok := keyring.FromName(args[0])
			if !ok {
				return fmt.Errorf("unknown dev identity %q", args[0])
			}
			to, ok := keyring.FromName(args[1])
			if !ok {
				return fmt.Errorf("unknown dev identity %q", args[1])
			}
			amount, ok := u128.FromString(args[2])
			if !ok {
				return fmt.Errorf("invalid amount %q", args[2])
			}

			nonce, err := fetchNonce(nodeURL, from.Public)
			if err != nil {
				return err
			}
			ext := extrinsic.Sign(from, nonce, runtimecall.Transfer{To: to.Public, Amount: amount})
			if err := submitExtrinsic(nodeURL, ext); err != nil {
				return err
			}
			fmt.Printf("submitted transfer %s -> %s amount %s at nonce %d\n", args[0], args[1], amount, nonce)
			return nil
		},
	}
	cmd.Flags().String("node", defaultNodeURL, "node RPC base URL")
	return cmd
}

func submitClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit-claim <account> <claim>",
		Short: "sign and submit a proof-of-existence create_claim extrinsic to a running node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodeURL, _ := cmd.Flags().GetString("node")

			who, ok := keyring.FromName(args[0])
			if !ok {
				return fmt.Errorf("unknown dev identity %q", args[0])
			}

			nonce, err := fetchNonce(nodeURL, who.Public)
			if err != nil {
				return err
			}
			ext := extrinsic.Sign(who, nonce, runtimecall.CreateClaim{Claim: args[1]})
			if err := submitExtrinsic(nodeURL, ext); err != nil {
				return err
			}
			fmt.Printf("submitted create_claim %q by %s at nonce %d\n", args[1], args[0], nonce)
			return nil
		},
	}
	cmd.Flags().String("node", defaultNodeURL, "node RPC base URL")
	return cmd
}
