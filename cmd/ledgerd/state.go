package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ledgerd/kv"
	"ledgerd/mempool"
	"ledgerd/node"
	"ledgerd/runtime"
)

func stateCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "print a debug dump of the local chain state and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db-path")
			return runState(log, dbPath)
		},
	}
	cmd.Flags().String("db-path", "./ledgerd-db", "durable KV store directory")
	return cmd
}

func runState(log *logrus.Logger, dbPath string) error {
	store, err := kv.Open(dbPath, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	rt, err := runtime.New(store, log)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	// Built only to reuse the shared dump formatter; this process never
	// gossips or produces.
	n := node.New(node.DefaultConfig(), nil, rt, mempool.New(0, 0), log)
	fmt.Print(n.StateDump())
	return nil
}
