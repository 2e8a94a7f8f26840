package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func resetCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "delete the local database directory and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db-path")
			if err := os.RemoveAll(dbPath); err != nil {
				return fmt.Errorf("remove db path %s: %w", dbPath, err)
			}
			log.Infof("ledgerd: removed %s", dbPath)
			return nil
		},
	}
	cmd.Flags().String("db-path", "./ledgerd-db", "durable KV store directory")
	return cmd
}
