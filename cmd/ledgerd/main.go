// Command ledgerd is the node binary: start, state, reset and the two
// submit-* client helpers.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	log := logrus.StandardLogger()

	root := &cobra.Command{Use: "ledgerd"}
	root.AddCommand(startCmd(log))
	root.AddCommand(stateCmd(log))
	root.AddCommand(resetCmd(log))
	root.AddCommand(submitTransferCmd())
	root.AddCommand(submitClaimCmd())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
