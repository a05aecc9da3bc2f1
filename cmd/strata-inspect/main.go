package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "strata-inspect",
		Short: "Inspect live strata stores",
		Long: `strata-inspect is a client for the strata inspection server.

Point it at an application serving the inspect surface to read store
snapshots and tail state changes in real time:

  strata-inspect get --addr localhost:7070
  strata-inspect watch --addr localhost:7070`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		getCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
