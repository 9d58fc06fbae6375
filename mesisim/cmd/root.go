// Package cmd provides the command-line interface of mesisim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mesisim",
		Short: "mesisim simulates MESI coherent caches on a snooping bus.",
		Long: `mesisim replays one memory trace per core against private ` +
			`caches that stay coherent with the MESI protocol over a ` +
			`single shared bus, and reports per-core and bus statistics.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd())

	return rootCmd
}

// Execute loads the .env file, if any, and runs the command line.
func Execute() {
	_ = godotenv.Load()

	err := newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
