// Package cmd defines and implements the CLI commands for the dictbatch executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictbatch",
		Short: "Batch bilingual dictionary lookups against Bing dict",
		Long: `dictbatch reads a word list, resolves each word against the Bing
dictionary clientsearch endpoint with a bounded worker pool, and appends
structured results to a JSON array (or NDJSON) file as they complete.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (YAML)")
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newSynthesizeCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
