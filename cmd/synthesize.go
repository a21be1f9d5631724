package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dictbatch/internal/output"
)

func newSynthesizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synthesize <ndjson-file> <array-file>",
		Short: "Convert an NDJSON result file into a JSON array file",
		Long: `Reads an NDJSON file produced by a fetch run with output.format: ndjson
and writes the equivalent bracketed JSON array, validating every line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := output.SynthesizeArray(args[0], args[1]); err != nil {
				return fmt.Errorf("synthesize array: %w", err)
			}
			return nil
		},
	}
	return cmd
}
