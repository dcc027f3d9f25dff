// Package cli wires the qsolve commands: topology enumeration, reaction
// checking, particle catalogue inspection, and the run catalog.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions are the persistent flags every subcommand inherits.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats lists the accepted values of the --format flag.
var ValidFormats = []string{"text", "json"}

// NewRootCommand assembles the qsolve command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qsolve",
		Short: "qsolve - quantum-number reaction solver",
		Long: "Enumerates decay topologies and checks which reactions the " +
			"conservation laws of the strong, electromagnetic and weak " +
			"interactions allow.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewTopologiesCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewParticlesCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}
