package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/qsolve-hep/qsolve/dot"
	"github.com/qsolve-hep/qsolve/topology"
)

// TopologyInfo is the JSON shape of one enumerated topology.
type TopologyInfo struct {
	Fingerprint   string `json:"fingerprint"`
	Nodes         int    `json:"nodes"`
	Intermediates int    `json:"intermediates"`
	DOT           string `json:"dot,omitempty"`
}

// TopologiesResult is the JSON payload of the topologies command.
type TopologiesResult struct {
	FinalStates int            `json:"final_states"`
	Count       int            `json:"count"`
	Topologies  []TopologyInfo `json:"topologies"`
}

// NewTopologiesCommand creates the topologies command.
func NewTopologiesCommand(rootOpts *RootOptions) *cobra.Command {
	var emitDOT bool
	var nbody bool

	cmd := &cobra.Command{
		Use:   "topologies <final-state-count>",
		Short: "Enumerate decay topologies for a final-state count",
		Long: `Enumerate all structurally distinct isobar decay topologies
(every interaction node has one incoming and two outgoing edges) for the
given number of final-state particles.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopologies(rootOpts, cmd, args[0], nbody, emitDOT)
		},
	}

	cmd.Flags().BoolVar(&emitDOT, "dot", false, "include Graphviz DOT rendering")
	cmd.Flags().BoolVar(&nbody, "nbody", false, "single-node n-body topology instead of isobar")
	return cmd
}

func runTopologies(opts *RootOptions, cmd *cobra.Command, arg string, nbody, emitDOT bool) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		formatter.Error("final-state count must be an integer", arg)
		return WrapExitError(ExitCommandError, "invalid final-state count", err)
	}

	var topos []*topology.Topology
	if nbody {
		t, err := topology.NBody(n)
		if err != nil {
			formatter.Error(err.Error(), nil)
			return WrapExitError(ExitCommandError, "topology generation failed", err)
		}
		topos = []*topology.Topology{t}
	} else {
		topos, err = topology.Isobar(n)
		if err != nil {
			formatter.Error(err.Error(), nil)
			return WrapExitError(ExitCommandError, "topology generation failed", err)
		}
	}

	result := TopologiesResult{FinalStates: n, Count: len(topos)}
	for _, t := range topos {
		info := TopologyInfo{
			Fingerprint:   t.Fingerprint(),
			Nodes:         t.NodeCount(),
			Intermediates: len(t.IntermediateEdgeIDs()),
		}
		if emitDOT {
			info.DOT = dot.Topology(t)
		}
		result.Topologies = append(result.Topologies, info)
	}

	if done, err := formatter.JSON(result); done {
		return err
	}
	formatter.Printf("%d topologies for %d final states\n", result.Count, n)
	for i, info := range result.Topologies {
		formatter.Printf("  [%d] %s\n", i, info.Fingerprint)
		if emitDOT {
			formatter.Printf("%s", info.DOT)
		}
	}
	return nil
}
