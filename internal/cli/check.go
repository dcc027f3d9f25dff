package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qsolve-hep/qsolve/dot"
	"github.com/qsolve-hep/qsolve/internal/catalog"
	"github.com/qsolve-hep/qsolve/particle"
	"github.com/qsolve-hep/qsolve/qn"
	"github.com/qsolve-hep/qsolve/solver"
	"github.com/qsolve-hep/qsolve/transition"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	Interactions  []string
	MaxIterations int
	Timeout       time.Duration
	Workers       int
	ParticleFile  string
	DBPath        string
	EmitDOT       bool
}

// TransitionInfo is the JSON shape of one allowed transition.
type TransitionInfo struct {
	Description string `json:"description"`
	Fingerprint string `json:"fingerprint"`
	DOT         string `json:"dot,omitempty"`
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	RunID       string           `json:"run_id"`
	Initial     string           `json:"initial"`
	FinalStates []string         `json:"final_states"`
	Problems    int              `json:"problems"`
	Transitions []TransitionInfo `json:"transitions"`
	Truncated   bool             `json:"truncated"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <initial> <final> [final...]",
		Short: "Check which transitions of a reaction are allowed",
		Long: `Check a reaction against the conservation laws: enumerate decay
topologies, solve the quantum-number constraints per interaction type, and
report the allowed transitions with their intermediate resonances.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, opts, cmd, args[0], args[1:])
		},
	}

	cmd.Flags().StringSliceVar(&opts.Interactions, "interaction", nil,
		"allowed interaction types (strong|em|weak); default all")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", 0,
		"iteration budget per problem (0 = unlimited)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0,
		"time budget per problem (0 = unlimited)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0,
		"concurrent solves per strength group (0 = NumCPU)")
	cmd.Flags().StringVar(&opts.ParticleFile, "particles", "",
		"YAML particle definitions (default: embedded catalogue)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "",
		"record the run in this catalog database")
	cmd.Flags().BoolVar(&opts.EmitDOT, "dot", false,
		"include Graphviz DOT rendering per transition")
	return cmd
}

func runCheck(rootOpts *RootOptions, opts *CheckOptions, cmd *cobra.Command, initial string, finals []string) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	list, err := loadParticles(opts.ParticleFile)
	if err != nil {
		formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "load particles", err)
	}

	managerOpts := []transition.Option{
		transition.WithLogger(commandLogger(rootOpts, cmd)),
		transition.WithBudget(solver.Budget{
			MaxIterations: opts.MaxIterations,
			Timeout:       opts.Timeout,
		}),
	}
	if opts.Workers > 0 {
		managerOpts = append(managerOpts, transition.WithWorkers(opts.Workers))
	}
	if len(opts.Interactions) > 0 {
		types := make([]transition.InteractionType, 0, len(opts.Interactions))
		for _, desc := range opts.Interactions {
			t, err := transition.InteractionTypeFromString(desc)
			if err != nil {
				formatter.Error(err.Error(), nil)
				return WrapExitError(ExitCommandError, "parse interaction type", err)
			}
			types = append(types, t)
		}
		managerOpts = append(managerOpts, transition.WithInteractionTypes(types...))
	}

	m := transition.New(list, managerOpts...)
	res, err := m.FindSolutions(cmd.Context(), initial, finals)
	if err != nil {
		formatter.Error(err.Error(), nil)
		return WrapExitError(ExitFailure, "reaction check failed", err)
	}

	result := CheckResult{
		RunID:       res.RunID,
		Initial:     initial,
		FinalStates: finals,
		Problems:    res.Problems,
		Truncated:   res.Truncated,
	}
	for _, tr := range res.Transitions {
		info := TransitionInfo{
			Description: describeTransition(tr),
			Fingerprint: tr.Topology.Fingerprint(),
		}
		if opts.EmitDOT {
			info.DOT = dot.Transition(tr)
		}
		result.Transitions = append(result.Transitions, info)
	}

	if opts.DBPath != "" {
		if err := recordRun(cmd.Context(), opts.DBPath, result); err != nil {
			formatter.Error(err.Error(), nil)
			return WrapExitError(ExitCommandError, "record run", err)
		}
		formatter.VerboseLog("recorded run %s in %s", res.RunID, opts.DBPath)
	}

	if done, err := formatter.JSON(result); done {
		return err
	}
	formatter.Printf("run %s\n", result.RunID)
	if len(result.Transitions) == 0 {
		formatter.Printf("no allowed transitions for %s -> %s\n",
			initial, strings.Join(finals, " "))
	}
	for _, info := range result.Transitions {
		formatter.Printf("  %s\n", info.Description)
		if opts.EmitDOT {
			formatter.Printf("%s", info.DOT)
		}
	}
	if result.Truncated {
		formatter.Printf("warning: search truncated by budget; results may be incomplete\n")
	}
	return nil
}

func loadParticles(path string) (*particle.List, error) {
	if path == "" {
		return particle.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return particle.Parse(path, data)
}

func commandLogger(rootOpts *RootOptions, cmd *cobra.Command) *slog.Logger {
	if rootOpts.Verbose {
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// describeTransition renders one transition as a chain of two-body decays,
// nodes in id order.
func describeTransition(tr transition.Transition) string {
	var parts []string
	for _, n := range tr.Topology.Nodes() {
		in := tr.Topology.InEdges(n)
		if len(in) != 1 {
			continue
		}
		var names []string
		for _, id := range tr.Topology.OutEdges(n) {
			names = append(names, tr.States[id].Name)
		}
		decay := tr.States[in[0]].Name + " -> " + strings.Join(names, " ")
		if vals, ok := tr.Interactions[n]; ok {
			if l, okL := vals[qn.LMagnitude]; okL {
				decay += " [l=" + spinText(l) + "]"
			}
		}
		parts = append(parts, decay)
	}
	return strings.Join(parts, "; ")
}

func spinText(v qn.Value) string {
	if v%2 == 0 {
		return strconv.Itoa(int(v) / 2)
	}
	return strconv.Itoa(int(v)) + "/2"
}

func recordRun(ctx context.Context, dbPath string, result CheckResult) error {
	store, err := catalog.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fingerprints := make([]string, 0)
	seen := make(map[string]bool)
	for _, info := range result.Transitions {
		if !seen[info.Fingerprint] {
			seen[info.Fingerprint] = true
			fingerprints = append(fingerprints, info.Fingerprint)
		}
	}

	return store.WriteRun(ctx, catalog.Run{
		ID:          result.RunID,
		Initial:     result.Initial,
		FinalStates: result.FinalStates,
		Fingerprint: strings.Join(fingerprints, "|"),
		Problems:    result.Problems,
		Transitions: len(result.Transitions),
		Truncated:   result.Truncated,
		CreatedAt:   time.Now(),
	})
}
