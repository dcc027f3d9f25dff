package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/qsolve-hep/qsolve/internal/catalog"
)

// RunInfo is the JSON shape of one recorded run.
type RunInfo struct {
	ID          string   `json:"id"`
	Initial     string   `json:"initial"`
	FinalStates []string `json:"final_states"`
	Problems    int      `json:"problems"`
	Transitions int      `json:"transitions"`
	Truncated   bool     `json:"truncated"`
	CreatedAt   string   `json:"created_at"`
}

// RunsResult is the JSON payload of the runs command.
type RunsResult struct {
	Count int       `json:"count"`
	Runs  []RunInfo `json:"runs"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string
	var initial string
	var truncatedOnly bool
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded reaction searches",
		Long: `List runs recorded by "qsolve check --db", newest first. Filter by
initial-state particle or restrict to truncated searches.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, cmd, dbPath, initial, truncatedOnly, limit)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "catalog database path (required)")
	cmd.Flags().StringVar(&initial, "initial", "", "only runs with this initial state")
	cmd.Flags().BoolVar(&truncatedOnly, "truncated", false, "only truncated runs")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of runs (0 = all)")
	cmd.MarkFlagRequired("db")
	return cmd
}

func runRuns(opts *RootOptions, cmd *cobra.Command, dbPath, initial string, truncatedOnly bool, limit int) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := catalog.Open(dbPath)
	if err != nil {
		formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "open catalog", err)
	}
	defer store.Close()

	filter := catalog.Filter{Initial: initial, Limit: limit}
	if truncatedOnly {
		t := true
		filter.Truncated = &t
	}
	runs, err := store.ListRuns(cmd.Context(), filter)
	if err != nil {
		formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	result := RunsResult{Count: len(runs)}
	for _, run := range runs {
		result.Runs = append(result.Runs, RunInfo{
			ID:          run.ID,
			Initial:     run.Initial,
			FinalStates: run.FinalStates,
			Problems:    run.Problems,
			Transitions: run.Transitions,
			Truncated:   run.Truncated,
			CreatedAt:   run.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	if done, err := formatter.JSON(result); done {
		return err
	}
	formatter.Printf("%d runs\n", result.Count)
	for _, info := range result.Runs {
		line := info.ID + "  " + info.Initial + " -> " + strings.Join(info.FinalStates, " ")
		if info.Truncated {
			line += "  (truncated)"
		}
		formatter.Printf("  %s  transitions=%d  %s\n", line, info.Transitions, info.CreatedAt)
	}
	return nil
}
