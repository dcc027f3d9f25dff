package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/qsolve-hep/qsolve/particle"
)

// ParticleInfo is the JSON shape of one catalogue entry.
type ParticleInfo struct {
	Name    string  `json:"name"`
	PID     int     `json:"pid"`
	Mass    float64 `json:"mass_gev"`
	Width   float64 `json:"width_gev,omitempty"`
	Charge  int     `json:"charge"`
	Spin    string  `json:"spin"`
	Summary string  `json:"summary"`
}

// ParticlesResult is the JSON payload of the particles command.
type ParticlesResult struct {
	Count     int            `json:"count"`
	Particles []ParticleInfo `json:"particles"`
}

// NewParticlesCommand creates the particles command.
func NewParticlesCommand(rootOpts *RootOptions) *cobra.Command {
	var particleFile string
	var filter string

	cmd := &cobra.Command{
		Use:   "particles [name]",
		Short: "List the particle catalogue",
		Long: `List the particle definitions the solver matches against. With a
name argument, show only that particle; --filter matches substrings.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runParticles(rootOpts, cmd, particleFile, name, filter)
		},
	}

	cmd.Flags().StringVar(&particleFile, "particles", "",
		"YAML particle definitions (default: embedded catalogue)")
	cmd.Flags().StringVar(&filter, "filter", "", "keep names containing this substring")
	return cmd
}

func runParticles(opts *RootOptions, cmd *cobra.Command, path, name, filter string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	list, err := loadParticles(path)
	if err != nil {
		formatter.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "load particles", err)
	}

	var selected []particle.Particle
	switch {
	case name != "":
		p, ok := list.ByName(name)
		if !ok {
			formatter.Error("unknown particle "+name, nil)
			return WrapExitError(ExitFailure, "unknown particle", nil)
		}
		selected = []particle.Particle{p}
	case filter != "":
		selected = list.Filter(func(p particle.Particle) bool {
			return strings.Contains(p.Name, filter)
		})
	default:
		selected = list.All()
	}

	result := ParticlesResult{Count: len(selected)}
	for _, p := range selected {
		result.Particles = append(result.Particles, ParticleInfo{
			Name:    p.Name,
			PID:     p.PID,
			Mass:    p.Mass,
			Width:   p.Width,
			Charge:  p.Charge,
			Spin:    spinText(p.Spin),
			Summary: p.String(),
		})
	}

	if done, err := formatter.JSON(result); done {
		return err
	}
	formatter.Printf("%d particles\n", result.Count)
	for _, info := range result.Particles {
		formatter.Printf("  %s\n", info.Summary)
	}
	return nil
}
