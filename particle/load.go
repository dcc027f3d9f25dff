package particle

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/qsolve-hep/qsolve/qn"
)

//go:embed schema.cue
var schemaSource string

//go:embed defaults.yaml
var defaultsYAML []byte

// ValidationError reports a particle definition the schema or the loader
// rejected.
type ValidationError struct {
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("particle %q: %s: %s", e.Name, e.Field, e.Message)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// rawIsospin mirrors the YAML isospin block.
type rawIsospin struct {
	Magnitude  float64 `yaml:"magnitude"`
	Projection float64 `yaml:"projection"`
}

// rawParticle mirrors one YAML particle definition. Spins are physical
// (half-integer) values in the file and doubled on conversion.
type rawParticle struct {
	Name         string      `yaml:"name"`
	PID          int         `yaml:"pid"`
	Mass         float64     `yaml:"mass"`
	Width        float64     `yaml:"width"`
	Charge       int         `yaml:"charge"`
	Spin         float64     `yaml:"spin"`
	Parity       int         `yaml:"parity"`
	CParity      int         `yaml:"c_parity"`
	GParity      int         `yaml:"g_parity"`
	Isospin      *rawIsospin `yaml:"isospin"`
	BaryonNumber int         `yaml:"baryon_number"`
	Strangeness  int         `yaml:"strangeness"`
	Charmness    int         `yaml:"charmness"`
	Bottomness   int         `yaml:"bottomness"`
	ElectronLN   int         `yaml:"electron_lepton_number"`
	MuonLN       int         `yaml:"muon_lepton_number"`
	TauLN        int         `yaml:"tau_lepton_number"`
}

type rawDocument struct {
	Particles []rawParticle `yaml:"particles"`
}

// Parse validates YAML particle definitions against the embedded CUE schema
// and builds a catalogue from them. filename is used in error positions
// only.
func Parse(filename string, data []byte) (*List, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return nil, formatCUEError(err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Field: "yaml", Message: err.Error()}
	}

	particles := make([]Particle, 0, len(raw.Particles))
	for _, r := range raw.Particles {
		p, err := convert(r)
		if err != nil {
			return nil, err
		}
		particles = append(particles, p)
	}
	return NewList(particles)
}

func convert(r rawParticle) (Particle, error) {
	spin, err := doubled(r.Name, "spin", r.Spin)
	if err != nil {
		return Particle{}, err
	}
	p := Particle{
		Name:         r.Name,
		PID:          r.PID,
		Mass:         r.Mass,
		Width:        r.Width,
		Charge:       r.Charge,
		Spin:         spin,
		Parity:       qn.Value(r.Parity),
		CParity:      qn.Value(r.CParity),
		GParity:      qn.Value(r.GParity),
		BaryonNumber: r.BaryonNumber,
		Strangeness:  r.Strangeness,
		Charmness:    r.Charmness,
		Bottomness:   r.Bottomness,
		ElectronLN:   r.ElectronLN,
		MuonLN:       r.MuonLN,
		TauLN:        r.TauLN,
	}
	if r.Isospin != nil {
		if p.Isospin, err = doubled(r.Name, "isospin.magnitude", r.Isospin.Magnitude); err != nil {
			return Particle{}, err
		}
		if p.IsospinProj, err = doubled(r.Name, "isospin.projection", r.Isospin.Projection); err != nil {
			return Particle{}, err
		}
		if p.IsospinProj.Abs() > p.Isospin {
			return Particle{}, &ValidationError{
				Name:    r.Name,
				Field:   "isospin.projection",
				Message: "projection exceeds magnitude",
			}
		}
	}
	return p, nil
}

// doubled converts a physical half-integer quantity into the doubled
// integer encoding, rejecting values off the half-integer grid.
func doubled(name, field string, x float64) (qn.Value, error) {
	d := 2 * x
	rounded := math.Round(d)
	if math.Abs(d-rounded) > 1e-9 {
		return 0, &ValidationError{
			Name:    name,
			Field:   field,
			Message: fmt.Sprintf("%v is not a half-integer", x),
		}
	}
	return qn.Value(rounded), nil
}

func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	msg := first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pos := positions[0]
		msg = fmt.Sprintf("%s:%d:%d: %s", pos.Filename(), pos.Line(), pos.Column(), first.Error())
	}
	return &ValidationError{Field: "schema", Message: msg}
}

var (
	defaultOnce sync.Once
	defaultList *List
	defaultErr  error
)

// Default returns the embedded reference catalogue. The embedded data is
// validated like any other input; an error here means the build itself is
// broken.
func Default() (*List, error) {
	defaultOnce.Do(func() {
		defaultList, defaultErr = Parse("defaults.yaml", defaultsYAML)
	})
	return defaultList, defaultErr
}
