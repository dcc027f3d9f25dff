// Package particle provides the reference catalogue of known particles and
// their quantum numbers. Definitions are loaded from YAML and validated
// against a CUE schema before use.
package particle

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/qsolve-hep/qsolve/qn"
)

// Particle is one catalogue entry. Spin-like quantities use the doubled
// integer encoding of package qn; mass and width are in GeV.
type Particle struct {
	Name  string
	PID   int
	Mass  float64
	Width float64

	Charge       int
	Spin         qn.Value
	Parity       qn.Value
	CParity      qn.Value
	GParity      qn.Value
	Isospin      qn.Value
	IsospinProj  qn.Value
	BaryonNumber int
	Strangeness  int
	Charmness    int
	Bottomness   int
	ElectronLN   int
	MuonLN       int
	TauLN        int
}

// QuantumNumbers flattens the particle into the edge value map the solver
// works with.
func (p Particle) QuantumNumbers() qn.Values {
	return qn.Values{
		qn.PID:              qn.Value(p.PID),
		qn.Charge:           qn.Value(p.Charge),
		qn.SpinMagnitude:    p.Spin,
		qn.Parity:           p.Parity,
		qn.CParity:          p.CParity,
		qn.GParity:          p.GParity,
		qn.IsospinMagnitude: p.Isospin,
		qn.IsospinProj:      p.IsospinProj,
		qn.BaryonNumber:     qn.Value(p.BaryonNumber),
		qn.Strangeness:      qn.Value(p.Strangeness),
		qn.Charmness:        qn.Value(p.Charmness),
		qn.Bottomness:       qn.Value(p.Bottomness),
		qn.ElectronLN:       qn.Value(p.ElectronLN),
		qn.MuonLN:           qn.Value(p.MuonLN),
		qn.TauLN:            qn.Value(p.TauLN),
	}
}

// Matches reports whether the particle is consistent with a solved edge
// assignment: every label present in values must equal the particle's own
// quantum number. Projection labels are skipped, a solved projection
// restricts a state, not the particle species.
func (p Particle) Matches(values qn.Values) bool {
	own := p.QuantumNumbers()
	for label, v := range values {
		if label == qn.SpinProjection {
			continue
		}
		want, ok := own[label]
		if !ok {
			continue
		}
		if want != v {
			return false
		}
	}
	return true
}

// IsLepton reports whether any lepton number is set.
func (p Particle) IsLepton() bool {
	return p.ElectronLN != 0 || p.MuonLN != 0 || p.TauLN != 0
}

func (p Particle) String() string {
	return fmt.Sprintf("%s [%d]", p.Name, p.PID)
}

// List is an immutable particle catalogue with unique names and PDG ids.
// Name lookup is Unicode-normalization-insensitive, so "J/ψ(1S)" finds the
// entry regardless of how the caller composed the ψ.
type List struct {
	ordered []Particle
	byName  map[string]Particle
	byPID   map[int]Particle
}

// NewList builds a catalogue from particle definitions.
func NewList(particles []Particle) (*List, error) {
	l := &List{
		ordered: append([]Particle(nil), particles...),
		byName:  make(map[string]Particle, len(particles)),
		byPID:   make(map[int]Particle, len(particles)),
	}
	for _, p := range particles {
		key := norm.NFC.String(p.Name)
		if _, dup := l.byName[key]; dup {
			return nil, &ValidationError{Name: p.Name, Field: "name", Message: "duplicate particle name"}
		}
		if _, dup := l.byPID[p.PID]; dup {
			return nil, &ValidationError{Name: p.Name, Field: "pid", Message: fmt.Sprintf("duplicate pid %d", p.PID)}
		}
		l.byName[key] = p
		l.byPID[p.PID] = p
	}
	return l, nil
}

// Len returns the number of catalogue entries.
func (l *List) Len() int { return len(l.ordered) }

// All returns the entries in definition order.
func (l *List) All() []Particle {
	return append([]Particle(nil), l.ordered...)
}

// ByName looks a particle up by its NFC-normalized name.
func (l *List) ByName(name string) (Particle, bool) {
	p, ok := l.byName[norm.NFC.String(name)]
	return p, ok
}

// ByPID looks a particle up by PDG id.
func (l *List) ByPID(pid int) (Particle, bool) {
	p, ok := l.byPID[pid]
	return p, ok
}

// Filter returns the entries satisfying pred, in definition order.
func (l *List) Filter(pred func(Particle) bool) []Particle {
	var out []Particle
	for _, p := range l.ordered {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

// Matching returns the entries consistent with a solved edge assignment.
func (l *List) Matching(values qn.Values) []Particle {
	return l.Filter(func(p Particle) bool { return p.Matches(values) })
}
