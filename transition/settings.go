// Package transition orchestrates full reaction searches: it enumerates
// topologies, builds one constraint problem per topology and interaction
// assignment, solves them grouped by interaction strength, and converts
// accepted assignments back into named particles.
package transition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qsolve-hep/qsolve/particle"
	"github.com/qsolve-hep/qsolve/qn"
	"github.com/qsolve-hep/qsolve/rules"
	"github.com/qsolve-hep/qsolve/solver"
)

// InteractionType classifies the force acting at an interaction node.
type InteractionType int

const (
	Strong InteractionType = iota
	EM
	Weak
)

// AllInteractionTypes lists the types in decreasing strength order.
func AllInteractionTypes() []InteractionType {
	return []InteractionType{Strong, EM, Weak}
}

func (t InteractionType) String() string {
	switch t {
	case Strong:
		return "strong"
	case EM:
		return "electromagnetic"
	case Weak:
		return "weak"
	}
	return fmt.Sprintf("InteractionType(%d)", int(t))
}

// Strength returns the relative interaction strength used to rank problem
// sets.
func (t InteractionType) Strength() float64 {
	switch t {
	case Strong:
		return 60
	case EM:
		return 1
	default:
		return 1e-4
	}
}

// InteractionTypeFromString resolves a type from a prefix: "em"/"e" for
// electromagnetic, "s" for strong, "w" for weak.
func InteractionTypeFromString(description string) (InteractionType, error) {
	lower := strings.ToLower(strings.TrimSpace(description))
	switch {
	case strings.HasPrefix(lower, "em") || strings.HasPrefix(lower, "e"):
		return EM, nil
	case strings.HasPrefix(lower, "s"):
		return Strong, nil
	case strings.HasPrefix(lower, "w"):
		return Weak, nil
	}
	return Strong, fmt.Errorf("unknown interaction type %q", description)
}

// Bounds caps the node quantum-number domains.
type Bounds struct {
	MaxAngularMomentum int      // physical L
	MaxSpinMagnitude   qn.Value // doubled coupled spin
}

// DefaultBounds covers the common light-meson decays.
func DefaultBounds() Bounds {
	return Bounds{MaxAngularMomentum: 2, MaxSpinMagnitude: qn.Whole(2)}
}

// edgeValidityRules apply to every edge regardless of interaction type.
func edgeValidityRules() rules.Set {
	return rules.Set{
		rules.IsospinValidity,
		rules.GellMannNishijima,
	}
}

// NodeRules returns the conservation laws enforced at a node of the given
// interaction type. The sets are layered: the weak rules hold for every
// type, the electromagnetic set adds flavor and parity conservation, and
// the strong set additionally conserves isospin and G parity.
func NodeRules(t InteractionType) rules.Set {
	weak := rules.Set{
		rules.SpinMagnitudeConservation,
		rules.ChargeConservation,
		rules.ElectronLNConservation,
		rules.MuonLNConservation,
		rules.TauLNConservation,
		rules.BaryonNumberConservation,
	}
	if t == Weak {
		return weak
	}
	em := append(weak, rules.Set{
		rules.CharmConservation,
		rules.StrangenessConservation,
		rules.BottomnessConservation,
		rules.ParityConservation,
		rules.CParityConservation,
	}...)
	if t == EM {
		return em
	}
	return append(em, rules.Set{
		rules.IsospinConservation,
		rules.GParityConservation,
	}...)
}

// DomainsFor derives the solver domains from the particle catalogue: each
// discrete quantum number ranges over the values the catalogue actually
// realizes, mirrored into the negatives where the number is signed. Node
// domains come from bounds; nbody topologies carry no orbital structure, so
// their l and s collapse to zero.
func DomainsFor(list *particle.List, bounds Bounds, nbody bool) solver.Domains {
	edge := map[qn.Label][]qn.Value{
		qn.ElectronLN: qn.IntDomain(-1, 1),
		qn.MuonLN:     qn.IntDomain(-1, 1),
		qn.TauLN:      qn.IntDomain(-1, 1),
		qn.Parity:     qn.ParityDomain(),
		qn.CParity:    qn.OptionalParityDomain(),
		qn.GParity:    qn.OptionalParityDomain(),
	}

	additive := map[qn.Label]func(particle.Particle) qn.Value{
		qn.Charge:       func(p particle.Particle) qn.Value { return qn.Value(p.Charge) },
		qn.BaryonNumber: func(p particle.Particle) qn.Value { return qn.Value(p.BaryonNumber) },
		qn.Strangeness:  func(p particle.Particle) qn.Value { return qn.Value(p.Strangeness) },
		qn.Charmness:    func(p particle.Particle) qn.Value { return qn.Value(p.Charmness) },
		qn.Bottomness:   func(p particle.Particle) qn.Value { return qn.Value(p.Bottomness) },
	}
	for label, get := range additive {
		edge[label] = qn.ExtendNegative(observed(list, get))
	}

	edge[qn.SpinMagnitude] = observed(list, func(p particle.Particle) qn.Value { return p.Spin })
	edge[qn.IsospinMagnitude] = observed(list, func(p particle.Particle) qn.Value { return p.Isospin })
	edge[qn.IsospinProj] = qn.ExtendNegative(edge[qn.IsospinMagnitude])
	edge[qn.PID] = pids(list)

	node := map[qn.Label][]qn.Value{
		qn.LMagnitude: {0},
		qn.SMagnitude: {0},
	}
	if !nbody {
		node[qn.LMagnitude] = qn.WholeDomain(bounds.MaxAngularMomentum)
		node[qn.SMagnitude] = qn.HalvesDomain(bounds.MaxSpinMagnitude)
	}
	return solver.Domains{Edge: edge, Node: node}
}

// observed collects the distinct non-negative values of one quantum number
// across the catalogue, sorted ascending.
func observed(list *particle.List, get func(particle.Particle) qn.Value) []qn.Value {
	seen := make(map[qn.Value]bool)
	for _, p := range list.All() {
		seen[get(p).Abs()] = true
	}
	out := make([]qn.Value, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func pids(list *particle.List) []qn.Value {
	out := make([]qn.Value, 0, list.Len())
	for _, p := range list.All() {
		out = append(out, qn.Value(p.PID))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
