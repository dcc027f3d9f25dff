// Package rules provides the conservation-law catalogue: pure predicates
// over named quantum numbers, each described by an explicit descriptor so a
// generic solver can bind and evaluate them without special-casing any rule
// by name.
package rules

import (
	"sort"

	"github.com/qsolve-hep/qsolve/qn"
)

// Scope states which graph element a rule is bound to.
type Scope int

const (
	// ScopeEdge rules validate a single state in isolation.
	ScopeEdge Scope = iota
	// ScopeNode rules relate the states meeting at an interaction node.
	ScopeNode
)

// Where identifies the source of one rule input relative to the bound
// element.
type Where int

const (
	AtEdge Where = iota // the bound edge itself
	AtIn                // every incoming edge of the bound node
	AtOut               // every outgoing edge of the bound node
	AtNode              // the bound node itself
)

// Need declares one named input a rule reads. The problem builder refuses to
// bind a rule whose needs cannot all be satisfied at the bound element.
type Need struct {
	Where Where
	Label qn.Label
}

// Input carries the concrete values for one rule evaluation. In and Out hold
// one value map per incoming respectively outgoing edge of the bound node;
// Edge and Node hold the maps of the bound element itself. Only the fields
// matching the rule's scope and needs are populated.
type Input struct {
	In   []qn.Values
	Out  []qn.Values
	Edge qn.Values
	Node qn.Values
}

// FreeSlot pinpoints the single unassigned input of a propagation call:
// which value map of an Input holds the free label. Index selects the edge
// within In or Out and is ignored for AtEdge and AtNode.
type FreeSlot struct {
	Where Where
	Index int
	Label qn.Label
}

// Values returns the map of in that the free slot lives in.
func (f FreeSlot) Values(in Input) qn.Values {
	switch f.Where {
	case AtIn:
		return in.In[f.Index]
	case AtOut:
		return in.Out[f.Index]
	case AtNode:
		return in.Node
	default:
		return in.Edge
	}
}

// Rule is a declarative conservation-law descriptor. Check is pure and must
// be order-independent: evaluating the catalogue in any order yields the
// same accepted set. Narrow, when set, propagates algebraically; rules
// without one propagate by trial restriction (see Restrict).
type Rule struct {
	Name   string
	Scope  Scope
	Needs  []Need
	Check  func(Input) bool
	Narrow func(in Input, free FreeSlot, domain []qn.Value) []qn.Value
}

// Restrict runs the rule in propagation mode: with every input but the free
// slot fixed in in, it returns the values of domain the rule admits for that
// slot, in domain order. Rules without an algebraic Narrow fall back to
// trial restriction, writing each candidate into the free slot and keeping
// those Check accepts; the slot's prior content is restored afterwards.
// Solving a problem with propagation or with strict checks alone yields the
// same accepted set.
func (r Rule) Restrict(in Input, free FreeSlot, domain []qn.Value) []qn.Value {
	if r.Narrow != nil {
		return r.Narrow(in, free, domain)
	}
	target := free.Values(in)
	prior, had := target[free.Label]
	out := make([]qn.Value, 0, len(domain))
	for _, v := range domain {
		target[free.Label] = v
		if r.Check(in) {
			out = append(out, v)
		}
	}
	if had {
		target[free.Label] = prior
	} else {
		delete(target, free.Label)
	}
	return out
}

// Set is a named selection of rules. Order is preserved as given; binding
// and reporting follow it.
type Set []Rule

// Names returns the rule names in set order.
func (s Set) Names() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.Name
	}
	return out
}

// Contains reports whether the set holds a rule with the given name.
func (s Set) Contains(name string) bool {
	for _, r := range s {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Select returns the subset of s whose names appear in keep, preserving the
// order of s.
func (s Set) Select(keep []string) Set {
	wanted := make(map[string]bool, len(keep))
	for _, name := range keep {
		wanted[name] = true
	}
	var out Set
	for _, r := range s {
		if wanted[r.Name] {
			out = append(out, r)
		}
	}
	return out
}

// Merge combines sets, dropping rules whose name already appeared.
func Merge(sets ...Set) Set {
	var out Set
	seen := make(map[string]bool)
	for _, s := range sets {
		for _, r := range s {
			if !seen[r.Name] {
				seen[r.Name] = true
				out = append(out, r)
			}
		}
	}
	return out
}

// Catalogue returns every rule this package defines, sorted by name. Useful
// for lookup tables and exhaustive listings.
func Catalogue() Set {
	all := Set{
		ChargeConservation,
		BaryonNumberConservation,
		ElectronLNConservation,
		MuonLNConservation,
		TauLNConservation,
		StrangenessConservation,
		CharmConservation,
		BottomnessConservation,
		ParityConservation,
		CParityConservation,
		GParityConservation,
		SpinMagnitudeConservation,
		IsospinConservation,
		SpinValidity,
		IsospinValidity,
		GellMannNishijima,
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// ByName returns the catalogue rule with the given name.
func ByName(name string) (Rule, bool) {
	for _, r := range Catalogue() {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

func sum(states []qn.Values, label qn.Label) qn.Value {
	var total qn.Value
	for _, s := range states {
		total += s[label]
	}
	return total
}

// isBoson reports whether a doubled spin magnitude is integral.
func isBoson(spinMagnitude qn.Value) bool {
	return spinMagnitude.IsIntegral()
}

// isParticleAntiparticlePair relies on the PDG id convention that an
// antiparticle carries the negated id of its particle.
func isParticleAntiparticlePair(pid1, pid2 qn.Value) bool {
	return pid1 == -pid2
}

// minusOnePow evaluates (-1)^x for a doubled value x. The exponent must be
// integral; callers guard that before calling.
func minusOnePow(doubled qn.Value) qn.Value {
	if doubled.Abs()%4 == 0 {
		return 1
	}
	return -1
}
