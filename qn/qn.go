// Package qn defines the discrete quantum-number value model shared by the
// topology, rules, and solver packages.
//
// Every quantum number is a (Label, Value) pair. Value is a plain int, but
// its interpretation depends on the label's Kind:
//
//   - KindHalfInt: the value stores TWICE the physical value, so that
//     half-integer spins stay exact integers (spin 3/2 is stored as 3).
//   - KindParity: the value is -1 or +1; 0 means "undefined", which is how
//     C- and G-parity of charged states are represented (a physical parity
//     is never 0).
//   - KindInt: the value is the plain integer (additive charges, pid).
//
// The label registry records the kind and locus of every known label so that
// domains, formatting, and configuration validation never special-case a
// label by name.
package qn

import (
	"fmt"
	"sort"
	"strconv"
)

// Value is a single discrete quantum-number value. See the package
// documentation for how half-integer and parity labels are encoded.
type Value int

// Label names a quantum number, e.g. Charge or SpinMagnitude.
type Label string

// Kind describes how a label's Value is interpreted.
type Kind int

const (
	// KindInt values are plain integers (additive charges, pid).
	KindInt Kind = iota
	// KindHalfInt values store twice the physical value.
	KindHalfInt
	// KindParity values are -1 or +1, with 0 meaning undefined.
	KindParity
)

// Locus describes where a label lives on a decay graph.
type Locus int

const (
	// LocusEdge labels are particle-level quantum numbers carried by edges.
	LocusEdge Locus = iota
	// LocusNode labels are coupling quantum numbers carried by interaction
	// nodes.
	LocusNode
)

func (l Locus) String() string {
	if l == LocusEdge {
		return "edge"
	}
	return "node"
}

// Edge (particle-level) labels.
const (
	PID              Label = "pid"
	Charge           Label = "charge"
	BaryonNumber     Label = "baryon_number"
	ElectronLN       Label = "electron_lepton_number"
	MuonLN           Label = "muon_lepton_number"
	TauLN            Label = "tau_lepton_number"
	Strangeness      Label = "strangeness"
	Charmness        Label = "charmness"
	Bottomness       Label = "bottomness"
	SpinMagnitude    Label = "spin_magnitude"
	SpinProjection   Label = "spin_projection"
	IsospinMagnitude Label = "isospin_magnitude"
	IsospinProj      Label = "isospin_projection"
	Parity           Label = "parity"
	CParity          Label = "c_parity"
	GParity          Label = "g_parity"
)

// Node (coupling) labels.
const (
	// LMagnitude is the orbital angular momentum l between the outgoing
	// states of a node. Physically an integer, but stored doubled like every
	// half-integer label so coupling arithmetic is uniform.
	LMagnitude Label = "l_magnitude"
	// SMagnitude is the coupled spin s of the outgoing states of a node.
	SMagnitude Label = "s_magnitude"
)

// Info describes a registered label.
type Info struct {
	Kind  Kind
	Locus Locus
}

var registry = map[Label]Info{
	PID:              {KindInt, LocusEdge},
	Charge:           {KindInt, LocusEdge},
	BaryonNumber:     {KindInt, LocusEdge},
	ElectronLN:       {KindInt, LocusEdge},
	MuonLN:           {KindInt, LocusEdge},
	TauLN:            {KindInt, LocusEdge},
	Strangeness:      {KindInt, LocusEdge},
	Charmness:        {KindInt, LocusEdge},
	Bottomness:       {KindInt, LocusEdge},
	SpinMagnitude:    {KindHalfInt, LocusEdge},
	SpinProjection:   {KindHalfInt, LocusEdge},
	IsospinMagnitude: {KindHalfInt, LocusEdge},
	IsospinProj:      {KindHalfInt, LocusEdge},
	Parity:           {KindParity, LocusEdge},
	CParity:          {KindParity, LocusEdge},
	GParity:          {KindParity, LocusEdge},
	LMagnitude:       {KindHalfInt, LocusNode},
	SMagnitude:       {KindHalfInt, LocusNode},
}

// Lookup returns the registry entry for a label.
func Lookup(label Label) (Info, bool) {
	info, ok := registry[label]
	return info, ok
}

// KindOf returns the kind of a registered label, defaulting to KindInt for
// unknown labels.
func KindOf(label Label) Kind {
	return registry[label].Kind
}

// EdgeLabels returns all registered edge labels in sorted order.
func EdgeLabels() []Label { return labelsAt(LocusEdge) }

// NodeLabels returns all registered node labels in sorted order.
func NodeLabels() []Label { return labelsAt(LocusNode) }

func labelsAt(locus Locus) []Label {
	var out []Label
	for label, info := range registry {
		if info.Locus == locus {
			out = append(out, label)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Halves returns the Value representing n half-units (physical value n/2)
// for a half-integer label.
func Halves(n int) Value { return Value(n) }

// Whole returns the Value representing the integer j for a half-integer
// label.
func Whole(j int) Value { return Value(2 * j) }

// IsIntegral reports whether a half-integer-kind value is a whole integer
// (spin 1 is integral, spin 1/2 is not).
func (v Value) IsIntegral() bool { return v%2 == 0 }

// Abs returns the absolute value.
func (v Value) Abs() Value {
	if v < 0 {
		return -v
	}
	return v
}

// Format renders a value according to its label's kind: "3/2" for odd
// half-integer values, "+1"/"-1"/"?" for parities, plain decimal otherwise.
func Format(label Label, v Value) string {
	switch KindOf(label) {
	case KindHalfInt:
		if v%2 == 0 {
			return strconv.Itoa(int(v / 2))
		}
		return fmt.Sprintf("%d/2", v)
	case KindParity:
		switch {
		case v > 0:
			return "+1"
		case v < 0:
			return "-1"
		default:
			return "?"
		}
	default:
		return strconv.Itoa(int(v))
	}
}

// Values maps labels to concrete values at a single locus (one edge or one
// node).
type Values map[Label]Value

// Clone returns a deep copy.
func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for label, v := range vs {
		out[label] = v
	}
	return out
}

// Equal reports whether two value maps hold the same entries.
func (vs Values) Equal(other Values) bool {
	if len(vs) != len(other) {
		return false
	}
	for label, v := range vs {
		w, ok := other[label]
		if !ok || v != w {
			return false
		}
	}
	return true
}

// SortedLabels returns the labels of vs in sorted order. Map iteration order
// is never used for anything observable.
func (vs Values) SortedLabels() []Label {
	out := make([]Label, 0, len(vs))
	for label := range vs {
		out = append(out, label)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Project returns a copy of vs restricted to the given labels.
func (vs Values) Project(keep []Label) Values {
	out := make(Values, len(keep))
	for _, label := range keep {
		if v, ok := vs[label]; ok {
			out[label] = v
		}
	}
	return out
}
