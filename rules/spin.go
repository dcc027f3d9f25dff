package rules

import "github.com/qsolve-hep/qsolve/qn"

// checkSpinValid verifies that a projection is reachable for a magnitude:
// |m| <= j and j - m integral.
func checkSpinValid(magnitude, projection qn.Value) bool {
	if magnitude < 0 {
		return false
	}
	if projection.Abs() > magnitude {
		return false
	}
	return (magnitude - projection).IsIntegral()
}

// SpinValidity checks a single state's spin magnitude and projection for
// consistency.
var SpinValidity = Rule{
	Name:  "spin_validity",
	Scope: ScopeEdge,
	Needs: []Need{
		{Where: AtEdge, Label: qn.SpinMagnitude},
		{Where: AtEdge, Label: qn.SpinProjection},
	},
	Check: func(in Input) bool {
		return checkSpinValid(in.Edge[qn.SpinMagnitude], in.Edge[qn.SpinProjection])
	},
}

// IsospinValidity checks a single state's isospin magnitude and projection
// for consistency.
var IsospinValidity = Rule{
	Name:  "isospin_validity",
	Scope: ScopeEdge,
	Needs: []Need{
		{Where: AtEdge, Label: qn.IsospinMagnitude},
		{Where: AtEdge, Label: qn.IsospinProj},
	},
	Check: func(in Input) bool {
		return checkSpinValid(in.Edge[qn.IsospinMagnitude], in.Edge[qn.IsospinProj])
	},
}

// coupleRange lists the magnitudes reachable by coupling j1 and j2:
// |j1-j2| <= j <= j1+j2 in integer steps.
func coupleRange(j1, j2 qn.Value) []qn.Value {
	var out []qn.Value
	for j := (j1 - j2).Abs(); j <= j1+j2; j += 2 {
		out = append(out, j)
	}
	return out
}

// coupleMagnitudes folds a list of spin magnitudes into the set of total
// magnitudes they can couple to. When node quantum numbers are given, the
// coupled spin s must be reachable and the result is re-coupled with l.
func coupleMagnitudes(magnitudes []qn.Value, node qn.Values, useNode bool) map[qn.Value]bool {
	if len(magnitudes) == 1 {
		return map[qn.Value]bool{magnitudes[0]: true}
	}
	coupled := map[qn.Value]bool{magnitudes[0]: true}
	for _, mag := range magnitudes[1:] {
		next := make(map[qn.Value]bool)
		for ref := range coupled {
			for _, j := range coupleRange(mag, ref) {
				next[j] = true
			}
		}
		coupled = next
	}
	if useNode {
		s, l := node[qn.SMagnitude], node[qn.LMagnitude]
		if !coupled[s] {
			return nil
		}
		out := make(map[qn.Value]bool)
		for _, j := range coupleRange(s, l) {
			out[j] = true
		}
		return out
	}
	return coupled
}

// SpinMagnitudeConservation checks |s1-s2| <= s <= s1+s2 and
// |l-s| <= j <= l+s at two-body vertices. Vertices with other shapes have no
// l-s coupling; there only the combined integralness of the two sides must
// agree.
var SpinMagnitudeConservation = Rule{
	Name:  "spin_magnitude_conservation",
	Scope: ScopeNode,
	Needs: []Need{
		{Where: AtIn, Label: qn.SpinMagnitude},
		{Where: AtOut, Label: qn.SpinMagnitude},
		{Where: AtNode, Label: qn.LMagnitude},
		{Where: AtNode, Label: qn.SMagnitude},
	},
	Check: func(in Input) bool {
		inMags := make([]qn.Value, len(in.In))
		for i, s := range in.In {
			inMags[i] = s[qn.SpinMagnitude]
		}
		outMags := make([]qn.Value, len(in.Out))
		for i, s := range in.Out {
			outMags[i] = s[qn.SpinMagnitude]
		}

		twoBody := (len(inMags) == 1 && len(outMags) == 2) ||
			(len(inMags) == 2 && len(outMags) == 1)
		if !twoBody {
			return sum(in.In, qn.SpinMagnitude).IsIntegral() ==
				sum(in.Out, qn.SpinMagnitude).IsIntegral()
		}

		inTotals := coupleMagnitudes(inMags, in.Node, true)
		outTotals := coupleMagnitudes(outMags, in.Node, true)
		for j := range inTotals {
			if outTotals[j] {
				return true
			}
		}
		return false
	},
}

type spin struct {
	magnitude  qn.Value
	projection qn.Value
}

// oddPhysical reports whether a doubled value represents an odd integer.
func oddPhysical(doubled qn.Value) bool {
	return doubled.Abs()%4 == 2
}

// clebschGordanZero detects couplings whose Clebsch-Gordan coefficient
// vanishes by symmetry.
func clebschGordanZero(s1, s2, coupled spin) bool {
	sameOrZero := (s1.magnitude == s2.magnitude && s1.projection == s2.projection) ||
		(s1.projection == 0 && s2.projection == 0)
	if sameOrZero && oddPhysical(coupled.magnitude-s1.magnitude-s2.magnitude) {
		return true
	}
	if s1.magnitude == coupled.magnitude && s1.projection == -coupled.projection &&
		oddPhysical(s2.magnitude-s1.magnitude-coupled.magnitude) {
		return true
	}
	return s2.magnitude == coupled.magnitude && s2.projection == -coupled.projection &&
		oddPhysical(s1.magnitude-s2.magnitude-coupled.magnitude)
}

// coupleSpins couples two spins including projections, dropping couplings
// with vanishing Clebsch-Gordan coefficients.
func coupleSpins(s1, s2 spin) map[spin]bool {
	projection := s1.projection + s2.projection
	out := make(map[spin]bool)
	for _, j := range coupleRange(s1.magnitude, s2.magnitude) {
		if j < projection.Abs() {
			continue
		}
		c := spin{magnitude: j, projection: projection}
		if !clebschGordanZero(s1, s2, c) {
			out[c] = true
		}
	}
	return out
}

// totalSpins folds a list of spins into every total spin they can couple to.
func totalSpins(spins []spin) map[spin]bool {
	totals := map[spin]bool{spins[0]: true}
	for _, s := range spins[1:] {
		next := make(map[spin]bool)
		for ref := range totals {
			for c := range coupleSpins(ref, s) {
				next[c] = true
			}
		}
		totals = next
	}
	return totals
}

// IsospinConservation checks |I1-I2| <= I <= I1+I2 with matching
// projections, rejecting couplings whose Clebsch-Gordan coefficients all
// vanish.
var IsospinConservation = Rule{
	Name:  "isospin_conservation",
	Scope: ScopeNode,
	Needs: []Need{
		{Where: AtIn, Label: qn.IsospinMagnitude},
		{Where: AtIn, Label: qn.IsospinProj},
		{Where: AtOut, Label: qn.IsospinMagnitude},
		{Where: AtOut, Label: qn.IsospinProj},
	},
	Check: func(in Input) bool {
		if sum(in.In, qn.IsospinProj) != sum(in.Out, qn.IsospinProj) {
			return false
		}
		collect := func(states []qn.Values) []spin {
			out := make([]spin, len(states))
			for i, s := range states {
				mag, proj := s[qn.IsospinMagnitude], s[qn.IsospinProj]
				if !checkSpinValid(mag, proj) {
					return nil
				}
				out[i] = spin{magnitude: mag, projection: proj}
			}
			return out
		}
		inSpins := collect(in.In)
		outSpins := collect(in.Out)
		if inSpins == nil || outSpins == nil {
			return false
		}
		inTotals := totalSpins(inSpins)
		outTotals := totalSpins(outSpins)
		for s := range inTotals {
			if outTotals[s] {
				return true
			}
		}
		return false
	},
}
