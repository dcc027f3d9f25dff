package rules

import "github.com/qsolve-hep/qsolve/qn"

// additive builds the conservation rule for one additive quantum number:
// the sum over a node's incoming edges must equal the sum over its outgoing
// edges.
func additive(name string, label qn.Label) Rule {
	return Rule{
		Name:  name,
		Scope: ScopeNode,
		Needs: []Need{
			{Where: AtIn, Label: label},
			{Where: AtOut, Label: label},
		},
		Check: func(in Input) bool {
			return sum(in.In, label) == sum(in.Out, label)
		},
		// The balance equation pins the free slot to a single value, so
		// propagation never needs a trial loop. Any current content of the
		// free slot is excluded from the sums.
		Narrow: func(in Input, free FreeSlot, domain []qn.Value) []qn.Value {
			want := sum(in.In, label) - sum(in.Out, label) + free.Values(in)[label]
			if free.Where == AtIn {
				want = sum(in.Out, label) - sum(in.In, label) + free.Values(in)[label]
			}
			for _, v := range domain {
				if v == want {
					return []qn.Value{v}
				}
			}
			return nil
		},
	}
}

var (
	ChargeConservation       = additive("charge_conservation", qn.Charge)
	BaryonNumberConservation = additive("baryon_number_conservation", qn.BaryonNumber)
	ElectronLNConservation   = additive("electron_lepton_number_conservation", qn.ElectronLN)
	MuonLNConservation       = additive("muon_lepton_number_conservation", qn.MuonLN)
	TauLNConservation        = additive("tau_lepton_number_conservation", qn.TauLN)
	StrangenessConservation  = additive("strangeness_conservation", qn.Strangeness)
	CharmConservation        = additive("charm_conservation", qn.Charmness)
	BottomnessConservation   = additive("bottomness_conservation", qn.Bottomness)
)

// ParityConservation implements P_in = P_out * (-1)^L for two-body decays.
// An undefined parity on any adjacent edge rejects the candidate. Vertices
// that are not 1-in/2-out pass unconditionally; L carries no meaning there.
var ParityConservation = Rule{
	Name:  "parity_conservation",
	Scope: ScopeNode,
	Needs: []Need{
		{Where: AtIn, Label: qn.Parity},
		{Where: AtOut, Label: qn.Parity},
		{Where: AtNode, Label: qn.LMagnitude},
	},
	Check: func(in Input) bool {
		for _, s := range append(append([]qn.Values{}, in.In...), in.Out...) {
			if s[qn.Parity] == 0 {
				return false
			}
		}
		if len(in.In) != 1 || len(in.Out) != 2 {
			return true
		}
		parityIn := in.In[0][qn.Parity]
		parityOut := in.Out[0][qn.Parity] * in.Out[1][qn.Parity]
		return parityIn == parityOut*minusOnePow(in.Node[qn.LMagnitude])
	},
}

// cParityOfStates derives the combined C parity of one side of a vertex, or
// 0 when it cannot be determined. A particle-antiparticle pair without
// intrinsic C parities falls back to (-1)^L for bosons and (-1)^(L+S) for
// fermions.
func cParityOfStates(states []qn.Values, node qn.Values) qn.Value {
	product := qn.Value(1)
	defined := 0
	for _, s := range states {
		if c := s[qn.CParity]; c != 0 {
			product *= c
			defined++
		}
	}
	if defined == len(states) {
		return product
	}
	if len(states) == 2 && isParticleAntiparticlePair(states[0][qn.PID], states[1][qn.PID]) {
		l := node[qn.LMagnitude]
		if isBoson(states[0][qn.SpinMagnitude]) {
			return minusOnePow(l)
		}
		if s := node[qn.SMagnitude]; s.IsIntegral() {
			return minusOnePow(l + s)
		}
	}
	return 0
}

// CParityConservation implements C_in = C_out wherever both sides' C
// parities can be determined; otherwise the candidate passes.
var CParityConservation = Rule{
	Name:  "c_parity_conservation",
	Scope: ScopeNode,
	Needs: []Need{
		{Where: AtIn, Label: qn.CParity},
		{Where: AtIn, Label: qn.PID},
		{Where: AtIn, Label: qn.SpinMagnitude},
		{Where: AtOut, Label: qn.CParity},
		{Where: AtOut, Label: qn.PID},
		{Where: AtOut, Label: qn.SpinMagnitude},
		{Where: AtNode, Label: qn.LMagnitude},
		{Where: AtNode, Label: qn.SMagnitude},
	},
	Check: func(in Input) bool {
		cIn := cParityOfStates(in.In, in.Node)
		if cIn == 0 {
			return true
		}
		cOut := cParityOfStates(in.Out, in.Node)
		if cOut == 0 {
			return true
		}
		return cIn == cOut
	},
}

// gParityOfPair derives the G parity of a particle-antiparticle pair from
// the single state's isospin on the other side of the vertex, or 0 when it
// cannot be determined.
func gParityOfPair(isospin qn.Value, pair []qn.Values, node qn.Values) qn.Value {
	if !isParticleAntiparticlePair(pair[0][qn.PID], pair[1][qn.PID]) {
		return 0
	}
	if !isospin.IsIntegral() {
		return 0
	}
	l := node[qn.LMagnitude]
	if isBoson(pair[0][qn.SpinMagnitude]) {
		return minusOnePow(l + isospin)
	}
	if s := node[qn.SMagnitude]; s.IsIntegral() {
		return minusOnePow(l + s + isospin)
	}
	return 0
}

// GParityConservation implements G_in = G_out. When every state carries an
// intrinsic G parity the products are compared directly; for a two-body
// vertex whose pair side lacks one, the pair's G parity is derived from the
// single state's isospin.
var GParityConservation = Rule{
	Name:  "g_parity_conservation",
	Scope: ScopeNode,
	Needs: []Need{
		{Where: AtIn, Label: qn.GParity},
		{Where: AtIn, Label: qn.PID},
		{Where: AtIn, Label: qn.SpinMagnitude},
		{Where: AtIn, Label: qn.IsospinMagnitude},
		{Where: AtOut, Label: qn.GParity},
		{Where: AtOut, Label: qn.PID},
		{Where: AtOut, Label: qn.SpinMagnitude},
		{Where: AtOut, Label: qn.IsospinMagnitude},
		{Where: AtNode, Label: qn.LMagnitude},
		{Where: AtNode, Label: qn.SMagnitude},
	},
	Check: func(in Input) bool {
		allDefined := true
		product := func(states []qn.Values) qn.Value {
			p := qn.Value(1)
			for _, s := range states {
				g := s[qn.GParity]
				if g == 0 {
					allDefined = false
					continue
				}
				p *= g
			}
			return p
		}
		gIn, gOut := product(in.In), product(in.Out)
		if allDefined {
			return gIn == gOut
		}

		var single qn.Values
		var pair []qn.Values
		switch {
		case len(in.In) == 1 && len(in.Out) == 2:
			single, pair = in.In[0], in.Out
		case len(in.In) == 2 && len(in.Out) == 1:
			single, pair = in.Out[0], in.In
		default:
			return true
		}
		pairG := gParityOfPair(single[qn.IsospinMagnitude], pair, in.Node)
		singleG := single[qn.GParity]
		if pairG == 0 || singleG == 0 {
			return true
		}
		return pairG == singleG
	},
}

// GellMannNishijima checks Q = I3 + (B + S + C + B')/2 on a single state.
// States carrying a lepton number are exempt; the formula applies to hadrons
// only.
var GellMannNishijima = Rule{
	Name:  "gellmann_nishijima",
	Scope: ScopeEdge,
	Needs: []Need{
		{Where: AtEdge, Label: qn.Charge},
		{Where: AtEdge, Label: qn.IsospinProj},
		{Where: AtEdge, Label: qn.BaryonNumber},
		{Where: AtEdge, Label: qn.Strangeness},
		{Where: AtEdge, Label: qn.Charmness},
		{Where: AtEdge, Label: qn.Bottomness},
		{Where: AtEdge, Label: qn.ElectronLN},
		{Where: AtEdge, Label: qn.MuonLN},
		{Where: AtEdge, Label: qn.TauLN},
	},
	Check: func(in Input) bool {
		s := in.Edge
		if s[qn.ElectronLN] != 0 || s[qn.MuonLN] != 0 || s[qn.TauLN] != 0 {
			return true
		}
		hypercharge := s[qn.BaryonNumber] + s[qn.Strangeness] + s[qn.Charmness] + s[qn.Bottomness]
		// Both sides doubled: 2Q = 2*I3 + Y.
		return 2*s[qn.Charge] == s[qn.IsospinProj] + hypercharge
	},
}
