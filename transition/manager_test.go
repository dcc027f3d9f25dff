package transition

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsolve-hep/qsolve/particle"
	"github.com/qsolve-hep/qsolve/qn"
	"github.com/qsolve-hep/qsolve/solver"
	"github.com/qsolve-hep/qsolve/topology"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultList(t *testing.T) *particle.List {
	t.Helper()
	list, err := particle.Default()
	require.NoError(t, err)
	return list
}

// subList restricts the default catalogue to the named particles, shrinking
// the search domains accordingly.
func subList(t *testing.T, names ...string) *particle.List {
	t.Helper()
	full := defaultList(t)
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	kept := full.Filter(func(p particle.Particle) bool { return want[p.Name] })
	require.Len(t, kept, len(names))
	list, err := particle.NewList(kept)
	require.NoError(t, err)
	return list
}

func byName(t *testing.T, list *particle.List, name string) particle.Particle {
	t.Helper()
	p, ok := list.ByName(name)
	require.True(t, ok, name)
	return p
}

func TestGammaCheck(t *testing.T) {
	list := defaultList(t)

	types := GammaCheck{}.Check([]particle.Particle{
		byName(t, list, "pi0"),
		byName(t, list, "gamma"),
	})
	assert.Equal(t, []InteractionType{EM}, types)

	types = GammaCheck{}.Check([]particle.Particle{byName(t, list, "pi0")})
	assert.Equal(t, AllInteractionTypes(), types)
}

func TestLeptonCheck(t *testing.T) {
	list := defaultList(t)

	types := LeptonCheck{}.Check([]particle.Particle{
		byName(t, list, "e-"),
		byName(t, list, "e+"),
	})
	assert.Equal(t, []InteractionType{EM, Weak}, types)

	types = LeptonCheck{}.Check([]particle.Particle{
		byName(t, list, "mu-"),
		byName(t, list, "nu(mu)"),
	})
	assert.Equal(t, []InteractionType{Weak}, types)

	types = LeptonCheck{}.Check([]particle.Particle{byName(t, list, "pi+")})
	assert.Equal(t, AllInteractionTypes(), types)
}

func TestUniquePermutations(t *testing.T) {
	list := defaultList(t)
	pi0 := byName(t, list, "pi0")
	piPlus := byName(t, list, "pi+")

	perms := uniquePermutations([]particle.Particle{pi0, pi0, piPlus})
	// Two interchangeable pi0 halve the 3! orderings.
	require.Len(t, perms, 3)
	seen := make(map[string]bool)
	for _, perm := range perms {
		key := perm[0].Name + "|" + perm[1].Name + "|" + perm[2].Name
		assert.False(t, seen[key], "duplicate permutation %s", key)
		seen[key] = true
	}

	perms = uniquePermutations([]particle.Particle{pi0, pi0})
	assert.Len(t, perms, 1)
}

func TestCreateProblemSetsUnknownParticle(t *testing.T) {
	m := New(defaultList(t), WithLogger(quietLogger()))

	_, err := m.CreateProblemSets("graviton", []string{"pi+", "pi-"})
	require.ErrorContains(t, err, "unknown particle")

	_, err = m.CreateProblemSets("pi0", []string{"gamma", "axion"})
	require.ErrorContains(t, err, "unknown particle")
}

func TestCreateProblemSetsPhotonFinalState(t *testing.T) {
	m := New(defaultList(t), WithLogger(quietLogger()))

	sets, err := m.CreateProblemSets("pi0", []string{"gamma", "gamma"})
	require.NoError(t, err)

	// One topology, one distinct ordering of two photons, and the photons
	// pin the single node to the electromagnetic interaction.
	require.Len(t, sets, 1)
	assert.Equal(t, EM, sets[0].Types[0])
	assert.Equal(t, EM.Strength(), sets[0].Strength)
	assert.Equal(t, 2, sets[0].Problem.FreeVariableCount())
}

func TestCreateProblemSetsSortedByStrength(t *testing.T) {
	m := New(defaultList(t), WithLogger(quietLogger()))

	sets, err := m.CreateProblemSets("J/psi(1S)", []string{"e+", "e-"})
	require.NoError(t, err)

	// Two orderings of distinct leptons, each with EM and weak variants.
	require.Len(t, sets, 4)
	for i := 1; i < len(sets); i++ {
		assert.GreaterOrEqual(t, sets[i-1].Strength, sets[i].Strength)
	}
	assert.Equal(t, EM, sets[0].Types[0])
	assert.Equal(t, Weak, sets[3].Types[0])
}

func TestFindSolutionsPiZeroToTwoPhotons(t *testing.T) {
	m := New(defaultList(t), WithLogger(quietLogger()))

	res, err := m.FindSolutions(context.Background(), "pi0", []string{"gamma", "gamma"})
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	assert.False(t, res.Truncated)

	// Parity forces odd orbital momentum and the spinless pion forces
	// s == l, so l = s = 1 is the only coupling.
	require.Len(t, res.Transitions, 1)
	tr := res.Transitions[0]
	assert.Equal(t, "pi0", tr.States[topology.InitialEdge].Name)
	assert.Equal(t, "gamma", tr.States[0].Name)
	assert.Equal(t, "gamma", tr.States[1].Name)
	assert.Equal(t, qn.Whole(1), tr.Interactions[0][qn.LMagnitude])
	assert.Equal(t, qn.Whole(1), tr.Interactions[0][qn.SMagnitude])
}

func TestFindSolutionsJPsiToLeptonPair(t *testing.T) {
	m := New(defaultList(t), WithLogger(quietLogger()))

	res, err := m.FindSolutions(context.Background(), "J/psi(1S)", []string{"e+", "e-"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Transitions)

	// Parity keeps l even, charge parity of the lepton pair keeps l+s odd,
	// so only the spin-triplet couplings survive.
	for _, tr := range res.Transitions {
		l := tr.Interactions[0][qn.LMagnitude]
		s := tr.Interactions[0][qn.SMagnitude]
		assert.Contains(t, []qn.Value{qn.Whole(0), qn.Whole(2)}, l)
		assert.Equal(t, qn.Whole(1), s)
	}
}

func TestFindSolutionsThreePionDecay(t *testing.T) {
	list := subList(t, "J/psi(1S)", "pi+", "pi-", "pi0",
		"rho(770)+", "rho(770)-", "rho(770)0")
	m := New(list,
		WithInteractionTypes(Strong),
		WithWorkers(2),
		WithLogger(quietLogger()))

	res, err := m.FindSolutions(context.Background(),
		"J/psi(1S)", []string{"pi+", "pi-", "pi0"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Transitions)
	assert.False(t, res.Truncated)

	resonances := make(map[string]bool)
	for _, tr := range res.Transitions {
		inter := tr.Topology.IntermediateEdgeIDs()
		require.Len(t, inter, 1)
		resonance := tr.States[inter[0]]
		resonances[resonance.Name] = true

		// The resonance must feed the two-pion vertex consistently.
		edge, ok := tr.Topology.Edge(inter[0])
		require.True(t, ok)
		sum := 0
		for _, id := range tr.Topology.OutEdges(edge.Target) {
			sum += tr.States[id].Charge
		}
		assert.Equal(t, resonance.Charge, sum)
	}
	// All three rho charge states appear across the pion orderings.
	assert.True(t, resonances["rho(770)0"], "expected a neutral rho resonance")
	assert.True(t, resonances["rho(770)+"], "expected a charged rho resonance")
	assert.True(t, resonances["rho(770)-"], "expected a charged rho resonance")
}

func TestFindSolutionsForbiddenDecayIsEmpty(t *testing.T) {
	m := New(defaultList(t),
		WithInteractionTypes(Strong),
		WithLogger(quietLogger()))

	// rho0 -> pi0 pi0 is forbidden: charge parity flips and the coupling
	// of two identical isovectors to I=1 vanishes.
	res, err := m.FindSolutions(context.Background(), "rho(770)0", []string{"pi0", "pi0"})
	require.NoError(t, err)
	assert.Empty(t, res.Transitions)
	assert.False(t, res.Truncated)
}

func TestFindSolutionsBudgetTruncation(t *testing.T) {
	list := subList(t, "J/psi(1S)", "pi+", "pi-", "pi0",
		"rho(770)+", "rho(770)-", "rho(770)0")
	m := New(list,
		WithInteractionTypes(Strong),
		WithBudget(solver.Budget{MaxIterations: 1}),
		WithLogger(quietLogger()))

	res, err := m.FindSolutions(context.Background(),
		"J/psi(1S)", []string{"pi+", "pi-", "pi0"})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Empty(t, res.Transitions)
}

func TestFindSolutionsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(defaultList(t), WithLogger(quietLogger()))
	_, err := m.FindSolutions(ctx, "pi0", []string{"gamma", "gamma"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestFindSolutionsDistinctRunIDs(t *testing.T) {
	m := New(defaultList(t), WithLogger(quietLogger()))

	first, err := m.FindSolutions(context.Background(), "pi0", []string{"gamma", "gamma"})
	require.NoError(t, err)
	second, err := m.FindSolutions(context.Background(), "pi0", []string{"gamma", "gamma"})
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Transitions, second.Transitions)
}
