package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsolve-hep/qsolve/particle"
	"github.com/qsolve-hep/qsolve/qn"
)

func TestInteractionTypeOrdering(t *testing.T) {
	assert.Equal(t, []InteractionType{Strong, EM, Weak}, AllInteractionTypes())
	assert.Greater(t, Strong.Strength(), EM.Strength())
	assert.Greater(t, EM.Strength(), Weak.Strength())
}

func TestInteractionTypeFromString(t *testing.T) {
	cases := map[string]InteractionType{
		"strong":          Strong,
		"s":               Strong,
		"em":              EM,
		"EM":              EM,
		"electromagnetic": EM,
		"weak":            Weak,
		"W":               Weak,
	}
	for in, want := range cases {
		got, err := InteractionTypeFromString(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := InteractionTypeFromString("gravity")
	assert.Error(t, err)
}

func TestNodeRulesAreLayered(t *testing.T) {
	weak := NodeRules(Weak)
	em := NodeRules(EM)
	strong := NodeRules(Strong)

	for _, name := range weak.Names() {
		assert.True(t, em.Contains(name), "em should keep weak rule %s", name)
		assert.True(t, strong.Contains(name), "strong should keep weak rule %s", name)
	}
	for _, name := range em.Names() {
		assert.True(t, strong.Contains(name), "strong should keep em rule %s", name)
	}

	assert.True(t, weak.Contains("charge_conservation"))
	assert.False(t, weak.Contains("parity_conservation"))
	assert.True(t, em.Contains("parity_conservation"))
	assert.False(t, em.Contains("isospin_conservation"))
	assert.True(t, strong.Contains("isospin_conservation"))
	assert.True(t, strong.Contains("g_parity_conservation"))
}

func TestDomainsForCatalogue(t *testing.T) {
	list, err := particle.Default()
	require.NoError(t, err)

	domains := DomainsFor(list, DefaultBounds(), false)

	assert.ElementsMatch(t, []qn.Value{-1, 0, 1}, domains.Edge[qn.Charge])
	assert.ElementsMatch(t, []qn.Value{-1, 1}, domains.Edge[qn.Parity])
	assert.ElementsMatch(t, []qn.Value{-1, 0, 1}, domains.Edge[qn.CParity])
	assert.Len(t, domains.Edge[qn.PID], list.Len())

	// l up to 2, s on the half-integer grid up to 2.
	assert.Equal(t, []qn.Value{0, 2, 4}, domains.Node[qn.LMagnitude])
	assert.Equal(t, []qn.Value{0, 1, 2, 3, 4}, domains.Node[qn.SMagnitude])
}

func TestDomainsForNBody(t *testing.T) {
	list, err := particle.Default()
	require.NoError(t, err)

	domains := DomainsFor(list, DefaultBounds(), true)
	assert.Equal(t, []qn.Value{0}, domains.Node[qn.LMagnitude])
	assert.Equal(t, []qn.Value{0}, domains.Node[qn.SMagnitude])
}
