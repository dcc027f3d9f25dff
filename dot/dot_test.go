package dot

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsolve-hep/qsolve/particle"
	"github.com/qsolve-hep/qsolve/qn"
	"github.com/qsolve-hep/qsolve/topology"
	"github.com/qsolve-hep/qsolve/transition"
)

func TestTopologyGolden(t *testing.T) {
	topos, err := topology.Isobar(3)
	require.NoError(t, err)
	require.Len(t, topos, 1)

	g := goldie.New(t)
	g.Assert(t, "isobar3", []byte(Topology(topos[0])))
}

func TestTransitionGolden(t *testing.T) {
	list, err := particle.Default()
	require.NoError(t, err)
	pi0, ok := list.ByName("pi0")
	require.True(t, ok)
	gamma, ok := list.ByName("gamma")
	require.True(t, ok)

	topos, err := topology.Isobar(2)
	require.NoError(t, err)
	require.Len(t, topos, 1)

	tr := transition.Transition{
		Topology: topos[0],
		States: map[topology.EdgeID]particle.Particle{
			topology.InitialEdge: pi0,
			0:                    gamma,
			1:                    gamma,
		},
		Interactions: map[topology.NodeID]qn.Values{
			0: {qn.LMagnitude: qn.Whole(1), qn.SMagnitude: qn.Whole(1)},
		},
	}

	g := goldie.New(t)
	g.Assert(t, "pi0_to_gamma_gamma", []byte(Transition(tr)))
}

func TestRenderIsDeterministic(t *testing.T) {
	topos, err := topology.Isobar(4)
	require.NoError(t, err)
	for _, topo := range topos {
		assert.Equal(t, Topology(topo), Topology(topo))
	}
}

func TestSpinString(t *testing.T) {
	assert.Equal(t, "0", spinString(qn.Whole(0)))
	assert.Equal(t, "1", spinString(qn.Whole(1)))
	assert.Equal(t, "1/2", spinString(qn.Halves(1)))
	assert.Equal(t, "3/2", spinString(qn.Halves(3)))
	assert.Equal(t, "-1/2", spinString(qn.Halves(-1)))
}
