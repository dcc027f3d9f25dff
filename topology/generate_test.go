package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsobarCounts(t *testing.T) {
	counts := map[int]int{2: 1, 3: 1, 4: 2, 5: 5}
	for n, want := range counts {
		topos, err := Isobar(n)
		require.NoError(t, err)
		assert.Len(t, topos, want, "final states: %d", n)
	}
}

func TestIsobarShape(t *testing.T) {
	for n := 2; n <= 5; n++ {
		topos, err := Isobar(n)
		require.NoError(t, err)
		for _, topo := range topos {
			assert.Equal(t, []EdgeID{InitialEdge}, topo.IncomingEdgeIDs())
			assert.Equal(t, n, topo.FinalStateCount())
			assert.Equal(t, n-1, topo.NodeCount())
			for _, node := range topo.Nodes() {
				assert.Equal(t, 1, topo.InDegree(node))
				assert.Equal(t, 2, topo.OutDegree(node))
			}
			for i := 0; i < n; i++ {
				_, ok := topo.Edge(EdgeID(i))
				assert.True(t, ok, "missing final-state edge %d", i)
			}
		}
	}
}

func TestIsobarDeterministic(t *testing.T) {
	first, err := Isobar(5)
	require.NoError(t, err)
	second, err := Isobar(5)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]), "position %d", i)
	}
}

func TestIsobarFourBodyLayouts(t *testing.T) {
	topos, err := Isobar(4)
	require.NoError(t, err)
	require.Len(t, topos, 2)
	assert.Equal(t, "n3;-1:-1>0;0:0>-1;1:1>-1;2:2>-1;3:2>-1;4:0>1;5:1>2", topos[0].Fingerprint())
	assert.Equal(t, "n3;-1:-1>0;0:1>-1;1:1>-1;2:2>-1;3:2>-1;4:0>1;5:0>2", topos[1].Fingerprint())
}

// Five final states include two shapes that differ only in which branch of
// the root carries the deeper decay chain. Both must survive relabeling as
// separate topologies.
func TestIsobarKeepsMirroredBranchings(t *testing.T) {
	topos, err := Isobar(5)
	require.NoError(t, err)
	fps := make(map[string]bool, len(topos))
	for _, topo := range topos {
		fps[topo.Fingerprint()] = true
	}
	assert.True(t, fps["n4;-1:-1>0;0:1>-1;1:2>-1;2:2>-1;3:3>-1;4:3>-1;5:0>1;6:0>2;7:1>3"])
	assert.True(t, fps["n4;-1:-1>0;0:1>-1;1:2>-1;2:2>-1;3:3>-1;4:3>-1;5:0>1;6:0>3;7:1>2"])
}

func TestIsobarDistinct(t *testing.T) {
	topos, err := Isobar(5)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, topo := range topos {
		fp := topo.Fingerprint()
		assert.False(t, seen[fp], "duplicate topology %s", fp)
		seen[fp] = true
	}
}

func TestIsobarTwoBodyMatchesNBody(t *testing.T) {
	topos, err := Isobar(2)
	require.NoError(t, err)
	require.Len(t, topos, 1)

	nbody, err := NBody(2)
	require.NoError(t, err)
	assert.True(t, topos[0].Equal(nbody))
}

func TestIsobarRejectsOutOfRange(t *testing.T) {
	for _, n := range []int{-1, 0, 1, MaxFinalStates + 1} {
		_, err := Isobar(n)
		require.Error(t, err, "final states: %d", n)
		assert.True(t, IsStructuralError(err))
	}
}

func TestNBodyShape(t *testing.T) {
	topo, err := NBody(4)
	require.NoError(t, err)
	assert.Equal(t, 1, topo.NodeCount())
	assert.Equal(t, 4, topo.FinalStateCount())
	assert.Empty(t, topo.IntermediateEdgeIDs())
	assert.Equal(t, 1, topo.InDegree(0))
	assert.Equal(t, 4, topo.OutDegree(0))

	_, err = NBody(0)
	require.Error(t, err)
}
