package topology

import (
	"github.com/emirpasic/gods/sets/treeset"
)

// MaxFinalStates caps isobar generation. Exhaustive enumeration grows
// steeply with the final-state count; unbounded multiplicity support is a
// deliberate non-goal.
const MaxFinalStates = 9

// NBody builds the single topology that connects one initial-state edge to
// finalStateCount final-state edges through a single node.
func NBody(finalStateCount int) (*Topology, error) {
	if finalStateCount < 1 {
		return nil, structuralf("n-body decay needs at least one final state, got %d", finalStateCount)
	}
	edges := map[EdgeID]Edge{
		InitialEdge: {Origin: NoNode, Target: 0},
	}
	for i := 0; i < finalStateCount; i++ {
		edges[EdgeID(i)] = Edge{Origin: 0, Target: NoNode}
	}
	return New([]NodeID{0}, edges)
}

// Isobar builds every structurally distinct isobar decay topology (each node
// has one incoming and two outgoing edges) for the given number of final
// states. The result is exhaustive, duplicate-free, and sorted by canonical
// fingerprint, so repeated calls yield identical sequences.
//
// Counts follow the standard enumeration: 1, 1, 2, 5 topologies for 2, 3, 4
// and 5 final states.
func Isobar(finalStateCount int) ([]*Topology, error) {
	if finalStateCount < 2 {
		return nil, structuralf("isobar decay needs at least two final states, got %d", finalStateCount)
	}
	if finalStateCount > MaxFinalStates {
		return nil, structuralf("isobar decay supports at most %d final states, got %d", MaxFinalStates, finalStateCount)
	}

	seed := &growth{
		edges:    map[EdgeID]Edge{0: {Origin: NoNode, Target: NoNode}},
		open:     []EdgeID{0},
		nextEdge: 1,
	}
	finished := grow(seed, finalStateCount)

	// Every finished growth is a distinct topology: extend already skips
	// sibling attachments, the only source of duplicates. The treeset keeps
	// the output ordered by fingerprint.
	byFingerprint := make(map[string]*Topology, len(finished))
	order := treeset.NewWithStringComparator()
	for _, g := range finished {
		t, err := g.normalize()
		if err != nil {
			return nil, err
		}
		fp := t.Fingerprint()
		if _, seen := byFingerprint[fp]; !seen {
			byFingerprint[fp] = t
			order.Add(fp)
		}
	}

	out := make([]*Topology, 0, order.Size())
	order.Each(func(_ int, fp any) {
		out = append(out, byFingerprint[fp.(string)])
	})
	return out, nil
}

// growth is a decay graph under construction: edges still missing their
// terminating node are "open" and may either become final states or have a
// 1-in/2-out node attached.
type growth struct {
	nodeCount int
	edges     map[EdgeID]Edge
	open      []EdgeID
	nextEdge  EdgeID
}

func (g *growth) clone() *growth {
	edges := make(map[EdgeID]Edge, len(g.edges))
	for id, e := range g.edges {
		edges[id] = e
	}
	return &growth{
		nodeCount: g.nodeCount,
		edges:     edges,
		open:      append([]EdgeID(nil), g.open...),
		nextEdge:  g.nextEdge,
	}
}

// grow repeatedly attaches nodes to open edges until every graph has exactly
// want open edges. Attachment candidates whose open edge originates from the
// same node as an earlier candidate are skipped: a node's two outgoing slots
// are interchangeable, so attaching to either relabels to the same layout.
func grow(seed *growth, want int) []*growth {
	var finished []*growth
	active := []*growth{seed}
	for len(active) > 0 {
		var next []*growth
		for _, g := range active {
			if len(g.open) == want && g.nodeCount > 0 {
				finished = append(finished, g)
				continue
			}
			if len(g.open) >= want && g.nodeCount > 0 {
				continue
			}
			next = append(next, g.extend()...)
		}
		active = next
	}
	return finished
}

func (g *growth) extend() []*growth {
	var out []*growth
	seenOrigin := make(map[NodeID]bool, len(g.open))
	for i, id := range g.open {
		origin := g.edges[id].Origin
		if origin != NoNode {
			if seenOrigin[origin] {
				continue
			}
			seenOrigin[origin] = true
		}
		out = append(out, g.attachNode(i))
	}
	return out
}

// attachNode attaches a fresh 1-in/2-out node to the open edge at position i.
func (g *growth) attachNode(i int) *growth {
	next := g.clone()
	node := NodeID(next.nodeCount)
	next.nodeCount++

	id := next.open[i]
	e := next.edges[id]
	e.Target = node
	next.edges[id] = e
	next.open = append(next.open[:i:i], next.open[i+1:]...)

	for k := 0; k < 2; k++ {
		child := next.nextEdge
		next.nextEdge++
		next.edges[child] = Edge{Origin: node, Target: NoNode}
		next.open = append(next.open, child)
	}
	return next
}

// normalize relabels a finished growth into the fixed id layout: the initial
// edge at InitialEdge, final-state edges 0..N-1 and intermediate edges from N
// onward, each class ascending in creation order. Node ids already reflect
// creation order and are kept as-is. Relabeling by a shape-canonical
// traversal instead would merge growths that differ only in which branch the
// deeper subtree hangs off, and the enumeration counts those separately.
func (g *growth) normalize() (*Topology, error) {
	if g.edges[0].Target == NoNode {
		return nil, structuralf("growth has no interaction node")
	}

	finals := make([]EdgeID, 0, len(g.open))
	intermediates := make([]EdgeID, 0, len(g.edges))
	for id, e := range g.edges {
		if id == 0 {
			continue
		}
		if e.Target == NoNode {
			finals = append(finals, id)
		} else {
			intermediates = append(intermediates, id)
		}
	}
	sortEdgeIDs(finals)
	sortEdgeIDs(intermediates)

	edgeIDs := map[EdgeID]EdgeID{0: InitialEdge}
	for i, id := range finals {
		edgeIDs[id] = EdgeID(i)
	}
	for i, id := range intermediates {
		edgeIDs[id] = EdgeID(len(finals) + i)
	}

	nodes := make([]NodeID, 0, g.nodeCount)
	for i := 0; i < g.nodeCount; i++ {
		nodes = append(nodes, NodeID(i))
	}
	edges := make(map[EdgeID]Edge, len(g.edges))
	for id, e := range g.edges {
		edges[edgeIDs[id]] = e
	}
	return New(nodes, edges)
}
