// Package topology models decay-reaction graph shapes: directed acyclic
// graphs with open edges, like Feynman diagrams. A Topology carries no
// particle or quantum-number properties; it is pure shape, identified by
// small-integer node and edge ids so that problems and results can share a
// topology by reference.
//
// Edge id layout is fixed: the single initial-state edge is InitialEdge (-1),
// final-state edges are 0..N-1, and intermediate edges continue from N. Node
// ids are assigned breadth-first from the initial edge. Repeated generation
// for the same mode and final-state count therefore yields identical id
// layouts.
package topology

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NodeID identifies an interaction node within one Topology.
type NodeID int

// EdgeID identifies an edge (a particle line) within one Topology.
type EdgeID int

// NoNode marks the absent end of an open edge.
const NoNode NodeID = -1

// InitialEdge is the reserved id of the single initial-state edge.
const InitialEdge EdgeID = -1

// Edge connects an originating node to a terminating node. Origin == NoNode
// marks an initial-state edge, Target == NoNode a final-state edge.
type Edge struct {
	Origin NodeID
	Target NodeID
}

// StructuralError reports a malformed topology: dangling edges, degree
// mismatches, disconnected nodes. It is raised at construction time and is
// never recovered internally.
type StructuralError struct {
	Message string
}

func (e *StructuralError) Error() string {
	return "structural error: " + e.Message
}

func structuralf(format string, args ...any) error {
	return &StructuralError{Message: fmt.Sprintf(format, args...)}
}

// IsStructuralError reports whether err is (or wraps) a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// Topology is an immutable decay-graph shape. Construct one with New or the
// generator functions (Isobar, NBody); all accessors return copies, so a
// Topology can be shared freely across problems and goroutines.
type Topology struct {
	nodes []NodeID
	edges map[EdgeID]Edge

	incoming     []EdgeID
	outgoing     []EdgeID
	intermediate []EdgeID
}

// New validates and builds a Topology from a node set and an edge map.
// It fails with a StructuralError if an edge references an unknown node, an
// edge is connected to nothing, or a node is isolated from the rest of the
// graph.
func New(nodes []NodeID, edges map[EdgeID]Edge) (*Topology, error) {
	nodeSet := make(map[NodeID]bool, len(nodes))
	for _, n := range nodes {
		if nodeSet[n] {
			return nil, structuralf("duplicate node id %d", n)
		}
		nodeSet[n] = true
	}

	t := &Topology{
		nodes: append([]NodeID(nil), nodes...),
		edges: make(map[EdgeID]Edge, len(edges)),
	}
	sort.Slice(t.nodes, func(i, j int) bool { return t.nodes[i] < t.nodes[j] })

	for id, e := range edges {
		if e.Origin == NoNode && e.Target == NoNode {
			return nil, structuralf("edge %d is not connected to any node", id)
		}
		if e.Origin != NoNode && !nodeSet[e.Origin] {
			return nil, structuralf("edge %d originates from unknown node %d", id, e.Origin)
		}
		if e.Target != NoNode && !nodeSet[e.Target] {
			return nil, structuralf("edge %d ends on unknown node %d", id, e.Target)
		}
		t.edges[id] = e
		switch {
		case e.Origin == NoNode:
			t.incoming = append(t.incoming, id)
		case e.Target == NoNode:
			t.outgoing = append(t.outgoing, id)
		default:
			t.intermediate = append(t.intermediate, id)
		}
	}
	sortEdgeIDs(t.incoming)
	sortEdgeIDs(t.outgoing)
	sortEdgeIDs(t.intermediate)

	if err := t.checkConnected(nodeSet); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Topology) checkConnected(nodeSet map[NodeID]bool) error {
	if len(nodeSet) < 2 {
		return nil
	}
	for n := range nodeSet {
		connected := false
		for _, e := range t.edges {
			if (e.Origin == n && e.Target != NoNode) || (e.Target == n && e.Origin != NoNode) {
				connected = true
				break
			}
		}
		if !connected {
			return structuralf("node %d is not connected to any other node", n)
		}
	}
	return nil
}

// Nodes returns all node ids in ascending order.
func (t *Topology) Nodes() []NodeID {
	return append([]NodeID(nil), t.nodes...)
}

// NodeCount returns the number of interaction nodes.
func (t *Topology) NodeCount() int { return len(t.nodes) }

// EdgeIDs returns all edge ids in ascending order.
func (t *Topology) EdgeIDs() []EdgeID {
	out := make([]EdgeID, 0, len(t.edges))
	for id := range t.edges {
		out = append(out, id)
	}
	sortEdgeIDs(out)
	return out
}

// Edge returns the edge with the given id.
func (t *Topology) Edge(id EdgeID) (Edge, bool) {
	e, ok := t.edges[id]
	return e, ok
}

// IncomingEdgeIDs returns the ids of edges with no originating node
// (the initial state), ascending.
func (t *Topology) IncomingEdgeIDs() []EdgeID {
	return append([]EdgeID(nil), t.incoming...)
}

// OutgoingEdgeIDs returns the ids of edges with no terminating node
// (the final state), ascending.
func (t *Topology) OutgoingEdgeIDs() []EdgeID {
	return append([]EdgeID(nil), t.outgoing...)
}

// IntermediateEdgeIDs returns the ids of edges connecting two nodes,
// ascending.
func (t *Topology) IntermediateEdgeIDs() []EdgeID {
	return append([]EdgeID(nil), t.intermediate...)
}

// FinalStateCount returns the number of final-state edges.
func (t *Topology) FinalStateCount() int { return len(t.outgoing) }

// InEdges returns the ids of edges ending on the given node, ascending.
func (t *Topology) InEdges(n NodeID) []EdgeID {
	var out []EdgeID
	for id, e := range t.edges {
		if e.Target == n {
			out = append(out, id)
		}
	}
	sortEdgeIDs(out)
	return out
}

// OutEdges returns the ids of edges originating from the given node,
// ascending.
func (t *Topology) OutEdges(n NodeID) []EdgeID {
	var out []EdgeID
	for id, e := range t.edges {
		if e.Origin == n {
			out = append(out, id)
		}
	}
	sortEdgeIDs(out)
	return out
}

// InDegree returns the number of edges ending on n.
func (t *Topology) InDegree(n NodeID) int { return len(t.InEdges(n)) }

// OutDegree returns the number of edges originating from n.
func (t *Topology) OutDegree(n NodeID) int { return len(t.OutEdges(n)) }

// RelabelEdges returns a copy of the topology with edge ids swapped
// according to the mapping. Ids absent from the mapping keep their id; the
// mapping is applied as a permutation, so mapping {0:1} swaps edges 0 and 1.
func (t *Topology) RelabelEdges(oldToNew map[EdgeID]EdgeID) (*Topology, error) {
	newToOld := make(map[EdgeID]EdgeID, len(oldToNew))
	for from, to := range oldToNew {
		newToOld[to] = from
	}
	edges := make(map[EdgeID]Edge, len(t.edges))
	for id, e := range t.edges {
		newID := id
		if to, ok := oldToNew[id]; ok {
			newID = to
		} else if from, ok := newToOld[id]; ok {
			newID = from
		}
		if _, dup := edges[newID]; dup {
			return nil, structuralf("edge relabeling maps two edges to id %d", newID)
		}
		edges[newID] = e
	}
	return New(t.nodes, edges)
}

// Fingerprint returns a canonical textual form of the topology, suitable as
// a deterministic sort and deduplication key. Two topologies have equal
// fingerprints exactly when their node and edge id layouts are identical.
func (t *Topology) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "n%d", len(t.nodes))
	for _, id := range t.EdgeIDs() {
		e := t.edges[id]
		fmt.Fprintf(&b, ";%d:%d>%d", id, e.Origin, e.Target)
	}
	return b.String()
}

// Equal reports whether two topologies have identical node and edge
// layouts.
func (t *Topology) Equal(other *Topology) bool {
	return t.Fingerprint() == other.Fingerprint()
}

func sortEdgeIDs(ids []EdgeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
