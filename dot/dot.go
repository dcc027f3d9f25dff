// Package dot renders topologies and solved transitions in Graphviz DOT
// form. Output is deterministic: edges and nodes appear in id order.
package dot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qsolve-hep/qsolve/qn"
	"github.com/qsolve-hep/qsolve/topology"
	"github.com/qsolve-hep/qsolve/transition"
)

// Topology renders the bare graph, labeling each edge with its id.
func Topology(t *topology.Topology) string {
	return render(t,
		func(id topology.EdgeID) string { return strconv.Itoa(int(id)) },
		func(topology.NodeID) string { return "" },
	)
}

// Transition renders a solved transition: particle names on edges, the
// coupled orbital angular momentum and spin on interaction nodes.
func Transition(tr transition.Transition) string {
	return render(tr.Topology,
		func(id topology.EdgeID) string { return tr.States[id].Name },
		func(n topology.NodeID) string {
			vals := tr.Interactions[n]
			l, hasL := vals[qn.LMagnitude]
			s, hasS := vals[qn.SMagnitude]
			if !hasL || !hasS {
				return ""
			}
			return fmt.Sprintf("l=%s, s=%s", spinString(l), spinString(s))
		},
	)
}

// render emits one digraph. External edges attach to invisible terminal
// vertices named after the edge; internal edges connect nodes directly.
func render(t *topology.Topology, edgeLabel func(topology.EdgeID) string, nodeLabel func(topology.NodeID) string) string {
	var b strings.Builder
	b.WriteString("digraph {\n")
	b.WriteString("    rankdir=LR;\n")
	b.WriteString("    node [shape=none, width=0];\n")
	b.WriteString("    edge [arrowhead=none];\n")

	for _, id := range t.EdgeIDs() {
		e, ok := t.Edge(id)
		if !ok {
			continue
		}
		if e.Origin == topology.NoNode || e.Target == topology.NoNode {
			fmt.Fprintf(&b, "    \"edge%d\" [label=\"\"];\n", id)
		}
	}
	for _, n := range t.Nodes() {
		if label := nodeLabel(n); label != "" {
			fmt.Fprintf(&b, "    \"node%d\" [shape=box, label=%q];\n", n, label)
			continue
		}
		fmt.Fprintf(&b, "    \"node%d\" [shape=point];\n", n)
	}
	for _, id := range t.EdgeIDs() {
		e, ok := t.Edge(id)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "    %q -> %q [label=%q];\n",
			endpoint(e.Origin, id), endpoint(e.Target, id), edgeLabel(id))
	}

	b.WriteString("}\n")
	return b.String()
}

func endpoint(n topology.NodeID, id topology.EdgeID) string {
	if n == topology.NoNode {
		return fmt.Sprintf("edge%d", id)
	}
	return fmt.Sprintf("node%d", n)
}

// spinString formats a doubled spin value as a physical number, keeping
// half-integers as fractions.
func spinString(v qn.Value) string {
	if v%2 == 0 {
		return strconv.Itoa(int(v) / 2)
	}
	return fmt.Sprintf("%d/2", int(v))
}
