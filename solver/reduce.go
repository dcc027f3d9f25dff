package solver

import (
	"github.com/qsolve-hep/qsolve/qn"
)

// Reduce derives a narrower problem over the same topology: edges and nodes
// keep only the listed quantum numbers, fixed values for dropped quantities
// are discarded, and only the named rules stay bound. Reducing an already
// reduced problem with the same keep sets returns an equal problem.
func Reduce(p *Problem, keepEdge, keepNode []qn.Label, keepRules []string) (*Problem, error) {
	domains := Domains{
		Edge: filterDomains(p.domains.Edge, keepEdge),
		Node: filterDomains(p.domains.Node, keepNode),
	}
	return Build(p.topo, p.states, p.interactions, p.ruleCfg.Select(keepRules), domains)
}

func filterDomains(domains map[qn.Label][]qn.Value, keep []qn.Label) map[qn.Label][]qn.Value {
	kept := make(map[qn.Label]bool, len(keep))
	for _, label := range keep {
		kept[label] = true
	}
	out := make(map[qn.Label][]qn.Value, len(keep))
	for label, domain := range domains {
		if kept[label] {
			out[label] = append([]qn.Value(nil), domain...)
		}
	}
	return out
}
