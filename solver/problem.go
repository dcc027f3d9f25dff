// Package solver builds quantum-number constraint problems over decay
// topologies and solves them by backtracking search with rule-based domain
// propagation.
package solver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/qsolve-hep/qsolve/qn"
	"github.com/qsolve-hep/qsolve/rules"
	"github.com/qsolve-hep/qsolve/topology"
)

// ConfigurationError reports a problem definition that can never be solved:
// an unbound rule input, an unknown quantum number, or an empty domain before
// search even starts.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func configuraf(format string, args ...any) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Locus points at the graph element a variable or rejection belongs to.
type Locus struct {
	Kind qn.Locus
	Edge topology.EdgeID
	Node topology.NodeID
}

func edgeLocus(id topology.EdgeID) Locus {
	return Locus{Kind: qn.LocusEdge, Edge: id}
}

func nodeLocus(id topology.NodeID) Locus {
	return Locus{Kind: qn.LocusNode, Node: id}
}

func (l Locus) String() string {
	if l.Kind == qn.LocusEdge {
		return fmt.Sprintf("edge %d", l.Edge)
	}
	return fmt.Sprintf("node %d", l.Node)
}

// Domains supplies the enumerable value domain per quantum number for free
// variables. The key sets double as the tracked-quantity sets: an edge or
// node carries exactly the labels its Domains map names. Fixed values for
// labels outside these sets are dropped at build time.
type Domains struct {
	Edge map[qn.Label][]qn.Value
	Node map[qn.Label][]qn.Value
}

// Rules configures which rules bind where. Edge rules attach to every edge;
// Node rules attach to every node, except nodes listed in PerNode, which use
// their own set instead. Per-node sets gate rules by the interaction type
// permitted at that node.
type Rules struct {
	Edge    rules.Set
	Node    rules.Set
	PerNode map[topology.NodeID]rules.Set
}

func (r Rules) forNode(n topology.NodeID) rules.Set {
	if set, ok := r.PerNode[n]; ok {
		return set
	}
	return r.Node
}

// Names lists every distinct rule name the configuration can bind, edge
// rules first, then node rules in declaration order.
func (r Rules) Names() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(set rules.Set) {
		for _, rule := range set {
			if !seen[rule.Name] {
				seen[rule.Name] = true
				out = append(out, rule.Name)
			}
		}
	}
	add(r.Edge)
	add(r.Node)
	for _, n := range sortedNodeKeys(r.PerNode) {
		add(r.PerNode[n])
	}
	return out
}

// Select returns the configuration restricted to the named rules.
func (r Rules) Select(keep []string) Rules {
	out := Rules{
		Edge: r.Edge.Select(keep),
		Node: r.Node.Select(keep),
	}
	if r.PerNode != nil {
		out.PerNode = make(map[topology.NodeID]rules.Set, len(r.PerNode))
		for n, set := range r.PerNode {
			out.PerNode[n] = set.Select(keep)
		}
	}
	return out
}

func sortedNodeKeys(m map[topology.NodeID]rules.Set) []topology.NodeID {
	out := make([]topology.NodeID, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// variable is one free quantum number with its domain, pinned to a locus.
type variable struct {
	locus  Locus
	label  qn.Label
	domain []qn.Value
}

// slotRef is a resolved rule input: a concrete locus plus the label read
// there.
type slotRef struct {
	locus Locus
	label qn.Label
}

// boundRule is one rule instance attached to a specific node or edge, with
// its inputs resolved to concrete loci. lastVar is the position of the
// latest-ordered free variable among its inputs, or -1 when every input is
// already fixed; free is that variable's slot in the rule's input layout,
// where propagation narrows the domain.
type boundRule struct {
	rule    rules.Rule
	locus   Locus
	inputs  []slotRef
	lastVar int
	free    rules.FreeSlot
}

// Problem is an immutable constraint-satisfaction instance: a topology, a
// concrete or free quantum-number variable per (element, label) pair, and
// the bound rules. Solving never mutates a Problem.
type Problem struct {
	topo         *topology.Topology
	states       map[topology.EdgeID]qn.Values
	interactions map[topology.NodeID]qn.Values
	domains      Domains
	ruleCfg      Rules

	edgeLabels []qn.Label
	nodeLabels []qn.Label
	vars       []variable
	varIndex   map[slotRef]int
	bound      []boundRule
}

// Build attaches quantum-number variables and rules to a topology. states
// and interactions fix values for known edges and nodes; every other
// (element, label) pair named by domains becomes a free variable. Each rule
// of the configuration is bound once per matching locus.
func Build(
	topo *topology.Topology,
	states map[topology.EdgeID]qn.Values,
	interactions map[topology.NodeID]qn.Values,
	ruleCfg Rules,
	domains Domains,
) (*Problem, error) {
	p := &Problem{
		topo:         topo,
		states:       make(map[topology.EdgeID]qn.Values, len(states)),
		interactions: make(map[topology.NodeID]qn.Values, len(interactions)),
		domains:      domains,
		ruleCfg:      ruleCfg,
		varIndex:     make(map[slotRef]int),
	}

	var err error
	if p.edgeLabels, err = checkLabels(domains.Edge, qn.LocusEdge); err != nil {
		return nil, err
	}
	if p.nodeLabels, err = checkLabels(domains.Node, qn.LocusNode); err != nil {
		return nil, err
	}

	edgeIDs := topo.EdgeIDs()
	knownEdges := make(map[topology.EdgeID]bool, len(edgeIDs))
	for _, id := range edgeIDs {
		knownEdges[id] = true
	}
	for id, vals := range states {
		if !knownEdges[id] {
			return nil, configuraf("state fixed on unknown edge %d", id)
		}
		p.states[id] = project(vals, p.edgeLabels)
	}
	for id, vals := range interactions {
		if int(id) < 0 || int(id) >= topo.NodeCount() {
			return nil, configuraf("interaction fixed on unknown node %d", id)
		}
		p.interactions[id] = project(vals, p.nodeLabels)
	}

	// Variable order is the solver's branching order: nodes before edges,
	// ids ascending, labels sorted within an element.
	for _, n := range topo.Nodes() {
		fixed := p.interactions[n]
		for _, label := range p.nodeLabels {
			if _, ok := fixed[label]; ok {
				continue
			}
			if err := p.addVariable(nodeLocus(n), label, domains.Node[label]); err != nil {
				return nil, err
			}
		}
	}
	for _, id := range edgeIDs {
		fixed := p.states[id]
		for _, label := range p.edgeLabels {
			if _, ok := fixed[label]; ok {
				continue
			}
			if err := p.addVariable(edgeLocus(id), label, domains.Edge[label]); err != nil {
				return nil, err
			}
		}
	}

	if err := p.bindRules(); err != nil {
		return nil, err
	}
	return p, nil
}

func checkLabels(domains map[qn.Label][]qn.Value, locus qn.Locus) ([]qn.Label, error) {
	labels := make([]qn.Label, 0, len(domains))
	for label := range domains {
		info, ok := qn.Lookup(label)
		if !ok {
			return nil, configuraf("unknown quantum number %q", label)
		}
		if info.Locus != locus {
			return nil, configuraf("quantum number %q does not live on a %v", label, locus)
		}
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels, nil
}

func project(vals qn.Values, labels []qn.Label) qn.Values {
	out := make(qn.Values, len(labels))
	for _, label := range labels {
		if v, ok := vals[label]; ok {
			out[label] = v
		}
	}
	return out
}

func (p *Problem) addVariable(locus Locus, label qn.Label, domain []qn.Value) error {
	if len(domain) == 0 {
		return configuraf("empty domain for %q at %v", label, locus)
	}
	p.varIndex[slotRef{locus: locus, label: label}] = len(p.vars)
	p.vars = append(p.vars, variable{
		locus:  locus,
		label:  label,
		domain: append([]qn.Value(nil), domain...),
	})
	return nil
}

// bindRules instantiates every rule of the set at each matching locus and
// resolves its inputs. A rule input naming a label the problem does not
// track is a configuration error.
func (p *Problem) bindRules() error {
	tracked := func(label qn.Label, locus qn.Locus) bool {
		labels := p.edgeLabels
		if locus == qn.LocusNode {
			labels = p.nodeLabels
		}
		for _, l := range labels {
			if l == label {
				return true
			}
		}
		return false
	}

	for _, id := range p.topo.EdgeIDs() {
		for _, r := range p.ruleCfg.Edge {
			if r.Scope != rules.ScopeEdge {
				return configuraf("rule %q is node-scoped but configured as an edge rule", r.Name)
			}
			var inputs []slotRef
			var slots []rules.FreeSlot
			for _, need := range r.Needs {
				if need.Where != rules.AtEdge {
					return configuraf("rule %q declares a node-scoped input but is edge-scoped", r.Name)
				}
				if !tracked(need.Label, qn.LocusEdge) {
					return configuraf("rule %q reads unbound quantum number %q", r.Name, need.Label)
				}
				inputs = append(inputs, slotRef{locus: edgeLocus(id), label: need.Label})
				slots = append(slots, rules.FreeSlot{Where: rules.AtEdge, Label: need.Label})
			}
			p.bound = append(p.bound, p.newBoundRule(r, edgeLocus(id), inputs, slots))
		}
	}

	for _, n := range p.topo.Nodes() {
		for _, r := range p.ruleCfg.forNode(n) {
			if r.Scope != rules.ScopeNode {
				return configuraf("rule %q is edge-scoped but configured as a node rule", r.Name)
			}
			var inputs []slotRef
			var slots []rules.FreeSlot
			for _, need := range r.Needs {
				switch need.Where {
				case rules.AtIn:
					if !tracked(need.Label, qn.LocusEdge) {
						return configuraf("rule %q reads unbound quantum number %q", r.Name, need.Label)
					}
					for i, id := range p.topo.InEdges(n) {
						inputs = append(inputs, slotRef{locus: edgeLocus(id), label: need.Label})
						slots = append(slots, rules.FreeSlot{Where: rules.AtIn, Index: i, Label: need.Label})
					}
				case rules.AtOut:
					if !tracked(need.Label, qn.LocusEdge) {
						return configuraf("rule %q reads unbound quantum number %q", r.Name, need.Label)
					}
					for i, id := range p.topo.OutEdges(n) {
						inputs = append(inputs, slotRef{locus: edgeLocus(id), label: need.Label})
						slots = append(slots, rules.FreeSlot{Where: rules.AtOut, Index: i, Label: need.Label})
					}
				case rules.AtNode:
					if !tracked(need.Label, qn.LocusNode) {
						return configuraf("rule %q reads unbound quantum number %q", r.Name, need.Label)
					}
					inputs = append(inputs, slotRef{locus: nodeLocus(n), label: need.Label})
					slots = append(slots, rules.FreeSlot{Where: rules.AtNode, Label: need.Label})
				default:
					return configuraf("rule %q declares an edge-scoped input but is node-scoped", r.Name)
				}
			}
			p.bound = append(p.bound, p.newBoundRule(r, nodeLocus(n), inputs, slots))
		}
	}
	return nil
}

func (p *Problem) newBoundRule(r rules.Rule, locus Locus, inputs []slotRef, slots []rules.FreeSlot) boundRule {
	last, pos := -1, -1
	for k, in := range inputs {
		if i, ok := p.varIndex[in]; ok && i > last {
			last, pos = i, k
		}
	}
	br := boundRule{rule: r, locus: locus, inputs: inputs, lastVar: last}
	if pos >= 0 {
		br.free = slots[pos]
	}
	return br
}

// Topology returns the underlying immutable topology.
func (p *Problem) Topology() *topology.Topology { return p.topo }

// EdgeLabels returns the tracked edge quantum numbers, sorted.
func (p *Problem) EdgeLabels() []qn.Label {
	return append([]qn.Label(nil), p.edgeLabels...)
}

// NodeLabels returns the tracked node quantum numbers, sorted.
func (p *Problem) NodeLabels() []qn.Label {
	return append([]qn.Label(nil), p.nodeLabels...)
}

// RuleNames returns the active rule names, edge rules first.
func (p *Problem) RuleNames() []string { return p.ruleCfg.Names() }

// FreeVariableCount returns the number of unfixed quantum numbers.
func (p *Problem) FreeVariableCount() int { return len(p.vars) }

// State returns the fixed quantum numbers of an edge, if any.
func (p *Problem) State(id topology.EdgeID) (qn.Values, bool) {
	vals, ok := p.states[id]
	if !ok {
		return nil, false
	}
	return vals.Clone(), true
}

// Interaction returns the fixed quantum numbers of a node, if any.
func (p *Problem) Interaction(id topology.NodeID) (qn.Values, bool) {
	vals, ok := p.interactions[id]
	if !ok {
		return nil, false
	}
	return vals.Clone(), true
}

// Equal reports whether two problems describe the same instance: same
// topology layout, tracked quantities, fixed values, variable domains, and
// rule names.
func (p *Problem) Equal(other *Problem) bool {
	if !p.topo.Equal(other.topo) {
		return false
	}
	if !labelsEqual(p.edgeLabels, other.edgeLabels) || !labelsEqual(p.nodeLabels, other.nodeLabels) {
		return false
	}
	if len(p.states) != len(other.states) || len(p.interactions) != len(other.interactions) {
		return false
	}
	for id, vals := range p.states {
		if !vals.Equal(other.states[id]) {
			return false
		}
	}
	for id, vals := range p.interactions {
		if !vals.Equal(other.interactions[id]) {
			return false
		}
	}
	if len(p.vars) != len(other.vars) {
		return false
	}
	for i, v := range p.vars {
		w := other.vars[i]
		if v.locus != w.locus || v.label != w.label || len(v.domain) != len(w.domain) {
			return false
		}
		for k := range v.domain {
			if v.domain[k] != w.domain[k] {
				return false
			}
		}
	}
	if len(p.bound) != len(other.bound) {
		return false
	}
	for i := range p.bound {
		if p.bound[i].rule.Name != other.bound[i].rule.Name || p.bound[i].locus != other.bound[i].locus {
			return false
		}
	}
	return true
}

func labelsEqual(a, b []qn.Label) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
