package solver

import (
	"time"

	"github.com/qsolve-hep/qsolve/qn"
	"github.com/qsolve-hep/qsolve/rules"
	"github.com/qsolve-hep/qsolve/topology"
)

// DefaultLedgerCap bounds the rejection ledger when no explicit cap is set.
const DefaultLedgerCap = 1000

// Budget bounds a single solve. Zero values mean unlimited. Exhausting a
// budget is not an error: the solver returns what it found so far with the
// truncation flag set.
type Budget struct {
	MaxIterations int
	Timeout       time.Duration
}

// RejectedInput is one concrete rule input at the moment of rejection.
type RejectedInput struct {
	Locus Locus
	Label qn.Label
	Value qn.Value
}

// Rejection records one candidate assignment pruned by a rule. Which rule is
// reported first for a doomed candidate depends on evaluation order and is
// diagnostic only.
type Rejection struct {
	Locus  Locus
	Rule   string
	Inputs []RejectedInput
}

// Assignment is one full, accepted valuation of a problem's quantum numbers.
type Assignment struct {
	States       map[topology.EdgeID]qn.Values
	Interactions map[topology.NodeID]qn.Values
}

// Result is the outcome of one solve. An empty Solutions slice is a normal
// outcome, not an error; the ledger explains what was pruned.
type Result struct {
	Solutions  []Assignment
	Rejections []Rejection
	Truncated  bool
	Iterations int
}

type solveConfig struct {
	ledgerCap int
	now       func() time.Time
}

// SolveOption adjusts solver behavior.
type SolveOption func(*solveConfig)

// WithLedgerCap overrides the maximum number of ledger entries kept.
func WithLedgerCap(n int) SolveOption {
	return func(c *solveConfig) { c.ledgerCap = n }
}

// WithNowFunc overrides the time source used for timeout checks.
func WithNowFunc(now func() time.Time) SolveOption {
	return func(c *solveConfig) { c.now = now }
}

// Solve performs exhaustive backtracking search over the problem's free
// variables in their fixed order. Each rule instance is evaluated as soon as
// its last input becomes fixed, narrowing the branching variable's effective
// domain; failures are recorded in the rejection ledger. Solve never mutates
// the problem, so concurrent solves of the same Problem are safe.
func Solve(p *Problem, budget Budget, opts ...SolveOption) Result {
	cfg := solveConfig{ledgerCap: DefaultLedgerCap, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &search{
		p:      p,
		cfg:    cfg,
		budget: budget,
		edges:  make(map[topology.EdgeID]qn.Values),
		nodes:  make(map[topology.NodeID]qn.Values),
		byVar:  make([][]int, len(p.vars)),
	}
	if budget.Timeout > 0 {
		s.deadline = cfg.now().Add(budget.Timeout)
	}
	for _, id := range p.topo.EdgeIDs() {
		s.edges[id] = p.states[id].Clone()
	}
	for _, n := range p.topo.Nodes() {
		s.nodes[n] = p.interactions[n].Clone()
	}

	// Rules whose inputs are all fixed at build time gate the whole search;
	// the rest fire when their last free input is assigned.
	rootOK := true
	for i := range p.bound {
		br := &p.bound[i]
		if br.lastVar < 0 {
			if !br.rule.Check(s.input(br)) {
				s.reject(br)
				rootOK = false
			}
			continue
		}
		s.byVar[br.lastVar] = append(s.byVar[br.lastVar], i)
	}
	if rootOK {
		s.step(0)
	}
	return s.result
}

type search struct {
	p        *Problem
	cfg      solveConfig
	budget   Budget
	deadline time.Time

	edges map[topology.EdgeID]qn.Values
	nodes map[topology.NodeID]qn.Values
	byVar [][]int

	result Result
	stop   bool
}

func (s *search) step(i int) {
	if i == len(s.p.vars) {
		s.record()
		return
	}
	v := &s.p.vars[i]
	for _, val := range v.domain {
		if s.exhausted() {
			s.result.Truncated = true
			s.stop = true
			return
		}
		s.result.Iterations++

		s.assign(v.locus, v.label, val)
		if ok := s.checkAt(i, val); ok {
			s.step(i + 1)
		}
		s.unassign(v.locus, v.label)
		if s.stop {
			return
		}
	}
}

func (s *search) exhausted() bool {
	if s.budget.MaxIterations > 0 && s.result.Iterations >= s.budget.MaxIterations {
		return true
	}
	return !s.deadline.IsZero() && s.cfg.now().After(s.deadline)
}

// checkAt propagates every rule whose last input is variable i against the
// candidate value just assigned there: each rule restricts the singleton
// {val} through its free slot, and an empty survivor set rejects the
// candidate. The first failing rule is recorded.
func (s *search) checkAt(i int, val qn.Value) bool {
	for _, idx := range s.byVar[i] {
		br := &s.p.bound[idx]
		if len(br.rule.Restrict(s.input(br), br.free, []qn.Value{val})) == 0 {
			s.reject(br)
			return false
		}
	}
	return true
}

func (s *search) input(br *boundRule) rules.Input {
	if br.rule.Scope == rules.ScopeEdge {
		return rules.Input{Edge: s.edges[br.locus.Edge]}
	}
	n := br.locus.Node
	in := s.p.topo.InEdges(n)
	out := s.p.topo.OutEdges(n)
	input := rules.Input{
		In:   make([]qn.Values, len(in)),
		Out:  make([]qn.Values, len(out)),
		Node: s.nodes[n],
	}
	for i, id := range in {
		input.In[i] = s.edges[id]
	}
	for i, id := range out {
		input.Out[i] = s.edges[id]
	}
	return input
}

func (s *search) assign(l Locus, label qn.Label, v qn.Value) {
	if l.Kind == qn.LocusEdge {
		s.edges[l.Edge][label] = v
		return
	}
	s.nodes[l.Node][label] = v
}

func (s *search) unassign(l Locus, label qn.Label) {
	if l.Kind == qn.LocusEdge {
		delete(s.edges[l.Edge], label)
		return
	}
	delete(s.nodes[l.Node], label)
}

func (s *search) reject(br *boundRule) {
	if len(s.result.Rejections) >= s.cfg.ledgerCap {
		return
	}
	inputs := make([]RejectedInput, len(br.inputs))
	for i, ref := range br.inputs {
		var v qn.Value
		if ref.locus.Kind == qn.LocusEdge {
			v = s.edges[ref.locus.Edge][ref.label]
		} else {
			v = s.nodes[ref.locus.Node][ref.label]
		}
		inputs[i] = RejectedInput{Locus: ref.locus, Label: ref.label, Value: v}
	}
	s.result.Rejections = append(s.result.Rejections, Rejection{
		Locus:  br.locus,
		Rule:   br.rule.Name,
		Inputs: inputs,
	})
}

func (s *search) record() {
	sol := Assignment{
		States:       make(map[topology.EdgeID]qn.Values, len(s.edges)),
		Interactions: make(map[topology.NodeID]qn.Values, len(s.nodes)),
	}
	for id, vals := range s.edges {
		sol.States[id] = vals.Clone()
	}
	for n, vals := range s.nodes {
		sol.Interactions[n] = vals.Clone()
	}
	s.result.Solutions = append(s.result.Solutions, sol)
}
