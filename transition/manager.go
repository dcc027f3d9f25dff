package transition

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/qsolve-hep/qsolve/particle"
	"github.com/qsolve-hep/qsolve/qn"
	"github.com/qsolve-hep/qsolve/rules"
	"github.com/qsolve-hep/qsolve/solver"
	"github.com/qsolve-hep/qsolve/topology"
)

// Determinator restricts the interaction types permitted at a node based on
// the known particles adjacent to it.
type Determinator interface {
	Check(states []particle.Particle) []InteractionType
}

// GammaCheck forces nodes touching a photon to be electromagnetic.
type GammaCheck struct{}

func (GammaCheck) Check(states []particle.Particle) []InteractionType {
	for _, p := range states {
		if strings.Contains(p.Name, "gamma") {
			return []InteractionType{EM}
		}
	}
	return AllInteractionTypes()
}

// LeptonCheck rules out the strong interaction at nodes touching leptons;
// neutrinos additionally force the weak interaction.
type LeptonCheck struct{}

func (LeptonCheck) Check(states []particle.Particle) []InteractionType {
	types := AllInteractionTypes()
	for _, p := range states {
		if !p.IsLepton() {
			continue
		}
		if strings.HasPrefix(p.Name, "nu(") {
			return []InteractionType{Weak}
		}
		types = []InteractionType{EM, Weak}
	}
	return types
}

// ProblemSet pairs one solvable problem with the interaction assignment it
// was built for.
type ProblemSet struct {
	Topology *topology.Topology
	Problem  *solver.Problem
	Types    map[topology.NodeID]InteractionType
	Strength float64
}

// Transition is one accepted reaction: named particles on every edge plus
// the coupled quantum numbers at every node.
type Transition struct {
	Topology     *topology.Topology
	States       map[topology.EdgeID]particle.Particle
	Interactions map[topology.NodeID]qn.Values
}

// Result is the outcome of a full reaction search.
type Result struct {
	RunID       string
	Transitions []Transition
	Problems    int
	Truncated   bool
}

// Manager runs reaction searches against a particle catalogue.
type Manager struct {
	particles     *particle.List
	bounds        Bounds
	allowed       []InteractionType
	determinators []Determinator
	budget        solver.Budget
	workers       int
	logger        *slog.Logger
}

// Option adjusts a Manager.
type Option func(*Manager)

// WithBounds overrides the node domain bounds.
func WithBounds(b Bounds) Option {
	return func(m *Manager) { m.bounds = b }
}

// WithInteractionTypes restricts the interaction types considered anywhere
// in the reaction.
func WithInteractionTypes(types ...InteractionType) Option {
	return func(m *Manager) { m.allowed = types }
}

// WithBudget bounds each individual solve.
func WithBudget(b solver.Budget) Option {
	return func(m *Manager) { m.budget = b }
}

// WithWorkers sets the number of concurrent solves per strength group.
func WithWorkers(n int) Option {
	return func(m *Manager) { m.workers = n }
}

// WithLogger overrides the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithDeterminators replaces the default interaction determinators.
func WithDeterminators(ds ...Determinator) Option {
	return func(m *Manager) { m.determinators = ds }
}

// New builds a Manager over the given catalogue.
func New(list *particle.List, opts ...Option) *Manager {
	m := &Manager{
		particles:     list,
		bounds:        DefaultBounds(),
		allowed:       AllInteractionTypes(),
		determinators: []Determinator{GammaCheck{}, LeptonCheck{}},
		workers:       runtime.NumCPU(),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers < 1 {
		m.workers = 1
	}
	return m
}

// CreateProblemSets enumerates every (topology, final-state permutation,
// interaction assignment) combination for the reaction and builds a
// solvable problem for each, sorted by decreasing interaction strength.
func (m *Manager) CreateProblemSets(initial string, finals []string) ([]ProblemSet, error) {
	ini, ok := m.particles.ByName(initial)
	if !ok {
		return nil, fmt.Errorf("unknown particle %q", initial)
	}
	finalParticles := make([]particle.Particle, len(finals))
	for i, name := range finals {
		p, ok := m.particles.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown particle %q", name)
		}
		finalParticles[i] = p
	}

	topos, err := topology.Isobar(len(finals))
	if err != nil {
		return nil, err
	}
	domains := DomainsFor(m.particles, m.bounds, false)

	var sets []ProblemSet
	for _, topo := range topos {
		for _, perm := range uniquePermutations(finalParticles) {
			known := map[topology.EdgeID]particle.Particle{
				topology.InitialEdge: ini,
			}
			states := map[topology.EdgeID]qn.Values{
				topology.InitialEdge: ini.QuantumNumbers(),
			}
			for i, p := range perm {
				known[topology.EdgeID(i)] = p
				states[topology.EdgeID(i)] = p.QuantumNumbers()
			}

			perNode, viable := m.allowedTypes(topo, known)
			if !viable {
				continue
			}
			for _, combo := range typeCombinations(topo.Nodes(), perNode) {
				ruleCfg := solver.Rules{
					Edge:    edgeValidityRules(),
					PerNode: make(map[topology.NodeID]rules.Set, len(combo)),
				}
				strength := 1.0
				for n, t := range combo {
					ruleCfg.PerNode[n] = NodeRules(t)
					strength *= t.Strength()
				}
				prob, err := solver.Build(topo, states, nil, ruleCfg, domains)
				if err != nil {
					return nil, err
				}
				sets = append(sets, ProblemSet{
					Topology: topo,
					Problem:  prob,
					Types:    combo,
					Strength: strength,
				})
			}
		}
	}
	sort.SliceStable(sets, func(i, j int) bool { return sets[i].Strength > sets[j].Strength })
	return sets, nil
}

// allowedTypes intersects the determinators' verdicts per node. A node with
// no permitted type makes the whole assignment unviable.
func (m *Manager) allowedTypes(
	topo *topology.Topology,
	known map[topology.EdgeID]particle.Particle,
) (map[topology.NodeID][]InteractionType, bool) {
	out := make(map[topology.NodeID][]InteractionType, topo.NodeCount())
	for _, n := range topo.Nodes() {
		var adjacent []particle.Particle
		for _, id := range append(topo.InEdges(n), topo.OutEdges(n)...) {
			if p, ok := known[id]; ok {
				adjacent = append(adjacent, p)
			}
		}
		allowed := m.allowed
		for _, d := range m.determinators {
			allowed = intersectTypes(allowed, d.Check(adjacent))
		}
		if len(allowed) == 0 {
			return nil, false
		}
		out[n] = allowed
	}
	return out, true
}

func intersectTypes(a, b []InteractionType) []InteractionType {
	inB := make(map[InteractionType]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}
	var out []InteractionType
	for _, t := range a {
		if inB[t] {
			out = append(out, t)
		}
	}
	return out
}

// typeCombinations enumerates the cartesian product of per-node interaction
// types, nodes in id order.
func typeCombinations(
	nodes []topology.NodeID,
	perNode map[topology.NodeID][]InteractionType,
) []map[topology.NodeID]InteractionType {
	combos := []map[topology.NodeID]InteractionType{{}}
	for _, n := range nodes {
		var next []map[topology.NodeID]InteractionType
		for _, base := range combos {
			for _, t := range perNode[n] {
				combo := make(map[topology.NodeID]InteractionType, len(base)+1)
				for k, v := range base {
					combo[k] = v
				}
				combo[n] = t
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// uniquePermutations enumerates the distinct orderings of the final-state
// particles. Identical species are interchangeable; permuting them would
// only duplicate problems.
func uniquePermutations(particles []particle.Particle) [][]particle.Particle {
	sorted := append([]particle.Particle(nil), particles...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var out [][]particle.Particle
	used := make([]bool, len(sorted))
	current := make([]particle.Particle, 0, len(sorted))

	var walk func()
	walk = func() {
		if len(current) == len(sorted) {
			out = append(out, append([]particle.Particle(nil), current...))
			return
		}
		for i := range sorted {
			if used[i] {
				continue
			}
			if i > 0 && sorted[i].Name == sorted[i-1].Name && !used[i-1] {
				continue
			}
			used[i] = true
			current = append(current, sorted[i])
			walk()
			current = current[:len(current)-1]
			used[i] = false
		}
	}
	walk()
	return out
}

// FindSolutions runs the full search for one reaction. Problem sets are
// solved in order of decreasing interaction strength; once a strength group
// yields transitions, weaker groups are skipped, they would only add
// suppressed duplicates of the same reaction.
func (m *Manager) FindSolutions(ctx context.Context, initial string, finals []string) (*Result, error) {
	runID := uuid.NewString()
	log := m.logger.With("run_id", runID, "initial", initial)

	sets, err := m.CreateProblemSets(initial, finals)
	if err != nil {
		return nil, err
	}
	log.Info("created problem sets", "count", len(sets))

	result := &Result{RunID: runID, Problems: len(sets)}
	seen := make(map[string]bool)
	for _, group := range groupByStrength(sets) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info("solving strength group",
			"strength", group[0].Strength, "problems", len(group))

		solved := m.solveGroup(ctx, group)
		found := 0
		for i, res := range solved {
			if res.Truncated {
				result.Truncated = true
			}
			for _, tr := range m.convert(group[i], res) {
				key := transitionKey(tr)
				if seen[key] {
					continue
				}
				seen[key] = true
				result.Transitions = append(result.Transitions, tr)
				found++
			}
		}
		log.Info("strength group solved", "transitions", found)
		if found > 0 {
			break
		}
	}
	return result, nil
}

// solveGroup solves one strength group's problems concurrently. Results are
// collected by index, so output order does not depend on scheduling.
func (m *Manager) solveGroup(ctx context.Context, group []ProblemSet) []solver.Result {
	results := make([]solver.Result, len(group))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := m.workers
	if workers > len(group) {
		workers = len(group)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = solver.Solve(group[i].Problem, m.budget)
			}
		}()
	}
	for i := range group {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// convert matches solved intermediate-state quantum numbers back against
// the catalogue, producing one transition per consistent particle choice.
func (m *Manager) convert(ps ProblemSet, res solver.Result) []Transition {
	intermediates := ps.Topology.IntermediateEdgeIDs()
	var out []Transition
	for _, sol := range res.Solutions {
		choices := make([][]particle.Particle, len(intermediates))
		feasible := true
		for i, id := range intermediates {
			choices[i] = m.particles.Matching(sol.States[id])
			if len(choices[i]) == 0 {
				feasible = false
				break
			}
		}
		if !feasible {
			continue
		}
		for _, pick := range cartesian(choices) {
			tr := Transition{
				Topology:     ps.Topology,
				States:       make(map[topology.EdgeID]particle.Particle),
				Interactions: make(map[topology.NodeID]qn.Values),
			}
			for _, id := range ps.Topology.EdgeIDs() {
				if pid, ok := sol.States[id][qn.PID]; ok {
					if p, found := m.particles.ByPID(int(pid)); found {
						tr.States[id] = p
					}
				}
			}
			for i, id := range intermediates {
				tr.States[id] = pick[i]
			}
			for n, vals := range sol.Interactions {
				tr.Interactions[n] = vals.Clone()
			}
			out = append(out, tr)
		}
	}
	return out
}

func cartesian(choices [][]particle.Particle) [][]particle.Particle {
	out := [][]particle.Particle{{}}
	for _, options := range choices {
		var next [][]particle.Particle
		for _, base := range out {
			for _, p := range options {
				next = append(next, append(append([]particle.Particle(nil), base...), p))
			}
		}
		out = next
	}
	return out
}

func groupByStrength(sets []ProblemSet) [][]ProblemSet {
	var groups [][]ProblemSet
	for _, ps := range sets {
		if n := len(groups); n > 0 && groups[n-1][0].Strength == ps.Strength {
			groups[n-1] = append(groups[n-1], ps)
			continue
		}
		groups = append(groups, []ProblemSet{ps})
	}
	return groups
}

// transitionKey fingerprints a transition for duplicate removal: the
// topology layout, the species on every edge, and the couplings at every
// node.
func transitionKey(tr Transition) string {
	var b strings.Builder
	b.WriteString(tr.Topology.Fingerprint())
	for _, id := range tr.Topology.EdgeIDs() {
		fmt.Fprintf(&b, "|e%d:%d", id, tr.States[id].PID)
	}
	for _, n := range tr.Topology.Nodes() {
		vals := tr.Interactions[n]
		for _, label := range vals.SortedLabels() {
			fmt.Fprintf(&b, "|n%d:%s=%d", n, label, vals[label])
		}
	}
	return b.String()
}
