// Package optimize implements the branch-and-cut optimizer: given an
// integer weight vector over places, maximize the objective over the
// symbolic reachable set. A best-first search over a priority queue
// of (ub, I0, I1) nodes, using BDD restriction for feasibility and
// singleton detection, a small inference/separation pass, an LP
// relaxation call for the upper bound, and branching on the
// largest-weight free variable.
package optimize

import (
	"container/heap"
	"math"
	"math/big"

	"github.com/onesafe/petrinet/bdd"
	"github.com/onesafe/petrinet/lp"
	"github.com/onesafe/petrinet/petri"
	"github.com/onesafe/petrinet/symbolic"
)

// Weights is a |P|-integer objective vector keyed by place ID;
// entries missing from the map default to 0.
type Weights map[string]int

// Config carries the tunables, LP backend, and cooperative-cancel
// token for one Run; nothing is read from global state.
type Config struct {
	Solver lp.Solver
	// MutexCutBudget bounds the number of (u,v) pairs tested per node
	// for mutex cuts; defaults to 50 if zero. Tunable, not
	// semantically required.
	MutexCutBudget int
	// InferencePassBudget bounds the number of free variables tested
	// per node for the forcing inference pass; same default and
	// rationale as MutexCutBudget.
	InferencePassBudget int
	// IterationCap bounds the number of nodes popped from the open
	// list; 0 means unbounded.
	IterationCap int
	Cancel       <-chan struct{}
}

func (c Config) mutexBudget() int {
	if c.MutexCutBudget > 0 {
		return c.MutexCutBudget
	}
	return 50
}

func (c Config) inferenceBudget() int {
	if c.InferencePassBudget > 0 {
		return c.InferencePassBudget
	}
	return 50
}

// Outcome tags how a Run completed.
type Outcome int

const (
	OutcomeOptimal Outcome = iota
	OutcomeInfeasible
	OutcomeCancelled
)

// Result is the incumbent found (if any) and whether the search
// certified optimality.
type Result struct {
	Outcome Outcome
	Marking petri.Marking
	Value   int
	Optimal bool // true iff every pruned node had ub <= incumbent
	NodeSeq int  // node creation index reached; creation order keeps traces reproducible
}

type searchNode struct {
	ub      float64
	i0, i1  map[int]bool
	created int
}

type nodeHeap []*searchNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].ub != h[j].ub {
		return h[i].ub > h[j].ub // max-heap on ub
	}
	return h[i].created < h[j].created // stable tie-break by creation index
}
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*searchNode)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Run solves max c^T M subject to M in R, M in {0,1}^|P|.
func Run(mgr *bdd.Manager, net *petri.Net, vs *symbolic.VarSet, r bdd.Node, weights Weights, cfg Config) (Result, error) {
	c := resolveWeights(net, weights)

	if r == bdd.False {
		return Result{Outcome: OutcomeInfeasible}, nil
	}

	open := &nodeHeap{}
	heap.Init(open)
	seq := 0
	push := func(ub float64, i0, i1 map[int]bool) {
		heap.Push(open, &searchNode{ub: ub, i0: i0, i1: i1, created: seq})
		seq++
	}
	push(math.Inf(1), map[int]bool{}, map[int]bool{})

	bestVal := math.Inf(-1)
	var bestMarking petri.Marking
	optimal := true

	iterations := 0
	for open.Len() > 0 {
		if cancelled(cfg.Cancel) {
			return partialResult(OutcomeCancelled, bestMarking, bestVal, false), nil
		}
		if cfg.IterationCap > 0 && iterations >= cfg.IterationCap {
			optimal = false
			break
		}
		iterations++

		node := heap.Pop(open).(*searchNode)
		if node.ub <= bestVal {
			continue // pruned: this node (and everything below it) cannot beat the incumbent
		}

		restricted, err := restrictAll(mgr, r, node.i0, node.i1, vs)
		if err != nil {
			return Result{}, err
		}
		if restricted == bdd.False {
			continue // infeasible under these fixings
		}

		numFixed := len(node.i0) + len(node.i1)
		if satcountOverPlaces(mgr, restricted, vs, numFixed).Cmp(bigOne) == 0 {
			m, err := extractSingleton(mgr, restricted, vs, net.NumPlaces(), node.i0, node.i1)
			if err != nil {
				return Result{}, err
			}
			val := objective(c, m)
			if float64(val) > bestVal {
				bestVal = float64(val)
				bestMarking = m
			}
			continue
		}

		freeVars := freeVariables(net.NumPlaces(), node.i0, node.i1)
		forced0, forced1, err := infer(mgr, restricted, vs, freeVars, cfg.inferenceBudget())
		if err != nil {
			return Result{}, err
		}
		newI0 := union(node.i0, forced0)
		newI1 := union(node.i1, forced1)
		realFree := freeVariables(net.NumPlaces(), newI0, newI1)

		cuts := mutexCuts(mgr, restricted, vs, net, realFree, cfg.mutexBudget())

		status, lpObj, sol := solveLP(cfg.Solver, net, c, newI0, newI1, cuts)
		if status != lp.StatusOptimal {
			if status == lp.StatusOther {
				// Pruned without a bound, so the result is not certified.
				optimal = false
			}
			continue // LP infeasible or backend unavailable: prune, never abort
		}

		ub := math.Min(node.ub, lpObj)
		if ub <= bestVal {
			continue
		}

		isInteger := true
		tentative0 := union(newI0, map[int]bool{})
		tentative1 := union(newI1, map[int]bool{})
		for _, p := range realFree {
			v := sol[net.PlaceIDs[p]]
			switch {
			case math.Abs(v) <= 1e-5:
				tentative0[p] = true
			case math.Abs(v-1) <= 1e-5:
				tentative1[p] = true
			default:
				isInteger = false
			}
			if !isInteger {
				break
			}
		}
		if isInteger {
			// Verify the complete integral point, zeros included: a
			// restriction by the 1-fixings alone would accept any
			// reachable completion of them, not the LP's assignment.
			verified, err := restrictAll(mgr, r, tentative0, tentative1, vs)
			if err != nil {
				return Result{}, err
			}
			if verified != bdd.False {
				val := 0
				for p := range tentative1 {
					val += c[p]
				}
				if float64(val) > bestVal {
					bestVal = float64(val)
					bestMarking = markingFrom(net.NumPlaces(), tentative1)
				}
				if float64(val) >= ub-1e-5 {
					continue
				}
			}
		}

		if len(realFree) == 0 {
			continue
		}
		branchVar := selectBranchVar(realFree, c)
		push(ub, newI0, union(newI1, map[int]bool{branchVar: true}))
		push(ub, union(newI0, map[int]bool{branchVar: true}), newI1)
	}

	if math.IsInf(bestVal, -1) {
		return Result{Outcome: OutcomeInfeasible, Optimal: optimal, NodeSeq: seq}, nil
	}
	return Result{
		Outcome: OutcomeOptimal,
		Marking: bestMarking,
		Value:   int(bestVal),
		Optimal: optimal,
		NodeSeq: seq,
	}, nil
}

func partialResult(outcome Outcome, m petri.Marking, val float64, optimal bool) Result {
	if math.IsInf(val, -1) {
		return Result{Outcome: outcome, Optimal: optimal}
	}
	return Result{Outcome: outcome, Marking: m, Value: int(val), Optimal: optimal}
}

func cancelled(c <-chan struct{}) bool {
	if c == nil {
		return false
	}
	select {
	case <-c:
		return true
	default:
		return false
	}
}

func resolveWeights(net *petri.Net, w Weights) []int {
	c := make([]int, net.NumPlaces())
	for p, id := range net.PlaceIDs {
		c[p] = w[id]
	}
	return c
}

func objective(c []int, m petri.Marking) int {
	total := 0
	for p, v := range m {
		if v != 0 {
			total += c[p]
		}
	}
	return total
}

func freeVariables(numPlaces int, i0, i1 map[int]bool) []int {
	var out []int
	for p := 0; p < numPlaces; p++ {
		if !i0[p] && !i1[p] {
			out = append(out, p)
		}
	}
	return out
}

func union(a, b map[int]bool) map[int]bool {
	out := make(map[int]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

// restrictAll cofactors node by fixing every place in i0 to 0 and
// every place in i1 to 1.
func restrictAll(mgr *bdd.Manager, node bdd.Node, i0, i1 map[int]bool, vs *symbolic.VarSet) (bdd.Node, error) {
	res := node
	for p := range i0 {
		var err error
		res, err = mgr.Restrict(res, vs.CurLevel(p), 0)
		if err != nil {
			return bdd.False, err
		}
		if res == bdd.False {
			return bdd.False, nil
		}
	}
	for p := range i1 {
		var err error
		res, err = mgr.Restrict(res, vs.CurLevel(p), 1)
		if err != nil {
			return bdd.False, err
		}
		if res == bdd.False {
			return bdd.False, nil
		}
	}
	return res, nil
}

var bigOne = big.NewInt(1)

// satcountOverPlaces projects Satcount down to the free place
// variables: it divides out the factor contributed by the never-free
// next-state variables and by the numFixed place variables already
// cofactored away, so the singleton shortcut fires at any depth of
// the search tree, not just at the root.
func satcountOverPlaces(mgr *bdd.Manager, node bdd.Node, vs *symbolic.VarSet, numFixed int) *big.Int {
	full := mgr.Satcount(node)
	return new(big.Int).Rsh(full, uint(len(vs.Next)+numFixed))
}

func extractSingleton(mgr *bdd.Manager, node bdd.Node, vs *symbolic.VarSet, numPlaces int, i0, i1 map[int]bool) (petri.Marking, error) {
	m := make(petri.Marking, numPlaces)
	for p := range i1 {
		m[p] = 1
	}
	var cube bdd.Cube
	found := false
	err := mgr.Allsat(node, vs.Cur, func(c bdd.Cube) error {
		cube = c
		found = true
		return errStopEnum
	})
	if err != nil && err != errStopEnum {
		return nil, err
	}
	if found {
		for p := 0; p < numPlaces; p++ {
			if i0[p] || i1[p] {
				continue
			}
			if v, ok := cube.Value(vs.CurLevel(p)); ok {
				m[p] = uint8(v)
			}
		}
	}
	return m, nil
}

func markingFrom(numPlaces int, ones map[int]bool) petri.Marking {
	m := make(petri.Marking, numPlaces)
	for p := range ones {
		m[p] = 1
	}
	return m
}

// infer tests, for each free variable, whether fixing it to 1 (or 0)
// falsifies the restricted reachable set: the per-node separation
// pass. Bounded by budget the same way mutexCuts is.
func infer(mgr *bdd.Manager, node bdd.Node, vs *symbolic.VarSet, free []int, budget int) (map[int]bool, map[int]bool, error) {
	forced0 := map[int]bool{}
	forced1 := map[int]bool{}
	n := len(free)
	if budget > 0 && n > budget {
		n = budget
	}
	for i := 0; i < n; i++ {
		p := free[i]
		r1, err := mgr.Restrict(node, vs.CurLevel(p), 1)
		if err != nil {
			return nil, nil, err
		}
		if r1 == bdd.False {
			forced0[p] = true
			continue
		}
		r0, err := mgr.Restrict(node, vs.CurLevel(p), 0)
		if err != nil {
			return nil, nil, err
		}
		if r0 == bdd.False {
			forced1[p] = true
		}
	}
	return forced0, forced1, nil
}

// mutexCuts tests a bounded number of (u,v) pairs among free
// variables, emitting x_u + x_v <= 1 whenever both cannot be 1
// simultaneously.
func mutexCuts(mgr *bdd.Manager, node bdd.Node, vs *symbolic.VarSet, net *petri.Net, free []int, budget int) []lp.Inequality {
	var cuts []lp.Inequality
	tested := 0
	for i := 0; i < len(free) && tested < budget; i++ {
		for j := i + 1; j < len(free) && tested < budget; j++ {
			tested++
			u, v := free[i], free[j]
			both, err := mgr.Restrict(node, vs.CurLevel(u), 1)
			if err != nil || both == bdd.False {
				continue
			}
			both, err = mgr.Restrict(both, vs.CurLevel(v), 1)
			if err != nil {
				continue
			}
			if both == bdd.False {
				cuts = append(cuts, lp.Inequality{
					Coeffs: map[string]float64{net.PlaceIDs[u]: 1, net.PlaceIDs[v]: 1},
					RHS:    1,
				})
			}
		}
	}
	return cuts
}

func solveLP(solver lp.Solver, net *petri.Net, c []int, i0, i1 map[int]bool, cuts []lp.Inequality) (lp.Status, float64, map[string]float64) {
	if solver == nil {
		return lp.StatusOther, 0, nil
	}
	fixed := make(map[string]float64, len(i0)+len(i1))
	for p := range i0 {
		fixed[net.PlaceIDs[p]] = 0
	}
	for p := range i1 {
		fixed[net.PlaceIDs[p]] = 1
	}
	objective := make(map[string]float64, len(net.PlaceIDs))
	for p, id := range net.PlaceIDs {
		objective[id] = float64(c[p])
	}
	return solver.Solve(net.PlaceIDs, fixed, cuts, objective)
}

// selectBranchVar picks the free variable with the largest |c_p|.
func selectBranchVar(free []int, c []int) int {
	best := free[0]
	bestAbs := absInt(c[best])
	for _, p := range free[1:] {
		if absInt(c[p]) > bestAbs {
			best = p
			bestAbs = absInt(c[p])
		}
	}
	return best
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var errStopEnum = stopEnumError{}

type stopEnumError struct{}

func (stopEnumError) Error() string { return "optimize: enumeration stopped" }
