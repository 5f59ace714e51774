// Package symbolic builds the partitioned symbolic transition relation
// for a 1-safe net and runs the frontier-based fixed-point image
// computation over it.
package symbolic

import (
	"github.com/onesafe/petrinet/bdd"
	"github.com/onesafe/petrinet/petri"
)

// VarSet names the interleaved current/next BDD variable levels
// assigned to each place, in the order the manager was built with.
type VarSet struct {
	// Order is the place index (into net.PlaceIDs) each entry of
	// Cur/Next corresponds to, i.e. the BDD-internal place order, which
	// may differ from net.PlaceIDs when a connectivity reorder was
	// applied.
	Order []int
	Cur   []int // Cur[i] is the current-state level for place Order[i]
	Next  []int // Next[i] is the next-state level for place Order[i]

	curOf  map[int]int // net place index -> current level
	nextOf map[int]int // net place index -> next level
}

// CurLevel returns the current-state BDD level for net place index p.
func (v *VarSet) CurLevel(p int) int { return v.curOf[p] }

// NextLevel returns the next-state BDD level for net place index p.
func (v *VarSet) NextLevel(p int) int { return v.nextOf[p] }

// NewManager allocates a bdd.Manager sized for net's places and
// returns it together with the interleaved VarSet, using the given
// place order (identity order, or ReorderByConnectivity's output).
func NewManager(net *petri.Net, order []int) (*bdd.Manager, *VarSet) {
	n := net.NumPlaces()
	mgr := bdd.NewManager(2 * n)
	cur, next := mgr.DeclareInterleaved(n)

	vs := &VarSet{
		Order:  order,
		Cur:    cur,
		Next:   next,
		curOf:  make(map[int]int, n),
		nextOf: make(map[int]int, n),
	}
	for i, p := range order {
		vs.curOf[p] = cur[i]
		vs.nextOf[p] = next[i]
		mgr.SetVarName(cur[i], net.PlaceIDs[p])
		mgr.SetVarName(next[i], net.PlaceIDs[p]+"'")
	}
	return mgr, vs
}

// IdentityOrder returns [0, 1, ..., numPlaces-1], the default
// construction order with no connectivity reordering applied.
func IdentityOrder(net *petri.Net) []int {
	order := make([]int, net.NumPlaces())
	for i := range order {
		order[i] = i
	}
	return order
}

// ReorderByConnectivity performs an optional BFS-over-shared-transitions
// preorder pass: two places are adjacent if one is an input and the
// other an output of the same transition, or if both are inputs of the
// same transition (each input is linked to that transition's first
// input place). A BFS over this adjacency graph, started fresh
// from each unvisited place in net.PlaceIDs order, yields a place
// order with related places adjacent, which keeps the interleaved
// current/next pairs for related places close together too.
func ReorderByConnectivity(net *petri.Net) []int {
	n := net.NumPlaces()
	adj := make([]map[int]struct{}, n)
	for p := range adj {
		adj[p] = make(map[int]struct{})
	}
	link := func(a, b int) {
		if a == b {
			return
		}
		adj[a][b] = struct{}{}
		adj[b][a] = struct{}{}
	}

	for t := 0; t < net.NumTrans(); t++ {
		var inputs, outputs []int
		for p := 0; p < n; p++ {
			if net.I[t][p] != 0 {
				inputs = append(inputs, p)
			}
			if net.O[t][p] != 0 {
				outputs = append(outputs, p)
			}
		}
		for _, pi := range inputs {
			for _, po := range outputs {
				link(pi, po)
			}
		}
		for i := 1; i < len(inputs); i++ {
			link(inputs[0], inputs[i])
		}
	}

	visited := make([]bool, n)
	order := make([]int, 0, n)
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			order = append(order, u)
			for v := range adj[u] {
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}
	}
	return order
}

// Relation is the BDD Rt for one transition: true iff firing it takes
// current-variable marking x to next-variable marking x'.
type Relation struct {
	TransIndex int
	TransID    string
	Node       bdd.Node
}

// BuildRelation constructs one Rt per transition, skipping transitions
// with no input and no output places. The partition is returned as a
// slice and is never conjoined into a monolithic relation.
func BuildRelation(mgr *bdd.Manager, net *petri.Net, vs *VarSet) ([]Relation, error) {
	var rels []Relation
	for t := 0; t < net.NumTrans(); t++ {
		hasInput, hasOutput := false, false
		for p := 0; p < net.NumPlaces(); p++ {
			if net.I[t][p] != 0 {
				hasInput = true
			}
			if net.O[t][p] != 0 {
				hasOutput = true
			}
		}
		if !hasInput && !hasOutput {
			continue
		}

		rt, err := buildOne(mgr, net, vs, t)
		if err != nil {
			return nil, err
		}
		rels = append(rels, Relation{TransIndex: t, TransID: net.TransIDs[t], Node: rt})
	}
	return rels, nil
}

func buildOne(mgr *bdd.Manager, net *petri.Net, vs *VarSet, t int) (bdd.Node, error) {
	var terms []bdd.Node

	// Enabling: every consumed place is marked; every place produced
	// but not consumed must currently be unmarked (the 1-safe
	// no-overflow condition pre-encoded into enablement).
	for p := 0; p < net.NumPlaces(); p++ {
		consumed := net.I[t][p] != 0
		produced := net.O[t][p] != 0
		cur := vs.CurLevel(p)
		switch {
		case consumed:
			lit, err := mgr.Ithvar(cur)
			if err != nil {
				return bdd.False, err
			}
			terms = append(terms, lit)
		case produced:
			lit, err := mgr.NIthvar(cur)
			if err != nil {
				return bdd.False, err
			}
			terms = append(terms, lit)
		}
	}

	// Update: consumed-not-produced clears next state; produced (with
	// or without consumption: plain produce or self-loop) sets it.
	for p := 0; p < net.NumPlaces(); p++ {
		consumed := net.I[t][p] != 0
		produced := net.O[t][p] != 0
		next := vs.NextLevel(p)
		switch {
		case consumed && !produced:
			lit, err := mgr.NIthvar(next)
			if err != nil {
				return bdd.False, err
			}
			terms = append(terms, lit)
		case produced:
			lit, err := mgr.Ithvar(next)
			if err != nil {
				return bdd.False, err
			}
			terms = append(terms, lit)
		}
	}

	// Frame: unaffected places keep their value.
	for p := 0; p < net.NumPlaces(); p++ {
		if net.I[t][p] != 0 || net.O[t][p] != 0 {
			continue
		}
		curLit, err := mgr.Ithvar(vs.CurLevel(p))
		if err != nil {
			return bdd.False, err
		}
		nextLit, err := mgr.Ithvar(vs.NextLevel(p))
		if err != nil {
			return bdd.False, err
		}
		same, err := mgr.Biimp(curLit, nextLit)
		if err != nil {
			return bdd.False, err
		}
		terms = append(terms, same)
	}

	return mgr.AndMany(terms...)
}

// InitialCube returns the BDD cube for net's initial marking, over
// current-state variables only.
func InitialCube(mgr *bdd.Manager, net *petri.Net, vs *VarSet) (bdd.Node, error) {
	var terms []bdd.Node
	for p := 0; p < net.NumPlaces(); p++ {
		var lit bdd.Node
		var err error
		if net.M0[p] != 0 {
			lit, err = mgr.Ithvar(vs.CurLevel(p))
		} else {
			lit, err = mgr.NIthvar(vs.CurLevel(p))
		}
		if err != nil {
			return bdd.False, err
		}
		terms = append(terms, lit)
	}
	return mgr.AndMany(terms...)
}

// MarkingCube returns the BDD cube for an arbitrary dense marking,
// over current-state variables, the encode side of the round-trip
// law between a reachable marking and its BDD cube.
func MarkingCube(mgr *bdd.Manager, m petri.Marking, vs *VarSet) (bdd.Node, error) {
	var terms []bdd.Node
	for p, v := range m {
		var lit bdd.Node
		var err error
		if v != 0 {
			lit, err = mgr.Ithvar(vs.CurLevel(p))
		} else {
			lit, err = mgr.NIthvar(vs.CurLevel(p))
		}
		if err != nil {
			return bdd.False, err
		}
		terms = append(terms, lit)
	}
	return mgr.AndMany(terms...)
}
