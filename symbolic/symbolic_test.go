package symbolic

import (
	"testing"

	"github.com/onesafe/petrinet/bdd"
	"github.com/onesafe/petrinet/explicit"
	"github.com/onesafe/petrinet/petri"
)

func build(t *testing.T, net *petri.Net) (*bdd.Manager, *VarSet, []Relation, Result) {
	t.Helper()
	mgr, vs := NewManager(net, IdentityOrder(net))
	rels, err := BuildRelation(mgr, net, vs)
	if err != nil {
		t.Fatalf("BuildRelation: %v", err)
	}
	res := Reachable(mgr, net, vs, rels, Config{})
	if res.Outcome != OutcomeOK {
		t.Fatalf("Reachable outcome: %v, err=%v", res.Outcome, res.Err)
	}
	return mgr, vs, rels, res
}

func alternator(t *testing.T) *petri.Net {
	t.Helper()
	net, err := petri.Build().
		Place("p1", 1).
		Place("p2", 0).
		Transition("t1").
		Transition("t2").
		Arc("p1", "t1", 1).
		Arc("t1", "p2", 1).
		Arc("p2", "t2", 1).
		Arc("t2", "p1", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return net
}

// TestAlternatorAgreesWithExplicit checks the central cross-engine
// invariant: the explicit reachable set and the symbolic reachable
// set's satisfying assignments are equal.
func TestAlternatorAgreesWithExplicit(t *testing.T) {
	net := alternator(t)
	mgr, vs, _, res := build(t, net)

	pc := explicit.Precompute(net)
	want := explicit.BFS(pc, explicit.Config{}).Reachable

	got := map[string]bool{}
	err := mgr.Allsat(res.R, vs.Cur, func(cube bdd.Cube) error {
		m := cubeToMarking(cube, vs, net.NumPlaces())
		got[markingKey(m)] = true
		return nil
	})
	if err != nil {
		t.Fatalf("Allsat: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("symbolic found %d markings, explicit found %d", len(got), len(want))
	}
	for s := range want {
		m := explicit.UnpackMarking(s, net.NumPlaces())
		if !got[markingKey(m)] {
			t.Fatalf("explicit marking %v missing from symbolic reachable set", m)
		}
	}
}

func TestInitialMarkingAlwaysReachable(t *testing.T) {
	net := alternator(t)
	mgr, vs, _, res := build(t, net)
	init, err := MarkingCube(mgr, net.M0, vs)
	if err != nil {
		t.Fatalf("MarkingCube: %v", err)
	}
	restricted, err := restrictByCube(mgr, res.R, init, vs)
	if err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if restricted == bdd.False {
		t.Fatal("M0 must be reachable")
	}
}

func TestIdempotentFixedPoint(t *testing.T) {
	net := alternator(t)
	mgr, vs, rels, res := build(t, net)

	// One additional image iteration on an already-reached fixed
	// point must produce no new states.
	img := bdd.False
	quantSet := mgr.NewQuantSet(vs.Cur)
	for _, rel := range rels {
		post, err := mgr.AppEx(res.R, rel.Node, bdd.OpAnd, quantSet)
		if err != nil {
			t.Fatalf("AppEx: %v", err)
		}
		if post == bdd.False {
			continue
		}
		renamed, err := mgr.Replace(post, renameNextToCur(mgr, vs))
		if err != nil {
			t.Fatalf("Replace: %v", err)
		}
		img, err = mgr.Or(img, renamed)
		if err != nil {
			t.Fatalf("Or: %v", err)
		}
	}
	notR, _ := mgr.Not(res.R)
	newStates, err := mgr.And(img, notR)
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	if newStates != bdd.False {
		t.Fatal("expected no new states at fixed point")
	}
}

func TestDeadlockingForkReachableCount(t *testing.T) {
	net, err := petri.Build().
		Place("a", 1).
		Place("b", 0).
		Place("c", 0).
		Transition("t1").
		Transition("t2").
		Arc("a", "t1", 1).
		Arc("t1", "b", 1).
		Arc("a", "t2", 1).
		Arc("t2", "c", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	mgr, vs, _, res := build(t, net)
	count := res.Count(mgr, vs)
	if count.Int64() != 3 {
		t.Fatalf("expected 3 reachable markings, got %s", count.String())
	}
}

func TestReorderByConnectivityProducesPermutation(t *testing.T) {
	net := alternator(t)
	order := ReorderByConnectivity(net)
	if len(order) != net.NumPlaces() {
		t.Fatalf("expected permutation of length %d, got %d", net.NumPlaces(), len(order))
	}
	seen := make(map[int]bool)
	for _, p := range order {
		if seen[p] {
			t.Fatalf("duplicate place %d in reordered sequence", p)
		}
		seen[p] = true
	}
}

// --- helpers ---

func cubeToMarking(cube bdd.Cube, vs *VarSet, numPlaces int) petri.Marking {
	m := make(petri.Marking, numPlaces)
	for p := 0; p < numPlaces; p++ {
		if v, ok := cube.Value(vs.CurLevel(p)); ok && v == 1 {
			m[p] = 1
		}
	}
	return m
}

func markingKey(m petri.Marking) string {
	b := make([]byte, len(m))
	for i, v := range m {
		b[i] = '0' + v
	}
	return string(b)
}

func restrictByCube(mgr *bdd.Manager, n, cube bdd.Node, vs *VarSet) (bdd.Node, error) {
	res := n
	for _, lvl := range vs.Cur {
		var err error
		// cube is a conjunction of literals; evaluate which value it
		// fixes this level to by probing both restrictions.
		v1, err := mgr.Restrict(cube, lvl, 1)
		if err != nil {
			return bdd.False, err
		}
		value := 0
		if v1 != bdd.False {
			value = 1
		}
		res, err = mgr.Restrict(res, lvl, value)
		if err != nil {
			return bdd.False, err
		}
	}
	return res, nil
}
