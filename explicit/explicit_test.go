package explicit

import (
	"testing"

	"github.com/onesafe/petrinet/petri"
)

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

func TestPackUnpackRoundTrip(t *testing.T) {
	m := petri.Marking{1, 0, 1, 1, 0}
	s := PackMarking(m)
	got := UnpackMarking(s, len(m))
	if !got.Equal(m) {
		t.Fatalf("round trip: got %v, want %v", got, m)
	}
}

func TestAlternatorReachability(t *testing.T) {
	net := alternator(t)
	pc := Precompute(net)

	bfs := BFS(pc, Config{})
	if len(bfs.Reachable) != 2 {
		t.Fatalf("expected 2 reachable markings, got %d", len(bfs.Reachable))
	}

	want := []petri.Marking{{1, 0}, {0, 1}}
	for _, w := range want {
		if _, ok := bfs.Reachable[PackMarking(w)]; !ok {
			t.Fatalf("expected marking %v reachable", w)
		}
	}

	dfs := DFS(pc, Config{})
	if len(dfs.Reachable) != len(bfs.Reachable) {
		t.Fatalf("BFS and DFS disagree on reachable set size: %d vs %d", len(bfs.Reachable), len(dfs.Reachable))
	}
}

func TestDeadlockingFork(t *testing.T) {
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
	pc := Precompute(net)
	result := BFS(pc, Config{})
	if len(result.Reachable) != 3 {
		t.Fatalf("expected 3 reachable markings, got %d", len(result.Reachable))
	}

	deadlocks := 0
	for s := range result.Reachable {
		m := UnpackMarking(s, net.NumPlaces())
		if net.IsDeadlock(m) {
			deadlocks++
		}
	}
	if deadlocks != 2 {
		t.Fatalf("expected 2 deadlock markings, got %d", deadlocks)
	}
}

func TestOverflowDisablesTransition(t *testing.T) {
	net, err := petri.Build().
		Place("a", 1).
		Place("b", 1).
		Transition("t").
		Arc("a", "t", 1).
		Arc("t", "b", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	pc := Precompute(net)
	init := pc.Initial()
	if pc.Fireable(init, net.TransIndex("t")) {
		t.Fatal("t should be disabled: firing would double-mark b")
	}
}

func TestMaxStatesTruncates(t *testing.T) {
	net := alternator(t)
	pc := Precompute(net)
	result := BFS(pc, Config{MaxStates: 1})
	if !result.Truncated {
		t.Fatal("expected truncation with MaxStates=1")
	}
}

func TestCancel(t *testing.T) {
	net := alternator(t)
	pc := Precompute(net)
	cancel := make(chan struct{})
	close(cancel)
	result := BFS(pc, Config{Cancel: cancel})
	if !result.Cancelled {
		t.Fatal("expected cancellation")
	}
}
