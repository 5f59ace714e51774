package validation

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

func TestValidateCleanAlternator(t *testing.T) {
	net := alternator(t)
	result := NewValidator(net).Validate()
	if !result.Valid {
		t.Fatalf("expected valid net, got errors: %+v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings for a fully connected net, got %+v", result.Warnings)
	}
	if !result.Summary.Conserved {
		t.Fatal("alternator should be token-conserving (every transition has one input, one output)")
	}
}

func TestValidateFlagsDisconnectedPlace(t *testing.T) {
	net, err := petri.Build().
		Place("p1", 1).
		Place("isolated", 0).
		Transition("t1").
		Arc("p1", "t1", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result := NewValidator(net).Validate()

	found := false
	for _, w := range result.Warnings {
		if w.Category == "connectivity" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a connectivity warning for the isolated place")
	}
}

func TestValidateFlagsTransitionDisabledAtInitialMarking(t *testing.T) {
	net, err := petri.Build().
		Place("p1", 0).
		Place("p2", 0).
		Transition("t1").
		Arc("p1", "t1", 1).
		Arc("t1", "p2", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result := NewValidator(net).Validate()

	found := false
	for _, w := range result.Warnings {
		if w.Category == "deadlock" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a deadlock-heuristic warning: t1 has no marked input at M0")
	}
}

func TestCheckConservationDetectsImbalance(t *testing.T) {
	net, err := petri.Build().
		Place("p1", 1).
		Place("p2", 0).
		Place("p3", 0).
		Transition("split").
		Arc("p1", "split", 1).
		Arc("split", "p2", 1).
		Arc("split", "p3", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	analyzer := NewInvariantAnalyzer(net)
	if analyzer.CheckConservation() {
		t.Fatal("a 1-to-2 fan-out transition should not be conservative")
	}
}

func TestFindPInvariantsOnAlternator(t *testing.T) {
	net := alternator(t)
	analyzer := NewInvariantAnalyzer(net)
	invs := analyzer.FindPInvariants()
	if len(invs) == 0 {
		t.Fatal("expected at least the all-places invariant for a conservative net")
	}
	for _, inv := range invs {
		if !inv.Check(net.M0) {
			t.Fatalf("invariant %+v does not hold at the initial marking", inv)
		}
	}
}

func TestValidateWithReachabilityFindsDeadlockingFork(t *testing.T) {
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
	result := NewValidator(net).ValidateWithReachability(ReachabilityConfig{})
	if result.Reachability == nil {
		t.Fatal("expected a reachability result")
	}
	if result.Reachability.Reachable != 3 {
		t.Fatalf("expected 3 reachable markings, got %d", result.Reachability.Reachable)
	}
	if len(result.Reachability.DeadlockStates) != 2 {
		t.Fatalf("expected 2 deadlock markings (b=1 and c=1), got %d", len(result.Reachability.DeadlockStates))
	}
}
