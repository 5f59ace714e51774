package petri

import "testing"

func alternator(t *testing.T) *Net {
	t.Helper()
	net, err := Build().
		Place("a", 1).
		Place("b", 0).
		Transition("toB").
		Transition("toA").
		Arc("a", "toB", 1).
		Arc("toB", "b", 1).
		Arc("b", "toA", 1).
		Arc("toA", "a", 1).
		Build()
	if err != nil {
		t.Fatalf("build alternator: %v", err)
	}
	return net
}

func TestBuilderRejectsOutOfRangeMarking(t *testing.T) {
	_, err := Build().Place("p", 2).Build()
	if err == nil {
		t.Fatal("expected error for marking > 1")
	}
}

func TestBuilderRejectsDuplicateIDs(t *testing.T) {
	_, err := Build().Place("p", 0).Place("p", 1).Build()
	if err == nil {
		t.Fatal("expected error for duplicate place id")
	}
}

func TestBuilderRejectsDanglingArc(t *testing.T) {
	_, err := Build().Place("p", 0).Transition("t").Arc("p", "missing", 1).Build()
	if err == nil {
		t.Fatal("expected error for arc to unknown endpoint")
	}
}

func TestEnabledAndFire(t *testing.T) {
	net := alternator(t)
	m := net.M0.Clone()
	toB := net.TransIndex("toB")
	toA := net.TransIndex("toA")

	if !net.CanFire(m, toB) {
		t.Fatal("expected toB enabled at initial marking")
	}
	if net.CanFire(m, toA) {
		t.Fatal("expected toA disabled at initial marking")
	}

	m = net.Fire(m, toB)
	want := Marking{0, 1}
	if !m.Equal(want) {
		t.Fatalf("got %v, want %v", m, want)
	}
	if !net.CanFire(m, toA) {
		t.Fatal("expected toA enabled after firing toB")
	}
}

func TestWouldOverflowSelfLoopIsSafe(t *testing.T) {
	net, err := Build().
		Place("p", 1).
		Transition("t").
		Arc("p", "t", 1).
		Arc("t", "p", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tIdx := net.TransIndex("t")
	if net.WouldOverflow(net.M0, tIdx) {
		t.Fatal("self-loop must not be flagged as overflow")
	}
	if !net.CanFire(net.M0, tIdx) {
		t.Fatal("self-loop transition should be fireable")
	}
}

func TestWouldOverflowDetectsDoubleMark(t *testing.T) {
	net, err := Build().
		Place("a", 1).
		Place("b", 1).
		Transition("t").
		Arc("a", "t", 1).
		Arc("t", "b", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tIdx := net.TransIndex("t")
	if !net.WouldOverflow(net.M0, tIdx) {
		t.Fatal("expected overflow: b already marked and t would mark it again")
	}
	if net.CanFire(net.M0, tIdx) {
		t.Fatal("overflow-producing transition must not be fireable")
	}
}

func TestIsDeadlock(t *testing.T) {
	net := alternator(t)
	if net.IsDeadlock(net.M0) {
		t.Fatal("alternator initial marking is not a deadlock")
	}
	dead, err := Build().Place("p", 0).Transition("t").Arc("p", "t", 1).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !dead.IsDeadlock(dead.M0) {
		t.Fatal("expected deadlock: no tokens, transition cannot fire")
	}
}
