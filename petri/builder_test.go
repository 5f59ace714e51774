package petri

import "testing"

func TestBuilderFlowConvenience(t *testing.T) {
	net, err := Build().
		Place("in", 1).
		Place("out", 0).
		Transition("move").
		Flow("in", "move", "out", 1).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	moveIdx := net.TransIndex("move")
	if !net.CanFire(net.M0, moveIdx) {
		t.Fatal("expected move enabled")
	}
	got := net.Fire(net.M0, moveIdx)
	want := Marking{0, 1}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuilderRejectsEmptyNet(t *testing.T) {
	_, err := Build().Build()
	if err == nil {
		t.Fatal("expected error building net with no places")
	}
}

func TestBuilderRejectsNonPositiveWeight(t *testing.T) {
	_, err := Build().Place("p", 0).Transition("t").Arc("p", "t", 0).Build()
	if err == nil {
		t.Fatal("expected error for non-positive arc weight")
	}
}

func TestBuilderWeightedArcsStillBinaryMultiplicity(t *testing.T) {
	// Arc weight is tracked as presence/absence in I/O; multiplicity
	// beyond 1 has no additional effect in a 1-safe net.
	net, err := Build().
		Place("p", 1).
		Transition("t").
		Arc("p", "t", 3).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if net.I[net.TransIndex("t")][net.PlaceIndex("p")] != 1 {
		t.Fatal("expected normalized multiplicity of 1")
	}
}
