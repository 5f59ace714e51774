package validation

import "fmt"

// checkStructure validates basic structural properties directly off
// the net's I/O matrices.
func (v *Validator) checkStructure() {
	if v.net.NumPlaces() == 0 {
		v.AddError("structure", "net has no places", nil, "add at least one place")
		return
	}
	if v.net.NumTrans() == 0 {
		v.AddWarning("structure", "net has no transitions", nil, "add transitions to enable dynamics")
	}
	if v.result.Summary.Arcs == 0 {
		v.AddWarning("structure", "net has no arcs", nil, "add arcs to connect places and transitions")
	}
}

// checkConnectivity flags places and transitions with no arcs at all,
// and transitions missing an input or output side.
func (v *Validator) checkConnectivity() {
	placeConnected := make([]bool, v.net.NumPlaces())
	for t := 0; t < v.net.NumTrans(); t++ {
		hasInput, hasOutput := false, false
		for p := 0; p < v.net.NumPlaces(); p++ {
			if v.net.I[t][p] != 0 {
				placeConnected[p] = true
				hasInput = true
			}
			if v.net.O[t][p] != 0 {
				placeConnected[p] = true
				hasOutput = true
			}
		}
		id := v.net.TransIDs[t]
		if !hasInput {
			v.AddWarning("connectivity", fmt.Sprintf("transition %q has no input places", id),
				[]string{id}, "add input arcs from places")
		}
		if !hasOutput {
			v.AddWarning("connectivity", fmt.Sprintf("transition %q has no output places", id),
				[]string{id}, "add output arcs to places")
		}
	}
	for p, connected := range placeConnected {
		if !connected {
			id := v.net.PlaceIDs[p]
			v.AddWarning("connectivity", fmt.Sprintf("place %q is not connected to any transition", id),
				[]string{id}, "add arcs to connect this place")
		}
	}
}

// checkDeadlockHeuristic flags transitions that cannot fire at the
// initial marking, a cheap structural pre-check distinct from the
// real deadlock search AnalyzeReachability runs over the full
// reachable set.
func (v *Validator) checkDeadlockHeuristic() {
	for t := 0; t < v.net.NumTrans(); t++ {
		if v.net.Enabled(v.net.M0, t) {
			continue
		}
		var blocked []string
		for p := 0; p < v.net.NumPlaces(); p++ {
			if v.net.I[t][p] != 0 && v.net.M0[p] == 0 {
				blocked = append(blocked, v.net.PlaceIDs[p])
			}
		}
		id := v.net.TransIDs[t]
		location := append([]string{id}, blocked...)
		v.AddWarning("deadlock",
			fmt.Sprintf("transition %q cannot fire at the initial marking (unmarked input places: %v)", id, blocked),
			location, "adjust the initial marking or the net's structure")
	}
}

// checkConservation runs the P-invariant analysis and records whether
// the net has a covering invariant (is structurally conservative).
func (v *Validator) checkConservation() {
	analyzer := NewInvariantAnalyzer(v.net)
	conserved := analyzer.CheckConservation()
	v.result.Summary.Conserved = conserved

	if conserved {
		v.AddInfo("conservation", "net conserves tokens: every transition's input count equals its output count", nil)
		return
	}
	v.AddInfo("conservation", "net does not conserve tokens (some transitions have unbalanced input/output fan)", nil)
}
