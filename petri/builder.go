package petri

import "fmt"

// Builder provides a fluent API for constructing 1-safe Petri nets.
// Arc weights must be positive and are recorded as presence only
// (multiplicity 1); initial markings are 0/1 only.
//
// Example:
//
//	net, err := petri.Build().
//	    Place("idle", 1).
//	    Place("busy", 0).
//	    Transition("start").
//	    Transition("finish").
//	    Arc("idle", "start", 1).
//	    Arc("start", "busy", 1).
//	    Arc("busy", "finish", 1).
//	    Arc("finish", "idle", 1).
//	    Build()
type Builder struct {
	placeOrder []string
	transOrder []string
	initial    map[string]uint8
	arcs       []draftArc
	err        error
}

type draftArc struct {
	source, target string
	weight         uint8
	placeToTrans   bool // true: place->transition (input arc), false: transition->place
}

// Build starts a new Builder.
func Build() *Builder {
	return &Builder{
		initial: make(map[string]uint8),
	}
}

// Place declares a place with the given 0/1 initial marking.
func (b *Builder) Place(id string, initial int) *Builder {
	if _, exists := b.initial[id]; exists {
		b.fail("duplicate place id %q", id)
		return b
	}
	if initial < 0 || initial > 1 {
		b.fail("place %q: initial marking %d out of 0/1 range", id, initial)
		return b
	}
	b.placeOrder = append(b.placeOrder, id)
	b.initial[id] = uint8(initial)
	return b
}

// Transition declares a transition.
func (b *Builder) Transition(id string) *Builder {
	for _, existing := range b.transOrder {
		if existing == id {
			b.fail("duplicate transition id %q", id)
			return b
		}
	}
	b.transOrder = append(b.transOrder, id)
	return b
}

// Arc adds a directed arc between a previously declared place and
// transition (in either direction) with the given weight.
func (b *Builder) Arc(source, target string, weight int) *Builder {
	if weight <= 0 {
		b.fail("arc %s->%s: non-positive weight %d", source, target, weight)
		return b
	}
	placeToTrans, ok := b.direction(source, target)
	if !ok {
		b.fail("arc %s->%s: endpoints must be one place and one transition", source, target)
		return b
	}
	b.arcs = append(b.arcs, draftArc{source: source, target: target, weight: uint8(weight), placeToTrans: placeToTrans})
	return b
}

// Flow adds a place->transition->place pair of arcs, a convenience for
// the common "consume here, produce there" shape.
func (b *Builder) Flow(fromPlace, transition, toPlace string, weight int) *Builder {
	return b.Arc(fromPlace, transition, weight).Arc(transition, toPlace, weight)
}

func (b *Builder) direction(source, target string) (placeToTrans bool, ok bool) {
	sourceIsPlace := b.hasPlace(source)
	targetIsPlace := b.hasPlace(target)
	sourceIsTrans := b.hasTrans(source)
	targetIsTrans := b.hasTrans(target)
	switch {
	case sourceIsPlace && targetIsTrans:
		return true, true
	case sourceIsTrans && targetIsPlace:
		return false, true
	default:
		return false, false
	}
}

func (b *Builder) hasPlace(id string) bool {
	_, ok := b.initial[id]
	return ok
}

func (b *Builder) hasTrans(id string) bool {
	for _, t := range b.transOrder {
		if t == id {
			return true
		}
	}
	return false
}

func (b *Builder) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = &ErrMalformed{Reason: fmt.Sprintf(format, args...)}
	}
}

// Build validates and returns the completed Net.
func (b *Builder) Build() (*Net, error) {
	if b.err != nil {
		return nil, b.err
	}

	n := &Net{
		PlaceIDs:   append([]string(nil), b.placeOrder...),
		TransIDs:   append([]string(nil), b.transOrder...),
		placeIndex: make(map[string]int, len(b.placeOrder)),
		transIndex: make(map[string]int, len(b.transOrder)),
	}
	for i, id := range n.PlaceIDs {
		n.placeIndex[id] = i
	}
	for i, id := range n.TransIDs {
		n.transIndex[id] = i
	}

	n.M0 = make(Marking, len(n.PlaceIDs))
	for i, id := range n.PlaceIDs {
		n.M0[i] = b.initial[id]
	}

	n.I = make([][]uint8, len(n.TransIDs))
	n.O = make([][]uint8, len(n.TransIDs))
	for t := range n.TransIDs {
		n.I[t] = make([]uint8, len(n.PlaceIDs))
		n.O[t] = make([]uint8, len(n.PlaceIDs))
	}

	for _, a := range b.arcs {
		if a.placeToTrans {
			p := n.placeIndex[a.source]
			t := n.transIndex[a.target]
			n.I[t][p] = 1
		} else {
			t := n.transIndex[a.source]
			p := n.placeIndex[a.target]
			n.O[t][p] = 1
		}
	}

	if len(n.PlaceIDs) == 0 {
		return nil, &ErrMalformed{Reason: "net has no places"}
	}

	return n, nil
}
