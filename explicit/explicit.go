// Package explicit implements a bitmask-encoded breadth/depth-first
// explorer over the reachable markings of a 1-safe net. It serves as
// an oracle for tests and as a fallback for nets too small to bother
// building a symbolic relation for.
//
// Each transition's input/output bitmask is precomputed once, then a
// worklist keyed by the packed marking is stepped to exhaustion.
// States are packed into a uint256.Int rather than a native machine
// word so nets up to 256 places pack into a single fixed-width value
// instead of silently truncating.
package explicit

import (
	"github.com/holiman/uint256"

	"github.com/onesafe/petrinet/petri"
)

// State is a packed 0/1 marking: bit p set iff place p holds a token.
type State = uint256.Int

// bit returns a State with only bit i set.
func bit(i uint) State {
	var s State
	s.Lsh(uint256.NewInt(1), i)
	return s
}

func setBit(s *State, i uint) {
	b := bit(i)
	s.Or(s, &b)
}

func testBit(s *State, i uint) bool {
	b := bit(i)
	var masked State
	masked.And(s, &b)
	return !masked.IsZero()
}

// Transition holds the precomputed input/output bitmasks for one
// transition, computed once from petri.Net.I/O.
type Transition struct {
	ID  string
	In  State
	Out State
}

// Precomputed bundles a net's transitions into bitmask form, shared
// read-only by every Step call against that net.
type Precomputed struct {
	Net   *petri.Net
	Trans []Transition
}

// Precompute builds the per-transition input/output bitmasks for net.
func Precompute(net *petri.Net) *Precomputed {
	trans := make([]Transition, net.NumTrans())
	for t, id := range net.TransIDs {
		var in, out State
		for p := 0; p < net.NumPlaces(); p++ {
			if net.I[t][p] != 0 {
				setBit(&in, uint(p))
			}
			if net.O[t][p] != 0 {
				setBit(&out, uint(p))
			}
		}
		trans[t] = Transition{ID: id, In: in, Out: out}
	}
	return &Precomputed{Net: net, Trans: trans}
}

// Initial returns net.M0 packed as a State.
func (pc *Precomputed) Initial() State {
	return PackMarking(pc.Net.M0)
}

// PackMarking encodes a dense 0/1 vector into a bitmask.
func PackMarking(m petri.Marking) State {
	var s State
	for p, v := range m {
		if v != 0 {
			setBit(&s, uint(p))
		}
	}
	return s
}

// UnpackMarking decodes a bitmask back into a dense 0/1 vector of the
// given length, the round trip required by the encode/decode law.
func UnpackMarking(s State, numPlaces int) petri.Marking {
	m := make(petri.Marking, numPlaces)
	for p := 0; p < numPlaces; p++ {
		if testBit(&s, uint(p)) {
			m[p] = 1
		}
	}
	return m
}

// Fireable reports whether transition t (by index) can fire at m:
// every input place is marked, i.e. (m & In) == In, and firing would
// not double-mark a place that is produced without being consumed.
func (pc *Precomputed) Fireable(m State, t int) bool {
	tr := &pc.Trans[t]
	var masked State
	masked.And(&m, &tr.In)
	if !masked.Eq(&tr.In) {
		return false
	}
	// Overflow iff some place is produced, not consumed, and already
	// marked: (m &^ In) & Out != 0.
	var notIn, overflow State
	notIn.Not(&tr.In)
	overflow.And(&m, &notIn)
	overflow.And(&overflow, &tr.Out)
	return overflow.IsZero()
}

// Step returns the marking that results from firing transition t at
// m. The caller must have already confirmed Fireable(m, t).
func (pc *Precomputed) Step(m State, t int) State {
	tr := &pc.Trans[t]
	var next State
	next.Xor(&m, &tr.In)
	next.Or(&next, &tr.Out)
	return next
}

// Config bounds and cancels a run of the explorer.
type Config struct {
	// MaxStates bounds the number of distinct markings explored; 0
	// means unbounded. Set to guard against pathological/unbounded
	// inputs the same way symbolic.Config and deadlock.Config do.
	MaxStates int
	// Cancel, if non-nil, is checked between outer iterations. When
	// closed the run returns Cancelled=true with the partial result
	// gathered so far.
	Cancel <-chan struct{}
}

// Result is the outcome of a full exploration.
type Result struct {
	Reachable map[State]struct{}
	// Order records discovery order, used only to make traversal
	// order observable/testable; not required by the algorithm.
	Order     []State
	Truncated bool
	Cancelled bool
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

// BFS explores all markings reachable from net's initial marking in
// breadth-first order.
func BFS(pc *Precomputed, cfg Config) Result {
	return explore(pc, cfg, true)
}

// DFS explores all markings reachable from net's initial marking in
// depth-first order. BFS and DFS share one stepping procedure and
// differ only in how the worklist is drained (front vs back).
func DFS(pc *Precomputed, cfg Config) Result {
	return explore(pc, cfg, false)
}

func explore(pc *Precomputed, cfg Config, breadthFirst bool) Result {
	start := pc.Initial()
	reachable := map[State]struct{}{start: {}}
	order := []State{start}
	worklist := []State{start}

	for len(worklist) > 0 {
		if cancelled(cfg.Cancel) {
			return Result{Reachable: reachable, Order: order, Cancelled: true}
		}

		var m State
		if breadthFirst {
			m = worklist[0]
			worklist = worklist[1:]
		} else {
			m = worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
		}

		for t := range pc.Trans {
			if !pc.Fireable(m, t) {
				continue
			}
			next := pc.Step(m, t)
			if _, seen := reachable[next]; seen {
				continue
			}
			if cfg.MaxStates > 0 && len(reachable) >= cfg.MaxStates {
				return Result{Reachable: reachable, Order: order, Truncated: true}
			}
			reachable[next] = struct{}{}
			order = append(order, next)
			worklist = append(worklist, next)
		}
	}
	return Result{Reachable: reachable, Order: order}
}
