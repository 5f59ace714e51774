// Package bdd implements a reduced ordered binary decision diagram
// manager: a single growable node table with a canonicalizing unique
// table, the standard apply/ite/exist/appex/replace operation family,
// and arbitrary-precision model counting. A Manager is never shared
// across goroutines; each caller owns its own.
package bdd

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/dustin/go-humanize"
)

// False and True are the two terminal node indices, fixed for the
// lifetime of any Manager.
const (
	False Node = 0
	True  Node = 1
)

// Node is an opaque handle into a Manager's node table. Nodes are only
// meaningful relative to the Manager that produced them.
type Node int

const terminalLevel = 1<<31 - 1

type entry struct {
	level     int
	low, high Node
}

type key struct {
	level int
	low   Node
	high  Node
}

// ErrResourceExhausted is returned once the node table would need to
// grow past Manager.MaxNodes. It is a distinct, non-fatal-to-the-process
// outcome the caller is expected to check for explicitly.
type ErrResourceExhausted struct {
	MaxNodes int
}

func (e *ErrResourceExhausted) Error() string {
	return fmt.Sprintf("bdd: node table exhausted at limit %d", e.MaxNodes)
}

// Manager owns the node table, unique table, and operation caches for
// one BDD universe. Variable levels are a dense range [0, NumVars).
type Manager struct {
	nodes  []entry
	unique map[key]Node

	applyCache    map[applyKey]Node
	iteCache      map[iteKey]Node
	notCache      map[Node]Node
	existCache    map[existKey]Node
	appexCache    map[appexKey]Node
	restrictCache map[restrictKey]Node

	numVars     int
	names       []string // optional, for Stats()/debugging
	quantSetSeq int

	// MaxNodes bounds the node table; 0 means unbounded. Checked on
	// every new-node allocation.
	MaxNodes int
}

// NewManager creates a Manager with numVars variables at levels
// 0..numVars-1, in that order (level 0 is evaluated first).
func NewManager(numVars int) *Manager {
	m := &Manager{
		nodes:         make([]entry, 2, 1024),
		unique:        make(map[key]Node),
		applyCache:    make(map[applyKey]Node),
		iteCache:      make(map[iteKey]Node),
		notCache:      make(map[Node]Node),
		existCache:    make(map[existKey]Node),
		appexCache:    make(map[appexKey]Node),
		restrictCache: make(map[restrictKey]Node),
		numVars:       numVars,
	}
	m.nodes[False] = entry{level: terminalLevel, low: False, high: False}
	m.nodes[True] = entry{level: terminalLevel, low: True, high: True}
	return m
}

// DeclareInterleaved returns the current/next variable levels for n
// items, interleaved as (0,1), (2,3), (4,5), ...; level 2*i is
// item i's current-state variable and 2*i+1 is its next-state
// variable. The Manager must already have been constructed with
// NewManager(2*n); this call only computes the level assignment, it
// does not grow the node table. Interleaving keeps the two variables
// an image operation multiplies together adjacent in the order,
// which keeps shared BDD structure local.
func (m *Manager) DeclareInterleaved(n int) (cur, next []int) {
	cur = make([]int, n)
	next = make([]int, n)
	for i := 0; i < n; i++ {
		cur[i] = 2 * i
		next[i] = 2*i + 1
	}
	return cur, next
}

// SetVarName attaches a human-readable name to a variable level, used
// only by Stats() and error messages.
func (m *Manager) SetVarName(level int, name string) {
	for len(m.names) <= level {
		m.names = append(m.names, "")
	}
	m.names[level] = name
}

func (m *Manager) level(n Node) int { return m.nodes[n].level }
func (m *Manager) low(n Node) Node  { return m.nodes[n].low }
func (m *Manager) high(n Node) Node { return m.nodes[n].high }

// mk returns the canonical node for (level, low, high), applying the
// standard reduction rule (low == high collapses to low) and
// consulting the unique table before allocating.
func (m *Manager) mk(level int, low, high Node) (Node, error) {
	if low == high {
		return low, nil
	}
	k := key{level: level, low: low, high: high}
	if n, ok := m.unique[k]; ok {
		return n, nil
	}
	if m.MaxNodes > 0 && len(m.nodes) >= m.MaxNodes {
		return False, &ErrResourceExhausted{MaxNodes: m.MaxNodes}
	}
	n := Node(len(m.nodes))
	m.nodes = append(m.nodes, entry{level: level, low: low, high: high})
	m.unique[k] = n
	return n, nil
}

// Ithvar returns the node representing the positive literal of the
// variable at the given level.
func (m *Manager) Ithvar(level int) (Node, error) {
	return m.mk(level, False, True)
}

// NIthvar returns the node representing the negative literal of the
// variable at the given level.
func (m *Manager) NIthvar(level int) (Node, error) {
	return m.mk(level, True, False)
}

// NumVars returns the number of declared variable levels.
func (m *Manager) NumVars() int { return m.numVars }

// Size returns the number of nodes allocated in the table, including
// the two terminals. Nodes are never reclaimed, so this also counts
// nodes no longer reachable from any root (see LiveNodeCount).
func (m *Manager) Size() int { return len(m.nodes) }

// Stats returns a human-readable summary of manager memory use.
func (m *Manager) Stats() string {
	const entrySize = 24 // level + low + high, approx
	return fmt.Sprintf(
		"bdd manager: %s nodes (%s), %s unique-table entries, %d vars",
		humanize.Comma(int64(len(m.nodes))),
		humanize.Bytes(uint64(len(m.nodes)*entrySize)),
		humanize.Comma(int64(len(m.unique))),
		m.numVars,
	)
}

// liveSet returns a bitset marking every node reachable from roots,
// used by LiveNodeCount for diagnostics rather than by any reclaiming GC (this
// manager never reclaims nodes; it grows monotonically for the
// lifetime of one analysis run).
func (m *Manager) liveSet(roots ...Node) *bitset.BitSet {
	bs := bitset.New(uint(len(m.nodes)))
	var mark func(Node)
	mark = func(n Node) {
		if n == False || n == True || bs.Test(uint(n)) {
			return
		}
		bs.Set(uint(n))
		mark(m.low(n))
		mark(m.high(n))
	}
	for _, r := range roots {
		mark(r)
	}
	return bs
}

// LiveNodeCount reports how many nodes are reachable from the given
// roots.
func (m *Manager) LiveNodeCount(roots ...Node) int {
	bs := m.liveSet(roots...)
	return int(bs.Count())
}
