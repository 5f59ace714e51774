package bdd

// Operator names a binary Boolean connective usable with Apply/AppEx.
type Operator int

const (
	OpAnd Operator = iota
	OpOr
	OpXor
	OpNand
	OpNor
	OpImp
	OpBiimp
	OpDiff
	OpLess
	OpInvimp
)

// truth table for each operator over {0,1}x{0,1}, used to constant-fold
// before recursing.
var truth = [...][2][2]int{
	OpAnd:    {{0, 0}, {0, 1}},
	OpOr:     {{0, 1}, {1, 1}},
	OpXor:    {{0, 1}, {1, 0}},
	OpNand:   {{1, 1}, {1, 0}},
	OpNor:    {{1, 0}, {0, 0}},
	OpImp:    {{1, 1}, {0, 1}},
	OpBiimp:  {{1, 0}, {0, 1}},
	OpDiff:   {{0, 0}, {1, 0}},
	OpLess:   {{0, 1}, {0, 0}},
	OpInvimp: {{1, 0}, {1, 1}},
}

func constNode(v int) Node {
	if v == 0 {
		return False
	}
	return True
}

func isConst(n Node) (int, bool) {
	switch n {
	case False:
		return 0, true
	case True:
		return 1, true
	default:
		return 0, false
	}
}

type applyKey struct {
	op   Operator
	a, b Node
}

// Apply computes a OP b via top-down recursion with level-ordered
// cofactoring and a single op-keyed computed-table cache.
func (m *Manager) Apply(a, b Node, op Operator) (Node, error) {
	if av, ok := isConst(a); ok {
		if bv, ok2 := isConst(b); ok2 {
			return constNode(truth[op][av][bv]), nil
		}
	}
	k := applyKey{op: op, a: a, b: b}
	if n, ok := m.applyCache[k]; ok {
		return n, nil
	}
	n, err := m.applyRec(a, b, op)
	if err != nil {
		return False, err
	}
	m.applyCache[k] = n
	return n, nil
}

func (m *Manager) applyRec(a, b Node, op Operator) (Node, error) {
	if av, ok := isConst(a); ok {
		if bv, ok2 := isConst(b); ok2 {
			return constNode(truth[op][av][bv]), nil
		}
	}
	la, lb := m.level(a), m.level(b)
	var lvl int
	var aLow, aHigh, bLow, bHigh Node
	switch {
	case la == lb:
		lvl = la
		aLow, aHigh = m.low(a), m.high(a)
		bLow, bHigh = m.low(b), m.high(b)
	case la < lb:
		lvl = la
		aLow, aHigh = m.low(a), m.high(a)
		bLow, bHigh = b, b
	default:
		lvl = lb
		aLow, aHigh = a, a
		bLow, bHigh = m.low(b), m.high(b)
	}
	low, err := m.Apply(aLow, bLow, op)
	if err != nil {
		return False, err
	}
	high, err := m.Apply(aHigh, bHigh, op)
	if err != nil {
		return False, err
	}
	return m.mk(lvl, low, high)
}

// Not returns the negation of n.
func (m *Manager) Not(n Node) (Node, error) {
	if v, ok := isConst(n); ok {
		return constNode(1 - v), nil
	}
	if cached, ok := m.notCache[n]; ok {
		return cached, nil
	}
	low, err := m.Not(m.low(n))
	if err != nil {
		return False, err
	}
	high, err := m.Not(m.high(n))
	if err != nil {
		return False, err
	}
	res, err := m.mk(m.level(n), low, high)
	if err != nil {
		return False, err
	}
	m.notCache[n] = res
	return res, nil
}

type iteKey struct{ f, g, h Node }

// Ite computes if f then g else h.
func (m *Manager) Ite(f, g, h Node) (Node, error) {
	if v, ok := isConst(f); ok {
		if v == 1 {
			return g, nil
		}
		return h, nil
	}
	if g == True && h == False {
		return f, nil
	}
	if g == h {
		return g, nil
	}
	k := iteKey{f, g, h}
	if n, ok := m.iteCache[k]; ok {
		return n, nil
	}
	lvl := m.level(f)
	if l := m.level(g); !isTerminalLevel(l) && l < lvl {
		lvl = l
	}
	if l := m.level(h); !isTerminalLevel(l) && l < lvl {
		lvl = l
	}
	fLow, fHigh := cofactor(m, f, lvl)
	gLow, gHigh := cofactor(m, g, lvl)
	hLow, hHigh := cofactor(m, h, lvl)

	low, err := m.Ite(fLow, gLow, hLow)
	if err != nil {
		return False, err
	}
	high, err := m.Ite(fHigh, gHigh, hHigh)
	if err != nil {
		return False, err
	}
	n, err := m.mk(lvl, low, high)
	if err != nil {
		return False, err
	}
	m.iteCache[k] = n
	return n, nil
}

func isTerminalLevel(l int) bool { return l == terminalLevel }

// cofactor returns (n|level=0, n|level=1) without descending when n's
// own level is below the requested level (n does not depend on it).
func cofactor(m *Manager, n Node, level int) (Node, Node) {
	if m.level(n) != level {
		return n, n
	}
	return m.low(n), m.high(n)
}

// And, Or, Xor, Biimp are convenience wrappers over Apply.
func (m *Manager) And(a, b Node) (Node, error)   { return m.Apply(a, b, OpAnd) }
func (m *Manager) Or(a, b Node) (Node, error)    { return m.Apply(a, b, OpOr) }
func (m *Manager) Xor(a, b Node) (Node, error)   { return m.Apply(a, b, OpXor) }
func (m *Manager) Biimp(a, b Node) (Node, error) { return m.Apply(a, b, OpBiimp) }

// AndMany conjoins a slice of nodes left to right, returning True for
// an empty slice.
func (m *Manager) AndMany(ns ...Node) (Node, error) {
	acc := True
	for _, n := range ns {
		next, err := m.And(acc, n)
		if err != nil {
			return False, err
		}
		acc = next
	}
	return acc, nil
}

// OrMany disjoins a slice of nodes left to right, returning False for
// an empty slice.
func (m *Manager) OrMany(ns ...Node) (Node, error) {
	acc := False
	for _, n := range ns {
		next, err := m.Or(acc, n)
		if err != nil {
			return False, err
		}
		acc = next
	}
	return acc, nil
}
