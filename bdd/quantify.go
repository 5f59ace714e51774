package bdd

import "github.com/bits-and-blooms/bitset"

// QuantSet names a set of variable levels to existentially quantify.
// Each QuantSet carries a small integer id so Exist/AppEx computed-table
// caches can be keyed per quantification set.
type QuantSet struct {
	id       int
	levels   *bitset.BitSet
	maxLevel int
}

// NewQuantSet builds a QuantSet over the given variable levels.
func (m *Manager) NewQuantSet(levels []int) *QuantSet {
	m.quantSetSeq++
	bs := bitset.New(uint(m.numVars))
	max := -1
	for _, l := range levels {
		bs.Set(uint(l))
		if l > max {
			max = l
		}
	}
	return &QuantSet{id: m.quantSetSeq, levels: bs, maxLevel: max}
}

func (q *QuantSet) has(level int) bool {
	if level < 0 || level >= int(q.levels.Len()) {
		return false
	}
	return q.levels.Test(uint(level))
}

type existKey struct {
	n  Node
	qs int
}

// Exist computes the existential quantification of n over qs:
// ∃v∈qs. n, by recursing down and OR-combining the low/high cofactors
// at every quantified level.
func (m *Manager) Exist(n Node, qs *QuantSet) (Node, error) {
	if _, ok := isConst(n); ok {
		return n, nil
	}
	lvl := m.level(n)
	if lvl > qs.maxLevel {
		return n, nil
	}
	k := existKey{n: n, qs: qs.id}
	if cached, ok := m.existCache[k]; ok {
		return cached, nil
	}
	low, err := m.Exist(m.low(n), qs)
	if err != nil {
		return False, err
	}
	high, err := m.Exist(m.high(n), qs)
	if err != nil {
		return False, err
	}
	var res Node
	if qs.has(lvl) {
		res, err = m.Or(low, high)
	} else {
		res, err = m.mk(lvl, low, high)
	}
	if err != nil {
		return False, err
	}
	m.existCache[k] = res
	return res, nil
}

type appexKey struct {
	op   Operator
	a, b Node
	qs   int
}

// AppEx computes ∃v∈qs. (a OP b) in a single fused bottom-up pass,
// never materializing the full (a OP b) BDD before quantifying,
// the operation symbolic reachability's image computation relies on.
func (m *Manager) AppEx(a, b Node, op Operator, qs *QuantSet) (Node, error) {
	if av, ok := isConst(a); ok {
		if bv, ok2 := isConst(b); ok2 {
			return constNode(truth[op][av][bv]), nil
		}
	}
	la, lb := m.level(a), m.level(b)
	lvl := la
	if lb < lvl {
		lvl = lb
	}
	if lvl > qs.maxLevel {
		return m.Apply(a, b, op)
	}
	k := appexKey{op: op, a: a, b: b, qs: qs.id}
	if cached, ok := m.appexCache[k]; ok {
		return cached, nil
	}
	aLow, aHigh := cofactor(m, a, lvl)
	bLow, bHigh := cofactor(m, b, lvl)

	low, err := m.AppEx(aLow, bLow, op, qs)
	if err != nil {
		return False, err
	}
	high, err := m.AppEx(aHigh, bHigh, op, qs)
	if err != nil {
		return False, err
	}
	var res Node
	if qs.has(lvl) {
		res, err = m.Or(low, high)
	} else {
		res, err = m.mk(lvl, low, high)
	}
	if err != nil {
		return False, err
	}
	m.appexCache[k] = res
	return res, nil
}
