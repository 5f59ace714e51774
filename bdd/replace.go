package bdd

import "sort"

// Replacer maps variable levels to other variable levels, used to
// rename next-state variables back onto current-state variables after
// an image computation. The target levels must not otherwise occur in
// the node being replaced (true for the current/next variable split
// symbolic reachability uses: Replace is only ever applied to a
// formula already quantified free of current-state variables).
type Replacer struct {
	pairs []levelPair
}

type levelPair struct{ from, to int }

// NewReplacer builds a Replacer from an explicit level-to-level map.
func (m *Manager) NewReplacer(mapping map[int]int) *Replacer {
	r := &Replacer{}
	for from, to := range mapping {
		r.pairs = append(r.pairs, levelPair{from: from, to: to})
	}
	sort.Slice(r.pairs, func(i, j int) bool { return r.pairs[i].from < r.pairs[j].from })
	return r
}

// Replace substitutes every variable level named in r's domain with
// its mapped level, via repeated composition with the target
// variable's projection.
func (m *Manager) Replace(n Node, r *Replacer) (Node, error) {
	res := n
	for _, p := range r.pairs {
		g, err := m.Ithvar(p.to)
		if err != nil {
			return False, err
		}
		res, err = m.Compose(res, p.from, g)
		if err != nil {
			return False, err
		}
	}
	return res, nil
}

// Compose substitutes the variable at the given level with an
// arbitrary formula g, by Shannon expansion:
// ite(g, n|level=1, n|level=0).
func (m *Manager) Compose(n Node, level int, g Node) (Node, error) {
	n1, err := m.restrict(n, level, 1)
	if err != nil {
		return False, err
	}
	n0, err := m.restrict(n, level, 0)
	if err != nil {
		return False, err
	}
	return m.Ite(g, n1, n0)
}

type restrictKey struct {
	n     Node
	level int
	value int
}

// restrict cofactors n at the given variable level to the given 0/1
// value. Because levels strictly increase along any root-to-leaf path
// in a reduced ordered diagram, the target level occurs at most once
// per path, so a single top-down pass suffices.
func (m *Manager) restrict(n Node, level, value int) (Node, error) {
	if _, ok := isConst(n); ok {
		return n, nil
	}
	nl := m.level(n)
	if nl > level {
		return n, nil
	}
	k := restrictKey{n: n, level: level, value: value}
	if cached, ok := m.restrictCache[k]; ok {
		return cached, nil
	}
	var res Node
	var err error
	if nl == level {
		if value == 0 {
			res = m.low(n)
		} else {
			res = m.high(n)
		}
	} else {
		low, err2 := m.restrict(m.low(n), level, value)
		if err2 != nil {
			return False, err2
		}
		high, err2 := m.restrict(m.high(n), level, value)
		if err2 != nil {
			return False, err2
		}
		res, err = m.mk(nl, low, high)
		if err != nil {
			return False, err
		}
	}
	m.restrictCache[k] = res
	return res, nil
}

// Restrict is the exported form of restrict (cofactoring), used
// directly by the optimizer to fix place variables to 0/1.
func (m *Manager) Restrict(n Node, level, value int) (Node, error) {
	return m.restrict(n, level, value)
}
