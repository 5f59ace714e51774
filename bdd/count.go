package bdd

import "math/big"

// Satcount returns the number of satisfying assignments of n over all
// NumVars() variables, as an arbitrary-precision integer; the count
// is exponential in variable count and must not silently overflow a
// machine word.
func (m *Manager) Satcount(n Node) *big.Int {
	if n == False {
		return big.NewInt(0)
	}
	memo := make(map[Node]*big.Int)
	c := m.satcountRec(n, memo)
	// Variables above the root level never appear on any path and are
	// free; effLevel makes the constant True (no variables at all)
	// contribute the full 2^numVars factor.
	return new(big.Int).Lsh(c, uint(m.effLevel(n)))
}

// effLevel returns n's level, or NumVars for either terminal; a
// terminal is treated as sitting one level past the last real
// variable so the gap calculation below folds in every remaining
// variable correctly.
func (m *Manager) effLevel(n Node) int {
	if n == False || n == True {
		return m.numVars
	}
	return m.level(n)
}

func (m *Manager) satcountRec(n Node, memo map[Node]*big.Int) *big.Int {
	if n == False {
		return big.NewInt(0)
	}
	if n == True {
		return big.NewInt(1)
	}
	if c, ok := memo[n]; ok {
		return c
	}
	lvl := m.level(n)

	lowGap := m.effLevel(m.low(n)) - lvl - 1
	low := new(big.Int).Lsh(m.satcountRec(m.low(n), memo), uint(lowGap))

	highGap := m.effLevel(m.high(n)) - lvl - 1
	high := new(big.Int).Lsh(m.satcountRec(m.high(n), memo), uint(highGap))

	total := new(big.Int).Add(low, high)
	memo[n] = total
	return total
}
