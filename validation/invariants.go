package validation

import "github.com/onesafe/petrinet/petri"

// Invariant is a linear combination of places whose weighted token
// sum is conserved by every transition firing.
type Invariant struct {
	Places       []string
	Coefficients map[int]int // by place index
	Value        int
}

// Check reports whether m satisfies the invariant.
func (inv *Invariant) Check(m petri.Marking) bool {
	sum := 0
	for p, c := range inv.Coefficients {
		sum += c * int(m[p])
	}
	return sum == inv.Value
}

// InvariantAnalyzer computes place invariants directly from a net's
// I/O matrices; no arc-list reconstruction is needed since Net
// already stores the incidence information row-major by transition.
type InvariantAnalyzer struct {
	net *petri.Net
}

// NewInvariantAnalyzer creates an invariant analyzer for net.
func NewInvariantAnalyzer(net *petri.Net) *InvariantAnalyzer {
	return &InvariantAnalyzer{net: net}
}

// IncidenceMatrix returns C[p][t] = O[t][p] - I[t][p], the standard
// Petri net incidence matrix, rows by place index and columns by
// transition index.
func (a *InvariantAnalyzer) IncidenceMatrix() [][]int {
	numP, numT := a.net.NumPlaces(), a.net.NumTrans()
	c := make([][]int, numP)
	for p := range c {
		c[p] = make([]int, numT)
		for t := 0; t < numT; t++ {
			c[p][t] = int(a.net.O[t][p]) - int(a.net.I[t][p])
		}
	}
	return c
}

// CheckConservation reports whether the all-ones vector is a place
// invariant: every transition's column in the incidence matrix sums
// to zero, i.e. each firing consumes exactly as many places as it
// produces. This is the simplest P-invariant a 1-safe net can have.
func (a *InvariantAnalyzer) CheckConservation() bool {
	c := a.IncidenceMatrix()
	numT := a.net.NumTrans()
	for t := 0; t < numT; t++ {
		sum := 0
		for p := range c {
			sum += c[p][t]
		}
		if sum != 0 {
			return false
		}
	}
	return true
}

// FindPInvariants returns the all-places invariant when CheckConservation
// holds, plus any pair-of-places invariant: two places whose combined
// token count every transition leaves unchanged (one consumes exactly
// what the other produces, and vice versa). A full integer null-space
// solve is deliberately out of scope.
func (a *InvariantAnalyzer) FindPInvariants() []Invariant {
	c := a.IncidenceMatrix()
	numP, numT := a.net.NumPlaces(), a.net.NumTrans()
	var invariants []Invariant

	if a.CheckConservation() {
		coeffs := make(map[int]int, numP)
		total := 0
		for p := 0; p < numP; p++ {
			coeffs[p] = 1
			total += int(a.net.M0[p])
		}
		invariants = append(invariants, Invariant{
			Places:       append([]string(nil), a.net.PlaceIDs...),
			Coefficients: coeffs,
			Value:        total,
		})
	}

	for i := 0; i < numP; i++ {
		for j := i + 1; j < numP; j++ {
			if !pairInvariant(c, numT, i, j) {
				continue
			}
			invariants = append(invariants, Invariant{
				Places:       []string{a.net.PlaceIDs[i], a.net.PlaceIDs[j]},
				Coefficients: map[int]int{i: 1, j: 1},
				Value:        int(a.net.M0[i]) + int(a.net.M0[j]),
			})
		}
	}
	return invariants
}

func pairInvariant(c [][]int, numT, p1, p2 int) bool {
	anyEffect := false
	for t := 0; t < numT; t++ {
		if c[p1][t]+c[p2][t] != 0 {
			return false
		}
		if c[p1][t] != 0 || c[p2][t] != 0 {
			anyEffect = true
		}
	}
	return anyEffect
}
