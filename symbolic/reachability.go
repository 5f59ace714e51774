package symbolic

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/onesafe/petrinet/bdd"
	"github.com/onesafe/petrinet/petri"
)

// Config carries the tunables and cooperative-cancel token for one
// Reachable run; nothing is read from global state.
type Config struct {
	// IterationCap bounds the number of fixed-point iterations; 0
	// means unbounded. Guards against the (theoretically impossible
	// for a finite lattice, but practically useful as a belt-and-
	// braces cap) case of a misconstructed relation that never
	// converges.
	IterationCap int
	// Cancel, if non-nil, is checked before each outer iteration.
	Cancel <-chan struct{}
}

// Outcome tags how a Reachable run completed, distinguishing a
// genuine empty/false result from resource exhaustion or
// cancellation.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeCancelled
	OutcomeResourceExhausted
)

// Result is the symbolic reachable-set BDD plus bookkeeping.
type Result struct {
	Outcome    Outcome
	R          bdd.Node
	Iterations int
	RunID      uuid.UUID
	Err        error
}

// Count returns the number of satisfying assignments of R over the
// place-variable levels only: the symbolic reachable-marking count,
// which must agree with the explicit explorer's count.
func (res *Result) Count(mgr *bdd.Manager, vs *VarSet) *big.Int {
	// Satcount counts over all NumVars() variables; project down by
	// dividing out the 2^(numNextVars) factor contributed by the
	// next-state variables, which never appear free in R.
	full := mgr.Satcount(res.R)
	shift := uint(len(vs.Next))
	return new(big.Int).Rsh(full, shift)
}

// Reachable runs the frontier-based fixed point:
// R = F = BDD(M0); repeatedly accumulate the image over the
// partitioned relation using the frontier (not the full reachable
// set) as the left operand, early-terminating a transition's
// contribution when F ∧ Rt is empty, then New = Img ∧ ¬R; terminate
// when New is false.
func Reachable(mgr *bdd.Manager, net *petri.Net, vs *VarSet, rels []Relation, cfg Config) Result {
	runID := uuid.New()

	init, err := InitialCube(mgr, net, vs)
	if err != nil {
		return resourceExhausted(runID, err)
	}

	curLevels := append([]int(nil), vs.Cur...)
	quantSet := mgr.NewQuantSet(curLevels)
	renamer := renameNextToCur(mgr, vs)

	R := init
	F := init
	iterations := 0

	for {
		if cfg.Cancel != nil {
			select {
			case <-cfg.Cancel:
				return Result{Outcome: OutcomeCancelled, R: R, Iterations: iterations, RunID: runID}
			default:
			}
		}
		if cfg.IterationCap > 0 && iterations >= cfg.IterationCap {
			break
		}

		img := bdd.False
		for _, rel := range rels {
			post, err := mgr.AppEx(F, rel.Node, bdd.OpAnd, quantSet)
			if err != nil {
				return resourceExhausted(runID, err)
			}
			if post == bdd.False {
				continue // early termination: F ∧ Rt was empty
			}
			renamed, err := mgr.Replace(post, renamer)
			if err != nil {
				return resourceExhausted(runID, err)
			}
			img, err = mgr.Or(img, renamed)
			if err != nil {
				return resourceExhausted(runID, err)
			}
		}

		notR, err := mgr.Not(R)
		if err != nil {
			return resourceExhausted(runID, err)
		}
		newStates, err := mgr.And(img, notR)
		if err != nil {
			return resourceExhausted(runID, err)
		}

		iterations++
		if newStates == bdd.False {
			break
		}

		R, err = mgr.Or(R, newStates)
		if err != nil {
			return resourceExhausted(runID, err)
		}
		F = newStates

		log.Debug().
			Str("run_id", runID.String()).
			Int("iteration", iterations).
			Int("node_table_size", mgr.Size()).
			Msg("symbolic reachability: fixed-point iteration")
	}

	return Result{Outcome: OutcomeOK, R: R, Iterations: iterations, RunID: runID}
}

func resourceExhausted(runID uuid.UUID, err error) Result {
	log.Error().Str("run_id", runID.String()).Err(err).Msg("symbolic reachability: resource exhausted")
	return Result{Outcome: OutcomeResourceExhausted, Err: err, RunID: runID}
}

// renameNextToCur builds the Replacer that maps every next-state
// level back onto its current-state counterpart, used after
// quantifying current variables out of F ∧ Rt.
func renameNextToCur(mgr *bdd.Manager, vs *VarSet) *bdd.Replacer {
	mapping := make(map[int]int, len(vs.Next))
	for i, next := range vs.Next {
		mapping[next] = vs.Cur[i]
	}
	return mgr.NewReplacer(mapping)
}
