// Package deadlock enumerates the deadlock markings within a
// symbolic reachable set: markings at which no transition is
// fireable. It enumerates R's satisfying cubes over the
// place-variable care set, expands each cube's don't-care
// completions, and evaluates the deadlock predicate directly against
// the net for each completion: symbolic enumerate, explicit filter.
package deadlock

import (
	"golang.org/x/sync/errgroup"

	"github.com/onesafe/petrinet/bdd"
	"github.com/onesafe/petrinet/petri"
	"github.com/onesafe/petrinet/symbolic"
)

// Config bounds and cancels one Find run.
type Config struct {
	// EnumerationCap bounds the number of marking completions
	// visited; 0 means unbounded. Hitting the cap can cause false
	// negatives, which is why Result.Truncated is always populated.
	EnumerationCap int
	// Workers bounds how many completions are evaluated concurrently;
	// 0 defaults to 1 (sequential). Workers only read the shared
	// *petri.Net, which is never mutated after Build().
	Workers int
	Cancel  <-chan struct{}
}

// Result is the outcome of one Find run.
type Result struct {
	Deadlocks []petri.Marking
	Truncated bool
	Cancelled bool
}

// Find enumerates every deadlock marking in the reachable-set BDD R.
func Find(mgr *bdd.Manager, net *petri.Net, vs *symbolic.VarSet, r bdd.Node, cfg Config) (Result, error) {
	completions, truncated, err := enumerate(mgr, vs, net.NumPlaces(), r, cfg)
	if err != nil {
		return Result{}, err
	}
	if cancelled(cfg.Cancel) {
		return Result{Truncated: truncated, Cancelled: true}, nil
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	found := make([]petri.Marking, len(completions))
	isDeadlock := make([]bool, len(completions))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, m := range completions {
		i, m := i, m
		g.Go(func() error {
			if net.IsDeadlock(m) {
				isDeadlock[i] = true
				found[i] = m
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var deadlocks []petri.Marking
	for i, ok := range isDeadlock {
		if ok {
			deadlocks = append(deadlocks, found[i])
		}
	}
	return Result{Deadlocks: deadlocks, Truncated: truncated}, nil
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

// enumerate walks R's satisfying cubes over the place-variable care
// set and expands each cube's don't-care completions into full dense
// markings, stopping once EnumerationCap completions have been
// produced.
func enumerate(mgr *bdd.Manager, vs *symbolic.VarSet, numPlaces int, r bdd.Node, cfg Config) ([]petri.Marking, bool, error) {
	var out []petri.Marking
	truncated := false

	err := mgr.Allsat(r, vs.Cur, func(cube bdd.Cube) error {
		if cancelled(cfg.Cancel) {
			return errStop
		}
		var dontCare []int
		for p := 0; p < numPlaces; p++ {
			if _, ok := cube.Value(vs.CurLevel(p)); !ok {
				dontCare = append(dontCare, p)
			}
		}

		base := make(petri.Marking, numPlaces)
		for p := 0; p < numPlaces; p++ {
			if v, ok := cube.Value(vs.CurLevel(p)); ok {
				base[p] = uint8(v)
			}
		}

		for combo := 0; combo < 1<<uint(len(dontCare)); combo++ {
			if cfg.EnumerationCap > 0 && len(out) >= cfg.EnumerationCap {
				truncated = true
				return errStop
			}
			m := base.Clone()
			for bit, p := range dontCare {
				if combo&(1<<uint(bit)) != 0 {
					m[p] = 1
				}
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil && err != errStop {
		return nil, false, err
	}
	return out, truncated, nil
}

var errStop = stopError{}

type stopError struct{}

func (stopError) Error() string { return "deadlock: enumeration stopped" }
