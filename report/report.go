// Package report implements the reporting surface: running the
// explicit explorer, the symbolic reachability engine, the deadlock
// finder, and the branch-and-cut optimizer over one net and
// assembling their outcomes into a single structure. This is the
// orchestration logic behind cmd/onesafe, kept as a library package
// so any caller can run the full pipeline without a process boundary.
package report

import (
	"math/big"

	"github.com/onesafe/petrinet/deadlock"
	"github.com/onesafe/petrinet/explicit"
	"github.com/onesafe/petrinet/lp"
	"github.com/onesafe/petrinet/optimize"
	"github.com/onesafe/petrinet/petri"
	"github.com/onesafe/petrinet/symbolic"
)

// Config bounds every stage of one Analyze run.
type Config struct {
	MaxStates              int
	DeadlockEnumerationCap int
	Weights                optimize.Weights
	Solver                 lp.Solver
	Cancel                 <-chan struct{}
}

// Report is the reporting surface's data contract: the explicit and
// symbolic reachable-state counts (which must agree, the universal
// invariant this engine is built to check), the deadlock findings,
// and the optimizer's result.
type Report struct {
	ExplicitCount int
	SymbolicCount *big.Int
	CountsAgree   bool

	ExplicitTruncated bool
	Deadlock          deadlock.Result
	Optimum           optimize.Result

	Err error
}

// Analyze runs the full pipeline over net and assembles a Report.
// A stage error is recorded on Report.Err and stops later stages
// rather than panicking; partial results already computed are kept.
func Analyze(net *petri.Net, cfg Config) Report {
	var rpt Report

	pc := explicit.Precompute(net)
	exp := explicit.BFS(pc, explicit.Config{MaxStates: cfg.MaxStates, Cancel: cfg.Cancel})
	rpt.ExplicitCount = len(exp.Reachable)
	rpt.ExplicitTruncated = exp.Truncated
	if exp.Cancelled {
		return rpt
	}

	mgr, vs := symbolic.NewManager(net, symbolic.IdentityOrder(net))
	rels, err := symbolic.BuildRelation(mgr, net, vs)
	if err != nil {
		rpt.Err = err
		return rpt
	}

	reach := symbolic.Reachable(mgr, net, vs, rels, symbolic.Config{Cancel: cfg.Cancel})
	if reach.Outcome == symbolic.OutcomeResourceExhausted {
		rpt.Err = reach.Err
		return rpt
	}
	if reach.Outcome == symbolic.OutcomeCancelled {
		return rpt
	}

	rpt.SymbolicCount = reach.Count(mgr, vs)
	rpt.CountsAgree = !rpt.ExplicitTruncated && rpt.SymbolicCount.Cmp(big.NewInt(int64(rpt.ExplicitCount))) == 0

	dl, err := deadlock.Find(mgr, net, vs, reach.R, deadlock.Config{
		EnumerationCap: cfg.DeadlockEnumerationCap,
		Cancel:         cfg.Cancel,
	})
	if err != nil {
		rpt.Err = err
		return rpt
	}
	rpt.Deadlock = dl
	if dl.Cancelled {
		return rpt
	}

	if cfg.Weights != nil {
		opt, err := optimize.Run(mgr, net, vs, reach.R, cfg.Weights, optimize.Config{
			Solver: cfg.Solver,
			Cancel: cfg.Cancel,
		})
		if err != nil {
			rpt.Err = err
			return rpt
		}
		rpt.Optimum = opt
	}

	return rpt
}
