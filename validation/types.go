// Package validation provides structural analysis and validation for
// 1-safe Petri nets: structural and connectivity checks, a
// conservation check backed by P-invariant analysis, and an optional
// reachability pass that runs the symbolic and deadlock engines.
package validation

import (
	"github.com/onesafe/petrinet/petri"
)

// ValidationResult is the full set of findings from one Validate run.
type ValidationResult struct {
	Valid        bool                `json:"valid"`
	Errors       []Issue             `json:"errors,omitempty"`
	Warnings     []Issue             `json:"warnings,omitempty"`
	Info         []Issue             `json:"info,omitempty"`
	Summary      Summary             `json:"summary"`
	Reachability *ReachabilityResult `json:"reachability,omitempty"`
}

// Issue is one structural, connectivity, or reachability finding.
type Issue struct {
	Severity   string   `json:"severity"` // "error", "warning", "info"
	Category   string   `json:"category"` // "structure", "connectivity", "deadlock", "conservation", "reachability"
	Message    string   `json:"message"`
	Location   []string `json:"location,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Summary is a quick overview of the net and the validation outcome.
type Summary struct {
	Places      int  `json:"places"`
	Transitions int  `json:"transitions"`
	Arcs        int  `json:"arcs"`
	Errors      int  `json:"errors"`
	Warnings    int  `json:"warnings"`
	Conserved   bool `json:"conserved"`
}

// Validator runs structural checks (and, on request, a reachability
// pass) against one net.
type Validator struct {
	net    *petri.Net
	result *ValidationResult
}

// NewValidator creates a validator for net.
func NewValidator(net *petri.Net) *Validator {
	arcs := 0
	for t := range net.TransIDs {
		for p := range net.PlaceIDs {
			if net.I[t][p] != 0 {
				arcs++
			}
			if net.O[t][p] != 0 {
				arcs++
			}
		}
	}
	return &Validator{
		net: net,
		result: &ValidationResult{
			Valid: true,
			Summary: Summary{
				Places:      net.NumPlaces(),
				Transitions: net.NumTrans(),
				Arcs:        arcs,
			},
		},
	}
}

// Validate runs the structural checks only.
func (v *Validator) Validate() *ValidationResult {
	v.checkStructure()
	v.checkConnectivity()
	v.checkDeadlockHeuristic()
	v.checkConservation()

	v.result.Valid = len(v.result.Errors) == 0
	v.result.Summary.Errors = len(v.result.Errors)
	v.result.Summary.Warnings = len(v.result.Warnings)

	return v.result
}

// ValidateWithReachability runs the structural checks and then the
// real symbolic/deadlock reachability pipeline, folding genuine
// deadlock findings into the issue list.
func (v *Validator) ValidateWithReachability(cfg ReachabilityConfig) *ValidationResult {
	v.Validate()

	v.result.Reachability = v.AnalyzeReachability(cfg)

	if n := len(v.result.Reachability.DeadlockStates); n > 0 {
		v.AddWarning("deadlock",
			pluralDeadlocks(n),
			nil,
			"review model structure to ensure every terminal marking is a valid end state")
	}
	if v.result.Reachability.Truncated {
		v.AddWarning("reachability",
			"reachability analysis truncated: "+v.result.Reachability.TruncatedReason,
			nil,
			"raise the state/enumeration cap or simplify the model")
	}

	return v.result
}

func pluralDeadlocks(n int) string {
	if n == 1 {
		return "found 1 deadlock marking (a terminal state with no fireable transition)"
	}
	return "found multiple deadlock markings (terminal states with no fireable transition)"
}

// AddError records an error-severity issue.
func (v *Validator) AddError(category, message string, location []string, suggestion string) {
	v.result.Errors = append(v.result.Errors, Issue{
		Severity: "error", Category: category, Message: message,
		Location: location, Suggestion: suggestion,
	})
}

// AddWarning records a warning-severity issue.
func (v *Validator) AddWarning(category, message string, location []string, suggestion string) {
	v.result.Warnings = append(v.result.Warnings, Issue{
		Severity: "warning", Category: category, Message: message,
		Location: location, Suggestion: suggestion,
	})
}

// AddInfo records an informational finding.
func (v *Validator) AddInfo(category, message string, location []string) {
	v.result.Info = append(v.result.Info, Issue{
		Severity: "info", Category: category, Message: message, Location: location,
	})
}
