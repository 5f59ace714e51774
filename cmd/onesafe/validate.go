package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/onesafe/petrinet/parser"
	"github.com/onesafe/petrinet/validation"
)

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	outputJSON := fs.Bool("json", false, "output results as JSON")
	reachability := fs.Bool("reachability", false, "run the symbolic reachability and deadlock pipeline")
	maxStates := fs.Int("max-states", 100000, "explicit explorer state cap")
	deadlockCap := fs.Int("max-deadlock-enum", 100000, "deadlock enumeration cap")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: onesafe validate <model.json> [options]

Validate a 1-safe Petri net's structure and, optionally, its
reachable-marking and deadlock properties.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("model file required")
	}
	// Flag parsing stops at the model file; parse the options after it.
	modelPath := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return err
	}

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	net, err := parser.FromJSON(data)
	if err != nil {
		return fmt.Errorf("parse model: %w", err)
	}

	v := validation.NewValidator(net)
	var result *validation.ValidationResult
	if *reachability {
		result = v.ValidateWithReachability(validation.ReachabilityConfig{
			MaxStates:              *maxStates,
			DeadlockEnumerationCap: *deadlockCap,
		})
	} else {
		result = v.Validate()
	}

	if *outputJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		fmt.Println(string(out))
	} else {
		printValidationResult(result)
	}

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

func printValidationResult(result *validation.ValidationResult) {
	fmt.Printf("places=%d transitions=%d arcs=%d conserved=%v\n",
		result.Summary.Places, result.Summary.Transitions, result.Summary.Arcs, result.Summary.Conserved)

	for _, issue := range result.Errors {
		fmt.Printf("  error [%s] %s\n", issue.Category, issue.Message)
	}
	for _, issue := range result.Warnings {
		fmt.Printf("  warn  [%s] %s\n", issue.Category, issue.Message)
	}
	for _, issue := range result.Info {
		fmt.Printf("  info  [%s] %s\n", issue.Category, issue.Message)
	}

	if r := result.Reachability; r != nil {
		fmt.Printf("reachable=%d deadlocks=%d truncated=%v\n", r.Reachable, len(r.DeadlockStates), r.Truncated)
	}

	if result.Valid {
		fmt.Println("validation PASSED")
	} else {
		fmt.Println("validation FAILED")
	}
}
