// Command onesafe analyzes 1-safe Petri net models: reachability
// (explicit and symbolic), deadlock detection, and branch-and-cut
// marking optimization.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "validate":
		err = validate(args)
	case "analyze":
		err = analyze(args)
	case "optimize":
		err = optimizeCmd(args)
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Println("onesafe version 1.0.0")
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`onesafe - 1-safe Petri net reachability and optimization

Usage:
  onesafe <command> [options]

Commands:
  validate   Validate model structure, optionally with reachability analysis
  analyze    Run the full reachability/deadlock pipeline and print a report
  optimize   Maximize a weighted objective over the reachable markings
  help       Show this help message
  version    Show version information

Examples:
  onesafe validate model.json --reachability
  onesafe analyze model.json
  onesafe optimize model.json --weights '{"p1":3,"p2":5}'`)
}
