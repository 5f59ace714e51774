// Package parser handles JSON import/export for 1-safe Petri nets:
// a "places" object, a "transitions" object, and an "arcs" list, with
// a top-level "format" version string gating compatibility.
package parser

import (
	"encoding/json"
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/onesafe/petrinet/petri"
)

// FormatVersion is the JSON-LD net format this package reads and
// writes. A document's own "format" field must satisfy this version
// per semver rules: same major, and not greater overall.
var FormatVersion = semver.MustParse("1.0.0")

// ErrUnsupportedFormat reports a document whose declared format
// version this package cannot read.
type ErrUnsupportedFormat struct {
	Declared string
	Err      error
}

func (e *ErrUnsupportedFormat) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parser: unsupported format %q: %v", e.Declared, e.Err)
	}
	return fmt.Sprintf("parser: unsupported format %q", e.Declared)
}

type document struct {
	Format      string                 `json:"format,omitempty"`
	Places      map[string]placeDoc    `json:"places"`
	Transitions map[string]interface{} `json:"transitions"`
	Arcs        []arcDoc               `json:"arcs"`
}

type placeDoc struct {
	Initial int `json:"initial"`
}

type arcDoc struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// FromJSON parses a 1-safe Petri net from the JSON-LD net document
// format:
//
//	{
//	  "format": "1.0.0",
//	  "places": {"p1": {"initial": 1}, "p2": {"initial": 0}},
//	  "transitions": {"t1": {}},
//	  "arcs": [{"source": "p1", "target": "t1", "weight": 1}]
//	}
//
// Arc endpoints that name neither a declared place nor transition are
// silently dropped; arc weight defaults to 1
// when omitted or zero. An initial marking greater than 1 is rejected
// outright rather than clamped, since a colored/bounded token count is
// not representable in this engine's 0/1 marking model.
func FromJSON(data []byte) (*petri.Net, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parser: invalid JSON: %w", err)
	}

	if doc.Format != "" {
		declared, err := semver.Parse(doc.Format)
		if err != nil {
			return nil, &ErrUnsupportedFormat{Declared: doc.Format, Err: err}
		}
		if declared.Major != FormatVersion.Major || declared.GT(FormatVersion) {
			return nil, &ErrUnsupportedFormat{Declared: doc.Format}
		}
	}

	b := petri.Build()

	placeOrder := sortedKeys(mapKeys(doc.Places))
	for _, id := range placeOrder {
		p := doc.Places[id]
		if p.Initial > 1 || p.Initial < 0 {
			return nil, &petri.ErrMalformed{Reason: fmt.Sprintf("place %q: initial marking %d out of 0/1 range", id, p.Initial)}
		}
		b.Place(id, p.Initial)
	}

	transOrder := sortedKeys(mapKeys(doc.Transitions))
	for _, id := range transOrder {
		b.Transition(id)
	}

	places := make(map[string]bool, len(doc.Places))
	for id := range doc.Places {
		places[id] = true
	}
	transitions := make(map[string]bool, len(doc.Transitions))
	for id := range doc.Transitions {
		transitions[id] = true
	}

	for _, a := range doc.Arcs {
		if !endpointsKnown(a.Source, a.Target, places, transitions) {
			continue // unknown endpoint: silently dropped per the parser contract
		}
		weight := a.Weight
		if weight <= 0 {
			weight = 1
		}
		b.Arc(a.Source, a.Target, weight)
	}

	return b.Build()
}

func endpointsKnown(source, target string, places, transitions map[string]bool) bool {
	sourceKnown := places[source] || transitions[source]
	targetKnown := places[target] || transitions[target]
	return sourceKnown && targetKnown
}

// ToJSON serializes net back to the JSON-LD net document format.
func ToJSON(net *petri.Net) ([]byte, error) {
	doc := document{
		Format:      FormatVersion.String(),
		Places:      make(map[string]placeDoc, net.NumPlaces()),
		Transitions: make(map[string]interface{}, net.NumTrans()),
	}
	for i, id := range net.PlaceIDs {
		doc.Places[id] = placeDoc{Initial: int(net.M0[i])}
	}
	for _, id := range net.TransIDs {
		doc.Transitions[id] = map[string]interface{}{}
	}
	for t, tid := range net.TransIDs {
		for p, pid := range net.PlaceIDs {
			if net.I[t][p] != 0 {
				doc.Arcs = append(doc.Arcs, arcDoc{Source: pid, Target: tid, Weight: 1})
			}
			if net.O[t][p] != 0 {
				doc.Arcs = append(doc.Arcs, arcDoc{Source: tid, Target: pid, Weight: 1})
			}
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func mapKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// sortedKeys orders a document's declared place/transition IDs so the
// resulting Net's position order is deterministic across parses of the
// same document, independent of Go's randomized map iteration order.
func sortedKeys(keys []string) []string {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
