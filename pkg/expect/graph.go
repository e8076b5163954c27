// Graph topology validation
// Checks required and forbidden parent/child edges and acyclicity
package expect

import (
	"github.com/andrewh/tracecheck/pkg/spans"
)

// GraphExpectation declares the parent/child structure a trace must have.
// Edges are (parent name, child name) pairs. A required edge needs at
// least one witness: a span named child whose parent_span_id points at a
// span named parent. A forbidden edge needs zero witnesses.
type GraphExpectation struct {
	MustInclude  [][2]string
	MustNotCross [][2]string
	Acyclic      bool
}

// Validate checks the batch against the expected topology.
func (e *GraphExpectation) Validate(batch []spans.Span) (Result, error) {
	var res Result
	byName := spans.ByName(batch)
	byID := spans.ByID(batch)

	for _, edge := range e.MustInclude {
		parent, child := edge[0], edge[1]
		if len(byName[parent]) == 0 {
			res.failf("edge %s -> %s: parent span %q not found in trace", parent, child, parent)
			continue
		}
		if len(byName[child]) == 0 {
			res.failf("edge %s -> %s: child span %q not found in trace", parent, child, child)
			continue
		}
		if countWitnesses(byName[child], byID, parent) == 0 {
			res.failf("edge %s -> %s: both spans exist but no %q has a parent named %q", parent, child, child, parent)
		}
	}

	for _, edge := range e.MustNotCross {
		parent, child := edge[0], edge[1]
		if n := countWitnesses(byName[child], byID, parent); n > 0 {
			res.failf("forbidden edge %s -> %s: found %d occurrence(s)", parent, child, n)
		}
	}

	if e.Acyclic {
		for _, cycle := range findCycles(batch, byID) {
			res.failf("cycle detected through span %q (id %s)", cycle.Name, cycle.SpanID)
		}
	}

	return res, nil
}

// countWitnesses counts spans in children whose parent resolves to a span
// with the given name.
func countWitnesses(children []*spans.Span, byID map[string]*spans.Span, parentName string) int {
	n := 0
	for _, c := range children {
		if c.ParentSpanID == "" {
			continue
		}
		if p, ok := byID[c.ParentSpanID]; ok && p.Name == parentName {
			n++
		}
	}
	return n
}

// findCycles walks the span -> parent edges with three-color DFS and
// returns one representative span per cycle found. Parent links that
// leave the batch terminate the walk cleanly.
func findCycles(batch []spans.Span, byID map[string]*spans.Span) []*spans.Span {
	const (
		white = iota // unvisited
		gray         // on the current path
		black        // fully explored
	)
	color := make(map[string]int, len(batch))
	var cycles []*spans.Span

	var visit func(s *spans.Span)
	visit = func(s *spans.Span) {
		if color[s.SpanID] != white {
			return
		}
		color[s.SpanID] = gray
		if s.ParentSpanID != "" {
			if p, ok := byID[s.ParentSpanID]; ok {
				if color[p.SpanID] == gray {
					cycles = append(cycles, p)
				} else {
					visit(p)
				}
			}
		}
		color[s.SpanID] = black
	}

	for i := range batch {
		visit(&batch[i])
	}
	return cycles
}
