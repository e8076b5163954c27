// Temporal containment validation
// Checks that inner spans run entirely within an outer span's interval
package expect

import (
	"github.com/andrewh/tracecheck/pkg/spans"
)

// WindowExpectation requires each span named in Contains to run inside
// the interval of a span named Outer. With duplicate names, one
// containing pair is enough.
type WindowExpectation struct {
	Outer    string
	Contains []string
}

// Validate checks containment for every inner name. Missing spans,
// missing timestamps, and intervals that escape the window are reported
// as distinct failures so "never ran" stays distinguishable from "ran
// out of order".
func (e *WindowExpectation) Validate(batch []spans.Span) (Result, error) {
	var res Result
	byName := spans.ByName(batch)

	outers := byName[e.Outer]
	if len(outers) == 0 {
		res.failf("outer span %q not found in trace", e.Outer)
		return res, nil
	}

	for _, inner := range e.Contains {
		inners := byName[inner]
		if len(inners) == 0 {
			res.failf("inner span %q not found in trace", inner)
			continue
		}

		contained, eligible := false, false
		for _, o := range outers {
			if o.StartTimeUnixNano == nil || o.EndTimeUnixNano == nil {
				continue
			}
			for _, i := range inners {
				if i.StartTimeUnixNano == nil || i.EndTimeUnixNano == nil {
					continue
				}
				eligible = true
				if *o.StartTimeUnixNano <= *i.StartTimeUnixNano && *i.EndTimeUnixNano <= *o.EndTimeUnixNano {
					contained = true
				}
			}
		}

		switch {
		case contained:
		case !eligible:
			res.failf("span %q inside %q: missing timestamps, containment cannot be checked", inner, e.Outer)
		default:
			res.failf("span %q does not run within the window of %q", inner, e.Outer)
		}
	}

	return res, nil
}
