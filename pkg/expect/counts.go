// Cardinality validation
// Checks span, event, and error totals plus per-name span counts
package expect

import (
	"maps"
	"slices"

	"github.com/andrewh/tracecheck/pkg/spans"
)

// CountBound constrains a measured count. All set fields are checked
// independently; a bound with no fields set is unconstrained.
type CountBound struct {
	Gte *int
	Lte *int
	Eq  *int
}

// check records one failure per violated field. Eq is checked first so
// the most specific violation leads the output.
func (b CountBound) check(metric string, n int, res *Result) {
	if b.Eq != nil && n != *b.Eq {
		res.failf("%s: expected exactly %d, got %d", metric, *b.Eq, n)
	}
	if b.Gte != nil && n < *b.Gte {
		res.failf("%s: expected at least %d, got %d", metric, *b.Gte, n)
	}
	if b.Lte != nil && n > *b.Lte {
		res.failf("%s: expected at most %d, got %d", metric, *b.Lte, n)
	}
}

// CountExpectation declares cardinality bounds over the batch.
type CountExpectation struct {
	SpansTotal  *CountBound
	EventsTotal *CountBound
	ErrorsTotal *CountBound
	ByName      map[string]CountBound
}

// Validate measures the batch and checks every configured bound.
func (e *CountExpectation) Validate(batch []spans.Span) (Result, error) {
	var res Result

	if e.SpansTotal != nil {
		e.SpansTotal.check("span count", len(batch), &res)
	}

	if e.EventsTotal != nil {
		events := 0
		for i := range batch {
			events += len(batch[i].Events)
		}
		e.EventsTotal.check("event count", events, &res)
	}

	if e.ErrorsTotal != nil {
		errors := 0
		for i := range batch {
			if batch[i].IsError() {
				errors++
			}
		}
		e.ErrorsTotal.check("error count", errors, &res)
	}

	if len(e.ByName) > 0 {
		byName := spans.ByName(batch)
		for _, name := range slices.Sorted(maps.Keys(e.ByName)) {
			e.ByName[name].check("count of spans named "+name, len(byName[name]), &res)
		}
	}

	return res, nil
}
