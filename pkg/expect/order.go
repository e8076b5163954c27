// Temporal precedence validation
// Checks that spans started (or finished) in the required order
package expect

import (
	"github.com/andrewh/tracecheck/pkg/spans"
)

// OrderExpectation declares precedence pairs. must_precede[A,B] holds
// when some span named A starts before some span named B; must_follow
// is the same check with the pair reversed. The default start-before
// comparison detects whether the work was even sequenced correctly;
// Strict switches to end <= start for non-overlap guarantees.
type OrderExpectation struct {
	MustPrecede [][2]string
	MustFollow  [][2]string
	Strict      bool
}

// Validate checks every configured precedence pair.
func (e *OrderExpectation) Validate(batch []spans.Span) (Result, error) {
	var res Result
	byName := spans.ByName(batch)

	for _, pair := range e.MustPrecede {
		e.checkPrecede(byName, pair[0], pair[1], &res)
	}
	for _, pair := range e.MustFollow {
		e.checkPrecede(byName, pair[1], pair[0], &res)
	}

	return res, nil
}

func (e *OrderExpectation) checkPrecede(byName map[string][]*spans.Span, first, second string, res *Result) {
	firsts, seconds := byName[first], byName[second]
	if len(firsts) == 0 {
		res.failf("order %s before %s: span %q not found in trace", first, second, first)
		return
	}
	if len(seconds) == 0 {
		res.failf("order %s before %s: span %q not found in trace", first, second, second)
		return
	}

	// A candidate pair missing a needed timestamp is ineligible rather
	// than failing outright; only when no eligible pair exists at all is
	// the missing timestamp itself the reported problem.
	ordered, eligible := false, false
	for _, f := range firsts {
		fTime := f.StartTimeUnixNano
		if e.Strict {
			fTime = f.EndTimeUnixNano
		}
		if fTime == nil {
			continue
		}
		for _, s := range seconds {
			if s.StartTimeUnixNano == nil {
				continue
			}
			eligible = true
			if e.Strict {
				if *fTime <= *s.StartTimeUnixNano {
					ordered = true
				}
			} else if *fTime < *s.StartTimeUnixNano {
				ordered = true
			}
		}
	}

	switch {
	case ordered:
	case !eligible:
		res.failf("order %s before %s: missing timestamps, ordering cannot be checked", first, second)
	case e.Strict:
		res.failf("order %s before %s: no span %q ends before a span %q starts", first, second, first, second)
	default:
		res.failf("order %s before %s: no span %q starts before a span %q", first, second, first, second)
	}
}
