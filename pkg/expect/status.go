// Status code validation
// Checks otel.status_code values batch-wide and per name pattern
package expect

import (
	"fmt"
	"maps"
	"path"
	"slices"

	"github.com/andrewh/tracecheck/pkg/spans"
)

// StatusExpectation checks span status codes, read from the
// otel.status_code attribute (absent means UNSET). All applies to every
// span; ByName maps glob patterns over span names to expected codes.
type StatusExpectation struct {
	All    *spans.Status
	ByName map[string]spans.Status
}

// Validate checks the batch. A malformed glob pattern is a configuration
// error that aborts the stage; a span carrying an unparsable status
// value is a behavioral failure like any other.
func (e *StatusExpectation) Validate(batch []spans.Span) (Result, error) {
	for pattern := range e.ByName {
		if _, err := path.Match(pattern, ""); err != nil {
			return Result{}, fmt.Errorf("invalid status pattern %q: %w", pattern, err)
		}
	}

	var res Result

	if e.All != nil {
		for i := range batch {
			checkStatus(&batch[i], *e.All, &res)
		}
	}

	for _, pattern := range slices.Sorted(maps.Keys(e.ByName)) {
		want := e.ByName[pattern]
		matched := 0
		for i := range batch {
			ok, _ := path.Match(pattern, batch[i].Name)
			if !ok {
				continue
			}
			matched++
			checkStatus(&batch[i], want, &res)
		}
		// Zero matches means the spans were never created, which is
		// exactly the fake-green condition this check exists to catch.
		if matched == 0 {
			res.failf("status pattern %q: no matching spans found in trace", pattern)
		}
	}

	return res, nil
}

func checkStatus(s *spans.Span, want spans.Status, res *Result) {
	got, err := s.Status()
	if err != nil {
		res.failf("span %q: %v", s.Name, err)
		return
	}
	if got != want {
		res.failf("span %q: status is %s, expected %s", s.Name, got, want)
	}
}
