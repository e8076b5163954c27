// Per-span validation
// Checks one expected span's presence, lineage, attributes, and timing
package expect

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/andrewh/tracecheck/pkg/spans"
)

// DurationBound constrains a span's wall-clock duration in milliseconds.
type DurationBound struct {
	Min *float64 `toml:"min" yaml:"min"`
	Max *float64 `toml:"max" yaml:"max"`
}

// SpanExpectation describes one span (or family of spans, via glob) that
// must exist in the trace with the given shape. The expectation passes
// when at least one span matching Name satisfies every configured
// condition.
type SpanExpectation struct {
	Name       string // glob over span names
	Parent     string // glob over the parent span's name, optional
	Kind       spans.Kind
	AttrsAll   map[string]string
	AttrsAny   []string // "key=value" alternatives, one must hold
	EventsAny  []string
	EventsAll  []string
	DurationMS *DurationBound
}

// Validate finds spans matching the name pattern and checks whether any
// of them satisfies the full expectation. A malformed glob is a
// configuration error.
func (e *SpanExpectation) Validate(batch []spans.Span) (Result, error) {
	if _, err := path.Match(e.Name, ""); err != nil {
		return Result{}, fmt.Errorf("invalid span name pattern %q: %w", e.Name, err)
	}
	if e.Parent != "" {
		if _, err := path.Match(e.Parent, ""); err != nil {
			return Result{}, fmt.Errorf("invalid parent pattern %q: %w", e.Parent, err)
		}
	}

	var res Result
	byID := spans.ByID(batch)

	var candidates []*spans.Span
	for i := range batch {
		if ok, _ := path.Match(e.Name, batch[i].Name); ok {
			candidates = append(candidates, &batch[i])
		}
	}
	if len(candidates) == 0 {
		res.failf("span %q not found in trace", e.Name)
		return res, nil
	}

	// Keep the first candidate's reasons for the failure message; with
	// duplicates, any one satisfying span means the expectation holds.
	var firstReasons []string
	for _, s := range candidates {
		reasons := e.mismatches(s, byID)
		if len(reasons) == 0 {
			return res, nil
		}
		if firstReasons == nil {
			firstReasons = reasons
		}
	}

	res.failf("span %q: %d matching span(s), none satisfies the expectation: %s",
		e.Name, len(candidates), strings.Join(firstReasons, "; "))
	return res, nil
}

// mismatches returns every condition the span fails, empty when it
// satisfies the expectation.
func (e *SpanExpectation) mismatches(s *spans.Span, byID map[string]*spans.Span) []string {
	var reasons []string

	if e.Parent != "" {
		if s.ParentSpanID == "" {
			reasons = append(reasons, fmt.Sprintf("expected parent matching %q but span is a root", e.Parent))
		} else if parent, ok := byID[s.ParentSpanID]; !ok {
			reasons = append(reasons, fmt.Sprintf("parent span id %s not found in trace", s.ParentSpanID))
		} else if matched, _ := path.Match(e.Parent, parent.Name); !matched {
			reasons = append(reasons, fmt.Sprintf("parent is %q, expected match for %q", parent.Name, e.Parent))
		}
	}

	if e.Kind != "" && s.Kind != e.Kind {
		reasons = append(reasons, fmt.Sprintf("kind is %q, expected %q", s.Kind, e.Kind))
	}

	for _, key := range slices.Sorted(maps.Keys(e.AttrsAll)) {
		want := e.AttrsAll[key]
		v, ok := s.Attributes[key]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("attribute %q not present", key))
			continue
		}
		if got := fmt.Sprintf("%v", v); got != want {
			reasons = append(reasons, fmt.Sprintf("attribute %q = %q, expected %q", key, got, want))
		}
	}

	if len(e.AttrsAny) > 0 && !anyAttrHolds(s, e.AttrsAny) {
		reasons = append(reasons, fmt.Sprintf("none of the attribute alternatives hold: %s", strings.Join(e.AttrsAny, ", ")))
	}

	for _, name := range e.EventsAll {
		if !slices.Contains(s.Events, name) {
			reasons = append(reasons, fmt.Sprintf("event %q not recorded", name))
		}
	}
	if len(e.EventsAny) > 0 {
		found := false
		for _, name := range e.EventsAny {
			if slices.Contains(s.Events, name) {
				found = true
				break
			}
		}
		if !found {
			reasons = append(reasons, fmt.Sprintf("none of the events recorded: %s", strings.Join(e.EventsAny, ", ")))
		}
	}

	if e.DurationMS != nil {
		d, ok := s.Duration()
		if !ok {
			reasons = append(reasons, "missing timestamps, duration cannot be checked")
		} else {
			ms := float64(d.Nanoseconds()) / 1e6
			if e.DurationMS.Min != nil && ms < *e.DurationMS.Min {
				reasons = append(reasons, fmt.Sprintf("duration %.1fms below minimum %.1fms", ms, *e.DurationMS.Min))
			}
			if e.DurationMS.Max != nil && ms > *e.DurationMS.Max {
				reasons = append(reasons, fmt.Sprintf("duration %.1fms above maximum %.1fms", ms, *e.DurationMS.Max))
			}
		}
	}

	return reasons
}

// anyAttrHolds checks the "key=value" alternatives; a bare key with no
// value matches on presence alone.
func anyAttrHolds(s *spans.Span, alternatives []string) bool {
	for _, alt := range alternatives {
		key, want, hasValue := strings.Cut(alt, "=")
		v, ok := s.Attributes[key]
		if !ok {
			continue
		}
		if !hasValue || fmt.Sprintf("%v", v) == want {
			return true
		}
	}
	return false
}
