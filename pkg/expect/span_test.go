// Tests for per-span validation
package expect

import (
	"strings"
	"testing"

	"github.com/andrewh/tracecheck/pkg/spans"
)

func TestSpanExpectationNameGlob(t *testing.T) {
	batch := []spans.Span{
		testSpan("container.start", "s1", "", 1000, 2000),
	}

	e := SpanExpectation{Name: "container.*"}
	res, err := e.Validate(batch)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Passed() {
		t.Fatalf("glob match must pass: %v", res.Errors)
	}

	e = SpanExpectation{Name: "network.*"}
	res, _ = e.Validate(batch)
	if res.Passed() {
		t.Fatal("zero matches must fail")
	}
	if !strings.Contains(res.Errors[0], "not found") {
		t.Fatalf("missing span wording: %v", res.Errors)
	}
}

func TestSpanExpectationParentAndKind(t *testing.T) {
	root := testSpan("run", "s1", "", 1000, 9000)
	child := testSpan("container.exec", "s2", "s1", 2000, 3000)
	child.Kind = spans.KindClient
	batch := []spans.Span{root, child}

	e := SpanExpectation{Name: "container.exec", Parent: "run", Kind: spans.KindClient}
	res, _ := e.Validate(batch)
	if !res.Passed() {
		t.Fatalf("expected pass: %v", res.Errors)
	}

	e = SpanExpectation{Name: "container.exec", Parent: "other"}
	res, _ = e.Validate(batch)
	if res.Passed() || !strings.Contains(res.Errors[0], "parent") {
		t.Fatalf("wrong parent must fail naming the parent: %v", res.Errors)
	}

	e = SpanExpectation{Name: "run", Parent: "anything"}
	res, _ = e.Validate(batch)
	if res.Passed() || !strings.Contains(res.Errors[0], "root") {
		t.Fatalf("root with parent expectation must fail: %v", res.Errors)
	}

	e = SpanExpectation{Name: "container.exec", Kind: spans.KindServer}
	res, _ = e.Validate(batch)
	if res.Passed() {
		t.Fatal("wrong kind must fail")
	}
}

func TestSpanExpectationAttrs(t *testing.T) {
	s := testSpan("run", "s1", "", 1000, 2000)
	s.Attributes = map[string]any{"env": "ci", "attempt": int64(2)}
	batch := []spans.Span{s}

	e := SpanExpectation{Name: "run", AttrsAll: map[string]string{"env": "ci", "attempt": "2"}}
	res, _ := e.Validate(batch)
	if !res.Passed() {
		t.Fatalf("attrs.all match must pass: %v", res.Errors)
	}

	e = SpanExpectation{Name: "run", AttrsAll: map[string]string{"env": "prod"}}
	res, _ = e.Validate(batch)
	if res.Passed() {
		t.Fatal("attrs.all mismatch must fail")
	}

	e = SpanExpectation{Name: "run", AttrsAny: []string{"region=us-east", "env=ci"}}
	res, _ = e.Validate(batch)
	if !res.Passed() {
		t.Fatalf("one satisfied alternative is enough: %v", res.Errors)
	}

	e = SpanExpectation{Name: "run", AttrsAny: []string{"region=us-east"}}
	res, _ = e.Validate(batch)
	if res.Passed() {
		t.Fatal("no satisfied alternative must fail")
	}
}

func TestSpanExpectationEvents(t *testing.T) {
	s := testSpan("run", "s1", "", 1000, 2000)
	s.Events = []string{"started", "checkpoint", "finished"}
	batch := []spans.Span{s}

	e := SpanExpectation{Name: "run", EventsAll: []string{"started", "finished"}, EventsAny: []string{"checkpoint", "aborted"}}
	res, _ := e.Validate(batch)
	if !res.Passed() {
		t.Fatalf("expected pass: %v", res.Errors)
	}

	e = SpanExpectation{Name: "run", EventsAll: []string{"rolled_back"}}
	res, _ = e.Validate(batch)
	if res.Passed() || !strings.Contains(res.Errors[0], "rolled_back") {
		t.Fatalf("missing event must fail by name: %v", res.Errors)
	}
}

func TestSpanExpectationDuration(t *testing.T) {
	min, max := 100.0, 5000.0
	bound := &DurationBound{Min: &min, Max: &max}

	inRange := []spans.Span{testSpan("run", "s1", "", 1_000_000_000, 1_500_000_000)} // 500ms
	e := SpanExpectation{Name: "run", DurationMS: bound}
	res, _ := e.Validate(inRange)
	if !res.Passed() {
		t.Fatalf("500ms within [100,5000] must pass: %v", res.Errors)
	}

	tooFast := []spans.Span{testSpan("run", "s1", "", 1_000_000_000, 1_050_000_000)} // 50ms
	res, _ = e.Validate(tooFast)
	if res.Passed() || !strings.Contains(res.Errors[0], "below minimum") {
		t.Fatalf("50ms must fail the minimum: %v", res.Errors)
	}

	noTimes := []spans.Span{testSpan("run", "s1", "", 0, 0)}
	res, _ = e.Validate(noTimes)
	if res.Passed() || !strings.Contains(res.Errors[0], "missing timestamps") {
		t.Fatalf("missing timestamps must be explicit: %v", res.Errors)
	}
}

func TestSpanExpectationAnyDuplicateMaySatisfy(t *testing.T) {
	bad := testSpan("retry", "s1", "", 1000, 2000)
	bad.Attributes = map[string]any{"outcome": "failed"}
	good := testSpan("retry", "s2", "", 3000, 4000)
	good.Attributes = map[string]any{"outcome": "succeeded"}
	batch := []spans.Span{bad, good}

	e := SpanExpectation{Name: "retry", AttrsAll: map[string]string{"outcome": "succeeded"}}
	res, _ := e.Validate(batch)
	if !res.Passed() {
		t.Fatalf("one satisfying duplicate is enough: %v", res.Errors)
	}
}

func TestSpanExpectationBadGlobIsConfigurationError(t *testing.T) {
	e := SpanExpectation{Name: "[bad"}
	if _, err := e.Validate(nil); err == nil {
		t.Fatal("malformed glob must be a configuration error")
	}
}
