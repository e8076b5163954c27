// Tests for the span record and its helpers
package spans

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Kind
	}{
		{"internal", KindInternal},
		{"SERVER", KindServer},
		{"Client", KindClient},
		{"producer", KindProducer},
		{"consumer", KindConsumer},
	} {
		got, err := ParseKind(tc.in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := ParseKind("sidecar"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestKindFromOTLP(t *testing.T) {
	for i, want := range map[int32]Kind{
		1: KindInternal, 2: KindServer, 3: KindClient, 4: KindProducer, 5: KindConsumer,
	} {
		got, err := KindFromOTLP(i)
		if err != nil {
			t.Fatalf("KindFromOTLP(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("KindFromOTLP(%d) = %q, want %q", i, got, want)
		}
	}
	if _, err := KindFromOTLP(0); err == nil {
		t.Fatal("expected error for unspecified kind")
	}
}

func TestStatusFromAttribute(t *testing.T) {
	for _, tc := range []struct {
		name  string
		attrs map[string]any
		want  Status
	}{
		{"absent means unset", map[string]any{}, StatusUnset},
		{"ok", map[string]any{"otel.status_code": "OK"}, StatusOK},
		{"error lowercase", map[string]any{"otel.status_code": "error"}, StatusError},
		{"unset explicit", map[string]any{"otel.status_code": "Unset"}, StatusUnset},
	} {
		span := Span{Name: "op", Attributes: tc.attrs}
		got, err := span.Status()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}

	bad := Span{Name: "op", Attributes: map[string]any{"otel.status_code": "GREEN"}}
	if _, err := bad.Status(); err == nil {
		t.Fatal("expected error for unrecognised status value")
	}

	nonString := Span{Name: "op", Attributes: map[string]any{"otel.status_code": 2}}
	if _, err := nonString.Status(); err == nil {
		t.Fatal("expected error for non-string status value")
	}
}

func TestIsError(t *testing.T) {
	if (&Span{Attributes: map[string]any{"otel.status_code": "ERROR"}}).IsError() != true {
		t.Fatal("status ERROR should count as error")
	}
	if (&Span{Attributes: map[string]any{"error": true}}).IsError() != true {
		t.Fatal("error=true attribute should count as error")
	}
	if (&Span{Attributes: map[string]any{"error": "true"}}).IsError() {
		t.Fatal("string error attribute must not be coerced")
	}
	if (&Span{Attributes: map[string]any{"otel.status_code": "OK"}}).IsError() {
		t.Fatal("status OK is not an error")
	}
	if (&Span{}).IsError() {
		t.Fatal("empty span is not an error")
	}
}

func TestDuration(t *testing.T) {
	start, end := uint64(1_000_000_000), uint64(3_500_000_000)

	span := Span{StartTimeUnixNano: &start, EndTimeUnixNano: &end}
	d, ok := span.Duration()
	if !ok {
		t.Fatal("expected duration to be available")
	}
	if d != 2500*time.Millisecond {
		t.Fatalf("duration = %v, want 2.5s", d)
	}

	if _, ok := (&Span{StartTimeUnixNano: &start}).Duration(); ok {
		t.Fatal("missing end timestamp must not yield a duration")
	}
	if _, ok := (&Span{StartTimeUnixNano: &end, EndTimeUnixNano: &start}).Duration(); ok {
		t.Fatal("end before start must not yield a duration")
	}
}

func TestIndexes(t *testing.T) {
	batch := []Span{
		{Name: "fetch", SpanID: "a1", ParentSpanID: ""},
		{Name: "fetch", SpanID: "a2", ParentSpanID: "a1"},
		{Name: "store", SpanID: "a3", ParentSpanID: "a1"},
	}

	byName := ByName(batch)
	if len(byName["fetch"]) != 2 {
		t.Fatalf("expected 2 fetch spans, got %d", len(byName["fetch"]))
	}
	if len(byName["store"]) != 1 {
		t.Fatalf("expected 1 store span, got %d", len(byName["store"]))
	}

	byID := ByID(batch)
	if byID["a3"].Name != "store" {
		t.Fatalf("byID[a3] = %q, want store", byID["a3"].Name)
	}

	if !batch[0].IsRoot() || batch[1].IsRoot() {
		t.Fatal("root detection wrong")
	}
}
