// Tests for hermeticity validation
package expect

import (
	"strings"
	"testing"

	"github.com/andrewh/tracecheck/pkg/spans"
)

func TestHermeticityExternalServices(t *testing.T) {
	e := HermeticityExpectation{NoExternalServices: true}

	external := []spans.Span{{
		Name:       "fetch",
		SpanID:     "s1",
		Attributes: map[string]any{"net.peer.name": "external.service.com"},
	}}
	res, _ := e.Validate(external)
	if res.Passed() {
		t.Fatal("external peer must fail")
	}
	if !strings.Contains(res.Errors[0], "net.peer.name") {
		t.Fatalf("failure should name the attribute: %v", res.Errors)
	}

	local := []spans.Span{{
		Name:   "fetch",
		SpanID: "s1",
		Attributes: map[string]any{
			"net.peer.name": "localhost",
			"http.url":      "http://127.0.0.1:8080/health",
			"http.host":     "db.internal",
		},
	}}
	res, _ = e.Validate(local)
	if !res.Passed() {
		t.Fatalf("on-host endpoints are allowed: %v", res.Errors)
	}
}

func TestHermeticityResourceAttrs(t *testing.T) {
	e := HermeticityExpectation{ResourceAttrsMustMatch: map[string]string{
		"service.name": "x",
		"env":          "y",
	}}

	batch := []spans.Span{{
		Name:               "run",
		SpanID:             "s1",
		ResourceAttributes: map[string]any{"service.name": "x"},
	}}
	res, _ := e.Validate(batch)
	if len(res.Errors) != 1 {
		t.Fatalf("missing env key should be the only failure: %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], `"env"`) || !strings.Contains(res.Errors[0], "not found") {
		t.Fatalf("missing key wording: %v", res.Errors)
	}

	// Extra resource attributes beyond the listed keys are allowed.
	batch[0].ResourceAttributes = map[string]any{
		"service.name": "x",
		"env":          "y",
		"host.name":    "ci-runner-3",
	}
	res, _ = e.Validate(batch)
	if !res.Passed() {
		t.Fatalf("superset must pass: %v", res.Errors)
	}

	batch[0].ResourceAttributes["env"] = "prod"
	res, _ = e.Validate(batch)
	if res.Passed() {
		t.Fatal("mismatched value must fail")
	}
}

func TestHermeticityForbiddenKeys(t *testing.T) {
	batch := []spans.Span{{
		Name:       "db.connect",
		SpanID:     "s1",
		Attributes: map[string]any{"db.connection_string": "postgres://u:p@host/db"},
	}}

	e := HermeticityExpectation{SpanAttrsForbidKeys: []string{"db.connection_string"}}
	res, _ := e.Validate(batch)
	if res.Passed() {
		t.Fatal("forbidden key present must fail")
	}
	if !strings.Contains(res.Errors[0], "db.connection_string") {
		t.Fatalf("failure should name the key: %v", res.Errors)
	}

	// The same span passes once the key is no longer forbidden.
	e = HermeticityExpectation{SpanAttrsForbidKeys: []string{"aws.secret_key"}}
	res, _ = e.Validate(batch)
	if !res.Passed() {
		t.Fatalf("unlisted key must pass: %v", res.Errors)
	}
}

func TestHermeticityAccumulatesAllViolations(t *testing.T) {
	e := HermeticityExpectation{
		NoExternalServices:     true,
		ResourceAttrsMustMatch: map[string]string{"service.name": "x"},
		SpanAttrsForbidKeys:    []string{"secret"},
	}
	batch := []spans.Span{{
		Name:   "leak",
		SpanID: "s1",
		Attributes: map[string]any{
			"net.peer.name": "evil.example.com",
			"secret":        "hunter2",
		},
	}}

	res, _ := e.Validate(batch)
	if len(res.Errors) != 3 {
		t.Fatalf("expected all three breaches reported, got %v", res.Errors)
	}
}

func TestIsInternalEndpoint(t *testing.T) {
	for _, v := range []string{
		"localhost", "localhost:5432", "127.0.0.1", "127.0.0.53:53",
		"http://localhost:8080/path", "::1", "cache.internal", "db.local",
	} {
		if !isInternalEndpoint(v) {
			t.Fatalf("%q should be internal", v)
		}
	}
	for _, v := range []string{
		"external.service.com", "https://api.example.com/v1", "10.0.0.1",
	} {
		if isInternalEndpoint(v) {
			t.Fatalf("%q should be external", v)
		}
	}
}
