// Hermeticity validation
// Checks that the traced execution stayed inside its isolated environment
package expect

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/andrewh/tracecheck/pkg/spans"
)

// externalServiceKeys are attribute keys that conventionally mark an
// outbound network call.
var externalServiceKeys = []string{
	"http.host",
	"http.url",
	"net.peer.ip",
	"net.peer.name",
	"net.sock.peer.addr",
	"peer.service",
	"rpc.service",
}

// HermeticityExpectation declares three independent isolation checks:
// no outbound-call attributes pointing off-host, required resource
// attribute values on every span, and attribute keys that must never
// appear.
type HermeticityExpectation struct {
	NoExternalServices     bool
	ResourceAttrsMustMatch map[string]string
	SpanAttrsForbidKeys    []string
}

// Validate runs every configured check and accumulates all violations,
// so one run reports every breach.
func (e *HermeticityExpectation) Validate(batch []spans.Span) (Result, error) {
	var res Result

	if e.NoExternalServices {
		for i := range batch {
			s := &batch[i]
			for _, key := range externalServiceKeys {
				v, ok := s.Attributes[key]
				if !ok {
					continue
				}
				if str, isStr := v.(string); isStr && isInternalEndpoint(str) {
					continue
				}
				res.failf("span %q: attribute %q = %v indicates an external service call", s.Name, key, v)
			}
		}
	}

	if len(e.ResourceAttrsMustMatch) > 0 {
		keys := slices.Sorted(maps.Keys(e.ResourceAttrsMustMatch))
		for i := range batch {
			s := &batch[i]
			for _, key := range keys {
				want := e.ResourceAttrsMustMatch[key]
				v, ok := s.ResourceAttributes[key]
				if !ok {
					res.failf("span %q: resource attribute %q not found", s.Name, key)
					continue
				}
				if got := fmt.Sprintf("%v", v); got != want {
					res.failf("span %q: resource attribute %q = %q, expected %q", s.Name, key, got, want)
				}
			}
		}
	}

	for i := range batch {
		s := &batch[i]
		for _, key := range e.SpanAttrsForbidKeys {
			if _, ok := s.Attributes[key]; ok {
				res.failf("span %q: forbidden attribute %q present", s.Name, key)
			}
		}
	}

	return res, nil
}

// isInternalEndpoint reports whether an endpoint value stays on the
// local host or inside the test network.
func isInternalEndpoint(v string) bool {
	host := v
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 && !strings.Contains(host, "]") {
		// Strip a port, but not from a bare IPv6 literal.
		if !strings.Contains(host[:i], ":") {
			host = host[:i]
		}
	}
	host = strings.Trim(host, "[]")

	switch host {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0", "::":
		return true
	}
	return strings.HasPrefix(host, "127.") ||
		strings.HasSuffix(host, ".local") ||
		strings.HasSuffix(host, ".internal")
}
