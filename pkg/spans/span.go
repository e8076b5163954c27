// Normalised span records extracted from trace output
// The immutable evidence type every validator reads
package spans

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the OTel span kind.
type Kind string

const (
	KindInternal Kind = "internal"
	KindServer   Kind = "server"
	KindClient   Kind = "client"
	KindProducer Kind = "producer"
	KindConsumer Kind = "consumer"
)

// ParseKind parses a span kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindInternal, KindServer, KindClient, KindProducer, KindConsumer:
		return Kind(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("invalid span kind %q, valid kinds: internal, server, client, producer, consumer", s)
	}
}

// KindFromOTLP maps the OTLP integer encoding to a Kind.
func KindFromOTLP(i int32) (Kind, error) {
	switch i {
	case 1:
		return KindInternal, nil
	case 2:
		return KindServer, nil
	case 3:
		return KindClient, nil
	case 4:
		return KindProducer, nil
	case 5:
		return KindConsumer, nil
	default:
		return "", fmt.Errorf("invalid OTLP span kind %d", i)
	}
}

// Status is the OTel span status code.
type Status string

const (
	StatusUnset Status = "UNSET"
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// ParseStatus parses a status code name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(s)) {
	case StatusUnset, StatusOK, StatusError:
		return Status(strings.ToUpper(s)), nil
	default:
		return "", fmt.Errorf("invalid status code %q, valid codes: UNSET, OK, ERROR", s)
	}
}

// statusAttrKey is the span attribute carrying the status code.
const statusAttrKey = "otel.status_code"

// Span is one timed, named, attributed unit of work in a trace.
// A batch ([]Span) is one complete execution's evidence; names are not
// unique within a batch (retries produce duplicates). Spans are never
// mutated after construction.
type Span struct {
	Name         string
	TraceID      string
	SpanID       string
	ParentSpanID string // empty for root spans

	// Timestamps are pointers because their absence is meaningful:
	// a validator that needs timing must fail explicitly when they
	// are missing, never silently pass.
	StartTimeUnixNano *uint64
	EndTimeUnixNano   *uint64

	Kind               Kind // empty when the producer did not record one
	Attributes         map[string]any
	ResourceAttributes map[string]any
	Events             []string
}

// Duration returns the span's duration. The second return is false when
// either timestamp is missing or end precedes start.
func (s *Span) Duration() (time.Duration, bool) {
	if s.StartTimeUnixNano == nil || s.EndTimeUnixNano == nil {
		return 0, false
	}
	start, end := *s.StartTimeUnixNano, *s.EndTimeUnixNano
	if end < start {
		return 0, false
	}
	return time.Duration(end - start), true
}

// AttrString returns the string form of an attribute value, if present.
// Non-string values (numbers, bools) are not coerced.
func (s *Span) AttrString(key string) (string, bool) {
	v, ok := s.Attributes[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Status reads the span's status code from the otel.status_code
// attribute. Absent means UNSET; a present but unrecognised value is an
// error rather than a guess.
func (s *Span) Status() (Status, error) {
	v, ok := s.Attributes[statusAttrKey]
	if !ok {
		return StatusUnset, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", statusAttrKey)
	}
	return ParseStatus(str)
}

// IsError reports whether the span represents a failed operation:
// status ERROR, or a boolean error=true attribute.
func (s *Span) IsError() bool {
	if str, ok := s.AttrString(statusAttrKey); ok && strings.EqualFold(str, string(StatusError)) {
		return true
	}
	if v, ok := s.Attributes["error"]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// IsRoot reports whether the span has no parent.
func (s *Span) IsRoot() bool { return s.ParentSpanID == "" }

// ByName indexes a batch by span name. Multiple spans may share a name.
func ByName(batch []Span) map[string][]*Span {
	idx := make(map[string][]*Span, len(batch))
	for i := range batch {
		idx[batch[i].Name] = append(idx[batch[i].Name], &batch[i])
	}
	return idx
}

// ByID indexes a batch by span ID.
func ByID(batch []Span) map[string]*Span {
	idx := make(map[string]*Span, len(batch))
	for i := range batch {
		idx[batch[i].SpanID] = &batch[i]
	}
	return idx
}
