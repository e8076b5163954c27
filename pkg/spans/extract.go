// Span extraction from process output
// Pulls span records out of mixed log text and structured trace exports
package spans

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// Format identifies the input trace format.
type Format string

const (
	// FormatAuto inspects the input to determine the format.
	FormatAuto Format = "auto"
	// FormatLines is line-delimited span JSON interleaved with free-text
	// log lines, as produced by a stdout span exporter inside a test
	// process. Non-span lines are ignored.
	FormatLines Format = "lines"
	// FormatStdouttrace is the Go SDK's stdouttrace JSON output.
	FormatStdouttrace Format = "stdouttrace"
	// FormatOTLP is an OTLP protobuf-JSON trace export document.
	FormatOTLP Format = "otlp"
)

// maxInputSize is the maximum input size to prevent OOM on large trace exports.
const maxInputSize = 256 * 1024 * 1024 // 256 MB

// Extract reads span records from r in the given format.
// FormatAuto distinguishes a single OTLP document from line-delimited
// input; line-delimited input may freely mix flat span objects, Go SDK
// stdouttrace objects, and non-JSON log lines.
func Extract(r io.Reader, format Format) ([]Span, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("input exceeds maximum size of %d MB", maxInputSize/(1024*1024))
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no spans found in input")
	}

	if format == FormatAuto {
		format = detectFormat(data)
	}

	switch format {
	case FormatLines, FormatStdouttrace:
		return extractLines(data, format)
	case FormatOTLP:
		return extractOTLP(data)
	default:
		return nil, fmt.Errorf("unknown format %q, valid formats: auto, lines, stdouttrace, otlp", format)
	}
}

// detectFormat examines the input. A document whose top-level JSON object
// has resourceSpans is OTLP; everything else is treated as line-delimited.
func detectFormat(data []byte) Format {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		if _, ok := probe["resourceSpans"]; ok {
			return FormatOTLP
		}
	}
	return FormatLines
}

// extractLines scans line-delimited input. In FormatLines mode lines that
// are not recognisable span objects are skipped silently (they are log
// output); in FormatStdouttrace mode an unparsable line is an error.
func extractLines(data []byte, format Format) ([]Span, error) {
	var out []Span
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var probe map[string]json.RawMessage
		if err := json.Unmarshal(line, &probe); err != nil {
			if format == FormatStdouttrace {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue // free-text log line
		}

		switch {
		case probe["SpanContext"] != nil:
			span, err := parseStdouttraceLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			out = append(out, span)
		case probe["name"] != nil && probe["trace_id"] != nil && probe["span_id"] != nil:
			span, err := parseFlatLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			out = append(out, span)
		default:
			// Valid JSON but not a span object; ignore.
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no spans found in input")
	}
	return out, nil
}

// flatSpan mirrors the flat JSON span shape emitted by stdout span
// exporters: snake_case fields, timestamps as numbers or decimal strings,
// kind as a name or OTLP integer, events as names or {name} objects.
type flatSpan struct {
	Name               string            `json:"name"`
	TraceID            string            `json:"trace_id"`
	SpanID             string            `json:"span_id"`
	ParentSpanID       *string           `json:"parent_span_id"`
	StartTimeUnixNano  json.RawMessage   `json:"start_time_unix_nano"`
	EndTimeUnixNano    json.RawMessage   `json:"end_time_unix_nano"`
	Kind               json.RawMessage   `json:"kind"`
	Attributes         map[string]any    `json:"attributes"`
	ResourceAttributes map[string]any    `json:"resource_attributes"`
	Events             []json.RawMessage `json:"events"`
}

func parseFlatLine(line []byte) (Span, error) {
	var raw flatSpan
	if err := json.Unmarshal(line, &raw); err != nil {
		return Span{}, err
	}

	span := Span{
		Name:               raw.Name,
		TraceID:            raw.TraceID,
		SpanID:             raw.SpanID,
		Attributes:         raw.Attributes,
		ResourceAttributes: raw.ResourceAttributes,
		StartTimeUnixNano:  parseNanos(raw.StartTimeUnixNano),
		EndTimeUnixNano:    parseNanos(raw.EndTimeUnixNano),
	}
	if raw.ParentSpanID != nil {
		span.ParentSpanID = *raw.ParentSpanID
	}

	if len(raw.Kind) > 0 {
		var name string
		var otlp int32
		if err := json.Unmarshal(raw.Kind, &name); err == nil {
			if k, kerr := ParseKind(name); kerr == nil {
				span.Kind = k
			}
		} else if err := json.Unmarshal(raw.Kind, &otlp); err == nil {
			if k, kerr := KindFromOTLP(otlp); kerr == nil {
				span.Kind = k
			}
		}
	}

	for _, ev := range raw.Events {
		var name string
		if err := json.Unmarshal(ev, &name); err == nil {
			span.Events = append(span.Events, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(ev, &obj); err == nil && obj.Name != "" {
			span.Events = append(span.Events, obj.Name)
		}
	}

	return span, nil
}

// parseNanos accepts a nanosecond timestamp as either a JSON number or a
// decimal string. Malformed or absent values stay absent.
func parseNanos(raw json.RawMessage) *uint64 {
	if len(raw) == 0 {
		return nil
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, perr := strconv.ParseUint(s, 10, 64); perr == nil {
			return &v
		}
	}
	return nil
}

// stdouttraceEvent mirrors the Go SDK's stdouttrace JSON output.
type stdouttraceEvent struct {
	Name        string `json:"Name"`
	SpanContext struct {
		TraceID string `json:"TraceID"`
		SpanID  string `json:"SpanID"`
	} `json:"SpanContext"`
	Parent struct {
		SpanID string `json:"SpanID"`
	} `json:"Parent"`
	SpanKind   int       `json:"SpanKind"`
	StartTime  time.Time `json:"StartTime"`
	EndTime    time.Time `json:"EndTime"`
	Attributes []sdkAttr `json:"Attributes"`
	Events     []struct {
		Name string `json:"Name"`
	} `json:"Events"`
	Status struct {
		Code string `json:"Code"`
	} `json:"Status"`
	Resource []sdkAttr `json:"Resource"`
}

type sdkAttr struct {
	Key   string `json:"Key"`
	Value struct {
		Type  string `json:"Type"`
		Value any    `json:"Value"`
	} `json:"Value"`
}

func parseStdouttraceLine(line []byte) (Span, error) {
	var evt stdouttraceEvent
	if err := json.Unmarshal(line, &evt); err != nil {
		return Span{}, err
	}

	span := Span{
		Name:    evt.Name,
		TraceID: evt.SpanContext.TraceID,
		SpanID:  evt.SpanContext.SpanID,
	}
	if !isZeroID(evt.Parent.SpanID) {
		span.ParentSpanID = evt.Parent.SpanID
	}
	if k, err := KindFromOTLP(int32(evt.SpanKind)); err == nil {
		span.Kind = k
	}
	if !evt.StartTime.IsZero() {
		span.StartTimeUnixNano = uint64Ptr(uint64(evt.StartTime.UnixNano())) //nolint:gosec // nanosecond timestamps are always positive
	}
	if !evt.EndTime.IsZero() {
		span.EndTimeUnixNano = uint64Ptr(uint64(evt.EndTime.UnixNano())) //nolint:gosec // nanosecond timestamps are always positive
	}

	span.Attributes = make(map[string]any, len(evt.Attributes)+1)
	for _, attr := range evt.Attributes {
		span.Attributes[attr.Key] = attr.Value.Value
	}
	switch evt.Status.Code {
	case "Ok":
		span.Attributes[statusAttrKey] = string(StatusOK)
	case "Error":
		span.Attributes[statusAttrKey] = string(StatusError)
	}

	if len(evt.Resource) > 0 {
		span.ResourceAttributes = make(map[string]any, len(evt.Resource))
		for _, attr := range evt.Resource {
			span.ResourceAttributes[attr.Key] = attr.Value.Value
		}
	}

	for _, ev := range evt.Events {
		span.Events = append(span.Events, ev.Name)
	}

	return span, nil
}

func extractOTLP(data []byte) ([]Span, error) {
	var req coltracepb.ExportTraceServiceRequest
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing OTLP: %w", err)
	}

	var out []Span
	for _, rs := range req.ResourceSpans {
		resAttrs := make(map[string]any)
		for _, attr := range rs.Resource.GetAttributes() {
			resAttrs[attr.Key] = anyValue(attr.Value)
		}

		for _, ss := range rs.ScopeSpans {
			for _, pb := range ss.Spans {
				span := Span{
					Name:               pb.Name,
					TraceID:            hex.EncodeToString(pb.TraceId),
					SpanID:             hex.EncodeToString(pb.SpanId),
					ResourceAttributes: resAttrs,
				}
				if pb.StartTimeUnixNano != 0 {
					span.StartTimeUnixNano = uint64Ptr(pb.StartTimeUnixNano)
				}
				if pb.EndTimeUnixNano != 0 {
					span.EndTimeUnixNano = uint64Ptr(pb.EndTimeUnixNano)
				}
				if parentID := hex.EncodeToString(pb.ParentSpanId); !isZeroID(parentID) && len(pb.ParentSpanId) > 0 {
					span.ParentSpanID = parentID
				}
				if k, err := KindFromOTLP(int32(pb.Kind)); err == nil {
					span.Kind = k
				}

				span.Attributes = make(map[string]any, len(pb.Attributes)+1)
				for _, attr := range pb.Attributes {
					span.Attributes[attr.Key] = anyValue(attr.Value)
				}
				switch pb.GetStatus().GetCode() {
				case tracepb.Status_STATUS_CODE_OK:
					span.Attributes[statusAttrKey] = string(StatusOK)
				case tracepb.Status_STATUS_CODE_ERROR:
					span.Attributes[statusAttrKey] = string(StatusError)
				}

				for _, ev := range pb.Events {
					span.Events = append(span.Events, ev.Name)
				}

				out = append(out, span)
			}
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no spans found in input")
	}
	return out, nil
}

// anyValue converts an OTLP AnyValue to a plain Go value.
func anyValue(v *commonpb.AnyValue) any {
	switch val := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return val.StringValue
	case *commonpb.AnyValue_BoolValue:
		return val.BoolValue
	case *commonpb.AnyValue_IntValue:
		return val.IntValue
	case *commonpb.AnyValue_DoubleValue:
		return val.DoubleValue
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isZeroID checks if a hex-encoded ID is all zeros.
func isZeroID(id string) bool {
	for _, c := range id {
		if c != '0' {
			return false
		}
	}
	return len(id) > 0
}

func uint64Ptr(v uint64) *uint64 { return &v }
