// In-memory span capture conversion
// Bridges the otel SDK's tracetest recorder into validation span records
package spans

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// FromStubs converts recorded tracetest span stubs into validation span
// records. This lets a Go test validate the traces its own code emitted
// without serialising through an exporter.
func FromStubs(stubs tracetest.SpanStubs) []Span {
	out := make([]Span, 0, len(stubs))
	for _, stub := range stubs {
		span := Span{
			Name:    stub.Name,
			TraceID: stub.SpanContext.TraceID().String(),
			SpanID:  stub.SpanContext.SpanID().String(),
		}
		if stub.Parent.HasSpanID() {
			span.ParentSpanID = stub.Parent.SpanID().String()
		}
		if k, err := KindFromOTLP(int32(stub.SpanKind)); err == nil {
			span.Kind = k
		}
		if !stub.StartTime.IsZero() {
			span.StartTimeUnixNano = uint64Ptr(uint64(stub.StartTime.UnixNano())) //nolint:gosec // nanosecond timestamps are always positive
		}
		if !stub.EndTime.IsZero() {
			span.EndTimeUnixNano = uint64Ptr(uint64(stub.EndTime.UnixNano())) //nolint:gosec // nanosecond timestamps are always positive
		}

		span.Attributes = make(map[string]any, len(stub.Attributes)+1)
		for _, attr := range stub.Attributes {
			span.Attributes[string(attr.Key)] = attrValue(attr)
		}
		switch stub.Status.Code {
		case codes.Ok:
			span.Attributes[statusAttrKey] = string(StatusOK)
		case codes.Error:
			span.Attributes[statusAttrKey] = string(StatusError)
		}

		if stub.Resource != nil {
			attrs := stub.Resource.Attributes()
			span.ResourceAttributes = make(map[string]any, len(attrs))
			for _, attr := range attrs {
				span.ResourceAttributes[string(attr.Key)] = attrValue(attr)
			}
		}

		for _, ev := range stub.Events {
			span.Events = append(span.Events, ev.Name)
		}

		out = append(out, span)
	}
	return out
}

func attrValue(kv attribute.KeyValue) any {
	switch kv.Value.Type() {
	case attribute.STRING:
		return kv.Value.AsString()
	case attribute.BOOL:
		return kv.Value.AsBool()
	case attribute.INT64:
		return kv.Value.AsInt64()
	case attribute.FLOAT64:
		return kv.Value.AsFloat64()
	default:
		return kv.Value.Emit()
	}
}
