// Expectation document loading
// Parses the declarative [expect.*] schema from TOML or YAML files
package expect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrewh/tracecheck/pkg/spans"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Suite is a fully loaded expectation document: the orchestrated stages
// plus the standalone per-span, order, and status validators composed
// around them.
type Suite struct {
	Spans        []SpanExpectation
	Order        *OrderExpectation
	Status       *StatusExpectation
	Expectations Expectations
}

// Validate runs the whole suite over one batch: per-span expectations
// first, then the orchestrated stages, then ordering and status.
func (s *Suite) Validate(batch []spans.Span) Report {
	var report Report

	for i := range s.Spans {
		runStage(&report, "span_"+s.Spans[i].Name, &s.Spans[i], batch)
	}

	report.merge(s.Expectations.ValidateAll(batch))

	if s.Order != nil {
		runStage(&report, "span_order", s.Order, batch)
	}
	if s.Status != nil {
		runStage(&report, "span_status", s.Status, batch)
	}

	return report
}

// Load reads an expectation document from a TOML (default) or YAML file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied file path is expected
	if err != nil {
		return nil, fmt.Errorf("reading expectations: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseTOML(data)
	}
}

// ParseTOML parses a TOML expectation document.
func ParseTOML(data []byte) (*Suite, error) {
	var raw rawDoc
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing expectations: %w", err)
	}
	return raw.normalize()
}

// ParseYAML parses a YAML expectation document with the same shape as
// the TOML schema.
func ParseYAML(data []byte) (*Suite, error) {
	var raw rawDoc
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing expectations: %w", err)
	}
	return raw.normalize()
}

// Raw document shapes. Field names mirror the schema exactly; unknown
// fields are tolerated, structural mistakes are configuration errors.

type rawDoc struct {
	Expect rawExpect `toml:"expect" yaml:"expect"`
}

type rawExpect struct {
	Span        []rawSpan       `toml:"span" yaml:"span"`
	Graph       *rawGraph       `toml:"graph" yaml:"graph"`
	Counts      *rawCounts      `toml:"counts" yaml:"counts"`
	Window      []rawWindow     `toml:"window" yaml:"window"`
	Order       *rawOrder       `toml:"order" yaml:"order"`
	Status      *rawStatus      `toml:"status" yaml:"status"`
	Hermeticity *rawHermeticity `toml:"hermeticity" yaml:"hermeticity"`
}

type rawSpan struct {
	Name   string `toml:"name" yaml:"name"`
	Parent string `toml:"parent" yaml:"parent"`
	Kind   string `toml:"kind" yaml:"kind"`
	Attrs  struct {
		All map[string]string `toml:"all" yaml:"all"`
		Any []string          `toml:"any" yaml:"any"`
	} `toml:"attrs" yaml:"attrs"`
	Events struct {
		Any []string `toml:"any" yaml:"any"`
		All []string `toml:"all" yaml:"all"`
	} `toml:"events" yaml:"events"`
	DurationMS *DurationBound `toml:"duration_ms" yaml:"duration_ms"`
}

type rawGraph struct {
	MustInclude  [][]string `toml:"must_include" yaml:"must_include"`
	MustNotCross [][]string `toml:"must_not_cross" yaml:"must_not_cross"`
	Acyclic      bool       `toml:"acyclic" yaml:"acyclic"`
}

type rawBound struct {
	Gte *int `toml:"gte" yaml:"gte"`
	Lte *int `toml:"lte" yaml:"lte"`
	Eq  *int `toml:"eq" yaml:"eq"`
}

type rawCounts struct {
	SpansTotal  *rawBound           `toml:"spans_total" yaml:"spans_total"`
	EventsTotal *rawBound           `toml:"events_total" yaml:"events_total"`
	ErrorsTotal *rawBound           `toml:"errors_total" yaml:"errors_total"`
	ByName      map[string]rawBound `toml:"by_name" yaml:"by_name"`
}

type rawWindow struct {
	Outer    string   `toml:"outer" yaml:"outer"`
	Contains []string `toml:"contains" yaml:"contains"`
}

type rawOrder struct {
	MustPrecede [][]string `toml:"must_precede" yaml:"must_precede"`
	MustFollow  [][]string `toml:"must_follow" yaml:"must_follow"`
	Strict      bool       `toml:"strict" yaml:"strict"`
}

type rawStatus struct {
	All    *string           `toml:"all" yaml:"all"`
	ByName map[string]string `toml:"by_name" yaml:"by_name"`
}

type rawHermeticity struct {
	NoExternalServices     bool              `toml:"no_external_services" yaml:"no_external_services"`
	ResourceAttrsMustMatch map[string]string `toml:"resource_attrs_must_match" yaml:"resource_attrs_must_match"`
	SpanAttrsForbidKeys    []string          `toml:"span_attrs_forbid_keys" yaml:"span_attrs_forbid_keys"`
}

func (d *rawDoc) normalize() (*Suite, error) {
	suite := &Suite{}

	for i, rs := range d.Expect.Span {
		if rs.Name == "" {
			return nil, fmt.Errorf("expect.span[%d]: name is required", i)
		}
		exp := SpanExpectation{
			Name:       rs.Name,
			Parent:     rs.Parent,
			AttrsAll:   rs.Attrs.All,
			AttrsAny:   rs.Attrs.Any,
			EventsAny:  rs.Events.Any,
			EventsAll:  rs.Events.All,
			DurationMS: rs.DurationMS,
		}
		if rs.Kind != "" {
			kind, err := spans.ParseKind(rs.Kind)
			if err != nil {
				return nil, fmt.Errorf("expect.span[%d] (%s): %w", i, rs.Name, err)
			}
			exp.Kind = kind
		}
		suite.Spans = append(suite.Spans, exp)
	}

	if g := d.Expect.Graph; g != nil {
		include, err := toEdges(g.MustInclude, "expect.graph.must_include")
		if err != nil {
			return nil, err
		}
		cross, err := toEdges(g.MustNotCross, "expect.graph.must_not_cross")
		if err != nil {
			return nil, err
		}
		suite.Expectations.Graph = &GraphExpectation{
			MustInclude:  include,
			MustNotCross: cross,
			Acyclic:      g.Acyclic,
		}
	}

	if c := d.Expect.Counts; c != nil {
		counts := &CountExpectation{
			SpansTotal:  toBound(c.SpansTotal),
			EventsTotal: toBound(c.EventsTotal),
			ErrorsTotal: toBound(c.ErrorsTotal),
		}
		if len(c.ByName) > 0 {
			counts.ByName = make(map[string]CountBound, len(c.ByName))
			for name, b := range c.ByName {
				counts.ByName[name] = CountBound{Gte: b.Gte, Lte: b.Lte, Eq: b.Eq}
			}
		}
		suite.Expectations.Counts = counts
	}

	for i, w := range d.Expect.Window {
		if w.Outer == "" {
			return nil, fmt.Errorf("expect.window[%d]: outer is required", i)
		}
		if len(w.Contains) == 0 {
			return nil, fmt.Errorf("expect.window[%d] (%s): contains must not be empty", i, w.Outer)
		}
		suite.Expectations.Windows = append(suite.Expectations.Windows, WindowExpectation{
			Outer:    w.Outer,
			Contains: w.Contains,
		})
	}

	if o := d.Expect.Order; o != nil {
		precede, err := toEdges(o.MustPrecede, "expect.order.must_precede")
		if err != nil {
			return nil, err
		}
		follow, err := toEdges(o.MustFollow, "expect.order.must_follow")
		if err != nil {
			return nil, err
		}
		suite.Order = &OrderExpectation{
			MustPrecede: precede,
			MustFollow:  follow,
			Strict:      o.Strict,
		}
	}

	if st := d.Expect.Status; st != nil {
		status := &StatusExpectation{}
		if st.All != nil {
			code, err := spans.ParseStatus(*st.All)
			if err != nil {
				return nil, fmt.Errorf("expect.status.all: %w", err)
			}
			status.All = &code
		}
		if len(st.ByName) > 0 {
			status.ByName = make(map[string]spans.Status, len(st.ByName))
			for pattern, v := range st.ByName {
				code, err := spans.ParseStatus(v)
				if err != nil {
					return nil, fmt.Errorf("expect.status.by_name[%s]: %w", pattern, err)
				}
				status.ByName[pattern] = code
			}
		}
		suite.Status = status
	}

	if h := d.Expect.Hermeticity; h != nil {
		suite.Expectations.Hermeticity = &HermeticityExpectation{
			NoExternalServices:     h.NoExternalServices,
			ResourceAttrsMustMatch: h.ResourceAttrsMustMatch,
			SpanAttrsForbidKeys:    h.SpanAttrsForbidKeys,
		}
	}

	return suite, nil
}

func toEdges(pairs [][]string, field string) ([][2]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make([][2]string, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("%s[%d]: expected a [first, second] pair, got %d element(s)", field, i, len(p))
		}
		if p[0] == "" || p[1] == "" {
			return nil, fmt.Errorf("%s[%d]: names must not be empty", field, i)
		}
		out = append(out, [2]string{p[0], p[1]})
	}
	return out, nil
}

func toBound(b *rawBound) *CountBound {
	if b == nil {
		return nil
	}
	return &CountBound{Gte: b.Gte, Lte: b.Lte, Eq: b.Eq}
}
