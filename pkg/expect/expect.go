// Validation orchestrator
// Runs every configured validator over one batch and aggregates a report
package expect

import (
	"fmt"
	"strings"

	"github.com/andrewh/tracecheck/pkg/spans"
)

// Expectations aggregates the built-in validation stages. Unconfigured
// stages contribute nothing to the report.
type Expectations struct {
	Graph       *GraphExpectation
	Counts      *CountExpectation
	Windows     []WindowExpectation
	Hermeticity *HermeticityExpectation
}

// ValidateAll runs the configured stages in fixed order (graph, counts,
// one stage per window, hermeticity) and aggregates one report. It never
// stops at a failing stage: a single run surfaces every independent
// problem. A stage's configuration error becomes that stage's failure;
// the remaining stages still run.
func (e *Expectations) ValidateAll(batch []spans.Span) Report {
	var report Report

	if e.Graph != nil {
		runStage(&report, "graph_topology", e.Graph, batch)
	}
	if e.Counts != nil {
		runStage(&report, "span_counts", e.Counts, batch)
	}
	for i := range e.Windows {
		name := fmt.Sprintf("window_%d_outer_%s", i, e.Windows[i].Outer)
		runStage(&report, name, &e.Windows[i], batch)
	}
	if e.Hermeticity != nil {
		runStage(&report, "hermeticity", e.Hermeticity, batch)
	}

	return report
}

// ValidateStrict is the fail-fast entry point: it collapses a failing
// report into a single error carrying the failure count and the first
// message.
func (e *Expectations) ValidateStrict(batch []spans.Span) error {
	report := e.ValidateAll(batch)
	if report.IsSuccess() {
		return nil
	}
	return fmt.Errorf("validation failed with %d failure(s), first: %s",
		report.FailureCount(), report.FirstError())
}

// Validator is the contract every expectation satisfies: a side-effect
// free check of one behavioral property over a batch. The error return
// is reserved for configuration problems.
type Validator interface {
	Validate(batch []spans.Span) (Result, error)
}

// runStage executes one validator and records exactly one pass or one
// failure under the stage name.
func runStage(report *Report, name string, v Validator, batch []spans.Span) {
	res, err := v.Validate(batch)
	if err != nil {
		report.AddFailure(name, fmt.Sprintf("configuration error: %v", err))
		return
	}
	if res.Passed() {
		report.AddPass(name)
		return
	}
	report.AddFailure(name, strings.Join(res.Errors, "; "))
}
