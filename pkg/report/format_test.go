// Tests for report rendering
package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/andrewh/tracecheck/pkg/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *expect.Report {
	var r expect.Report
	r.AddPass("graph_topology")
	r.AddPass("span_counts")
	r.AddFailure("hermeticity", `span "fetch": attribute "net.peer.name" = external.com indicates an external service call`)
	return &r
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"human", "json", "junit", "tap"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, Format(name), f)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatJSON))

	var out struct {
		Success      bool `json:"success"`
		PassCount    int  `json:"pass_count"`
		FailureCount int  `json:"failure_count"`
		Passes       []string
		Failures     []expect.Failure
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.False(t, out.Success)
	assert.Equal(t, 2, out.PassCount)
	assert.Equal(t, 1, out.FailureCount)
	assert.Equal(t, []string{"graph_topology", "span_counts"}, out.Passes)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "hermeticity", out.Failures[0].Name)
}

func TestRenderJSONEmptyReportHasArrays(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &expect.Report{}, FormatJSON))
	s := buf.String()
	assert.Contains(t, s, `"passes": []`)
	assert.Contains(t, s, `"failures": []`)
	assert.NotContains(t, s, "null")
}

func TestRenderJUnit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatJUnit))
	s := buf.String()

	assert.Contains(t, s, `<testsuite name="tracecheck" tests="3" failures="1">`)
	assert.Contains(t, s, `<testcase name="graph_topology" classname="tracecheck">`)
	assert.Contains(t, s, `type="ValidationFailure"`)
	// Quotes in the message must be escaped attribute-safely.
	assert.Contains(t, s, "&#34;fetch&#34;")

	var suite struct {
		XMLName  xml.Name `xml:"testsuite"`
		Tests    int      `xml:"tests,attr"`
		Failures int      `xml:"failures,attr"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes()[len(xml.Header):], &suite))
	assert.Equal(t, 3, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
}

func TestRenderTAP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatTAP))
	lines := strings.Split(buf.String(), "\n")

	assert.Equal(t, "TAP version 13", lines[0])
	assert.Equal(t, "1..3", lines[1])
	assert.Equal(t, "ok 1 - graph_topology", lines[2])
	assert.Equal(t, "ok 2 - span_counts", lines[3])
	assert.Equal(t, "not ok 3 - hermeticity", lines[4])
	assert.Contains(t, buf.String(), "  message: |-")
	assert.Contains(t, buf.String(), "  severity: fail")
}

func TestRenderHuman(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatHuman))
	s := buf.String()

	assert.Contains(t, s, "PASS")
	assert.Contains(t, s, "FAIL")
	assert.Contains(t, s, "hermeticity")
	assert.Contains(t, s, "✗ 2 passed, 1 failed")

	buf.Reset()
	var ok expect.Report
	ok.AddPass("graph_topology")
	require.NoError(t, Render(&buf, &ok, FormatHuman))
	assert.Contains(t, buf.String(), "✓ All 1 validations passed")
}
