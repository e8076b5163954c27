// JUnit XML report rendering
package report

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/andrewh/tracecheck/pkg/expect"
)

type junitSuite struct {
	XMLName  xml.Name    `xml:"testsuite"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// renderJUnit writes one testcase per validation stage. The xml encoder
// handles escaping of messages.
func renderJUnit(w io.Writer, r *expect.Report) error {
	suite := junitSuite{
		Name:     "tracecheck",
		Tests:    r.PassCount() + r.FailureCount(),
		Failures: r.FailureCount(),
	}
	for _, name := range r.Passes {
		suite.Cases = append(suite.Cases, junitCase{Name: name, ClassName: "tracecheck"})
	}
	for _, f := range r.Failures {
		suite.Cases = append(suite.Cases, junitCase{
			Name:      f.Name,
			ClassName: "tracecheck",
			Failure: &junitFailure{
				Message: f.Message,
				Type:    "ValidationFailure",
				Body:    f.Message,
			},
		})
	}

	if _, err := fmt.Fprint(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(suite); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
