// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	"github.com/xkilldash9x/codescalpel/internal/results/providers"
)

// Reporter writes scan results to an output.
type Reporter interface {
	// Write records one scan result.
	Write(result *schemas.ScanResult) error
	// Close flushes the report and closes the underlying output.
	Close() error
}

// CWEDescriber maps rules to CWE IDs and looks up catalogue entries.
type CWEDescriber interface {
	CWEForRule(ruleID string) string
	Describe(cweID string) *providers.CWEEntry
}

// Catalog is the rule metadata some formats embed in the report.
type Catalog struct {
	Rules []core.Rule
	CWE   CWEDescriber
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// Formats lists the supported output formats.
var Formats = []string{"json", "sarif"}

// New creates a reporter for format writing to outputPath, or to stdout when
// outputPath is empty or "stdout".
func New(format, outputPath, toolVersion string, catalog Catalog) (Reporter, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	if outputPath == "" || outputPath == "stdout" {
		return NewForWriter(format, os.Stdout, toolVersion, catalog)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	return build(format, f, toolVersion, catalog), nil
}

// NewForWriter creates a reporter for format on a writer the caller keeps
// ownership of; Close flushes but does not close it.
func NewForWriter(format string, w io.Writer, toolVersion string, catalog Catalog) (Reporter, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	return build(format, &nopWriteCloser{w}, toolVersion, catalog), nil
}

func checkFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %s", format)
}

func build(format string, w io.WriteCloser, toolVersion string, catalog Catalog) Reporter {
	if format == "sarif" {
		return NewSARIFReporter(w, toolVersion, catalog)
	}
	return NewJSONReporter(w)
}
