package reporting

import (
	"fmt"
	"io"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/codescalpel/api/schemas"
)

// The standard-library compatible config sorts map keys, which keeps
// category_scores stable between runs.
var jsonAPI = json.ConfigCompatibleWithStandardLibrary

// JSONReporter writes each scan result as an indented JSON document.
type JSONReporter struct {
	writer io.WriteCloser
}

// NewJSONReporter creates a reporter that owns writer.
func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: writer}
}

// Write encodes result immediately.
func (r *JSONReporter) Write(result *schemas.ScanResult) error {
	data, err := jsonAPI.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scan result: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write scan result: %w", err)
	}
	return nil
}

// Close closes the output.
func (r *JSONReporter) Close() error {
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}
