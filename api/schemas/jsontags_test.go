package schemas_test

import (
	"reflect"
	"testing"

	// Third party libraries for expressive and robust assertions.
	"github.com/stretchr/testify/assert"

	// Import the package we are testing.
	"github.com/xkilldash9x/codescalpel/api/schemas"
)

// TestStructJSONTags uses reflection to verify that the `json` tags on struct fields
// are correct. This is critical for ensuring API contract stability.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:      "Finding",
			structRef: schemas.Finding{},
			expectedTags: map[string]string{
				"RuleID":      "rule_id",
				"File":        "file",
				"Line":        "line",
				"Column":      "column",
				"Message":     "message",
				"Severity":    "severity",
				"Category":    "category",
				"Remediation": "remediation,omitempty",
				"CWE":         "cwe,omitempty",
			},
		},
		{
			name:      "ScanResult",
			structRef: schemas.ScanResult{},
			expectedTags: map[string]string{
				"Version":        "version",
				"ScanID":         "scan_id",
				"Root":           "root",
				"FilesScanned":   "files_scanned",
				"Duration":       "duration_ns",
				"Findings":       "findings",
				"Score":          "score",
				"Grade":          "grade",
				"CategoryScores": "category_scores",
				"Summary":        "summary",
				"Parse":          "parse",
			},
		},
		{
			name:      "SeveritySummary",
			structRef: schemas.SeveritySummary{},
			expectedTags: map[string]string{
				"Critical": "critical",
				"Warning":  "warning",
				"Info":     "info",
				"Total":    "total",
			},
		},
		{
			name:      "ParseStats",
			structRef: schemas.ParseStats{},
			expectedTags: map[string]string{
				"Parsed":       "parsed",
				"Failed":       "failed",
				"NotAttempted": "not_attempted",
			},
		},
	}

	for _, tc := range testCases {
		// Capture the range variable to avoid issues in parallel tests.
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			structType := reflect.TypeOf(tt.structRef)
			actualTags := make(map[string]string)

			// Go through all the fields in the struct.
			for i := 0; i < structType.NumField(); i++ {
				field := structType.Field(i)
				jsonTag := field.Tag.Get("json")
				// Only add fields that actually have a json tag.
				if jsonTag != "" {
					actualTags[field.Name] = jsonTag
				}
			}

			// Verify that the collected tags match the expected ones.
			// This will also catch cases where a field is missing from expectedTags
			// or an unexpected field with a tag exists on the struct.
			assert.Equal(t, tt.expectedTags, actualTags, "JSON tags for struct %s do not match expectations", tt.name)
		})
	}
}
