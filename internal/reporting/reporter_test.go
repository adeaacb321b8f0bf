// internal/reporting/reporter_test.go
package reporting_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/reporting"
	"github.com/xkilldash9x/codescalpel/internal/results"
	"github.com/xkilldash9x/codescalpel/internal/results/providers"
	"github.com/xkilldash9x/codescalpel/internal/rules"
)

// MockWriteCloser captures output and can simulate I/O errors.
type MockWriteCloser struct {
	Buffer    *bytes.Buffer
	FailWrite bool
	FailClose bool
	Closed    bool
}

func (m *MockWriteCloser) Write(p []byte) (int, error) {
	if m.FailWrite {
		return 0, errors.New("simulated write error")
	}
	return m.Buffer.Write(p)
}

func (m *MockWriteCloser) Close() error {
	m.Closed = true
	if m.FailClose {
		return errors.New("simulated close error")
	}
	return nil
}

// sarifLog is the subset of the SARIF schema the tests inspect.
type sarifLog struct {
	Version string `json:"version"`
	Runs    []struct {
		Tool struct {
			Driver struct {
				Name    string `json:"name"`
				Version string `json:"version"`
				Rules   []struct {
					ID                   string `json:"id"`
					Name                 string `json:"name"`
					HelpURI              string `json:"helpUri"`
					DefaultConfiguration struct {
						Level string `json:"level"`
					} `json:"defaultConfiguration"`
					Properties map[string]interface{} `json:"properties"`
				} `json:"rules"`
			} `json:"driver"`
		} `json:"tool"`
		Results []struct {
			RuleID  string `json:"ruleId"`
			Level   string `json:"level"`
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
			Locations []struct {
				PhysicalLocation struct {
					ArtifactLocation struct {
						URI       string `json:"uri"`
						URIBaseID string `json:"uriBaseId"`
					} `json:"artifactLocation"`
					Region struct {
						StartLine   int `json:"startLine"`
						StartColumn int `json:"startColumn"`
					} `json:"region"`
				} `json:"physicalLocation"`
			} `json:"locations"`
		} `json:"results"`
	} `json:"runs"`
}

func sampleResult() *schemas.ScanResult {
	return &schemas.ScanResult{
		Version:      "v1.2.3-test",
		ScanID:       "scan-1",
		Root:         "/repo",
		FilesScanned: 2,
		Findings: []schemas.Finding{
			{RuleID: "ssrf", File: "src/proxy.js", Line: 2, Column: 9, Message: "fetch with user-controlled URL", Severity: schemas.SeverityCritical, Category: schemas.CategorySecurity, CWE: "CWE-918"},
			{RuleID: "console-log", File: "src/app.ts", Line: 7, Column: 3, Message: "console.log left in code", Severity: schemas.SeverityInfo, Category: schemas.CategoryAIQuality},
		},
		Score: 90,
		Grade: "A",
		CategoryScores: map[schemas.Category]int{
			schemas.CategorySecurity:    75,
			schemas.CategoryReliability: 100,
			schemas.CategoryPerformance: 100,
			schemas.CategoryAIQuality:   97,
		},
		Summary: schemas.SeveritySummary{Critical: 1, Info: 1, Total: 2},
		Parse:   schemas.ParseStats{Parsed: 2},
	}
}

func catalog(t *testing.T) reporting.Catalog {
	t.Helper()
	return reporting.Catalog{
		Rules: rules.Default(),
		CWE:   results.NewEnricher(providers.NewInMemoryCWEProvider(), zaptest.NewLogger(t)),
	}
}

func TestNew(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		r, err := reporting.New("xml", "", "dev", reporting.Catalog{})
		require.Error(t, err)
		assert.Nil(t, r)
		assert.Contains(t, err.Error(), "unsupported output format: xml")
	})

	t.Run("stdout is not closed", func(t *testing.T) {
		r, err := reporting.New("json", "stdout", "dev", reporting.Catalog{})
		require.NoError(t, err)
		assert.IsType(t, &reporting.JSONReporter{}, r)
		assert.NoError(t, r.Close())
	})

	t.Run("caller owned writer", func(t *testing.T) {
		var buf bytes.Buffer
		r, err := reporting.NewForWriter("sarif", &buf, "dev", reporting.Catalog{})
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Contains(t, buf.String(), `"version": "2.1.0"`)

		_, err = reporting.NewForWriter("txt", &buf, "dev", reporting.Catalog{})
		assert.Error(t, err)
	})

	t.Run("unwritable path", func(t *testing.T) {
		_, err := reporting.New("json", filepath.Join(t.TempDir(), "missing", "out.json"), "dev", reporting.Catalog{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create output file")
	})

	for _, format := range reporting.Formats {
		format := format
		t.Run("file "+format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "report."+format)
			r, err := reporting.New(format, path, "dev", catalog(t))
			require.NoError(t, err)
			require.NoError(t, r.Write(sampleResult()))
			require.NoError(t, r.Close())

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, json.Valid(data), "output should be valid JSON")
		})
	}
}

func TestJSONReporter(t *testing.T) {
	writer := &MockWriteCloser{Buffer: new(bytes.Buffer)}
	r := reporting.NewJSONReporter(writer)

	require.NoError(t, r.Write(sampleResult()))
	require.NoError(t, r.Close())
	assert.True(t, writer.Closed)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(writer.Buffer.Bytes(), &got))
	assert.Equal(t, "scan-1", got["scan_id"])
	assert.EqualValues(t, 90, got["score"])
	assert.Equal(t, "A", got["grade"])

	findings, ok := got["findings"].([]interface{})
	require.True(t, ok)
	require.Len(t, findings, 2)
	first := findings[0].(map[string]interface{})
	assert.Equal(t, "ssrf", first["rule_id"])
	assert.Equal(t, "CWE-918", first["cwe"])
	_, hasCWE := findings[1].(map[string]interface{})["cwe"]
	assert.False(t, hasCWE, "empty CWE is omitted")

	// Category keys come out sorted so repeated runs diff cleanly.
	out := writer.Buffer.String()
	assert.Less(t, bytes.Index([]byte(out), []byte(`"ai-quality"`)), bytes.Index([]byte(out), []byte(`"security"`)))
}

func TestJSONReporter_Errors(t *testing.T) {
	t.Run("write", func(t *testing.T) {
		r := reporting.NewJSONReporter(&MockWriteCloser{Buffer: new(bytes.Buffer), FailWrite: true})
		err := r.Write(sampleResult())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write scan result")
	})
	t.Run("close", func(t *testing.T) {
		r := reporting.NewJSONReporter(&MockWriteCloser{Buffer: new(bytes.Buffer), FailClose: true})
		err := r.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated close error")
	})
}

func decodeSARIF(t *testing.T, data []byte) sarifLog {
	t.Helper()
	var log sarifLog
	require.NoError(t, json.Unmarshal(data, &log), "output should be valid SARIF JSON")
	require.Len(t, log.Runs, 1)
	return log
}

func TestSARIFReporter_Empty(t *testing.T) {
	writer := &MockWriteCloser{Buffer: new(bytes.Buffer)}
	r := reporting.NewSARIFReporter(writer, "v1.2.3-test", reporting.Catalog{})
	require.NoError(t, r.Close())
	assert.True(t, writer.Closed)

	log := decodeSARIF(t, writer.Buffer.Bytes())
	assert.Equal(t, "2.1.0", log.Version)
	driver := log.Runs[0].Tool.Driver
	assert.Equal(t, reporting.ToolName, driver.Name)
	assert.Equal(t, "v1.2.3-test", driver.Version)
	assert.Empty(t, driver.Rules)
	assert.Empty(t, log.Runs[0].Results)
}

func TestSARIFReporter_WriteAndClose(t *testing.T) {
	writer := &MockWriteCloser{Buffer: new(bytes.Buffer)}
	r := reporting.NewSARIFReporter(writer, "v1.2.3-test", catalog(t))

	require.NoError(t, r.Write(sampleResult()))
	require.NoError(t, r.Close())

	log := decodeSARIF(t, writer.Buffer.Bytes())
	run := log.Runs[0]

	// Every registered rule is declared even without results.
	require.Len(t, run.Tool.Driver.Rules, len(rules.Default()))
	byID := make(map[string]int)
	for i, rule := range run.Tool.Driver.Rules {
		byID[rule.ID] = i
	}

	ssrf := run.Tool.Driver.Rules[byID["ssrf"]]
	assert.Equal(t, "error", ssrf.DefaultConfiguration.Level)
	assert.Equal(t, "https://cwe.mitre.org/data/definitions/918.html", ssrf.HelpURI)
	assert.Equal(t, "security", ssrf.Properties["category"])
	assert.Equal(t, "9.0", ssrf.Properties["security-severity"])
	assert.ElementsMatch(t, []interface{}{"security", "CWE-918"}, ssrf.Properties["tags"])

	consoleLog := run.Tool.Driver.Rules[byID["console-log"]]
	assert.Equal(t, "note", consoleLog.DefaultConfiguration.Level)

	require.Len(t, run.Results, 2)
	first := run.Results[0]
	assert.Equal(t, "ssrf", first.RuleID)
	assert.Equal(t, "error", first.Level)
	assert.Equal(t, "fetch with user-controlled URL", first.Message.Text)
	require.Len(t, first.Locations, 1)
	loc := first.Locations[0].PhysicalLocation
	assert.Equal(t, "src/proxy.js", loc.ArtifactLocation.URI)
	assert.Equal(t, reporting.SourceRootID, loc.ArtifactLocation.URIBaseID)
	assert.Equal(t, 2, loc.Region.StartLine)
	assert.Equal(t, 9, loc.Region.StartColumn)

	assert.Equal(t, "note", run.Results[1].Level)
}

func TestSARIFReporter_UnknownRule(t *testing.T) {
	writer := &MockWriteCloser{Buffer: new(bytes.Buffer)}
	r := reporting.NewSARIFReporter(writer, "dev", reporting.Catalog{})

	result := sampleResult()
	result.Findings = result.Findings[:1]
	result.Findings[0].RuleID = "custom-rule"
	result.Findings[0].Severity = schemas.SeverityWarning
	require.NoError(t, r.Write(result))
	require.NoError(t, r.Close())

	run := decodeSARIF(t, writer.Buffer.Bytes()).Runs[0]
	require.Len(t, run.Tool.Driver.Rules, 1)
	assert.Equal(t, "custom-rule", run.Tool.Driver.Rules[0].ID)
	assert.Equal(t, "warning", run.Tool.Driver.Rules[0].DefaultConfiguration.Level)
	require.Len(t, run.Results, 1)
	assert.Equal(t, "warning", run.Results[0].Level)
}

func TestSARIFReporter_CloseErrors(t *testing.T) {
	t.Run("write", func(t *testing.T) {
		writer := &MockWriteCloser{Buffer: new(bytes.Buffer), FailWrite: true}
		err := reporting.NewSARIFReporter(writer, "dev", reporting.Catalog{}).Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to encode SARIF output")
		assert.True(t, writer.Closed, "writer is closed even when encoding fails")
	})
	t.Run("close", func(t *testing.T) {
		writer := &MockWriteCloser{Buffer: new(bytes.Buffer), FailClose: true}
		err := reporting.NewSARIFReporter(writer, "dev", reporting.Catalog{}).Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to close output writer")
	})
}
