// internal/reporting/sarif_reporter.go
package reporting

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	"github.com/xkilldash9x/codescalpel/internal/observability"
)

// Tool identification in the SARIF report.
const (
	ToolName    = "codescalpel"
	ToolInfoURI = "https://github.com/xkilldash9x/codescalpel"
	// SourceRootID is the uriBaseId every artifact location is relative to.
	SourceRootID = "%SRCROOT%"
)

// SARIFReporter collects scan results into a single SARIF 2.1.0 run and
// writes it on Close.
type SARIFReporter struct {
	writer  io.WriteCloser
	logger  *zap.Logger
	version string
	catalog Catalog
	run     *sarif.Run
	known   map[string]bool
}

// NewSARIFReporter creates a reporter that owns writer. Every rule in the
// catalog is declared in the run, whether or not it produced results.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string, catalog Catalog) *SARIFReporter {
	run := sarif.NewRunWithInformationURI(ToolName, ToolInfoURI)
	run.Tool.Driver.Version = &toolVersion

	r := &SARIFReporter{
		writer:  writer,
		logger:  observability.GetLogger().Named("sarif_reporter"),
		version: toolVersion,
		catalog: catalog,
		run:     run,
		known:   make(map[string]bool),
	}
	for _, rule := range catalog.Rules {
		r.declare(rule)
	}
	return r
}

// declare adds a rule descriptor for a registered rule.
func (r *SARIFReporter) declare(rule core.Rule) {
	tags := []string{string(rule.Category())}
	props := sarif.Properties{
		"category":          string(rule.Category()),
		"security-severity": securitySeverity(rule.Severity()),
	}

	descriptor := r.run.AddRule(rule.ID()).
		WithName(rule.Name()).
		WithDescription(rule.Description()).
		WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel(level(rule.Severity())))

	if cwe := r.cweForRule(rule.ID()); cwe != "" {
		tags = append(tags, cwe)
		if entry := r.catalog.CWE.Describe(cwe); entry != nil {
			descriptor.WithFullDescription(sarif.NewMultiformatMessageString(entry.Name))
			if u := entry.URL(); u != "" {
				descriptor.WithHelpURI(u)
			}
		}
	}
	if rem, ok := rule.(interface{ Remediation() string }); ok && rem.Remediation() != "" {
		descriptor.WithHelp(sarif.NewMultiformatMessageString(rem.Remediation()))
	}
	props["tags"] = tags
	descriptor.WithProperties(props)
	r.known[rule.ID()] = true
}

// cweForRule finds the CWE of a rule through the catalogue, if any.
func (r *SARIFReporter) cweForRule(ruleID string) string {
	if r.catalog.CWE == nil {
		return ""
	}
	return r.catalog.CWE.CWEForRule(ruleID)
}

// Write converts the findings of result into SARIF results.
func (r *SARIFReporter) Write(result *schemas.ScanResult) error {
	for _, f := range result.Findings {
		if !r.known[f.RuleID] {
			r.run.AddRule(f.RuleID).
				WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel(level(f.Severity)))
			r.known[f.RuleID] = true
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.File).WithUriBaseId(SourceRootID)).
				WithRegion(sarif.NewRegion().WithStartLine(f.Line).WithStartColumn(f.Column)),
		)
		res := sarif.NewRuleResult(f.RuleID).
			WithLevel(level(f.Severity)).
			WithMessage(sarif.NewTextMessage(f.Message)).
			WithLocations([]*sarif.Location{location})
		r.run.AddResult(res)
	}

	r.logger.Debug("Added findings to SARIF run",
		zap.String("scan_id", result.ScanID),
		zap.Int("findings", len(result.Findings)))
	return nil
}

// Close writes the SARIF document and closes the output. The writer is
// closed even when encoding fails.
func (r *SARIFReporter) Close() error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		_ = r.writer.Close()
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}
	report.AddRun(r.run)

	encodeErr := report.PrettyWrite(r.writer)
	closeErr := r.writer.Close()
	if encodeErr != nil {
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Debug("Wrote SARIF report",
		zap.Int("results", len(r.run.Results)),
		zap.Int("rules", len(r.run.Tool.Driver.Rules)))
	return nil
}

// level maps a severity to a SARIF result level.
func level(s schemas.Severity) string {
	switch s {
	case schemas.SeverityCritical:
		return "error"
	case schemas.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// securitySeverity is the numeric score code-scanning dashboards sort by.
func securitySeverity(s schemas.Severity) string {
	switch s {
	case schemas.SeverityCritical:
		return "9.0"
	case schemas.SeverityWarning:
		return "5.0"
	default:
		return "2.0"
	}
}
