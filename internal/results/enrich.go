// internal/results/enrich.go
package results

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/results/providers"
)

// Enricher attaches weakness classifications to findings.
type Enricher struct {
	cweProvider providers.CWEProvider
	logger      *zap.Logger
}

// NewEnricher creates a new Enricher. A nil provider disables enrichment.
func NewEnricher(cweProvider providers.CWEProvider, logger *zap.Logger) *Enricher {
	return &Enricher{
		cweProvider: cweProvider,
		logger:      logger.Named("enricher"),
	}
}

// EnrichFinding sets the CWE of a finding from its rule when the rule did not
// set one itself.
func (e *Enricher) EnrichFinding(finding *schemas.Finding) {
	if finding.CWE != "" || e.cweProvider == nil {
		return
	}
	id, ok := e.cweProvider.ForRule(finding.RuleID)
	if !ok {
		e.logger.Debug("No CWE mapping for rule", zap.String("rule", finding.RuleID))
		return
	}
	finding.CWE = id
}

// CWEForRule returns the CWE ID a rule reports, or "".
func (e *Enricher) CWEForRule(ruleID string) string {
	if e.cweProvider == nil {
		return ""
	}
	id, _ := e.cweProvider.ForRule(ruleID)
	return id
}

// Describe returns the catalogue entry for a CWE ID, or nil without a provider.
func (e *Enricher) Describe(cweID string) *providers.CWEEntry {
	if e.cweProvider == nil || cweID == "" {
		return nil
	}
	entry, err := e.cweProvider.GetCWE(cweID)
	if err != nil {
		e.logger.Debug("Could not retrieve CWE details", zap.String("cwe_id", cweID), zap.Error(err))
		return nil
	}
	return entry
}
