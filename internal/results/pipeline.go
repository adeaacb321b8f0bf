// File: internal/results/pipeline.go
package results

import (
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/results/providers"
)

// FindingScorer is the part of a scorer the pipeline needs.
type FindingScorer interface {
	Score(findings []schemas.Finding) (overall int, perCategory map[schemas.Category]int)
	Ceiling() int
}

// Pipeline turns the raw findings of a scan into the reported set.
type Pipeline struct {
	scorer   FindingScorer
	enricher *Enricher
	logger   *zap.Logger
}

// NewPipeline creates a results pipeline around a scorer.
func NewPipeline(scorer FindingScorer, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		scorer:   scorer,
		enricher: NewEnricher(providers.NewInMemoryCWEProvider(), logger),
		logger:   logger.Named("results_pipeline"),
	}
}

// Enricher exposes the pipeline's enricher so reporters can describe CWEs.
func (p *Pipeline) Enricher() *Enricher { return p.enricher }

// Report is the processed outcome of a scan.
type Report struct {
	Findings       []schemas.Finding
	Summary        schemas.SeveritySummary
	Score          int
	Grade          string
	CategoryScores map[schemas.Category]int
}

// Process validates, enriches, orders, summarizes and scores findings. The
// input slice is not modified.
func (p *Pipeline) Process(raw []schemas.Finding) *Report {
	// 1. Validation
	findings := make([]schemas.Finding, 0, len(raw))
	for _, f := range raw {
		if err := Validate(f); err != nil {
			p.logger.Warn("Dropping malformed finding", zap.String("rule", f.RuleID), zap.Error(err))
			continue
		}
		findings = append(findings, f)
	}

	// 2. Enrichment
	for i := range findings {
		p.enricher.EnrichFinding(&findings[i])
	}

	// 3. Prioritization
	Prioritize(findings)

	// 4. Aggregation
	report := &Report{Findings: findings, Summary: Summarize(findings)}

	// 5. Scoring
	report.Score, report.CategoryScores = p.scorer.Score(findings)
	report.Grade = Grade(report.Score, p.scorer.Ceiling())

	p.logger.Debug("Results processing complete",
		zap.Int("findings", len(findings)),
		zap.Int("dropped", len(raw)-len(findings)),
		zap.Int("score", report.Score))
	return report
}

// Prioritize sorts findings most severe first, then by location and rule so
// the output is stable across runs.
func Prioritize(findings []schemas.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleID < b.RuleID
	})
}

// Summarize counts findings by severity.
func Summarize(findings []schemas.Finding) schemas.SeveritySummary {
	var s schemas.SeveritySummary
	for _, f := range findings {
		s.Add(f.Severity)
	}
	return s
}
