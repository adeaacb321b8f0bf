// internal/results/scorer.go
package results

import (
	"math"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/config"
)

// Scorer rates findings per category on a 0..ceiling scale.
//
// In simple mode every finding costs its severity penalty and the overall
// score is the plain mean of the category scores. Weighted mode prices at
// most DuplicateCap findings per rule and severity, softens deductions past
// the diminishing thresholds, and weights categories when averaging.
type Scorer struct {
	mode       string
	ceiling    float64
	penalties  map[schemas.Severity]float64
	weights    map[schemas.Category]float64
	dupCap     int
	thresholds []float64
	factors    []float64
}

// NewScorer builds a scorer from validated scoring settings.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	s := &Scorer{
		mode:       cfg.Mode,
		ceiling:    float64(cfg.Ceiling),
		penalties:  make(map[schemas.Severity]float64, len(schemas.Severities)),
		weights:    make(map[schemas.Category]float64, len(schemas.Categories)),
		dupCap:     cfg.DuplicateCap,
		thresholds: cfg.Diminishing.Thresholds,
		factors:    cfg.Diminishing.Factors,
	}
	for _, sev := range schemas.Severities {
		s.penalties[sev] = float64(cfg.Penalties[string(sev)])
	}
	for _, cat := range schemas.Categories {
		s.weights[cat] = cfg.Weights[string(cat)]
	}
	return s
}

// Mode reports the scoring mode in use.
func (s *Scorer) Mode() string { return s.mode }

// Ceiling is the score of a category without findings.
func (s *Scorer) Ceiling() int { return int(s.ceiling) }

// Score returns the overall score and one score per category. Every category
// is present in the map; categories without findings score the ceiling.
// Findings with an unknown category or severity are not priced.
func (s *Scorer) Score(findings []schemas.Finding) (int, map[schemas.Category]int) {
	var exact map[schemas.Category]float64
	if s.mode == config.ScoringWeighted {
		exact = s.weightedCategories(findings)
	} else {
		exact = s.simpleCategories(findings)
	}

	perCategory := make(map[schemas.Category]int, len(exact))
	for cat, v := range exact {
		perCategory[cat] = int(math.Round(v))
	}

	if s.mode == config.ScoringWeighted {
		var sum, total float64
		for _, cat := range schemas.Categories {
			sum += s.weights[cat] * exact[cat]
			total += s.weights[cat]
		}
		if total == 0 {
			return int(math.Round(s.ceiling)), perCategory
		}
		return int(math.Round(sum / total)), perCategory
	}

	var sum float64
	for _, cat := range schemas.Categories {
		sum += float64(perCategory[cat])
	}
	return int(math.Round(sum / float64(len(schemas.Categories)))), perCategory
}

func (s *Scorer) simpleCategories(findings []schemas.Finding) map[schemas.Category]float64 {
	deductions := make(map[schemas.Category]float64, len(schemas.Categories))
	for _, f := range findings {
		if !f.Category.Valid() {
			continue
		}
		deductions[f.Category] += s.penalties[f.Severity]
	}
	return s.apply(deductions)
}

type ruleSeverity struct {
	rule     string
	severity schemas.Severity
}

func (s *Scorer) weightedCategories(findings []schemas.Finding) map[schemas.Category]float64 {
	seen := make(map[ruleSeverity]int)
	deductions := make(map[schemas.Category]float64, len(schemas.Categories))
	for _, f := range findings {
		if !f.Category.Valid() || !f.Severity.Valid() {
			continue
		}
		key := ruleSeverity{f.RuleID, f.Severity}
		if seen[key] >= s.dupCap {
			continue
		}
		seen[key]++
		deductions[f.Category] += s.penalties[f.Severity]
	}
	for cat, d := range deductions {
		deductions[cat] = s.diminish(d)
	}
	return s.apply(deductions)
}

// diminish maps a raw deduction onto the curve: the part above thresholds[i]
// is multiplied by factors[i] (up to the next threshold).
func (s *Scorer) diminish(raw float64) float64 {
	if len(s.thresholds) == 0 || raw <= s.thresholds[0] {
		return raw
	}
	out := s.thresholds[0]
	for i, lo := range s.thresholds {
		hi := math.Inf(1)
		if i+1 < len(s.thresholds) {
			hi = s.thresholds[i+1]
		}
		if raw <= lo {
			break
		}
		out += (math.Min(raw, hi) - lo) * s.factors[i]
	}
	return out
}

// apply subtracts deductions from the ceiling, flooring at zero.
func (s *Scorer) apply(deductions map[schemas.Category]float64) map[schemas.Category]float64 {
	out := make(map[schemas.Category]float64, len(schemas.Categories))
	for _, cat := range schemas.Categories {
		out[cat] = math.Max(0, s.ceiling-deductions[cat])
	}
	return out
}

// Grade converts an overall score into a letter grade.
func Grade(score, ceiling int) string {
	if ceiling <= 0 {
		ceiling = 100
	}
	pct := float64(score) * 100 / float64(ceiling)
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}
