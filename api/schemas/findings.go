package schemas

import (
	"fmt"
	"strings"
)

// -- Finding Schemas --

// Severity represents how urgently a finding needs attention. The values are
// lowercase to align with the serialized report and database columns.
type Severity string

// The enumerated severities, ordered critical > warning > info. The scorer
// prices each of them, so adding a new one requires changing the scorer.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityWarning, SeverityInfo}

// Rank orders severities so that a higher rank is more severe. Unknown values rank zero.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the enumerated severities.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// AtLeast reports whether s is as severe as, or more severe than, threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s.Valid() && s.Rank() >= threshold.Rank()
}

// ParseSeverity converts user input (flags, config) into a Severity.
func ParseSeverity(v string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q (want critical, warning or info)", v)
	}
	return s, nil
}

// Category groups findings into the areas the scorer rates independently.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryReliability Category = "reliability"
	CategoryPerformance Category = "performance"
	CategoryAIQuality   Category = "ai-quality"
)

// Categories lists every category in report order.
var Categories = []Category{CategorySecurity, CategoryReliability, CategoryPerformance, CategoryAIQuality}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Finding is one reported defect. It is a value type: rules create it and
// nothing mutates it afterwards. Line and Column are 1-based and always point
// inside the lines of File.
type Finding struct {
	RuleID      string   `json:"rule_id"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Column      int      `json:"column"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Remediation string   `json:"remediation,omitempty"`
	// CWE is filled in by the results pipeline from the rule's mapping.
	CWE string `json:"cwe,omitempty"`
}

// Location renders the finding position as file:line:column.
func (f Finding) Location() string {
	return fmt.Sprintf("%s:%d:%d", f.File, f.Line, f.Column)
}
