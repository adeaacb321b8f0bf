package schemas

import "time"

// SeveritySummary counts the findings of a scan by severity.
type SeveritySummary struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// Add counts one finding of the given severity.
func (s *SeveritySummary) Add(sev Severity) {
	switch sev {
	case SeverityCritical:
		s.Critical++
	case SeverityWarning:
		s.Warning++
	case SeverityInfo:
		s.Info++
	}
	s.Total++
}

// ParseStats records what happened when the orchestrator tried to build a
// syntax tree for each scanned file.
type ParseStats struct {
	Parsed       int `json:"parsed"`
	Failed       int `json:"failed"`
	NotAttempted int `json:"not_attempted"`
}

// ScanResult is the single output of one scan invocation.
type ScanResult struct {
	Version        string           `json:"version"`
	ScanID         string           `json:"scan_id"`
	Root           string           `json:"root"`
	FilesScanned   int              `json:"files_scanned"`
	Duration       time.Duration    `json:"duration_ns"`
	Findings       []Finding        `json:"findings"`
	Score          int              `json:"score"`
	Grade          string           `json:"grade"`
	CategoryScores map[Category]int `json:"category_scores"`
	Summary        SeveritySummary  `json:"summary"`
	Parse          ParseStats       `json:"parse"`
}

// HasFindingsAtOrAbove reports whether any finding meets the severity threshold.
func (r *ScanResult) HasFindingsAtOrAbove(threshold Severity) bool {
	for _, f := range r.Findings {
		if f.Severity.AtLeast(threshold) {
			return true
		}
	}
	return false
}
