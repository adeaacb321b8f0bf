package core

import (
	"github.com/xkilldash9x/codescalpel/api/schemas"
)

// Rule is the contract every detector implements. Rules are stateless: the
// result of Check depends only on its arguments, and nothing is carried from
// one file to the next.
type Rule interface {
	ID() string
	Name() string
	Description() string
	Category() schemas.Category
	Severity() schemas.Severity
	// FileKinds lists the kinds the rule applies to. Empty means every kind.
	FileKinds() []FileKind
	Check(file *SourceFile, project *ProjectContext) []schemas.Finding
}

// ProjectRule is implemented by rules that also inspect the whole file set
// once per scan.
type ProjectRule interface {
	Rule
	CheckProject(files []*SourceFile, project *ProjectContext) []schemas.Finding
}

// AppliesTo reports whether rule r should run against a file of the given kind.
func AppliesTo(r Rule, kind FileKind) bool {
	kinds := r.FileKinds()
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// BaseRule carries the identity fields shared by all rules. It is intended to
// be embedded by concrete rules, which then only supply Check.
type BaseRule struct {
	id          string
	name        string
	description string
	category    schemas.Category
	severity    schemas.Severity
	kinds       []FileKind
	remediation string
}

// NewBaseRule creates the embedded identity of a rule.
func NewBaseRule(id, name, description string, category schemas.Category, severity schemas.Severity, kinds ...FileKind) BaseRule {
	return BaseRule{
		id:          id,
		name:        name,
		description: description,
		category:    category,
		severity:    severity,
		kinds:       kinds,
	}
}

// WithRemediation attaches the default remediation text for findings of this rule.
func (b BaseRule) WithRemediation(text string) BaseRule {
	b.remediation = text
	return b
}

func (b BaseRule) ID() string                 { return b.id }
func (b BaseRule) Name() string               { return b.name }
func (b BaseRule) Description() string        { return b.description }
func (b BaseRule) Category() schemas.Category { return b.category }
func (b BaseRule) Severity() schemas.Severity { return b.severity }
func (b BaseRule) FileKinds() []FileKind      { return b.kinds }
func (b BaseRule) Remediation() string        { return b.remediation }

// Finding builds a finding for this rule at a 0-based line and column of file.
func (b BaseRule) Finding(file *SourceFile, line, column int, message string) schemas.Finding {
	return schemas.Finding{
		RuleID:      b.id,
		File:        file.RelPath,
		Line:        line + 1,
		Column:      column + 1,
		Message:     message,
		Severity:    b.severity,
		Category:    b.category,
		Remediation: b.remediation,
	}
}
