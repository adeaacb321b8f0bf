package rules

import (
	"regexp"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
)

type placeholderPattern struct {
	re      *regexp.Regexp
	message string
}

// placeholderPatterns match stubs that generated code leaves behind. They are
// matched on every line, comments included, because most of them are comments.
var placeholderPatterns = []placeholderPattern{
	{regexp.MustCompile(`(?i)//\s*\.\.\.\s*(?:rest of|existing|remaining|other)\b`), "Elided code left as a comment"},
	{regexp.MustCompile(`(?i)(?://|/\*|\*)\s*(?:your|add your|insert|put your)\s+(?:code|logic|implementation)\s+here`), "Placeholder comment instead of an implementation"},
	{regexp.MustCompile(`(?i)(?://|/\*|\*)\s*(?:implementation|logic|code)\s+(?:goes\s+)?here\b`), "Placeholder comment instead of an implementation"},
	{regexp.MustCompile(`(?i)(?://|/\*|\*)\s*(?:implement|todo:?\s*implement)\s+(?:this|me|later)\b`), "Unimplemented stub"},
	{regexp.MustCompile(`(?i)throw\s+new\s+Error\s*\(\s*['"` + "`" + `]\s*not\s+(?:yet\s+)?implemented`), "Function throws 'not implemented'"},
	{regexp.MustCompile(`(?i)\blorem ipsum\b`), "Placeholder text"},
	{regexp.MustCompile(`['"` + "`" + `](?:YOUR_[A-Z_]+|REPLACE_ME|CHANGEME|xxx+)['"` + "`" + `]`), "Placeholder value"},
}

// PlaceholderCode flags stubs and elisions left by code generators.
type PlaceholderCode struct {
	core.BaseRule
}

// NewPlaceholderCode creates the placeholder-code rule.
func NewPlaceholderCode() *PlaceholderCode {
	return &PlaceholderCode{
		BaseRule: core.NewBaseRule("placeholder-code", "Placeholder code",
			"Detects stubs, elided sections and placeholder values left in source.",
			schemas.CategoryAIQuality, schemas.SeverityWarning,
			append(append([]core.FileKind{}, core.CodeKinds...), core.KindVue, core.KindSvelte, core.KindHTML)...,
		).WithRemediation("Replace the placeholder with a real implementation or remove it."),
	}
}

func (r *PlaceholderCode) Check(file *core.SourceFile, _ *core.ProjectContext) []schemas.Finding {
	var out []schemas.Finding
	for i, line := range file.Lines {
		for _, p := range placeholderPatterns {
			if loc := p.re.FindStringIndex(line); loc != nil {
				out = append(out, r.Finding(file, i, loc[0], p.message))
				break
			}
		}
	}
	return out
}
