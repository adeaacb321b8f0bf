// internal/analysis/core/source.go
package core

import (
	"path/filepath"
	"strings"

	"github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// FileKind is the tag derived from a file's extension.
type FileKind string

const (
	KindJavaScript FileKind = "javascript"
	KindJSX        FileKind = "jsx"
	KindTypeScript FileKind = "typescript"
	KindTSX        FileKind = "tsx"
	KindJSON       FileKind = "json"
	KindEnv        FileKind = "env"
	KindYAML       FileKind = "yaml"
	KindHTML       FileKind = "html"
	KindVue        FileKind = "vue"
	KindSvelte     FileKind = "svelte"
	KindOther      FileKind = "other"
)

// CodeKinds are the kinds most rules target.
var CodeKinds = []FileKind{KindJavaScript, KindJSX, KindTypeScript, KindTSX}

var kindByExt = map[string]FileKind{
	".js":     KindJavaScript,
	".mjs":    KindJavaScript,
	".cjs":    KindJavaScript,
	".jsx":    KindJSX,
	".ts":     KindTypeScript,
	".mts":    KindTypeScript,
	".cts":    KindTypeScript,
	".tsx":    KindTSX,
	".json":   KindJSON,
	".yaml":   KindYAML,
	".yml":    KindYAML,
	".html":   KindHTML,
	".htm":    KindHTML,
	".vue":    KindVue,
	".svelte": KindSvelte,
}

// KindForPath derives the file kind from a path. ".env" and ".env.*" files
// are KindEnv regardless of their suffix.
func KindForPath(path string) FileKind {
	base := filepath.Base(path)
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return KindEnv
	}
	if k, ok := kindByExt[strings.ToLower(filepath.Ext(base))]; ok {
		return k
	}
	return KindOther
}

// Parseable reports whether files of this kind get a syntax tree.
func (k FileKind) Parseable() bool {
	switch k {
	case KindJavaScript, KindJSX, KindTypeScript, KindTSX:
		return true
	}
	return false
}

// IsCode reports whether the kind is a script kind.
func (k FileKind) IsCode() bool { return k.Parseable() }

// SplitLines splits text on CRLF, LF and lone CR. A trailing newline does not
// produce an extra empty line; empty text yields a single empty line.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) || len(lines) == 0 {
		lines = append(lines, text[start:])
	}
	return lines
}

// SourceFile is one scanned file. It is immutable once built.
type SourceFile struct {
	Path       string
	RelPath    string
	Text       string
	Lines      []string
	Kind       FileKind
	CommentMap []bool
	Parse      javascript.ParseResult
}

// NewSourceFile splits text into lines and builds the comment map. The parse
// result is supplied by the caller; pass javascript.NotAttempted() for kinds
// that are not parsed.
func NewSourceFile(abs, rel, text string, parse javascript.ParseResult) *SourceFile {
	lines := SplitLines(text)
	return &SourceFile{
		Path:       abs,
		RelPath:    filepath.ToSlash(rel),
		Text:       text,
		Lines:      lines,
		Kind:       KindForPath(abs),
		CommentMap: BuildCommentMap(lines),
		Parse:      parse,
	}
}

// Tree returns the syntax tree or nil when the file was not parsed.
func (f *SourceFile) Tree() *javascript.Tree {
	if f.Parse.Status != javascript.ParseOK {
		return nil
	}
	return f.Parse.Tree
}

// IsComment reports whether the 0-based line is a comment line.
func (f *SourceFile) IsComment(i int) bool {
	return IsCommentLine(f.Lines, i, f.CommentMap)
}

// IsSuppressed reports whether findings of ruleID on the 0-based line are suppressed.
func (f *SourceFile) IsSuppressed(i int, ruleID string) bool {
	return IsLineSuppressed(f.Lines, i, ruleID)
}
