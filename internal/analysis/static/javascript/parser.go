// Filename: javascript/parser.go
package javascript

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"
)

// ErrSyntax marks a source the grammar could not parse cleanly.
var ErrSyntax = errors.New("source contains syntax errors")

// ErrUnsupported marks a file name whose extension has no grammar.
var ErrUnsupported = errors.New("no grammar for file extension")

// ParseStatus is the variant tag of a ParseResult.
type ParseStatus int

const (
	// ParseNotAttempted is used for file kinds that are never parsed (json, env, markup...).
	ParseNotAttempted ParseStatus = iota
	// ParseOK carries a tree.
	ParseOK
	// ParseFailed carries the reason the tree is absent.
	ParseFailed
)

func (s ParseStatus) String() string {
	switch s {
	case ParseOK:
		return "parsed"
	case ParseFailed:
		return "failed"
	default:
		return "not-attempted"
	}
}

// ParseResult is either Parsed(tree) or Failed(reason), plus the not-attempted
// state for non-code files. Consumers switch on Status; every non-OK arm must
// take the text fallback.
type ParseResult struct {
	Status ParseStatus
	Tree   *Tree
	Reason error
}

// Parsed wraps a successfully built tree.
func Parsed(t *Tree) ParseResult { return ParseResult{Status: ParseOK, Tree: t} }

// Failed records why no tree is available.
func Failed(reason error) ParseResult { return ParseResult{Status: ParseFailed, Reason: reason} }

// NotAttempted is the result for kinds the orchestrator never parses.
func NotAttempted() ParseResult { return ParseResult{Status: ParseNotAttempted} }

// Grammar identifies the tree-sitter language used for a file.
type Grammar string

const (
	GrammarJavaScript Grammar = "javascript"
	GrammarTypeScript Grammar = "typescript"
	GrammarTSX        Grammar = "tsx"
)

// GrammarFor selects the grammar from the file name. The javascript grammar
// already accepts JSX and decorators; .tsx needs its own grammar because type
// assertions and JSX conflict.
func GrammarFor(fileName string) (Grammar, bool) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return GrammarJavaScript, true
	case ".ts", ".mts", ".cts":
		return GrammarTypeScript, true
	case ".tsx":
		return GrammarTSX, true
	default:
		return "", false
	}
}

func (g Grammar) language() *sitter.Language {
	switch g {
	case GrammarTypeScript:
		return typescript.GetLanguage()
	case GrammarTSX:
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Parser turns source text into an arena Tree. It never returns an error and
// never panics; every problem becomes a Failed result.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger.Named("js_parser")}
}

// Parse parses text using the grammar implied by fileNameHint.
func (p *Parser) Parse(ctx context.Context, text, fileNameHint string) (result ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("Parser panicked; falling back to text analysis",
				zap.String("file", fileNameHint), zap.Any("panic", r))
			result = Failed(fmt.Errorf("parser panic: %v", r))
		}
	}()

	grammar, ok := GrammarFor(fileNameHint)
	if !ok {
		return Failed(fmt.Errorf("%w: %s", ErrUnsupported, fileNameHint))
	}

	// A new parser per call keeps Parse safe for concurrent use.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar.language())

	source := []byte(text)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return Failed(fmt.Errorf("tree-sitter failed to parse %s: %w", fileNameHint, err))
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return Failed(fmt.Errorf("tree-sitter returned no root for %s", fileNameHint))
	}
	if root.HasError() {
		p.logger.Debug("Syntax errors detected; tree discarded", zap.String("file", fileNameHint))
		return Failed(fmt.Errorf("%w: %s", ErrSyntax, fileNameHint))
	}

	return Parsed(build(fileNameHint, source, root))
}
