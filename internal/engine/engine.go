package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	"github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
	"github.com/xkilldash9x/codescalpel/internal/config"
	"github.com/xkilldash9x/codescalpel/internal/discovery"
	"github.com/xkilldash9x/codescalpel/internal/results"
	"github.com/xkilldash9x/codescalpel/internal/safefile"
)

// ErrInvalidRoot is returned when the scan root does not exist or is not a
// directory. It is the only condition that stops a scan from starting.
var ErrInvalidRoot = errors.New("invalid scan root")

// Scanner runs the rule set over a directory tree. Files are processed one at
// a time; a Scanner holds no per-scan state and may be reused.
type Scanner struct {
	cfg        config.ScanConfig
	rules      []core.Rule
	parser     *javascript.Parser
	discoverer *discovery.Discoverer
	pipeline   *results.Pipeline
	version    string
	logger     *zap.Logger
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithVersion sets the tool version recorded in every result.
func WithVersion(v string) Option {
	return func(s *Scanner) { s.version = v }
}

// New creates a Scanner. Rules run in the order given.
func New(cfg config.ScanConfig, rules []core.Rule, scorer results.FindingScorer, logger *zap.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		cfg:        cfg,
		rules:      rules,
		parser:     javascript.NewParser(logger),
		discoverer: discovery.New(logger),
		pipeline:   results.NewPipeline(scorer, logger),
		version:    "dev",
		logger:     logger.Named("engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pipeline exposes the results pipeline, which reporters use to describe CWEs.
func (s *Scanner) Pipeline() *results.Pipeline { return s.pipeline }

// Scan analyzes every eligible file under root. Parse failures, unreadable
// files and missing project metadata never fail a scan; only an invalid root
// or a cancelled context do.
func (s *Scanner) Scan(ctx context.Context, root string) (*schemas.ScanResult, error) {
	start := time.Now()
	canonical, err := safefile.CanonicalRoot(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}

	scanID := uuid.NewString()
	logger := s.logger.With(zap.String("scan_id", scanID))
	logger.Info("Starting scan", zap.String("root", canonical), zap.Int("rules", len(s.rules)))

	candidates, err := s.enumerate(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("enumerating files under %s: %w", canonical, err)
	}

	// Texts are read once; discovery sniffs them before any rule runs.
	readable := make([]candidate, 0, len(candidates))
	rels := make([]string, 0, len(candidates))
	texts := make(map[string]string, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan cancelled: %w", err)
		}
		data, err := os.ReadFile(c.abs)
		if err != nil {
			logger.Debug("Skipping unreadable file", zap.String("file", c.rel), zap.Error(err))
			continue
		}
		readable = append(readable, c)
		rels = append(rels, c.rel)
		texts[c.rel] = string(data)
	}
	project := s.discoverer.DiscoverSources(canonical, rels, texts)

	var (
		stats    schemas.ParseStats
		findings []schemas.Finding
		files    = make([]*core.SourceFile, 0, len(readable))
	)
	for _, c := range readable {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan cancelled: %w", err)
		}
		file := s.load(ctx, c, texts[c.rel], logger)
		files = append(files, file)

		switch file.Parse.Status {
		case javascript.ParseOK:
			stats.Parsed++
		case javascript.ParseFailed:
			stats.Failed++
		default:
			stats.NotAttempted++
		}

		for _, r := range s.rules {
			if !core.AppliesTo(r, file.Kind) {
				continue
			}
			findings = append(findings, s.keep(file, s.check(r, file, project, logger), logger)...)
		}
	}

	byPath := make(map[string]*core.SourceFile, len(files))
	for _, f := range files {
		byPath[f.RelPath] = f
	}
	for _, r := range s.rules {
		pr, ok := r.(core.ProjectRule)
		if !ok {
			continue
		}
		for _, f := range s.checkProject(pr, files, project, logger) {
			file, known := byPath[f.File]
			if !known {
				logger.Warn("Dropping project finding for an unscanned file", zap.String("rule", f.RuleID), zap.String("file", f.File))
				continue
			}
			findings = append(findings, s.keep(file, []schemas.Finding{f}, logger)...)
		}
	}

	report := s.pipeline.Process(findings)
	result := &schemas.ScanResult{
		Version:        s.version,
		ScanID:         scanID,
		Root:           canonical,
		FilesScanned:   len(files),
		Duration:       time.Since(start),
		Findings:       report.Findings,
		Score:          report.Score,
		Grade:          report.Grade,
		CategoryScores: report.CategoryScores,
		Summary:        report.Summary,
		Parse:          stats,
	}

	logger.Info("Scan complete",
		zap.Int("files", result.FilesScanned),
		zap.Int("findings", result.Summary.Total),
		zap.Int("score", result.Score),
		zap.Int("parse_failed", stats.Failed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// load builds the SourceFile of a candidate, parsing it when the kind has a
// grammar and the file is within the parse cap.
func (s *Scanner) load(ctx context.Context, c candidate, text string, logger *zap.Logger) *core.SourceFile {
	parse := javascript.NotAttempted()
	if c.kind.Parseable() && c.size <= s.cfg.MaxParseBytes {
		parse = s.parser.Parse(ctx, text, c.rel)
		if parse.Status == javascript.ParseFailed {
			logger.Debug("Parse failed; using text detection", zap.String("file", c.rel), zap.Error(parse.Reason))
		}
	}
	return core.NewSourceFile(c.abs, c.rel, text, parse)
}

// check runs one rule against one file. A panicking rule is logged and
// contributes nothing for that file.
func (s *Scanner) check(r core.Rule, file *core.SourceFile, project *core.ProjectContext, logger *zap.Logger) (out []schemas.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("Rule panicked", zap.String("rule", r.ID()), zap.String("file", file.RelPath), zap.Any("panic", rec))
			out = nil
		}
	}()
	return r.Check(file, project)
}

func (s *Scanner) checkProject(r core.ProjectRule, files []*core.SourceFile, project *core.ProjectContext, logger *zap.Logger) (out []schemas.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("Project rule panicked", zap.String("rule", r.ID()), zap.Any("panic", rec))
			out = nil
		}
	}()
	return r.CheckProject(files, project)
}

// keep drops findings that are suppressed or point outside their file. A
// column may sit one past the end of its line.
func (s *Scanner) keep(file *core.SourceFile, findings []schemas.Finding, logger *zap.Logger) []schemas.Finding {
	out := findings[:0]
	for _, f := range findings {
		if f.Line < 1 || f.Line > len(file.Lines) || f.Column < 1 || f.Column > len(file.Lines[f.Line-1])+1 {
			logger.Warn("Dropping finding outside its file",
				zap.String("rule", f.RuleID), zap.String("file", file.RelPath),
				zap.Int("line", f.Line), zap.Int("column", f.Column))
			continue
		}
		if file.IsSuppressed(f.Line-1, f.RuleID) {
			continue
		}
		out = append(out, f)
	}
	return out
}
