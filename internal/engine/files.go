package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	"github.com/xkilldash9x/codescalpel/internal/safefile"
)

// candidate is a file selected for scanning.
type candidate struct {
	abs  string // path under the root as walked
	rel  string // slash separated, relative to the root
	kind core.FileKind
	size int64
}

// ignored reports whether rel matches any user ignore glob.
func (s *Scanner) ignored(rel string) bool {
	for _, p := range s.cfg.Ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// excludedDir reports whether a directory base name is excluded by default.
func (s *Scanner) excludedDir(name string) bool {
	for _, ex := range s.cfg.DefaultExcludes {
		if name == ex {
			return true
		}
	}
	return false
}

// enumerate walks root and returns the files to scan in lexical order.
// Unreadable entries, files of unknown kind, files over the size cap and
// anything resolving outside root are skipped.
func (s *Scanner) enumerate(ctx context.Context, root string) ([]candidate, error) {
	var out []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Debug("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel := filepath.ToSlash(relPath)

		if d.IsDir() {
			if s.excludedDir(d.Name()) || s.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.ignored(rel) {
			return nil
		}
		kind := core.KindForPath(path)
		if kind == core.KindOther {
			return nil
		}

		resolved, err := safefile.Resolve(root, path)
		if err != nil {
			s.logger.Debug("Skipping file outside the scan root", zap.String("file", rel))
			return nil
		}
		info, err := os.Stat(resolved)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if info.Size() > s.cfg.MaxFileBytes {
			s.logger.Debug("Skipping oversized file", zap.String("file", rel), zap.Int64("bytes", info.Size()))
			return nil
		}

		out = append(out, candidate{abs: path, rel: rel, kind: kind, size: info.Size()})
		return nil
	})
	return out, err
}
