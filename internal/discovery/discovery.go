// Package discovery builds the read-only project metadata shared by all rules.
// Every source it reads is optional: a missing or malformed file leaves the
// corresponding field empty and is logged, never returned as an error.
package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	"github.com/xkilldash9x/codescalpel/internal/safefile"
)

// maxMetadataBytes caps the size of any metadata file read here.
const maxMetadataBytes = 1 << 20

// frameworkPackages maps a dependency to the framework tag it implies.
var frameworkPackages = map[string]string{
	"next":                  "nextjs",
	"express":               "express",
	"fastify":               "fastify",
	"koa":                   "koa",
	"hono":                  "hono",
	"@nestjs/core":          "nestjs",
	"@remix-run/node":       "remix",
	"@remix-run/react":      "remix",
	"nuxt":                  "nuxt",
	"@sveltejs/kit":         "sveltekit",
	"astro":                 "astro",
	"react":                 "react",
	"vue":                   "vue",
	"svelte":                "svelte",
	"@prisma/client":        "prisma",
	"drizzle-orm":           "drizzle",
	"@supabase/supabase-js": "supabase",
}

// authPackages provide authentication that usually runs as middleware.
var authPackages = []string{"next-auth", "@auth/core", "@clerk/nextjs", "@clerk/express", "passport", "express-jwt", "@kinde-oss/kinde-auth-nextjs"}

var (
	authMiddleware      = regexp.MustCompile(`(?i)\b(?:clerkMiddleware|authMiddleware|withAuth|getToken|NextAuth|auth\s*\(|passport\.authenticate|requireAuth|expressjwt|jwt\.verify|verifyToken|isAuthenticated)\b`)
	rateLimitMiddleware = regexp.MustCompile(`(?i)\b(?:rate_?limit\w*|ratelimit\w*|limiter|slowDown|throttle\w*)\b`)
	appUse              = regexp.MustCompile(`\b(?:app|router|server)\s*\.\s*(?:use|register)\s*\(([^\n]*)`)
)

// Discoverer reads project metadata relative to a root directory.
type Discoverer struct {
	logger *zap.Logger
}

// New creates a Discoverer.
func New(logger *zap.Logger) *Discoverer {
	return &Discoverer{logger: logger.Named("discovery")}
}

// Discover is shorthand for New(logger).Discover(root, paths).
func Discover(root string, paths []string, logger *zap.Logger) *core.ProjectContext {
	return New(logger).Discover(root, paths)
}

// Discover builds the project context for root. paths are the scanned files
// relative to root; they are read from disk for middleware sniffing.
func (d *Discoverer) Discover(root string, paths []string) *core.ProjectContext {
	return d.discover(root, paths, nil)
}

// DiscoverSources is Discover for files already in memory. sources maps each
// path to its content; scanned files are never read again.
func (d *Discoverer) DiscoverSources(root string, paths []string, sources map[string]string) *core.ProjectContext {
	if sources == nil {
		sources = map[string]string{}
	}
	return d.discover(root, paths, sources)
}

func (d *Discoverer) discover(root string, paths []string, sources map[string]string) *core.ProjectContext {
	if canonical, err := safefile.CanonicalRoot(root); err == nil {
		root = canonical
	} else {
		d.logger.Debug("Root could not be resolved; metadata unavailable", zap.String("root", root), zap.Error(err))
	}
	p := core.NewProjectContext(root)
	p.Files = make([]string, 0, len(paths))
	for _, rel := range paths {
		p.Files = append(p.Files, filepath.ToSlash(rel))
	}

	if m := d.readManifest(root); m != nil {
		p.Manifest = m
		for _, deps := range []map[string]string{m.Dependencies, m.DevDependencies, m.PeerDependencies, m.OptionalDependencies} {
			for name := range deps {
				p.Dependencies[name] = true
			}
		}
	}
	for dep, tag := range frameworkPackages {
		if p.Dependencies[dep] {
			p.Frameworks[tag] = true
		}
	}

	p.PathAliases = d.readAliases(root)
	p.HasAuthMiddleware, p.HasRateLimitMiddleware = d.sniffMiddleware(root, p, sources)

	if content, ok := d.readFile(root, ".gitignore"); ok {
		p.IgnoreFile = content
		p.SecretsFileIgnored = SecretsIgnored(content)
	}

	d.logger.Debug("Project metadata discovered",
		zap.String("root", root),
		zap.Bool("manifest", p.Manifest != nil),
		zap.Int("dependencies", len(p.Dependencies)),
		zap.Strings("aliases", p.PathAliases),
		zap.Bool("auth_middleware", p.HasAuthMiddleware),
		zap.Bool("rate_limit_middleware", p.HasRateLimitMiddleware),
		zap.Bool("secrets_ignored", p.SecretsFileIgnored),
	)
	return p
}

// readFile reads an optional metadata file relative to the canonical root.
// Files that resolve outside the root are never read.
func (d *Discoverer) readFile(root, rel string) (string, bool) {
	full, err := safefile.ResolveRel(root, rel)
	if err != nil {
		if errors.Is(err, safefile.ErrOutsideRoot) {
			d.logger.Warn("Metadata file resolves outside the root; ignored", zap.String("file", rel))
		}
		return "", false
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	if info.Size() > maxMetadataBytes {
		d.logger.Debug("Metadata file too large; ignored", zap.String("file", rel), zap.Int64("size", info.Size()))
		return "", false
	}
	data, err := os.ReadFile(full)
	if err != nil {
		d.logger.Debug("Metadata file unreadable; ignored", zap.String("file", rel), zap.Error(err))
		return "", false
	}
	return string(data), true
}

func (d *Discoverer) readManifest(root string) *core.Manifest {
	content, ok := d.readFile(root, "package.json")
	if !ok {
		return nil
	}
	var m core.Manifest
	if err := json.UnmarshalFromString(content, &m); err != nil {
		d.logger.Warn("package.json is malformed; dependency checks disabled", zap.Error(err))
		return nil
	}
	return &m
}

type tsconfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// readAliases collects import prefixes from tsconfig.json or jsconfig.json
// "paths": "@/*" becomes "@/", "~lib" stays "~lib".
func (d *Discoverer) readAliases(root string) []string {
	seen := map[string]bool{}
	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		content, ok := d.readFile(root, name)
		if !ok {
			continue
		}
		var cfg tsconfig
		if err := json.UnmarshalFromString(StripJSONC(content), &cfg); err != nil {
			d.logger.Debug("Config has no readable paths", zap.String("file", name), zap.Error(err))
			continue
		}
		for pattern := range cfg.CompilerOptions.Paths {
			if prefix := strings.TrimSuffix(pattern, "*"); prefix != "" {
				seen[prefix] = true
			}
		}
	}
	aliases := make([]string, 0, len(seen))
	for a := range seen {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}

// middlewareFiles are the conventional locations of Next.js middleware.
var middlewareFiles = []string{"middleware.ts", "middleware.js", "src/middleware.ts", "src/middleware.js"}

// sniffMiddleware looks for authentication and rate limiting applied to every
// request: a Next.js middleware module or an app.use(...) registration. With
// sources set, scanned files are taken from it instead of the disk.
func (d *Discoverer) sniffMiddleware(root string, p *core.ProjectContext, sources map[string]string) (auth, rateLimit bool) {
	read := func(rel string) (string, bool) {
		if sources == nil {
			return d.readFile(root, rel)
		}
		content, ok := sources[rel]
		return content, ok
	}

	var texts []string
	for _, rel := range middlewareFiles {
		content, ok := sources[rel]
		if !ok {
			content, ok = d.readFile(root, rel)
		}
		if ok {
			texts = append(texts, content)
		}
	}
	for _, rel := range p.Files {
		if !core.KindForPath(rel).Parseable() || isMiddlewarePath(rel) {
			continue
		}
		content, ok := read(rel)
		if !ok {
			continue
		}
		for _, m := range appUse.FindAllStringSubmatch(content, -1) {
			texts = append(texts, m[1])
		}
	}

	for _, text := range texts {
		auth = auth || authMiddleware.MatchString(text)
		rateLimit = rateLimit || rateLimitMiddleware.MatchString(text)
	}
	if !auth && len(texts) > 0 {
		for _, pkg := range authPackages {
			if p.Dependencies[pkg] && strings.Contains(strings.Join(texts, "\n"), pkg) {
				auth = true
				break
			}
		}
	}
	return auth, rateLimit
}

func isMiddlewarePath(rel string) bool {
	for _, m := range middlewareFiles {
		if rel == m {
			return true
		}
	}
	return false
}

// SecretsIgnored reports whether the .gitignore content covers .env. Patterns
// follow git semantics, so a later "!.env" re-includes the file.
func SecretsIgnored(content string) bool {
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(trimmed, nil))
	}
	if len(patterns) == 0 {
		return false
	}
	return gitignore.NewMatcher(patterns).Match([]string{".env"}, false)
}
