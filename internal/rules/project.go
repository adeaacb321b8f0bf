package rules

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
)

// envTemplateSuffixes mark env files committed on purpose with no real values.
var envTemplateSuffixes = []string{".example", ".sample", ".template", ".dist", ".defaults"}

func isEnvTemplate(rel string) bool {
	base := strings.ToLower(path.Base(rel))
	for _, s := range envTemplateSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	return false
}

// EnvNotIgnored flags .env files that the ignore rules would let into version control.
type EnvNotIgnored struct {
	core.BaseRule
}

// NewEnvNotIgnored creates the env-not-ignored rule.
func NewEnvNotIgnored() *EnvNotIgnored {
	return &EnvNotIgnored{
		BaseRule: core.NewBaseRule("env-not-ignored", "Environment file not ignored",
			"Detects .env files that are not covered by .gitignore.",
			schemas.CategorySecurity, schemas.SeverityCritical, core.KindEnv,
		).WithRemediation("Add .env* to .gitignore and rotate any values that were committed."),
	}
}

// Check does nothing per file; the rule needs the whole project.
func (r *EnvNotIgnored) Check(*core.SourceFile, *core.ProjectContext) []schemas.Finding { return nil }

func (r *EnvNotIgnored) CheckProject(files []*core.SourceFile, project *core.ProjectContext) []schemas.Finding {
	if project != nil && project.SecretsFileIgnored {
		return nil
	}
	var out []schemas.Finding
	for _, f := range files {
		if f.Kind != core.KindEnv || isEnvTemplate(f.RelPath) {
			continue
		}
		out = append(out, r.Finding(f, 0, 0, fmt.Sprintf("%s is not listed in .gitignore", path.Base(f.RelPath))))
	}
	return out
}

// rateLimitEvidence matches limiter libraries and hand-rolled limiters.
var rateLimitEvidence = regexp.MustCompile(`(?i)\b(?:rate_?limit\w*|ratelimit\w*|limiter|throttle\w*|slowDown)\b`)

// rateLimitPackages provide request limiting middleware.
var rateLimitPackages = []string{
	"express-rate-limit", "rate-limiter-flexible", "@upstash/ratelimit", "express-slow-down",
	"@nestjs/throttler", "koa-ratelimit", "@fastify/rate-limit", "next-rate-limit", "limiter",
}

// HasRateLimitPackage reports whether any known limiter package is declared.
func HasRateLimitPackage(project *core.ProjectContext) bool {
	for _, p := range rateLimitPackages {
		if project.HasDependency(p) {
			return true
		}
	}
	return false
}

// MissingRateLimit flags projects that expose API routes without any rate limiting.
type MissingRateLimit struct {
	core.BaseRule
}

// NewMissingRateLimit creates the missing-rate-limit rule.
func NewMissingRateLimit() *MissingRateLimit {
	return &MissingRateLimit{
		BaseRule: core.NewBaseRule("missing-rate-limit", "No rate limiting",
			"Detects projects with API routes but no rate limiting middleware or library.",
			schemas.CategorySecurity, schemas.SeverityWarning, core.CodeKinds...,
		).WithRemediation("Add a rate limiter (for example express-rate-limit or @upstash/ratelimit) in front of API routes."),
	}
}

// Check does nothing per file; the rule needs the whole project.
func (r *MissingRateLimit) Check(*core.SourceFile, *core.ProjectContext) []schemas.Finding { return nil }

func (r *MissingRateLimit) CheckProject(files []*core.SourceFile, project *core.ProjectContext) []schemas.Finding {
	if project != nil && (project.HasRateLimitMiddleware || HasRateLimitPackage(project)) {
		return nil
	}

	var first *core.SourceFile
	routes := 0
	for _, f := range files {
		if !f.Kind.IsCode() {
			continue
		}
		if rateLimitEvidence.MatchString(f.Text) {
			return nil
		}
		if IsRouteFile(f.RelPath) || expressRouteText.MatchString(f.Text) {
			routes++
			if first == nil {
				first = f
			}
		}
	}
	if first == nil {
		return nil
	}
	return []schemas.Finding{r.Finding(first, 0, 0, fmt.Sprintf("%d API route file(s) and no rate limiting", routes))}
}
