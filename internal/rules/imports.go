package rules

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
	js "github.com/xkilldash9x/codescalpel/internal/analysis/static/javascript"
)

// nodeBuiltins are importable without a dependency.
var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true, "cluster": true,
	"console": true, "constants": true, "crypto": true, "dgram": true, "diagnostics_channel": true,
	"dns": true, "domain": true, "events": true, "fs": true, "http": true, "http2": true,
	"https": true, "inspector": true, "module": true, "net": true, "os": true, "path": true,
	"perf_hooks": true, "process": true, "punycode": true, "querystring": true, "readline": true,
	"repl": true, "stream": true, "string_decoder": true, "sys": true, "timers": true,
	"tls": true, "trace_events": true, "tty": true, "url": true, "util": true, "v8": true,
	"vm": true, "wasi": true, "worker_threads": true, "zlib": true,
}

// HallucinatedImport flags imports of packages the manifest does not declare,
// a common artifact of generated code.
type HallucinatedImport struct {
	core.BaseRule
}

// NewHallucinatedImport creates the hallucinated-import rule.
func NewHallucinatedImport() *HallucinatedImport {
	return &HallucinatedImport{
		BaseRule: core.NewBaseRule("hallucinated-import", "Undeclared package import",
			"Detects imports of packages that are not declared in package.json.",
			schemas.CategoryAIQuality, schemas.SeverityCritical, core.CodeKinds...,
		).WithRemediation("Install the package and declare it in package.json, or remove the import if the package does not exist."),
	}
}

func (r *HallucinatedImport) Check(file *core.SourceFile, project *core.ProjectContext) []schemas.Finding {
	// Without a manifest nothing can be compared.
	if project == nil || project.Manifest == nil {
		return nil
	}

	var out []schemas.Finding
	seen := map[string]bool{}
	for _, imp := range js.ImportSources(file.Parse, file.Lines) {
		if file.IsComment(imp.Line) || !r.undeclared(imp.Source, project) {
			continue
		}
		pkg := js.PackageName(imp.Source)
		if seen[pkg] {
			continue
		}
		seen[pkg] = true
		out = append(out, r.Finding(file, imp.Line, imp.Column,
			fmt.Sprintf("Package %q is imported but not declared in package.json", pkg)))
	}
	return out
}

func (r *HallucinatedImport) undeclared(source string, project *core.ProjectContext) bool {
	// Scheme-qualified specifiers (node:fs, virtual:x, astro:content, https://...) are not packages.
	if strings.Contains(source, ":") {
		return false
	}
	if project.IsAliased(source) {
		return false
	}
	pkg := js.PackageName(source)
	if pkg == "" || strings.HasPrefix(pkg, "@/") || strings.HasPrefix(pkg, "~") || strings.HasPrefix(pkg, "#") {
		return false
	}
	return !nodeBuiltins[pkg] && !project.HasDependency(pkg)
}
