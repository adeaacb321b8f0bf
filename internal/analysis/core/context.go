// internal/analysis/core/context.go
package core

import "strings"

// Manifest is the subset of package.json the rules consult.
type Manifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// ProjectContext is built once per scan and shared read-only by every rule.
// Missing metadata degrades to empty values, never to an error.
type ProjectContext struct {
	Root string
	// Manifest is nil when package.json is absent or malformed.
	Manifest *Manifest
	// Dependencies holds every declared dependency name.
	Dependencies map[string]bool
	// PathAliases are import prefixes from tsconfig/jsconfig paths, e.g. "@/".
	PathAliases []string
	// Frameworks holds detected framework tags such as "nextjs" or "express".
	Frameworks map[string]bool

	HasAuthMiddleware      bool
	HasRateLimitMiddleware bool

	// Files lists every scanned path relative to Root, slash separated.
	Files []string

	// IgnoreFile is the raw content of the root .gitignore ("" when absent).
	IgnoreFile string
	// SecretsFileIgnored reports whether the ignore rules cover .env files.
	SecretsFileIgnored bool
}

// NewProjectContext returns an empty context with non-nil collections.
func NewProjectContext(root string) *ProjectContext {
	return &ProjectContext{
		Root:         root,
		Dependencies: map[string]bool{},
		Frameworks:   map[string]bool{},
	}
}

// HasDependency reports whether name is declared in the manifest.
func (p *ProjectContext) HasDependency(name string) bool {
	return p != nil && p.Dependencies[name]
}

// HasFramework reports whether a framework tag was detected.
func (p *ProjectContext) HasFramework(tag string) bool {
	return p != nil && p.Frameworks[tag]
}

// IsAliased reports whether an import specifier starts with a configured path alias.
func (p *ProjectContext) IsAliased(source string) bool {
	if p == nil {
		return false
	}
	for _, prefix := range p.PathAliases {
		if prefix != "" && strings.HasPrefix(source, prefix) {
			return true
		}
	}
	return false
}
