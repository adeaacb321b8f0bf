package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xkilldash9x/codescalpel/api/schemas"
	"github.com/xkilldash9x/codescalpel/internal/analysis/core"
)

type secretPattern struct {
	label string
	re    *regexp.Regexp
	// value is the capture group holding the secret, 0 for the whole match.
	value int
}

var secretPatterns = []secretPattern{
	{"AWS access key", regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`), 0},
	{"Stripe secret key", regexp.MustCompile(`\b(?:sk|rk)_live_[0-9a-zA-Z]{16,}`), 0},
	{"GitHub token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`), 0},
	{"Slack token", regexp.MustCompile(`\bxox[abprs]-[A-Za-z0-9-]{10,}`), 0},
	{"OpenAI API key", regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_-]{32,}`), 0},
	{"Google API key", regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`), 0},
	{"private key", regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY`), 0},
	{"hardcoded credential", regexp.MustCompile(`(?i)\b[\w$]*(?:api_?key|secret|password|passwd|auth_?token|access_?token|private_?key)[\w$]*['"]?\s*[:=]\s*['"]([^'"\s]{12,})['"]`), 1},
}

// jwtLiteral finds compact JWS strings; candidates are confirmed by decoding.
var jwtLiteral = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`)

// placeholderValue marks obviously fake credential values.
var placeholderValue = regexp.MustCompile(`(?i)^(?:x{4,}|\*{4,}|<.*>|\$\{.*\}|.*(?:your|example|sample|dummy|changeme|placeholder|replace|test_?key|redacted).*)$`)

// Secrets flags credentials committed to source.
type Secrets struct {
	core.BaseRule
	parser *jwt.Parser
}

// NewSecrets creates the secrets rule.
func NewSecrets() *Secrets {
	return &Secrets{
		BaseRule: core.NewBaseRule("secrets", "Hardcoded secret",
			"Detects API keys, tokens, private keys and credentials committed to source.",
			schemas.CategorySecurity, schemas.SeverityCritical,
			append(append([]core.FileKind{}, core.CodeKinds...), core.KindJSON, core.KindYAML, core.KindHTML, core.KindVue, core.KindSvelte)...,
		).WithRemediation("Move the value to an environment variable or secret manager and rotate the exposed credential."),
		parser: jwt.NewParser(),
	}
}

func (r *Secrets) Check(file *core.SourceFile, _ *core.ProjectContext) []schemas.Finding {
	var out []schemas.Finding
	for _, i := range codeLines(file) {
		line := file.Lines[i]
		if strings.Contains(line, "process.env") || strings.Contains(line, "import.meta.env") {
			continue
		}
		if label, col, ok := r.match(line); ok {
			out = append(out, r.Finding(file, i, col, fmt.Sprintf("Possible %s committed to source", label)))
		}
	}
	return out
}

// match returns the first secret on the line. One finding per line is enough.
func (r *Secrets) match(line string) (string, int, bool) {
	for _, p := range secretPatterns {
		m := p.re.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		value := line[m[2*p.value]:m[2*p.value+1]]
		if placeholderValue.MatchString(value) {
			continue
		}
		return p.label, m[0], true
	}
	for _, m := range jwtLiteral.FindAllStringIndex(line, -1) {
		if r.isJWT(line[m[0]:m[1]]) {
			return "JSON Web Token", m[0], true
		}
	}
	return "", 0, false
}

// isJWT confirms a candidate decodes as a token with a claims object. The
// signature is not verified; only the structure matters here.
func (r *Secrets) isJWT(candidate string) bool {
	tok, _, err := r.parser.ParseUnverified(candidate, jwt.MapClaims{})
	return err == nil && tok != nil && tok.Header["alg"] != nil
}
