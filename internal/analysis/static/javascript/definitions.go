// Filename: javascript/definitions.go
// Vocabularies for the three-tier argument classification: well-known request
// objects, conventionally dangerous variable names and validation evidence.
package javascript

import "regexp"

// Taint is the classification of an argument expression.
type Taint int

const (
	// TaintUnclassified is never flagged.
	TaintUnclassified Taint = iota
	// TaintStatic is a literal or a concatenation of literals. Never flagged.
	TaintStatic
	// TaintUserInput resolves structurally to request data. Always flagged.
	TaintUserInput
	// TaintSuspiciousName is a bare identifier with a dangerous-sounding name.
	// Flagged only when the file shows no validation evidence.
	TaintSuspiciousName
)

func (t Taint) String() string {
	switch t {
	case TaintStatic:
		return "static"
	case TaintUserInput:
		return "user-input"
	case TaintSuspiciousName:
		return "suspicious-name"
	default:
		return "unclassified"
	}
}

// Flag decides whether a sink call with this argument is reported. Direct user
// input ignores validation evidence elsewhere in the file.
func (t Taint) Flag(validated bool) bool {
	switch t {
	case TaintUserInput:
		return true
	case TaintSuspiciousName:
		return !validated
	default:
		return false
	}
}

// requestRoots are identifiers conventionally bound to the incoming request.
var requestRoots = map[string]bool{
	"req":     true,
	"request": true,
}

// requestFields are request members that carry caller-controlled data.
var requestFields = map[string]bool{
	"body":    true,
	"query":   true,
	"params":  true,
	"nextUrl": true,
}

// inputGetters are the receivers whose .get(...) reads caller-controlled data.
var inputGetters = map[string]bool{
	"searchParams": true,
	"formData":     true,
}

// suspiciousNames is the closed vocabulary of identifiers that usually hold a
// destination chosen by someone else.
var suspiciousNames = map[string]bool{
	"url":         true,
	"target":      true,
	"targetUrl":   true,
	"redirect":    true,
	"redirectTo":  true,
	"redirectUrl": true,
	"returnTo":    true,
	"returnUrl":   true,
	"callbackUrl": true,
	"next":        true,
	"dest":        true,
	"destination": true,
	"endpoint":    true,
	"link":        true,
	"href":        true,
	"uri":         true,
}

// validationEvidence matches allowlist/validate-style identifiers. Its presence
// anywhere in a file suppresses the suspicious-name tier for that file.
var validationEvidence = regexp.MustCompile(`(?i)\b\w*(allow_?list|allowed_?(hosts|urls|domains|origins)|white_?list|safe_?list|validate\w*|is_?valid\w*|is_?allowed\w*|is_?safe_?url|sanitize_?url)\b`)

// HasValidationEvidence reports whether text contains any validation-style identifier.
func HasValidationEvidence(text string) bool {
	return validationEvidence.MatchString(text)
}

// IsRequestAccess reports whether a flattened path reads request data,
// e.g. [req body url] or [request nextUrl].
func IsRequestAccess(path []string) bool {
	return len(path) >= 2 && requestRoots[path[0]] && requestFields[path[1]]
}

// IsSuspiciousName reports whether a bare identifier is in the dangerous vocabulary.
func IsSuspiciousName(name string) bool {
	return suspiciousNames[name]
}

// IsInputGetter reports whether a flattened callee path is searchParams.get or formData.get.
func IsInputGetter(path []string) bool {
	n := len(path)
	return n >= 2 && path[n-1] == "get" && inputGetters[path[n-2]]
}
