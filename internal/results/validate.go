package results

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/codescalpel/api/schemas"
)

// ErrInvalidFinding wraps every reason Validate rejects a finding.
var ErrInvalidFinding = errors.New("invalid finding")

// Validate checks the invariants every reported finding must hold.
func Validate(f schemas.Finding) error {
	switch {
	case f.RuleID == "":
		return fmt.Errorf("%w: missing rule id", ErrInvalidFinding)
	case f.File == "":
		return fmt.Errorf("%w: missing file", ErrInvalidFinding)
	case f.Line < 1 || f.Column < 1:
		return fmt.Errorf("%w: position %d:%d is not 1-based", ErrInvalidFinding, f.Line, f.Column)
	case !f.Severity.Valid():
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidFinding, f.Severity)
	case !f.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidFinding, f.Category)
	case f.Message == "":
		return fmt.Errorf("%w: empty message", ErrInvalidFinding)
	}
	return nil
}
