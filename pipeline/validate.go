// CLAUDE:SUMMARY arXiv identifier validation: new-style YYMM.NNNNN and old-style subject-class/YYMMnnn.
package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern accepts the two arXiv identifier shapes:
//
//	new-style  2301.00001, 2301.12345v2
//	old-style  hep-th/9901001, math.GT/0309136v1
//
// The subject class starts with a letter and may contain digits, dots
// and hyphens. Anything else is rejected before any I/O happens.
var idPattern = regexp.MustCompile(`^(\d{4}\.\d{4,5}(v\d+)?|[a-zA-Z][a-zA-Z0-9]*(?:[-.][a-zA-Z0-9]+)*/\d{7}(v\d+)?)$`)

// ValidateID checks the identifier format. Surrounding whitespace is
// tolerated; the trimmed id is returned.
func ValidateID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if !idPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrValidation, id)
	}
	return trimmed, nil
}
