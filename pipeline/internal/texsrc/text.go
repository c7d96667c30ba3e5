// CLAUDE:SUMMARY Lossy LaTeX→text conversion: comments, commands, math placeholders, environment markers.
package texsrc

import (
	"regexp"
	"strings"
)

// The conversion is intentionally lossy: commands lose their names, math
// collapses to placeholders. Worst case the result is placeholder-heavy,
// never an error.
var (
	reComment     = regexp.MustCompile(`(?m)%.*$`)
	reCmdArg      = regexp.MustCompile(`\\[a-zA-Z]+\{([^}]*)\}`)
	reCmdOptArg   = regexp.MustCompile(`\\[a-zA-Z]+\[[^\]]*\]\{([^}]*)\}`)
	reInlineMath  = regexp.MustCompile(`\$[^$]*\$`)
	reEquationEnv = regexp.MustCompile(`(?s)\\begin\{equation\}.*?\\end\{equation\}`)
	reBeginEnv    = regexp.MustCompile(`\\begin\{[^}]*\}`)
	reEndEnv      = regexp.MustCompile(`\\end\{[^}]*\}`)
	reWhitespace  = regexp.MustCompile(`\s+`)
)

// ExtractText strips markup from LaTeX source, keeping readable content.
// A single shallow pass: nested commands keep their inner argument text.
func ExtractText(src string) string {
	src = reComment.ReplaceAllString(src, "")

	// Math and environment markers go first, before the command pass can
	// swallow their \begin and \end tokens.
	src = reEquationEnv.ReplaceAllString(src, " [EQUATION] ")
	src = reInlineMath.ReplaceAllString(src, " [MATH] ")
	src = reBeginEnv.ReplaceAllString(src, "")
	src = reEndEnv.ReplaceAllString(src, "")

	src = reCmdOptArg.ReplaceAllString(src, "$1")
	src = reCmdArg.ReplaceAllString(src, "$1")

	src = reWhitespace.ReplaceAllString(src, " ")
	return strings.TrimSpace(src)
}
