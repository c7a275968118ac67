package sanitize

import (
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[<>;{}]`)

// Question strips markup-ish characters from user supplied questions.
func Question(text string) string {
	return strings.TrimSpace(unsafeChars.ReplaceAllString(text, ""))
}
