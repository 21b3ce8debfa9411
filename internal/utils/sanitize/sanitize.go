package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute. bluemonday.Policy is safe for
// concurrent use once built; never mutate it after initialization.
var strict = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Clean turns arbitrary user input into a single line of plain text suitable
// for profile fields (names, branch, specialization).
//
// Examples:
//   - "<b>Ada</b>  Lovelace" -> "Ada Lovelace"
//   - "Computer&nbsp;Science" -> "Computer Science"
//   - "<script>x()</script>CSE\n" -> "CSE"
func Clean(s string) string {
	out := strict.Sanitize(s)
	out = html.UnescapeString(out)
	return strings.Join(strings.Fields(out), " ")
}

// CleanPtr applies Clean in place for optional fields of partial updates.
// A nil pointer is left untouched.
func CleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Clean(*s)
	return &v
}
