package email

import "strings"

// escaper works in a single pass, so the entities it emits are never escaped
// again. The result equals replacing "&" before the other characters.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// EscapeHTML converts the characters that can open markup or break out of an
// attribute into entities.
func EscapeHTML(s string) string {
	return escaper.Replace(s)
}
