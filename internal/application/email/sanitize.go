package email

import "regexp"

// strippedElements are removed from open tag through matching close tag
var strippedElements = []string{"script", "iframe", "object", "embed", "link", "meta"}

var (
	elementPatterns = func() []*regexp.Regexp {
		patterns := make([]*regexp.Regexp, 0, len(strippedElements))
		for _, tag := range strippedElements {
			patterns = append(patterns, regexp.MustCompile(`(?is)<`+tag+`\b[^>]*>.*?</`+tag+`\s*>`))
		}
		return patterns
	}()

	doubleQuotedHandler = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*"[^"]*"`)
	singleQuotedHandler = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*'[^']*'`)
	// dangerousScheme matches anywhere in the document, prose included
	dangerousScheme     = regexp.MustCompile(`(?i)\b(?:javascript|vbscript|data)\s*:`)
)

// Sanitize strips executable constructs from a rendered HTML document: the
// elements above, inline event handler attributes and script-capable URI
// schemes. It runs after escaping as a second line of defence.
func Sanitize(html string) string {
	for _, re := range elementPatterns {
		html = re.ReplaceAllString(html, "")
	}
	html = doubleQuotedHandler.ReplaceAllString(html, "")
	html = singleQuotedHandler.ReplaceAllString(html, "")
	return dangerousScheme.ReplaceAllString(html, "")
}
