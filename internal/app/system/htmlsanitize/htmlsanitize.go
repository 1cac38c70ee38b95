// Package htmlsanitize cleans user-supplied rich text (task descriptions and
// comments) before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is built once; a bluemonday Policy is safe for concurrent use
// after construction.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Mentions and checklists from the editor carry these.
	p.AllowAttrs("data-user-id").OnElements("span")
	p.AllowAttrs("data-checked").OnElements("li")
	return p
}

// Sanitize strips scripts, event handlers, unsafe URLs and any element not
// in the user-content allow list.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into line breaks.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// Comment prepares comment content for storage. Plain text is converted to
// a paragraph; markup is sanitized. The result is trimmed, and an empty
// result means the comment had no usable content.
func Comment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	out := strings.TrimSpace(Sanitize(s))
	if strings.TrimSpace(policyText.Sanitize(out)) == "" {
		return ""
	}
	return out
}

// policyText strips all markup; used to detect comments that sanitize to
// nothing but empty tags.
var policyText = bluemonday.StrictPolicy()
