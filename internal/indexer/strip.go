package indexer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// StripTags reduces page markup to its plain text so the full-text index
// never matches on tag names or attributes. Entities are decoded after
// sanitizing to keep "&amp;" from polluting the token stream.
func StripTags(markup string) string {
	text := stripPolicy.Sanitize(markup)
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
