package textutil

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanText strips all markup from user-supplied free text and collapses
// internal whitespace. Used for fields that end up in notifications and
// rendered order views.
func CleanText(s string) string {
	cleaned := strictPolicy.Sanitize(s)
	return strings.Join(strings.Fields(cleaned), " ")
}

// CleanTag normalises an occasion tag: markup stripped, whitespace collapsed
// to single underscores, upper-cased. "birthday party" and "BIRTHDAY_PARTY"
// count as the same tag during aggregation.
func CleanTag(s string) string {
	cleaned := strictPolicy.Sanitize(s)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Join(fields, "_"))
}
