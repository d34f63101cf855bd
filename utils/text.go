package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText reduces user supplied text to its visible characters: markup is parsed and dropped,
// and runs of whitespace collapse to a single space. Input that cannot be parsed is returned trimmed.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}
