package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NormalizeText collapses runs of whitespace into single spaces and trims the ends
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title returns the normalised document title
func Title(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	return NormalizeText(doc.Find("title").First().Text())
}
