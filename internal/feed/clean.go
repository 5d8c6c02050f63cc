package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML flattens HTML markup that many feeds ship in descriptions and
// content blocks down to plain text with collapsed whitespace. Plain input
// passes through with whitespace normalization only.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}

	// Drop script/style bodies before flattening to text.
	doc.Find("script, style").Remove()

	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
