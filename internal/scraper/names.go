package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanName turns a department name into the slug used in incident file
// names, e.g. "Atlantic City PD, Atlantic" -> "atlantic-city-pd-atlantic".
func CleanName(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, ", ", "-"))
	name = strings.ReplaceAll(name, "&amp;", "_")
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "-_-", "_")
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, "&nbsp;", "")
	return name
}

// cityKey turns a possessive city label ("New York City's") into a column
// name ("new_york_city").
func cityKey(label string) string {
	label = strings.ReplaceAll(label, "'s", "")
	label = strings.ReplaceAll(label, "'", "")
	return strings.ReplaceAll(strings.ToLower(label), " ", "_")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var innerHTMLReplacer = strings.NewReplacer("&#39;", "'", "&#34;", `"`, "\u00a0", "&nbsp;")

// innerHTML serializes the children of sel the way a browser's innerHTML
// does: quotes in text are not escaped and non-breaking spaces are written
// as &nbsp;.
func innerHTML(sel *goquery.Selection) (string, error) {
	html, err := sel.Html()
	if err != nil {
		return "", err
	}
	return innerHTMLReplacer.Replace(html), nil
}
