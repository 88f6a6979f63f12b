// Package normalize holds the text helpers shared by the extractor and the
// row expander: slugs, handles, tags, categories and description HTML.
package normalize

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxTagLength      = 255
	SEODescriptionLen = 160
)

var (
	slugStrip      = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
	repeatedHyphen = regexp.MustCompile(`-+`)
	handleStrip    = regexp.MustCompile(`[^a-z0-9-]`)
	categoryStrip  = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)

	bulletItem   = regexp.MustCompile(`^[\x{2022}\x{2023}\x{25E6}\x{2043}\x{2219}\-*]\s+`)
	numberedItem = regexp.MustCompile(`^\d+[.)]\s+`)
)

// Slugify lower-cases text and keeps only ASCII letters, digits and single
// hyphens between words.
func Slugify(text string) string {
	if text == "" {
		return ""
	}
	s := strings.ToLower(text)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = repeatedHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Handle joins the title slug and the lower-cased base SKU. When both are
// empty it falls back to product-<position>.
func Handle(title, baseSKU string, position int) string {
	titleSlug := Slugify(title)
	sku := strings.ToLower(strings.TrimSpace(baseSKU))

	var h string
	switch {
	case sku != "" && titleSlug != "":
		h = titleSlug + "-" + sku
	case sku != "":
		h = sku
	case titleSlug != "":
		h = titleSlug
	}

	h = handleStrip.ReplaceAllString(h, "-")
	h = repeatedHyphen.ReplaceAllString(h, "-")
	h = strings.Trim(h, "-")
	if h == "" {
		return fmt.Sprintf("product-%d", position)
	}
	return h
}

// CleanBreadcrumb trims the items and drops any without a letter.
func CleanBreadcrumb(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || !HasLetter(item) {
			continue
		}
		cleaned = append(cleaned, item)
	}
	return cleaned
}

// Tags renders breadcrumb items as a comma separated tag list.
func Tags(items []string) string {
	cleaned := CleanBreadcrumb(items)
	for i, item := range cleaned {
		cleaned[i] = Truncate(item, maxTagLength)
	}
	return strings.Join(cleaned, ", ")
}

// Category is the last breadcrumb item with everything but letters, digits,
// spaces and hyphens removed.
func Category(items []string) string {
	cleaned := CleanBreadcrumb(items)
	if len(cleaned) == 0 {
		return ""
	}
	last := cleaned[len(cleaned)-1]
	return strings.TrimSpace(categoryStrip.ReplaceAllString(last, ""))
}

type listKind int

const (
	noList listKind = iota
	unorderedList
	orderedList
)

func (k listKind) tags() (string, string) {
	if k == orderedList {
		return "<ol>", "</ol>"
	}
	return "<ul>", "</ul>"
}

func classifyLine(line string) (listKind, string) {
	if loc := bulletItem.FindStringIndex(line); loc != nil {
		return unorderedList, line[loc[1]:]
	}
	if loc := numberedItem.FindStringIndex(line); loc != nil {
		return orderedList, line[loc[1]:]
	}
	return noList, line
}

// DescriptionHTML reflows plain description text into escaped HTML. Runs of
// bullet lines become one <ul>, runs of numbered lines one <ol>, and every
// other line its own <p>. A blank line closes any open list.
func DescriptionHTML(description string) string {
	if description == "" {
		return ""
	}

	var b strings.Builder
	open := noList
	closeList := func() {
		if open != noList {
			_, end := open.tags()
			b.WriteString(end)
			open = noList
		}
	}

	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			closeList()
			continue
		}

		kind, text := classifyLine(line)
		if kind == noList {
			closeList()
			b.WriteString("<p>" + html.EscapeString(line) + "</p>")
			continue
		}

		// A run of list lines stays in the list kind that opened it.
		if open == noList {
			start, _ := kind.tags()
			b.WriteString(start)
			open = kind
		}
		b.WriteString("<li>" + html.EscapeString(text) + "</li>")
	}
	closeList()

	if b.Len() == 0 {
		return "<p>" + html.EscapeString(description) + "</p>"
	}
	return b.String()
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// HasLetter reports whether s contains any Unicode letter.
func HasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// CollapseSpace replaces every whitespace run with a single space and trims.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
