package chapter

import (
	"regexp"
	"strings"
)

var (
	splitPartRegex   = regexp.MustCompile(`\bpart\d{1,5}\s*(?:_|\s)?split\s*\d{1,5}\b`)
	splitRegex       = regexp.MustCompile(`\bsplit[_ ]?\d{1,5}\b`)
	isbnPrefixRegex  = regexp.MustCompile(`^\d{10,13}\s+(?:chapter|epub|page|section|part)\b`)
	chapterPadRegex  = regexp.MustCompile(`^chapter\d{2,}\b`)
	chapterAbbrRegex = regexp.MustCompile(`^ch\d{1,3}\b`)
	pageMarkerRegex  = regexp.MustCompile(`^[a-zA-Z]\s?\d{3,4}$`)
)

// IsGeneric reports whether title looks like a file name, a content id
// fragment or a publisher's split marker rather than a heading written by a
// person.
func IsGeneric(title string) bool {
	stripped := strings.TrimSpace(title)
	if stripped == "" {
		return true
	}
	lowered := strings.ToLower(stripped)
	switch {
	case strings.HasSuffix(lowered, ".xhtml"),
		strings.HasSuffix(lowered, ".html"),
		strings.HasSuffix(lowered, ".htm"):
		return true
	case strings.Contains(lowered, "!oebps!"), strings.Contains(stripped, "!!"):
		return true
	case strings.Contains(lowered, "index_split"), strings.Contains(lowered, "index split"):
		return true
	}
	for _, re := range []*regexp.Regexp{
		splitPartRegex,
		splitRegex,
		isbnPrefixRegex,
		chapterPadRegex,
		chapterAbbrRegex,
	} {
		if re.MatchString(lowered) {
			return true
		}
	}
	return pageMarkerRegex.MatchString(stripped)
}

// Clean trims title and, when suppressFilenameLike is set, drops titles that
// IsGeneric flags. It returns "" when nothing usable is left. Clean is
// idempotent.
func Clean(title string, suppressFilenameLike bool) string {
	v := strings.TrimSpace(title)
	if v == "" {
		return ""
	}
	if suppressFilenameLike && IsGeneric(v) {
		return ""
	}
	return v
}

func isTableOfContents(title string) bool {
	return strings.EqualFold(title, "table of contents")
}
