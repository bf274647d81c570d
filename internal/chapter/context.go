package chapter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	contextHeadRunes = 400
	contextHeadLines = 3
)

var (
	chapterHeadingRegex = regexp.MustCompile(`(?i)\b(Chapter|Part)\s+([0-9]{1,3}|[IVXLCDM]{1,8})(?:\s*[:\-–—]\s*([^\n]{1,80}))?`)
	numberedLineRegex   = regexp.MustCompile(`(?i)^(?:([0-9]{1,3}|[IVXLCDM]{1,8})\s*[.\-:–—]\s*)([^\n]{1,80})$`)
	sectionNameRegexes  = compileFull(
		`Introduction`,
		`Preface`,
		`Prologue`,
		`Epilogue`,
		`Foreword`,
		`Afterword`,
		`Conclusion`,
		`Acknowledge?ments`,
		`Appendix(?:\s+[A-Z]|\s+[IVXLCDM]{1,8}|\s+\d{1,3})?`,
	)
)

func compileFull(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)^(?:` + p + `)$`)
	}
	return out
}

// TitleFromContext mines a bookmark's ContextString for a chapter heading.
// Headings usually open the context, so only the first few lines are checked
// for numbered or named sections; "Chapter N"/"Part N" is also searched for
// anywhere in the text as a last resort.
func TitleFromContext(context string) string {
	ctx := strings.TrimSpace(context)
	if ctx == "" {
		return ""
	}

	var lines []string
	for _, ln := range strings.FieldsFunc(headRunes(ctx, contextHeadRunes), isLineBreak) {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) > contextHeadLines {
		lines = lines[:contextHeadLines]
	}

	for _, ln := range lines {
		if t := chapterHeading(ln); t != "" {
			return t
		}
	}

	for _, ln := range lines {
		m := numberedLineRegex.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		if rest := strings.TrimSpace(m[2]); rest != "" {
			return "Section " + m[1] + ": " + rest
		}
	}

	for _, ln := range lines {
		for _, re := range sectionNameRegexes {
			if re.MatchString(ln) {
				return ln
			}
		}
	}

	return chapterHeading(ctx)
}

func chapterHeading(s string) string {
	m := chapterHeadingRegex.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	// Casers carry state, so each call gets its own.
	heading := cases.Title(language.English).String(m[1]) + " " + m[2]
	if rest := strings.TrimSpace(m[3]); rest != "" {
		return heading + ": " + rest
	}
	return heading
}

// isLineBreak matches the line boundaries Python's str.splitlines uses, which
// is how Kobo tools split ContextStrings.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// headRunes returns at most n runes from the start of s.
func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
