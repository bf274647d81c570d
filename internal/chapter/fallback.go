package chapter

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	separatorRunRegex = regexp.MustCompile(`[_\-]+`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

// numberedName renders a match such as "chapter007" or "prologue" as
// "<label> <n>", or just the label when the pattern captured no number.
type numberedName struct {
	re    *regexp.Regexp
	label string
}

var numberedNames = []numberedName{
	{regexp.MustCompile(`(?i)^(?:ch|chap|chapter)\s*0*(\d{1,5})$`), "Chapter"},
	{regexp.MustCompile(`(?i)^part\s*0*(\d{1,5})$`), "Part"},
	{regexp.MustCompile(`(?i)^preface(?:\s*0*(\d{1,5}))?$`), "Preface"},
	{regexp.MustCompile(`(?i)^prolog(?:ue)?(?:\s*0*(\d{1,5}))?$`), "Prologue"},
	{regexp.MustCompile(`(?i)^epilog(?:ue)?(?:\s*0*(\d{1,5}))?$`), "Epilogue"},
}

var appendixNameRegex = regexp.MustCompile(`(?i)^appendix(?:\s+([A-Z]|[IVXLCDM]{1,8}|\d{1,3}))?$`)

var frontBackMatter = []numberedName{
	{regexp.MustCompile(`(?i)^intro(?:duction)?(?:\s*0*(\d{1,5}))?$`), "Introduction"},
	{regexp.MustCompile(`(?i)^foreword(?:\s*0*(\d{1,5}))?$`), "Foreword"},
	{regexp.MustCompile(`(?i)^afterword(?:\s*0*(\d{1,5}))?$`), "Afterword"},
}

// Labels searched for anywhere in the name, e.g. "9780143127741 EPUB 8".
var embeddedLabels = []numberedName{
	{regexp.MustCompile(`(?i)\bchapter\s*0*(\d{1,5})\b`), "Chapter"},
	{regexp.MustCompile(`(?i)\bpart\s*0*(\d{1,5})\b`), "Part"},
	{regexp.MustCompile(`(?i)\bepub\s*0*(\d{1,5})\b`), "EPUB"},
}

func (n numberedName) format(s string) (string, bool) {
	m := n.re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	if m[1] == "" {
		return n.label, true
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	return n.label + " " + strconv.Itoa(num), true
}

// TitleFromContentID derives a readable label from the file name inside a
// content id, for content that has no title at all.
//
//	".../index_split_000.html" -> "index split 000"
//	".../chapter007.xhtml"     -> "Chapter 7"
func TitleFromContentID(id string) (title string) {
	if id == "" {
		return ""
	}
	defer func() {
		if recover() != nil {
			title = ""
		}
	}()

	name := fileLabel(id)

	for _, n := range numberedNames {
		if t, ok := n.format(name); ok {
			return t
		}
	}
	if m := appendixNameRegex.FindStringSubmatch(name); m != nil {
		if m[1] != "" {
			return "Appendix " + m[1]
		}
		return "Appendix"
	}
	for _, n := range frontBackMatter {
		if t, ok := n.format(name); ok {
			return t
		}
	}
	for _, n := range embeddedLabels {
		if t, ok := n.format(name); ok {
			return t
		}
	}
	return name
}

// fileLabel reduces id to the last component of its tail (or path) with the
// extension dropped and "_"/"-" runs turned into single spaces.
func fileLabel(id string) string {
	path := StripFragment(id)
	if u, err := url.Parse(id); err == nil {
		path = u.Path
	}
	tail := Tail(id)
	if tail == "" {
		tail = path
	}
	base := ""
	if tail != "" {
		parts := pathSepRegex.Split(tail, -1)
		base = parts[len(parts)-1]
	}
	base = StripFragment(base)
	base = htmlExtRegex.ReplaceAllString(base, "")
	name := separatorRunRegex.ReplaceAllString(base, " ")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(name, " "))
}
