package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/metcalfc/kobo-highlights/internal/highlights"
)

const (
	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown Author"
	untitled      = "Untitled"
)

// markTags wraps highlight text in the device's highlight color.
var markTags = map[string]string{
	"yellow": "yellow",
	"pink":   "pink",
	"blue":   "lightblue",
	"green":  "lightgreen",
}

// MarkdownFormat writes one Markdown file per book as <dir>/<Author>/<Title>.md.
type MarkdownFormat struct {
	// Now stamps the "Generated:" line; time.Now when nil.
	Now func() time.Time
}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md"} }

func (f *MarkdownFormat) Write(dir string, rows []highlights.Row) (int, error) {
	return writeBooks(dir, ".md", rows, func(b Book) ([]byte, error) {
		return []byte(RenderMarkdown(b, f.now())), nil
	})
}

func (f *MarkdownFormat) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Book is the set of rows sharing an author and title.
type Book struct {
	Title  string
	Author string
	Rows   []highlights.Row
}

// GroupBooks trims every field, fills in "Unknown Title"/"Unknown Author",
// and groups rows by (author, title) in order of first appearance.
func GroupBooks(rows []highlights.Row) []Book {
	type key struct{ author, title string }
	index := make(map[key]int)
	var books []Book
	for _, r := range rows {
		r = normalizeRow(r)
		k := key{r.Author, r.BookTitle}
		i, ok := index[k]
		if !ok {
			i = len(books)
			index[k] = i
			books = append(books, Book{Title: r.BookTitle, Author: r.Author})
		}
		books[i].Rows = append(books[i].Rows, r)
	}
	return books
}

func normalizeRow(r highlights.Row) highlights.Row {
	trim := func(s, fallback string) string {
		if v := strings.TrimSpace(s); v != "" {
			return v
		}
		return fallback
	}
	r.BookmarkID = trim(r.BookmarkID, "")
	r.BookTitle = trim(r.BookTitle, unknownTitle)
	r.Author = trim(r.Author, unknownAuthor)
	r.ChapterTitle = trim(r.ChapterTitle, "")
	r.DateCreated = trim(r.DateCreated, "")
	r.DateModified = trim(r.DateModified, "")
	r.Color = trim(r.Color, "")
	r.Text = trim(r.Text, "")
	r.Annotation = trim(r.Annotation, "")
	r.Type = trim(r.Type, "")
	return r
}

// writeBooks renders each book into dir/<Author>/<Title><ext>.
func writeBooks(dir, ext string, rows []highlights.Row, render func(Book) ([]byte, error)) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	written := 0
	for _, b := range GroupBooks(rows) {
		authorDir := filepath.Join(dir, SanitizeFilename(b.Author))
		if err := os.MkdirAll(authorDir, 0o755); err != nil {
			return written, fmt.Errorf("failed to create %s: %w", authorDir, err)
		}
		data, err := render(b)
		if err != nil {
			return written, fmt.Errorf("failed to render %q: %w", b.Title, err)
		}
		path := filepath.Join(authorDir, SanitizeFilename(b.Title)+ext)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// RenderMarkdown renders one book. Chapters are ordered by their earliest
// highlight, and highlights by creation time within a chapter.
func RenderMarkdown(b Book, generated time.Time) string {
	var lines []string
	add := func(s ...string) { lines = append(lines, s...) }

	add(
		"# "+b.Title,
		"",
		"by "+b.Author,
		"",
		fmt.Sprintf("Total highlights: %d", len(b.Rows)),
		"Generated: "+generated.Format("2006-01-02 15:04"),
		"",
		"---",
		"",
	)

	for _, ch := range groupChapters(b.Rows) {
		add("## "+ch.name, "")
		for _, r := range ch.rows {
			var meta []string
			if r.DateCreated != "" {
				meta = append(meta, r.DateCreated)
			}
			if r.Color != "" {
				meta = append(meta, r.Color)
			}
			if r.Type != "" {
				meta = append(meta, "type "+r.Type)
			}
			if len(meta) > 0 {
				add("- " + strings.Join(meta, " • "))
			} else {
				add("-")
			}

			if r.Text != "" {
				add("")
				for _, ln := range splitLines(r.Text) {
					add("> " + wrapColor(ln, r.Color))
				}
			}
			if r.Annotation != "" {
				if r.Text == "" {
					add("")
				}
				add("", "  Note: "+r.Annotation)
			}
			add("")
		}
		add("")
	}
	return strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace) + "\n"
}

type chapterGroup struct {
	name     string
	earliest int64
	rows     []highlights.Row
}

func groupChapters(rows []highlights.Row) []chapterGroup {
	index := make(map[string]int)
	var groups []chapterGroup
	for _, r := range rows {
		name := r.ChapterTitle
		if name == "" {
			name = untitled
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, chapterGroup{name: name, earliest: math.MaxInt64})
		}
		groups[i].rows = append(groups[i].rows, r)
		if t := sortKey(r.DateCreated); t < groups[i].earliest {
			groups[i].earliest = t
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].earliest != groups[j].earliest {
			return groups[i].earliest < groups[j].earliest
		}
		return groups[i].name < groups[j].name
	})
	for _, g := range groups {
		sort.SliceStable(g.rows, func(i, j int) bool {
			return sortKey(g.rows[i].DateCreated) < sortKey(g.rows[j].DateCreated)
		})
	}
	return groups
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
}

// sortKey returns a timestamp in epoch seconds, or MaxInt64 for blank or
// unparsable values so they sort last.
func sortKey(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.MaxInt64
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix()
		}
	}
	return math.MaxInt64
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

func wrapColor(s, color string) string {
	bg, ok := markTags[strings.ToLower(strings.TrimSpace(color))]
	if !ok {
		return s
	}
	return `<mark style="background-color: ` + bg + `">` + s + `</mark>`
}

var badFilenameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFilename makes s safe as a single path component on common file
// systems. It never returns "".
func SanitizeFilename(s string) string {
	out := badFilenameChars.Replace(norm.NFC.String(s))
	out = strings.TrimRight(strings.TrimSpace(out), ".")
	if out == "" {
		return "untitled"
	}
	return out
}
