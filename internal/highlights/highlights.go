// Package highlights turns Kobo bookmarks into export rows carrying book,
// author and chapter metadata.
package highlights

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/metcalfc/kobo-highlights/internal/chapter"
	"github.com/metcalfc/kobo-highlights/internal/kobo"
)

// Fields is the column order of an exported row.
var Fields = []string{
	"BookmarkID",
	"BookTitle",
	"Author",
	"ChapterTitle",
	"DateCreated",
	"DateModified",
	"Color",
	"Text",
	"Annotation",
	"Type",
}

// Row is one enriched highlight or note.
type Row struct {
	BookmarkID   string
	BookTitle    string
	Author       string
	ChapterTitle string
	DateCreated  string
	DateModified string
	Color        string
	Text         string
	Annotation   string
	Type         string

	// Not exported; kept for diagnostics and the browser.
	VolumeID string
	Stage    chapter.Stage
}

// Values returns the row's columns in Fields order.
func (r Row) Values() []string {
	return []string{
		r.BookmarkID,
		r.BookTitle,
		r.Author,
		r.ChapterTitle,
		r.DateCreated,
		r.DateModified,
		r.Color,
		r.Text,
		r.Annotation,
		r.Type,
	}
}

// Colors maps Kobo highlight color codes to names.
var Colors = map[int]string{
	0: "yellow",
	1: "pink",
	2: "blue",
	3: "green",
}

// ColorName returns the name for a color code, or "" when unknown.
func ColorName(code *int) string {
	if code == nil {
		return ""
	}
	return Colors[*code]
}

// Enricher resolves book and chapter metadata for bookmarks against one
// content index. It is safe for concurrent use.
type Enricher struct {
	index    *chapter.Index
	resolver *chapter.Resolver
}

// NewEnricher builds an Enricher. suppressFilenameLike controls whether
// filename-like chapter titles are dropped; book titles are always cleaned
// with suppression on.
func NewEnricher(ix *chapter.Index, suppressFilenameLike bool, opts ...chapter.Option) *Enricher {
	return &Enricher{
		index:    ix,
		resolver: chapter.NewResolver(ix, suppressFilenameLike, opts...),
	}
}

// Enrich produces the export row for b.
func (e *Enricher) Enrich(b kobo.Bookmark) Row {
	var record *chapter.Record
	if r, ok := e.index.Lookup(b.ContentID); ok {
		record = &r
	}
	title, stage := e.resolver.ResolveWithStage(record, chapter.Highlight{
		ContentID:     b.ContentID,
		ContextString: b.ContextString,
	})

	bookTitle, author := e.bookMetadata(b, record)

	row := Row{
		BookmarkID:   b.BookmarkID,
		BookTitle:    bookTitle,
		Author:       author,
		ChapterTitle: title,
		DateCreated:  b.DateCreated,
		DateModified: b.DateModified,
		Color:        ColorName(b.Color),
		Text:         b.Text,
		Annotation:   b.Annotation,
		VolumeID:     b.VolumeID,
		Stage:        stage,
	}
	if b.Type != nil {
		row.Type = strconv.Itoa(*b.Type)
	}
	return row
}

// EnrichAll enriches bookmarks in order.
func (e *Enricher) EnrichAll(bookmarks []kobo.Bookmark) []Row {
	rows := make([]Row, 0, len(bookmarks))
	for _, b := range bookmarks {
		rows = append(rows, e.Enrich(b))
	}
	return rows
}

func (e *Enricher) bookMetadata(b kobo.Bookmark, record *chapter.Record) (title, author string) {
	if book, ok := e.bookRecord(b, record); ok {
		title = chapter.Clean(book.BookTitle, true)
		if title == "" {
			title = chapter.Clean(book.Title, true)
		}
		author = strings.TrimSpace(book.Attribution)
	}
	if title == "" || author == "" {
		titleGuess, authorGuess := ParseVolumeID(b.VolumeID)
		if title == "" {
			title = chapter.Clean(titleGuess, true)
		}
		if author == "" {
			author = authorGuess
		}
	}
	return title, author
}

type bookProbe struct {
	find func(string) (chapter.Record, bool)
	key  string
}

// bookRecord finds the content row describing the whole book.
func (e *Enricher) bookRecord(b kobo.Bookmark, record *chapter.Record) (chapter.Record, bool) {
	base := chapter.StripAfterBangBang(b.ContentID)
	probes := []bookProbe{
		{e.index.Record, b.VolumeID},
		{e.index.RecordByURL, b.VolumeID},
	}
	if record != nil {
		probes = append(probes, bookProbe{e.index.Record, record.BookID})
	}
	probes = append(probes,
		bookProbe{e.index.Record, base},
		bookProbe{e.index.RecordByURL, base},
	)
	for _, p := range probes {
		if p.key == "" {
			continue
		}
		if r, ok := p.find(p.key); ok {
			return r, true
		}
	}
	return chapter.Record{}, false
}

var epubExtRegex = regexp.MustCompile(`(?i)\.(kepub\.)?epub$`)

// ParseVolumeID guesses title and author from a VolumeID path. Kobo side
// loaded books are usually named "<Title> - <Author>.epub"; otherwise the
// parent directory is taken as the author.
func ParseVolumeID(volumeID string) (title, author string) {
	if volumeID == "" {
		return "", ""
	}
	p := volumeID
	if u, err := url.Parse(volumeID); err == nil {
		p = u.Path
	}
	filename := path.Base(p)
	if filename == "/" || filename == "." {
		filename = ""
	}
	dir := path.Base(path.Dir(p))
	if dir == "/" || dir == "." {
		dir = ""
	}

	base := epubExtRegex.ReplaceAllString(filename, "")
	if t, a, ok := strings.Cut(base, " - "); ok {
		return strings.TrimSpace(t), strings.TrimSpace(a)
	}
	return base, dir
}
