package export

import (
	"bytes"
	"html"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/metcalfc/kobo-highlights/internal/highlights"
)

// HTMLFormat renders the Markdown notes to standalone HTML pages,
// <dir>/<Author>/<Title>.html. Raw HTML is passed through so the color
// <mark> tags survive.
type HTMLFormat struct {
	Now func() time.Time
}

func init() {
	Register(&HTMLFormat{})
}

func (f *HTMLFormat) Name() string         { return "html" }
func (f *HTMLFormat) Extensions() []string { return []string{".html"} }

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

func (f *HTMLFormat) Write(dir string, rows []highlights.Row) (int, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return writeBooks(dir, ".html", rows, func(b Book) ([]byte, error) {
		return RenderHTML(b, now())
	})
}

// RenderHTML renders one book's Markdown notes as an HTML document. Text
// taken from the device is escaped, so only the color <mark> tags are markup.
func RenderHTML(b Book, generated time.Time) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(RenderMarkdown(escapeBook(b), generated)), &body); err != nil {
		return nil, err
	}

	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	doc.WriteString(html.EscapeString(b.Title + " - " + b.Author))
	doc.WriteString("</title>\n</head>\n<body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.Bytes(), nil
}

func escapeBook(b Book) Book {
	out := Book{
		Title:  html.EscapeString(b.Title),
		Author: html.EscapeString(b.Author),
		Rows:   make([]highlights.Row, len(b.Rows)),
	}
	for i, r := range b.Rows {
		r.BookTitle = html.EscapeString(r.BookTitle)
		r.Author = html.EscapeString(r.Author)
		r.ChapterTitle = html.EscapeString(r.ChapterTitle)
		r.Text = html.EscapeString(r.Text)
		r.Annotation = html.EscapeString(r.Annotation)
		out.Rows[i] = r
	}
	return out
}
