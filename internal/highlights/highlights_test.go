package highlights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/kobo-highlights/internal/chapter"
	"github.com/metcalfc/kobo-highlights/internal/kobo"
)

const (
	vol      = "file:///mnt/onboard/Leckie/Ancillary Justice - Ann Leckie.kepub.epub"
	sideload = "file:///mnt/onboard/Ursula K. Le Guin/The Dispossessed.epub"
)

func intp(n int) *int { return &n }

func fixtureIndex() *chapter.Index {
	return chapter.BuildIndex([]chapter.Record{
		{ContentID: vol, BookTitle: "Ancillary Justice", Title: "Ancillary Justice", Attribution: " Ann Leckie "},
		{ContentID: vol + "!!OEBPS/ch01.xhtml", BookID: vol, BookTitle: "Ancillary Justice", Title: "One"},
		{ContentID: vol + "!!OEBPS/ch02.xhtml", BookID: vol, BookTitle: "Ancillary Justice", Title: "Two"},
		{ContentID: sideload + "!!text/index_split_003.html", BookID: sideload, Title: "index_split_003"},
	})
}

func TestEnrich(t *testing.T) {
	e := NewEnricher(fixtureIndex(), true)

	row := e.Enrich(kobo.Bookmark{
		BookmarkID:   "bm-1",
		VolumeID:     vol,
		ContentID:    vol + "!!OEBPS/ch02.xhtml#p14",
		DateCreated:  "2024-01-01T10:00:00.000",
		DateModified: "2024-01-02T10:00:00.000",
		Color:        intp(1),
		Text:         "The body was naked and facedown.",
		Annotation:   "opening line",
		Type:         intp(1),
	})

	assert.Equal(t, Row{
		BookmarkID:   "bm-1",
		BookTitle:    "Ancillary Justice",
		Author:       "Ann Leckie",
		ChapterTitle: "Two",
		DateCreated:  "2024-01-01T10:00:00.000",
		DateModified: "2024-01-02T10:00:00.000",
		Color:        "pink",
		Text:         "The body was naked and facedown.",
		Annotation:   "opening line",
		Type:         "1",
		VolumeID:     vol,
		Stage:        chapter.StageRecord,
	}, row)
}

func TestEnrichFallsBackToVolumeID(t *testing.T) {
	e := NewEnricher(fixtureIndex(), true)

	row := e.Enrich(kobo.Bookmark{
		BookmarkID: "bm-2",
		VolumeID:   sideload,
		ContentID:  sideload + "!!text/index_split_003.html#p2",
		Color:      intp(9),
	})

	assert.Equal(t, "The Dispossessed", row.BookTitle)
	assert.Equal(t, "Ursula K. Le Guin", row.Author)
	assert.Equal(t, "", row.Color, "unknown color code")
	assert.Equal(t, "", row.Type)
	assert.Equal(t, "", row.ChapterTitle, "filename-like titles are suppressed")
	assert.Equal(t, chapter.StageNone, row.Stage)
}

func TestEnrichKeepsFilenameChapter(t *testing.T) {
	e := NewEnricher(fixtureIndex(), false)

	row := e.Enrich(kobo.Bookmark{
		VolumeID:  sideload,
		ContentID: sideload + "!!text/index_split_003.html#p2",
	})
	assert.Equal(t, "index_split_003", row.ChapterTitle)
	assert.Equal(t, "The Dispossessed", row.BookTitle, "book titles are always cleaned")
}

func TestEnrichBookFromChapterRecord(t *testing.T) {
	e := NewEnricher(fixtureIndex(), true)

	// VolumeID missing: the book row is found through the chapter's BookID.
	row := e.Enrich(kobo.Bookmark{ContentID: vol + "!!OEBPS/ch01.xhtml"})
	assert.Equal(t, "Ancillary Justice", row.BookTitle)
	assert.Equal(t, "Ann Leckie", row.Author)
	assert.Equal(t, "One", row.ChapterTitle)
}

func TestEnrichAllKeepsOrder(t *testing.T) {
	e := NewEnricher(fixtureIndex(), true)
	rows := e.EnrichAll([]kobo.Bookmark{
		{BookmarkID: "b", VolumeID: vol},
		{BookmarkID: "a", VolumeID: vol},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].BookmarkID)
	assert.Equal(t, "a", rows[1].BookmarkID)
}

func TestParseVolumeID(t *testing.T) {
	tests := []struct {
		in, title, author string
	}{
		{"", "", ""},
		{vol, "Ancillary Justice", "Ann Leckie"},
		{sideload, "The Dispossessed", "Ursula K. Le Guin"},
		{"file:///mnt/onboard/Some%20Author/Some%20Book.EPUB", "Some Book", "Some Author"},
		{"/Book.kepub.epub", "Book", ""},
		{"Book.epub", "Book", ""},
		{"file:///mnt/onboard/x/ - Anon.epub", "", "Anon"},
		{"0f3a2c1e-5b1d-4a8e-9c77-1a2b3c4d5e6f", "0f3a2c1e-5b1d-4a8e-9c77-1a2b3c4d5e6f", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			title, author := ParseVolumeID(tt.in)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.author, author)
		})
	}
}

func TestRowValuesMatchFields(t *testing.T) {
	r := Row{BookmarkID: "1", Type: "2", Annotation: "note"}
	v := r.Values()
	require.Len(t, v, len(Fields))
	assert.Equal(t, "1", v[0])
	assert.Equal(t, "note", v[8])
	assert.Equal(t, "2", v[9])
}
