package epubtoc

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/kobo-highlights/internal/chapter"
)

const (
	containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

	contentOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:creator>Test Author</dc:creator>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="text/ch01.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch02.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch3" href="text/ch03.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
    <itemref idref="ch3"/>
  </spine>
</package>`

	tocNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="n1" playOrder="1">
      <navLabel><text>Part One</text></navLabel>
      <content src="text/ch01.xhtml"/>
      <navPoint id="n2" playOrder="2">
        <navLabel><text> The Beginning </text></navLabel>
        <content src="text/ch01.xhtml#s2"/>
      </navPoint>
    </navPoint>
    <navPoint id="n3" playOrder="3">
      <navLabel><text>Chapter 2</text></navLabel>
      <content src="text/ch02.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

	chapterHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>x</title></head>
<body><p>Before.</p><h2>An <em>Inter</em>lude<br/>in Verse</h2><h1>Later</h1></body></html>`
)

func writeEPUB(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	order := []string{"mimetype", "META-INF/container.xml", "OEBPS/content.opf", "OEBPS/toc.ncx",
		"OEBPS/text/ch01.xhtml", "OEBPS/text/ch02.xhtml", "OEBPS/text/ch03.xhtml"}
	for _, n := range order {
		body, ok := files[n]
		if !ok {
			continue
		}
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return p
}

func fixtureFiles() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf":      contentOPF,
		"OEBPS/toc.ncx":          tocNCX,
		"OEBPS/text/ch01.xhtml":  `<html><body><h1>Part One</h1></body></html>`,
		"OEBPS/text/ch02.xhtml":  `<html><body><p>No heading</p></body></html>`,
		"OEBPS/text/ch03.xhtml":  chapterHTML,
	}
}

const vol = "file:///mnt/onboard/Test Author/Test Book.epub"

func TestRecords(t *testing.T) {
	p := writeEPUB(t, t.TempDir(), "book.epub", fixtureFiles())

	records, err := Records(p, vol)
	require.NoError(t, err)

	want := []chapter.Record{
		{ContentID: vol + "!!OEBPS/text/ch01.xhtml", BookID: vol, Title: "Part One", Depth: 1},
		{ContentID: vol + "!!OEBPS/text/ch01.xhtml#s2", BookID: vol, Title: "The Beginning", Depth: 2},
		{ContentID: vol + "!!OEBPS/text/ch02.xhtml", BookID: vol, Title: "Chapter 2", Depth: 1},
		{ContentID: vol + "!!OEBPS/text/ch03.xhtml", BookID: vol, Title: "An Interlude in Verse", Depth: 1},
	}
	assert.Equal(t, want, records)
}

func TestRecordsWithoutNCX(t *testing.T) {
	files := fixtureFiles()
	delete(files, "OEBPS/toc.ncx")
	files["OEBPS/content.opf"] = strings.Replace(contentOPF,
		`<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>`, "", 1)
	p := writeEPUB(t, t.TempDir(), "book.epub", files)

	records, err := Records(p, vol)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Part One", records[0].Title)
	assert.Equal(t, "An Interlude in Verse", records[1].Title)
}

func TestRecordsResolveThroughIndex(t *testing.T) {
	p := writeEPUB(t, t.TempDir(), "book.epub", fixtureFiles())
	records, err := Records(p, vol)
	require.NoError(t, err)

	r := chapter.NewResolver(chapter.BuildIndex(records), true)
	title := r.Resolve(nil, chapter.Highlight{ContentID: vol + "!!OEBPS/text/ch03.xhtml#p4"})
	assert.Equal(t, "An Interlude in Verse", title)
}

func TestRecordsBadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.epub")
	require.NoError(t, os.WriteFile(p, []byte("not a zip"), 0o644))
	_, err := Records(p, vol)
	require.Error(t, err)
}

func TestFirstHeading(t *testing.T) {
	tests := []struct{ in, want string }{
		{chapterHTML, "An Interlude in Verse"},
		{`<h3>  Spaced   Out </h3>`, "Spaced Out"},
		{`<p>none</p><h4>too deep</h4>`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, firstHeading([]byte(tt.in)))
	}
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	nested := writeEPUB(t, dir, filepath.Join("Test Author", "Test Book.epub"), fixtureFiles())
	flat := writeEPUB(t, dir, "Other.kepub.epub", fixtureFiles())

	got, ok := Locate(dir, vol)
	require.True(t, ok)
	assert.Equal(t, nested, got)

	got, ok = Locate(dir, "file:///mnt/onboard/somewhere/else/Other.kepub.epub")
	require.True(t, ok)
	assert.Equal(t, flat, got)

	_, ok = Locate(dir, "file:///mnt/onboard/Missing.epub")
	assert.False(t, ok)
	_, ok = Locate(dir, "file:///mnt/onboard/notes.pdf")
	assert.False(t, ok)
	_, ok = Locate("", vol)
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeEPUB(t, dir, filepath.Join("Test Author", "Test Book.epub"), fixtureFiles())
	broken := filepath.Join(dir, "Broken.epub")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))

	records := Load(dir, []string{vol, vol, "file:///mnt/onboard/Broken.epub", "file:///mnt/onboard/Gone.epub"}, nil)
	assert.Len(t, records, 4)
}
