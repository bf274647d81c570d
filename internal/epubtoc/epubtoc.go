// Package epubtoc reads table-of-contents entries straight from EPUB files so
// chapter titles can be resolved for books whose content rows are missing or
// carry only file names.
package epubtoc

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/metcalfc/kobo-highlights/internal/chapter"
)

// ErrNoNCX is returned when an EPUB carries no NCX table of contents.
var ErrNoNCX = errors.New("no NCX file found in EPUB")

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// Records returns content records for the EPUB at filename as if the device
// had indexed it under volumeID. NCX entries come first in document order
// with Depth counting from 1; spine documents the NCX never points at follow,
// titled by their first h1-h3 heading.
func Records(filename, volumeID string) ([]chapter.Record, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	book := rc.Rootfiles[0]

	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfDir := path.Dir(book.FullPath)
	resolve := func(dir, href string) string {
		if _, ok := files[stripFragment(href)]; ok {
			return href
		}
		return path.Join(dir, href)
	}

	var records []chapter.Record
	covered := make(map[string]bool)

	ncxPath, err := findNCX(zr.File, files, book)
	if err == nil {
		var toc ncx
		data, err := readFile(files[ncxPath])
		if err != nil {
			return nil, err
		}
		if err := xml.Unmarshal(data, &toc); err != nil {
			return nil, fmt.Errorf("failed to parse NCX: %w", err)
		}
		ncxDir := path.Dir(ncxPath)
		var flatten func(points []navPoint, depth int)
		flatten = func(points []navPoint, depth int) {
			for _, np := range points {
				href := np.Content.Src
				if href != "" {
					full := resolve(ncxDir, href)
					covered[stripFragment(full)] = true
					records = append(records, chapter.Record{
						ContentID: volumeID + "!!" + full,
						BookID:    volumeID,
						Title:     strings.TrimSpace(np.Label.Text),
						Depth:     depth,
					})
				}
				flatten(np.Children, depth+1)
			}
		}
		flatten(toc.NavMap.NavPoints, 1)
	} else if !errors.Is(err, ErrNoNCX) {
		return nil, err
	}

	for _, ref := range book.Spine.Itemrefs {
		if ref.Item == nil || ref.Item.HREF == "" {
			continue
		}
		full := resolve(opfDir, ref.Item.HREF)
		if covered[full] {
			continue
		}
		covered[full] = true
		f, ok := files[full]
		if !ok {
			continue
		}
		data, err := readFile(f)
		if err != nil {
			continue
		}
		if title := firstHeading(data); title != "" {
			records = append(records, chapter.Record{
				ContentID: volumeID + "!!" + full,
				BookID:    volumeID,
				Title:     title,
				Depth:     1,
			})
		}
	}

	return records, nil
}

func findNCX(entries []*zip.File, files map[string]*zip.File, book *epub.Rootfile) (string, error) {
	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath != "" {
		if _, ok := files[ncxPath]; ok {
			return ncxPath, nil
		}
		if full := path.Join(path.Dir(book.FullPath), ncxPath); files[full] != nil {
			return full, nil
		}
	}
	for _, f := range entries {
		if ncxPath != "" && path.Base(f.Name) == path.Base(ncxPath) {
			return f.Name, nil
		}
	}
	for _, f := range entries {
		if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
			return f.Name, nil
		}
	}
	return "", ErrNoNCX
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}

// firstHeading returns the collapsed text of the first h1, h2 or h3.
func firstHeading(data []byte) string {
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return ""
	}

	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H1, atom.H2, atom.H3:
				return n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if h := find(c); h != nil {
				return h
			}
		}
		return nil
	}
	h := find(doc)
	if h == nil {
		return ""
	}

	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			out.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			out.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(h)
	return strings.Join(strings.Fields(out.String()), " ")
}
