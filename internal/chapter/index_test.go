package chapter

import "testing"

func TestBuildIndex(t *testing.T) {
	records := []Record{
		{ContentID: "/b.epub", BookID: "", Title: "Book"},
		{ContentID: "/b.epub!!OEBPS/c1.xhtml#p1", BookID: "/b.epub", Title: "One"},
		{ContentID: "/b.epub!!OEBPS/c1.xhtml#p1-2", BookID: "/b.epub", Title: "One again"},
		{ContentID: "/b.epub!!OEBPS/c2.xhtml", BookID: "/b.epub", Title: "Two", ContentURL: "/b/c2.html"},
	}
	ix := BuildIndex(records)

	if ix.Len() != 4 {
		t.Errorf("Len() = %d, want 4", ix.Len())
	}

	tail := ix.ByTail["OEBPS/c1.xhtml"]
	if len(tail) != 2 || tail[0].Title != "One" || tail[1].Title != "One again" {
		t.Errorf("ByTail bucket out of load order: %+v", tail)
	}

	if fb := ix.ByFragmentBase["/b.epub!!OEBPS/c1.xhtml#p1"]; len(fb) != 2 {
		t.Errorf("ByFragmentBase has %d records, want 2", len(fb))
	}

	if pb := ix.ByPreBang["/b.epub"]; len(pb) != 4 {
		t.Errorf("ByPreBang has %d records, want 4", len(pb))
	}

	if pa := ix.ByPAnchor["p1"]; len(pa) != 2 {
		t.Errorf("ByPAnchor has %d records, want 2", len(pa))
	}

	if _, ok := ix.ByBook[""]; ok {
		t.Error("records without a BookID must not be indexed by book")
	}
	if got := len(ix.ByBook["/b.epub"]); got != 3 {
		t.Errorf("ByBook has %d records, want 3", got)
	}

	if _, ok := ix.ByURL[""]; ok {
		t.Error("records without a ContentURL must not be indexed by URL")
	}
	if _, ok := ix.ByTail[""]; ok {
		t.Error("records without a tail must not be indexed by tail")
	}
}

func TestIndexLookup(t *testing.T) {
	ix := BuildIndex([]Record{
		{ContentID: "/a/My%20Book.epub", Title: "escaped"},
		{ContentID: "/a/b.epub!!c.html", Title: "container file"},
		{ContentID: "X", ContentURL: "/a/url.html", Title: "by url"},
		{ContentID: "/a/exact#p1", Title: "exact"},
	})

	tests := []struct {
		id    string
		want  string
		found bool
	}{
		{"/a/exact#p1", "exact", true},
		{"/a/My Book.epub", "escaped", true},
		{"/a/b.epub!!c.html#p7-1", "container file", true},
		{"/a/url.html#p3", "by url", true},
		{"/a/missing.html", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, ok := ix.Lookup(tt.id)
			if ok != tt.found {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.id, ok, tt.found)
			}
			if r.Title != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.id, r.Title, tt.want)
			}
		})
	}
}
