package chapter

// Record is one row of the Kobo content table: a book, a file inside a book,
// or a table-of-contents entry.
type Record struct {
	ContentID   string
	BookID      string
	BookTitle   string
	Title       string
	Attribution string
	ContentURL  string
	// Depth is the declared ToC nesting depth, 0 when unknown.
	Depth int
}

// Highlight is the part of a bookmark the resolver looks at.
type Highlight struct {
	ContentID     string
	ContextString string
}

// Index holds every lookup the resolver needs, keyed by forms derived from
// ContentID or ContentURL. Buckets keep load order. An Index is not modified
// after BuildIndex returns and is safe for concurrent readers.
type Index struct {
	ByID            map[string][]Record
	ByNormalizedID  map[string][]Record
	ByURL           map[string][]Record
	ByNormalizedURL map[string][]Record
	ByFragmentBase  map[string][]Record
	ByPreBang       map[string][]Record
	ByTail          map[string][]Record
	ByPAnchor       map[string][]Record
	ByBook          map[string][]Record
}

// BuildIndex indexes records in a single pass. A record is left out of any
// mapping whose key cannot be derived from it.
func BuildIndex(records []Record) *Index {
	ix := &Index{
		ByID:            make(map[string][]Record, len(records)),
		ByNormalizedID:  make(map[string][]Record, len(records)),
		ByURL:           make(map[string][]Record),
		ByNormalizedURL: make(map[string][]Record),
		ByFragmentBase:  make(map[string][]Record),
		ByPreBang:       make(map[string][]Record),
		ByTail:          make(map[string][]Record),
		ByPAnchor:       make(map[string][]Record),
		ByBook:          make(map[string][]Record),
	}
	for _, r := range records {
		id := r.ContentID
		add(ix.ByID, id, r)
		add(ix.ByNormalizedID, Normalize(id), r)
		add(ix.ByURL, r.ContentURL, r)
		add(ix.ByNormalizedURL, Normalize(r.ContentURL), r)
		add(ix.ByFragmentBase, FragmentBase(id), r)
		add(ix.ByPreBang, PreBang(id), r)
		add(ix.ByTail, Tail(id), r)
		add(ix.ByPAnchor, PAnchor(id), r)
		add(ix.ByBook, r.BookID, r)
	}
	return ix
}

func add(m map[string][]Record, key string, r Record) {
	if key == "" {
		return
	}
	m[key] = append(m[key], r)
}

func first(m map[string][]Record, key string) (Record, bool) {
	if key == "" {
		return Record{}, false
	}
	if rs := m[key]; len(rs) > 0 {
		return rs[0], true
	}
	return Record{}, false
}

// Lookup finds the content record a bookmark's ContentID refers to. Bookmark
// identifiers often carry a fragment the content row lacks, and may differ in
// percent-escaping, so the exact id is tried first, then progressively looser
// forms, then the same forms against ContentURL.
func (ix *Index) Lookup(contentID string) (Record, bool) {
	if contentID == "" {
		return Record{}, false
	}
	noFrag := StripFragment(contentID)
	probes := []struct {
		m   map[string][]Record
		key string
	}{
		{ix.ByID, contentID},
		{ix.ByNormalizedID, Normalize(contentID)},
		{ix.ByID, noFrag},
		{ix.ByNormalizedID, Normalize(noFrag)},
		{ix.ByURL, contentID},
		{ix.ByURL, noFrag},
		{ix.ByNormalizedURL, Normalize(contentID)},
		{ix.ByNormalizedURL, Normalize(noFrag)},
	}
	for _, p := range probes {
		if r, ok := first(p.m, p.key); ok {
			return r, true
		}
	}
	return Record{}, false
}

// Record returns the first record loaded under exactly id.
func (ix *Index) Record(id string) (Record, bool) {
	return first(ix.ByID, id)
}

// RecordByURL returns the first record whose ContentURL is exactly url.
func (ix *Index) RecordByURL(url string) (Record, bool) {
	return first(ix.ByURL, url)
}

// Len reports the number of distinct content ids indexed.
func (ix *Index) Len() int {
	return len(ix.ByID)
}
