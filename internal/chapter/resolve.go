package chapter

import "strconv"

// Stage identifies which step of the cascade produced a chapter title.
type Stage int

const (
	StageNone Stage = iota
	StageRecord
	StageContext
	StageFragmentBase
	StageTail
	StagePAnchor
	StageSibling
	StagePreBang
	StageFallback
)

var stageNames = [...]string{
	StageNone:         "none",
	StageRecord:       "record",
	StageContext:      "context",
	StageFragmentBase: "fragment-base",
	StageTail:         "tail",
	StagePAnchor:      "p-anchor",
	StageSibling:      "sibling",
	StagePreBang:      "pre-bang",
	StageFallback:     "fallback",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

// DefaultSiblingOffsets are the "-N" suffixes probed after a bookmark's tail.
// Kobo ToC entries commonly point one to five entries past the file a
// bookmark lives in.
var DefaultSiblingOffsets = []int{1, 2, 3, 4, 5}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSiblingOffsets replaces DefaultSiblingOffsets.
func WithSiblingOffsets(offsets ...int) Option {
	return func(r *Resolver) {
		r.siblingOffsets = append([]int(nil), offsets...)
	}
}

// Resolver computes chapter titles against a fixed Index. It holds no
// mutable state, so one Resolver may serve many goroutines.
type Resolver struct {
	index          *Index
	suppress       bool
	siblingOffsets []int
	stages         []stage
}

type stage struct {
	id  Stage
	run func(*Resolver, *query) string
}

// query carries the forms derived from one bookmark's ContentID.
type query struct {
	record   *Record
	context  string
	id       string
	noFrag   string
	tail     string
	fragBase string
	preBang  string
	pAnchor  string
}

// NewResolver returns a Resolver over ix. With suppressFilenameLike set,
// titles that IsGeneric flags are treated as missing.
func NewResolver(ix *Index, suppressFilenameLike bool, opts ...Option) *Resolver {
	r := &Resolver{
		index:          ix,
		suppress:       suppressFilenameLike,
		siblingOffsets: append([]int(nil), DefaultSiblingOffsets...),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stages = []stage{
		{StageRecord, (*Resolver).fromRecord},
		{StageContext, (*Resolver).fromContext},
		{StageFragmentBase, (*Resolver).fromFragmentBase},
		{StageTail, (*Resolver).fromTail},
		{StagePAnchor, (*Resolver).fromPAnchor},
		{StageSibling, (*Resolver).fromSiblings},
		{StagePreBang, (*Resolver).fromPreBang},
		{StageFallback, (*Resolver).fromContentID},
	}
	return r
}

// Resolve returns the chapter title for h, or "" when nothing usable is
// found. record is the content row h points at, if any.
func (r *Resolver) Resolve(record *Record, h Highlight) string {
	title, _ := r.ResolveWithStage(record, h)
	return title
}

// ResolveWithStage is Resolve that also reports which stage produced the
// title. The stage is StageNone when the title is empty.
func (r *Resolver) ResolveWithStage(record *Record, h Highlight) (string, Stage) {
	q := &query{
		record:   record,
		context:  h.ContextString,
		id:       h.ContentID,
		noFrag:   StripFragment(h.ContentID),
		tail:     Tail(h.ContentID),
		fragBase: FragmentBase(h.ContentID),
		preBang:  PreBang(h.ContentID),
		pAnchor:  PAnchor(h.ContentID),
	}
	for _, s := range r.stages {
		if t := s.run(r, q); t != "" {
			return t, s.id
		}
	}
	return "", StageNone
}

func (r *Resolver) clean(title string) string {
	return Clean(title, r.suppress)
}

// usable cleans title and rejects "table of contents".
func (r *Resolver) usable(title string) string {
	t := r.clean(title)
	if isTableOfContents(t) {
		return ""
	}
	return t
}

func (r *Resolver) fromRecord(q *query) string {
	if q.record == nil {
		return ""
	}
	return r.clean(q.record.Title)
}

func (r *Resolver) fromContext(q *query) string {
	return r.clean(TitleFromContext(q.context))
}

func (r *Resolver) fromFragmentBase(q *query) string {
	if q.fragBase == "" {
		return ""
	}
	return r.bestBySimilarity(q.tail, r.index.ByFragmentBase[q.fragBase])
}

// fromTail ranks by title length alone: every candidate shares the exact
// tail, so similarity cannot separate them.
func (r *Resolver) fromTail(q *query) string {
	if q.tail == "" {
		return ""
	}
	var best candidate
	for _, rec := range r.index.ByTail[q.tail] {
		t := r.usable(rec.Title)
		if t == "" {
			continue
		}
		if c := newCandidate(0, t); best.title == "" || c.size > best.size {
			best = c
		}
	}
	return best.title
}

func (r *Resolver) fromPAnchor(q *query) string {
	if q.pAnchor == "" {
		return ""
	}
	return r.bestBySimilarity(q.tail, r.index.ByPAnchor[q.pAnchor])
}

// fromSiblings probes "<tail>-N" for each configured offset and stops at the
// first offset with any usable title, preferring deeper ToC entries.
func (r *Resolver) fromSiblings(q *query) string {
	if q.tail == "" {
		return ""
	}
	for _, n := range r.siblingOffsets {
		var best candidate
		for _, rec := range r.index.ByTail[q.tail+"-"+strconv.Itoa(n)] {
			t := r.usable(rec.Title)
			if t == "" {
				continue
			}
			if c := newCandidate(rec.Depth, t); best.title == "" || c.better(best) {
				best = c
			}
		}
		if best.title != "" {
			return best.title
		}
	}
	return ""
}

func (r *Resolver) fromPreBang(q *query) string {
	if q.preBang == "" {
		return ""
	}
	return r.bestBySimilarity(q.tail, r.index.ByPreBang[q.preBang])
}

func (r *Resolver) fromContentID(q *query) string {
	id := q.noFrag
	if id == "" {
		id = q.id
	}
	return r.clean(TitleFromContentID(id))
}

func (r *Resolver) bestBySimilarity(tail string, records []Record) string {
	var best candidate
	for _, rec := range records {
		t := r.usable(rec.Title)
		if t == "" {
			continue
		}
		c := newCandidate(ScoreTail(tail, Tail(rec.ContentID)), t)
		if best.title == "" || c.better(best) {
			best = c
		}
	}
	return best.title
}
