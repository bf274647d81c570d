// Package chapter resolves human-readable chapter titles for Kobo bookmarks.
//
// Kobo content identifiers embed the book container path, the file inside the
// container (separated by "!" or "!!") and an optional paragraph fragment:
//
//	/mnt/onboard/Book.kepub.epub!!OEBPS!xhtml/chap6.xhtml#p12-3
//
// The content table rarely carries a title for the exact identifier a bookmark
// points at, so the Resolver walks a cascade of lookups keyed by forms derived
// from that identifier until one of them yields a meaningful title.
package chapter

import (
	"net/url"
	"strings"
)

// Tail returns the part of id after the container separator ("!!", or the
// first "!" when there is no "!!"), with the fragment removed and
// percent-escapes decoded.
//
//	"/a/book!!OEBPS!xhtml/chap6.xhtml#p1-2" -> "OEBPS!xhtml/chap6.xhtml"
//	"uuid!OEBPS!xhtml/chap6.xhtml#p1-2"     -> "OEBPS!xhtml/chap6.xhtml"
func Tail(id string) string {
	var tail string
	if _, after, ok := strings.Cut(id, "!!"); ok {
		tail = after
	} else if _, after, ok := strings.Cut(id, "!"); ok {
		tail = after
	} else {
		return ""
	}
	return Normalize(StripFragment(tail))
}

// FragmentBase returns id with any "-N" suffix of its fragment removed, or ""
// when id has no fragment.
//
//	"/path/file.xhtml#p80-2" -> "/path/file.xhtml#p80"
func FragmentBase(id string) string {
	pre, frag, ok := strings.Cut(id, "#")
	if !ok {
		return ""
	}
	anchor, _, _ := strings.Cut(frag, "-")
	return pre + "#" + anchor
}

// PreBang returns the part of id before "!!". Identifiers without "!!" are
// reduced to their fragment base, or returned as is when they have no
// fragment either.
func PreBang(id string) string {
	if id == "" {
		return ""
	}
	if before, _, ok := strings.Cut(id, "!!"); ok {
		return before
	}
	if fb := FragmentBase(id); fb != "" {
		return fb
	}
	return id
}

// PAnchor extracts a "pNNN" paragraph anchor from the fragment of id.
//
//	"/path#p167-2" -> "p167"
//	"/path#167"    -> ""
func PAnchor(id string) string {
	_, frag, ok := strings.Cut(id, "#")
	if !ok {
		return ""
	}
	base, _, _ := strings.Cut(frag, "-")
	if !strings.HasPrefix(base, "p") {
		return ""
	}
	return base
}

// Normalize percent-decodes id. Undecodable input yields "".
func Normalize(id string) string {
	s, err := url.PathUnescape(id)
	if err != nil {
		return ""
	}
	return s
}

// StripFragment removes everything from the first "#".
func StripFragment(id string) string {
	before, _, _ := strings.Cut(id, "#")
	return before
}

// StripAfterBangBang removes everything from the first "!!", leaving the
// container path.
func StripAfterBangBang(id string) string {
	before, _, _ := strings.Cut(id, "!!")
	return before
}
