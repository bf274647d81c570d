package chapter

import "testing"

func TestTail(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"double bang", "/a/book!!OEBPS!xhtml/chap6.xhtml#p1-2", "OEBPS!xhtml/chap6.xhtml"},
		{"single bang", "uuid!OEBPS!xhtml/chap6.xhtml#p1-2", "OEBPS!xhtml/chap6.xhtml"},
		{"escaped", "/a/b.epub!!Text/My%20Chapter.xhtml", "Text/My Chapter.xhtml"},
		{"no separator", "/plain/path.xhtml#p3", ""},
		{"undecodable", "/a!!bad%zz.html", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tail(tt.id); got != tt.want {
				t.Errorf("Tail(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestFragmentBase(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/path/file.xhtml#p80-2", "/path/file.xhtml#p80"},
		{"/path/file.xhtml#p80", "/path/file.xhtml#p80"},
		{"/path/file.xhtml", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FragmentBase(tt.id); got != tt.want {
			t.Errorf("FragmentBase(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPreBang(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/a/book.kepub.epub!!index_split_000.html#p40-2", "/a/book.kepub.epub"},
		{"/a/ch.xhtml#p3-1", "/a/ch.xhtml#p3"},
		{"/a/ch.xhtml", "/a/ch.xhtml"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := PreBang(tt.id); got != tt.want {
			t.Errorf("PreBang(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPAnchor(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/path#p167-2", "p167"},
		{"/path#p40", "p40"},
		{"/path#167", ""},
		{"/path#x12-1", ""},
		{"/path", ""},
	}

	for _, tt := range tests {
		if got := PAnchor(tt.id); got != tt.want {
			t.Errorf("PAnchor(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("/a/My%20Book.epub"); got != "/a/My Book.epub" {
		t.Errorf("Normalize = %q", got)
	}
	if got := Normalize("100%zz"); got != "" {
		t.Errorf("Normalize of bad escape = %q, want empty", got)
	}
}

func TestStripHelpers(t *testing.T) {
	id := "/a/book.epub!!OEBPS/c1.xhtml#p4"
	if got := StripFragment(id); got != "/a/book.epub!!OEBPS/c1.xhtml" {
		t.Errorf("StripFragment = %q", got)
	}
	if got := StripAfterBangBang(id); got != "/a/book.epub" {
		t.Errorf("StripAfterBangBang = %q", got)
	}
	if got := StripAfterBangBang("/a/book.epub"); got != "/a/book.epub" {
		t.Errorf("StripAfterBangBang without separator = %q", got)
	}
}
