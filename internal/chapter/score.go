package chapter

import (
	"regexp"
	"strconv"
	"unicode/utf8"
)

var (
	pathSepRegex   = regexp.MustCompile(`[!/]+`)
	htmlExtRegex   = regexp.MustCompile(`(?i)\.(x?html?)$`)
	numberRunRegex = regexp.MustCompile(`\d{1,6}`)
)

// ScoreTail rates how closely cand resembles cur, where both are tails as
// returned by Tail. Identical tails, identical file names, nearby numbers in
// the file names and shared leading directories all add to the score. The
// score only orders candidates; it is never compared against a threshold.
func ScoreTail(cur, cand string) int {
	if cand == "" {
		return 0
	}
	score := 0
	if cand == cur {
		score += 100
	}
	curBase, candBase := baseName(cur), baseName(cand)
	if curBase != "" && curBase == candBase {
		score += 80
	}
	curNums, candNums := numbers(curBase), numbers(candBase)
	if len(curNums) > 0 && len(candNums) > 0 {
		diff := curNums[0] - candNums[0]
		if diff < 0 {
			diff = -diff
		}
		score += 50 - min(diff, 50)
	}
	curDirs, candDirs := splitDirs(cur), splitDirs(cand)
	common := 0
	for i := 0; i < len(curDirs) && i < len(candDirs); i++ {
		if curDirs[i] != candDirs[i] {
			break
		}
		common++
	}
	return score + min(common*5, 20)
}

// baseName returns the last path component of a tail without its html
// extension.
func baseName(tail string) string {
	if tail == "" {
		return ""
	}
	parts := pathSepRegex.Split(tail, -1)
	return htmlExtRegex.ReplaceAllString(parts[len(parts)-1], "")
}

func numbers(s string) []int {
	var out []int
	for _, m := range numberRunRegex.FindAllString(s, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func splitDirs(tail string) []string {
	var out []string
	for _, seg := range pathSepRegex.Split(tail, -1) {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// candidate is a title competing within one resolver stage. rank is the
// stage's primary key: a similarity score or a ToC depth.
type candidate struct {
	rank  int
	size  int
	title string
}

func newCandidate(rank int, title string) candidate {
	return candidate{rank: rank, size: utf8.RuneCountInString(title), title: title}
}

// better orders candidates by rank, then title length, then title. Exact
// ties keep the earlier candidate, so results follow load order.
func (c candidate) better(o candidate) bool {
	if c.rank != o.rank {
		return c.rank > o.rank
	}
	if c.size != o.size {
		return c.size > o.size
	}
	return c.title > o.title
}
