package kobo

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// DatabaseFile is the database location relative to a device mount point.
var DatabaseFile = filepath.Join(".kobo", "KoboReader.sqlite")

// CandidateRoots returns the existing directories under which a Kobo device
// is commonly mounted on this platform.
func CandidateRoots() []string {
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}

	var roots []string
	switch runtime.GOOS {
	case "linux":
		if user != "" {
			roots = append(roots, filepath.Join("/run/media", user), filepath.Join("/media", user))
		}
		roots = append(roots, "/media", "/mnt")
	case "darwin":
		roots = []string{"/Volumes"}
	case "windows":
		for letter := 'D'; letter <= 'Z'; letter++ {
			roots = append(roots, string(letter)+`:\`)
		}
	default:
		roots = []string{"/mnt", "/media", "/Volumes"}
	}

	var existing []string
	for _, r := range roots {
		if info, err := os.Stat(r); err == nil && info.IsDir() {
			existing = append(existing, r)
		}
	}
	return existing
}

// FindDatabases looks for .kobo/KoboReader.sqlite directly under each root
// and under each of its immediate subdirectories. Unreadable paths are
// skipped.
// Each database is reported once, even when roots overlap.
func FindDatabases(roots []string) []string {
	var matches []string
	seen := make(map[string]bool)
	for _, root := range roots {
		for _, mount := range possibleMounts(root) {
			candidate := filepath.Clean(filepath.Join(mount, DatabaseFile))
			if seen[candidate] {
				continue
			}
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				seen[candidate] = true
				matches = append(matches, candidate)
			}
		}
	}
	return matches
}

func possibleMounts(root string) []string {
	mounts := []string{root}
	entries, err := os.ReadDir(root)
	if err != nil {
		return mounts
	}
	for _, e := range entries {
		if e.IsDir() {
			mounts = append(mounts, filepath.Join(root, e.Name()))
		}
	}
	return mounts
}

// Detect searches the platform mount points and returns the best database.
func Detect() (string, error) {
	best, ok := ChooseBest(FindDatabases(CandidateRoots()))
	if !ok {
		return "", ErrNoDevice
	}
	return best, nil
}

// ChooseBest picks the most likely device database. Paths mentioning "kobo"
// anywhere outside the .kobo directory itself win; ties go to the most
// recently modified file.
func ChooseBest(paths []string) (string, bool) {
	ranked := RankDatabases(paths)
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0], true
}

// RankDatabases orders paths best first using the same rules as ChooseBest.
func RankDatabases(paths []string) []string {
	type scored struct {
		path  string
		hint  bool
		mtime int64
	}
	items := make([]scored, 0, len(paths))
	for _, p := range paths {
		s := scored{path: p, hint: hasKoboHint(p)}
		if info, err := os.Stat(p); err == nil {
			s.mtime = info.ModTime().UnixNano()
		}
		items = append(items, s)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].hint != items[j].hint {
			return items[i].hint
		}
		return items[i].mtime > items[j].mtime
	})
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.path
	}
	return out
}

// hasKoboHint reports whether a directory above the .kobo folder mentions
// kobo, as in /media/user/KOBOeReader.
func hasKoboHint(path string) bool {
	dir := filepath.Dir(path)
	if strings.EqualFold(filepath.Base(dir), ".kobo") {
		dir = filepath.Dir(dir)
	}
	return strings.Contains(strings.ToLower(filepath.ToSlash(dir)), "kobo")
}
