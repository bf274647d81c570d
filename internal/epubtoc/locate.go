package epubtoc

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/metcalfc/kobo-highlights/internal/chapter"
	"github.com/metcalfc/kobo-highlights/internal/logger"
)

// onboardPrefix is where the device keeps user storage.
const onboardPrefix = "/mnt/onboard/"

// Locate maps a VolumeID such as "file:///mnt/onboard/Author/Book.epub" to a
// file under booksDir. The path below /mnt/onboard is tried first, then the
// bare file name. Only .epub and .kepub.epub files qualify.
func Locate(booksDir, volumeID string) (string, bool) {
	if booksDir == "" || volumeID == "" {
		return "", false
	}
	p := volumeID
	if u, err := url.Parse(volumeID); err == nil && u.Path != "" {
		p = u.Path
	}
	if !strings.HasSuffix(strings.ToLower(p), ".epub") {
		return "", false
	}

	var candidates []string
	if rel, ok := strings.CutPrefix(p, onboardPrefix); ok {
		candidates = append(candidates, filepath.Join(booksDir, filepath.FromSlash(rel)))
	}
	candidates = append(candidates, filepath.Join(booksDir, path.Base(p)))

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}

// Load reads ToC records for every distinct volume that can be located
// under booksDir. Unreadable books are logged and skipped.
func Load(booksDir string, volumeIDs []string, log *logger.Logger) []chapter.Record {
	if log == nil {
		log = logger.Nop()
	}
	var records []chapter.Record
	seen := make(map[string]bool)
	for _, vol := range volumeIDs {
		if seen[vol] {
			continue
		}
		seen[vol] = true

		file, ok := Locate(booksDir, vol)
		if !ok {
			log.Debug().Str("volume", vol).Msg("book not found under books dir")
			continue
		}
		recs, err := Records(file, vol)
		if err != nil {
			log.Warn().Str("file", file).Err(err).Msg("failed to read EPUB table of contents")
			continue
		}
		log.Debug().Str("file", file).Int("entries", len(recs)).Msg("read EPUB table of contents")
		records = append(records, recs...)
	}
	return records
}
