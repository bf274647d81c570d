package kobo

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Bookmark is one highlight or note from the Bookmark table.
type Bookmark struct {
	BookmarkID      string
	VolumeID        string
	ContentID       string
	DateCreated     string
	DateModified    string
	ChapterProgress *float64
	Color           *int
	Hidden          *int
	Text            string
	Annotation      string
	UUID            string
	UserID          string
	SyncTime        string
	ContextString   string
	Type            *int
}

// Bookmarks with neither text nor annotation are skipped, as are hidden ones.
// Hidden is stored inconsistently across firmware versions (integer, real or
// text), so every representation of "false" counts as visible.
const bookmarkQuery = `
SELECT BookmarkID, VolumeID, ContentID,
       CAST(DateCreated AS TEXT), CAST(DateModified AS TEXT),
       ChapterProgress, Color, Hidden, Text, Annotation, UUID, UserID,
       CAST(SyncTime AS TEXT), ContextString, Type
FROM Bookmark
WHERE ((Text IS NOT NULL AND TRIM(Text)!='')
   OR (Annotation IS NOT NULL AND TRIM(Annotation)!=''))
  AND (
    CASE
      WHEN Hidden IS NULL THEN 1
      WHEN typeof(Hidden)='integer' THEN CASE WHEN Hidden=0 THEN 1 ELSE 0 END
      WHEN typeof(Hidden)='real' THEN CASE WHEN Hidden=0.0 THEN 1 ELSE 0 END
      WHEN typeof(Hidden)='text' THEN CASE
           WHEN lower(Hidden) IN ('false','0','no','n') THEN 1
           WHEN trim(Hidden)='' THEN 1
           ELSE 0
         END
      ELSE 1
    END
  )=1
ORDER BY DateCreated`

// Bookmarks loads visible highlights and notes ordered by creation time.
func (d *DB) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	start := time.Now()
	bookmarks, err := d.queryBookmarks(ctx)
	d.log.LogDbOperation("load bookmarks", time.Since(start), len(bookmarks), err)
	return bookmarks, err
}

func (d *DB) queryBookmarks(ctx context.Context) ([]Bookmark, error) {
	rows, err := d.db.QueryContext(ctx, bookmarkQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	var out []Bookmark
	for rows.Next() {
		var (
			id, volumeID, contentID, created, modified        sql.NullString
			text, annotation, uuid, userID, syncTime, context sql.NullString
			progress, color, hidden, typ                      any
		)
		if err := rows.Scan(&id, &volumeID, &contentID, &created, &modified,
			&progress, &color, &hidden, &text, &annotation, &uuid, &userID,
			&syncTime, &context, &typ); err != nil {
			return nil, fmt.Errorf("failed to read bookmark row: %w", err)
		}
		out = append(out, Bookmark{
			BookmarkID:      id.String,
			VolumeID:        volumeID.String,
			ContentID:       contentID.String,
			DateCreated:     created.String,
			DateModified:    modified.String,
			ChapterProgress: asFloat(progress),
			Color:           asInt(color),
			Hidden:          asInt(hidden),
			Text:            text.String,
			Annotation:      annotation.String,
			UUID:            uuid.String,
			UserID:          userID.String,
			SyncTime:        syncTime.String,
			ContextString:   context.String,
			Type:            asInt(typ),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}
	return out, nil
}

// asFloat converts a loosely typed column value, returning nil for NULL,
// blank or unparsable values.
func asFloat(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case int64:
		f = float64(x)
	case float64:
		f = x
	case []byte:
		return asFloat(string(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// asInt converts a loosely typed column value. Reals are truncated; strings
// must be plain (optionally negative) integers.
func asInt(v any) *int {
	var n int
	switch x := v.(type) {
	case int64:
		n = int(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		n = int(x)
	case []byte:
		return asInt(string(x))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}
