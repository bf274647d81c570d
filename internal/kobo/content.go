package kobo

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/metcalfc/kobo-highlights/internal/chapter"
)

const (
	contentQuery = `SELECT ContentID, BookID, BookTitle, Title, Attribution, ContentURL, Depth FROM content`
	// Older firmware has no Depth column.
	contentQueryNoDepth = `SELECT ContentID, BookID, BookTitle, Title, Attribution, ContentURL, NULL FROM content`
)

// Content loads every row of the content table in table order. When a read
// fails part way, the rows loaded so far are returned with the error.
func (d *DB) Content(ctx context.Context) ([]chapter.Record, error) {
	start := time.Now()
	records, err := d.queryContent(ctx, contentQuery)
	if err != nil && strings.Contains(err.Error(), "no such column") {
		records, err = d.queryContent(ctx, contentQueryNoDepth)
	}
	d.log.LogDbOperation("load content", time.Since(start), len(records), err)
	return records, err
}

func (d *DB) queryContent(ctx context.Context, query string) ([]chapter.Record, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	var records []chapter.Record
	for rows.Next() {
		var (
			id, bookID, bookTitle, title, attribution, url sql.NullString
			depth                                          sql.NullString
		)
		if err := rows.Scan(&id, &bookID, &bookTitle, &title, &attribution, &url, &depth); err != nil {
			return records, fmt.Errorf("failed to read content row: %w", err)
		}
		records = append(records, chapter.Record{
			ContentID:   id.String,
			BookID:      bookID.String,
			BookTitle:   bookTitle.String,
			Title:       title.String,
			Attribution: attribution.String,
			ContentURL:  url.String,
			Depth:       parseDepth(depth.String),
		})
	}
	if err := rows.Err(); err != nil {
		return records, fmt.Errorf("failed to read content: %w", err)
	}
	return records, nil
}

func parseDepth(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
