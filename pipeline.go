package main

import (
	"context"
	"fmt"
	"time"

	"github.com/metcalfc/kobo-highlights/internal/chapter"
	"github.com/metcalfc/kobo-highlights/internal/epubtoc"
	"github.com/metcalfc/kobo-highlights/internal/highlights"
	"github.com/metcalfc/kobo-highlights/internal/kobo"
	"github.com/metcalfc/kobo-highlights/internal/logger"
)

// source says where highlights come from and how chapters are resolved.
type source struct {
	DB             string
	AutoDetect     bool
	BooksDir       string
	Suppress       bool
	SiblingOffsets []int
}

// loaded is the enriched content of one database.
type loaded struct {
	DBPath string
	Rows   []highlights.Row
	Stages map[chapter.Stage]int
}

// load reads the database, optionally merges EPUB tables of contents, and
// enriches every visible bookmark.
func load(ctx context.Context, src source, log *logger.Logger) (*loaded, error) {
	dbPath := src.DB
	if src.AutoDetect {
		detected, err := kobo.Detect()
		if err != nil {
			return nil, err
		}
		log.Info().Str("db", detected).Msg("detected Kobo database")
		dbPath = detected
	}

	db, err := kobo.Open(ctx, dbPath, log.Component("kobo"))
	if err != nil {
		return nil, err
	}
	defer db.Close()
	log.Info().Str("db", dbPath).Msg("using database")

	records, err := db.Content(ctx)
	if err != nil {
		// Chapter lookup degrades without content rows; bookmarks still export.
		log.Error().Err(err).Int("records", len(records)).Msg("error reading content table")
	}

	bookmarks, err := db.Bookmarks(ctx)
	if err != nil {
		return nil, err
	}

	if src.BooksDir != "" {
		start := time.Now()
		var volumes []string
		for _, b := range bookmarks {
			volumes = append(volumes, b.VolumeID)
		}
		extra := epubtoc.Load(src.BooksDir, volumes, log.Component("epubtoc"))
		records = append(records, extra...)
		log.Debug().
			Int("records", len(extra)).
			Dur("duration", time.Since(start)).
			Msg("merged EPUB tables of contents")
	}

	var opts []chapter.Option
	if len(src.SiblingOffsets) > 0 {
		opts = append(opts, chapter.WithSiblingOffsets(src.SiblingOffsets...))
	}
	enricher := highlights.NewEnricher(chapter.BuildIndex(records), src.Suppress, opts...)
	rows := enricher.EnrichAll(bookmarks)

	stages := make(map[chapter.Stage]int)
	for _, r := range rows {
		stages[r.Stage]++
	}
	for stage, n := range stages {
		log.Debug().Str("stage", stage.String()).Int("rows", n).Msg("chapter titles resolved")
	}

	return &loaded{DBPath: dbPath, Rows: rows, Stages: stages}, nil
}

// stageSummary formats stage counts in cascade order.
func stageSummary(stages map[chapter.Stage]int) string {
	var out string
	for s := chapter.StageRecord; s <= chapter.StageFallback; s++ {
		if n := stages[s]; n > 0 {
			if out != "" {
				out += ", "
			}
			out += fmt.Sprintf("%s %d", s, n)
		}
	}
	if n := stages[chapter.StageNone]; n > 0 {
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("untitled %d", n)
	}
	return out
}
