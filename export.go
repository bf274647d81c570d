package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/kobo-highlights/internal/config"
	"github.com/metcalfc/kobo-highlights/internal/export"
	"github.com/metcalfc/kobo-highlights/internal/highlights"
	"github.com/metcalfc/kobo-highlights/internal/logger"
	"github.com/metcalfc/kobo-highlights/internal/state"
)

// defaultCSVName is used when csv is requested without --out.
const defaultCSVName = "highlights_enriched.csv"

// ExportCmd exports highlights.
type ExportCmd struct {
	DB                  string   `name:"db" help:"Path to KoboReader.sqlite (default: KoboReader.sqlite)" type:"path"`
	Out                 string   `name:"out" help:"Output CSV file. If omitted, a temporary CSV is used and deleted automatically." type:"path"`
	MDDir               string   `name:"md-dir" help:"Directory for Markdown notes, written as <md-dir>/<Author>/<Title>.md (default: notes)" type:"path"`
	HTMLDir             string   `name:"html-dir" help:"Directory for HTML notes (default: html)" type:"path"`
	Format              []string `name:"format" short:"f" help:"Output formats: markdown, html, csv (repeatable; default: markdown)"`
	KeepFilenameChapter bool     `name:"keep-filename-chapter" help:"Keep chapter titles that look like filenames (default is to suppress)"`
	BooksDir            string   `name:"books-dir" help:"Directory holding the device's EPUB files, used to read tables of contents" type:"path"`
	NewOnly             bool     `name:"new-only" help:"Only export highlights created since the last export of this database"`
	AutoDetect          bool     `name:"auto-detect" help:"Find the database on a mounted Kobo instead of using --db"`
}

// exportSettings are the effective options after merging flags over the
// config file.
type exportSettings struct {
	source
	Out     string
	MDDir   string
	HTMLDir string
	Formats []string
	NewOnly bool
}

func (c *ExportCmd) settings(cfg config.Config) exportSettings {
	pick := func(flag, file string) string {
		if flag != "" {
			return flag
		}
		return expandHome(file)
	}
	s := exportSettings{
		source: source{
			DB:             pick(c.DB, cfg.DB),
			AutoDetect:     c.AutoDetect,
			BooksDir:       pick(c.BooksDir, cfg.BooksDir),
			Suppress:       !(c.KeepFilenameChapter || cfg.KeepFilenameChapter),
			SiblingOffsets: cfg.SiblingOffsets,
		},
		Out:     pick(c.Out, cfg.Out),
		MDDir:   pick(c.MDDir, cfg.MDDir),
		HTMLDir: pick(c.HTMLDir, cfg.HTMLDir),
		Formats: cfg.Formats,
		NewOnly: c.NewOnly,
	}
	if len(c.Format) > 0 {
		s.Formats = nil
		for _, f := range c.Format {
			for _, part := range strings.Split(f, ",") {
				if part = strings.TrimSpace(part); part != "" {
					s.Formats = append(s.Formats, strings.ToLower(part))
				}
			}
		}
	}
	return s
}

func (c *ExportCmd) Run(g *Globals) error {
	cfg, log, err := g.setup()
	if err != nil {
		return err
	}
	sum, err := runExport(context.Background(), c.settings(cfg), log)
	if err != nil {
		return err
	}
	sum.render(os.Stderr)
	return nil
}

// output records what one format wrote.
type output struct {
	Format string
	Dest   string
	Files  int
}

// summary describes a finished export.
type summary struct {
	DB      string
	Rows    int
	Skipped int
	CSV     string
	Outputs []output
	Stages  string
}

func runExport(ctx context.Context, s exportSettings, log *logger.Logger) (*summary, error) {
	formats := make([]export.Format, 0, len(s.Formats))
	wantCSV := false
	for _, name := range s.Formats {
		f, err := export.Lookup(name)
		if err != nil {
			return nil, err
		}
		if f.Name() == "csv" {
			wantCSV = true
			continue
		}
		formats = append(formats, f)
	}

	res, err := load(ctx, s.source, log)
	if err != nil {
		return nil, err
	}
	rows := res.Rows

	var (
		store    *state.Store
		key      string
		previous state.ExportState
		skipped  int
	)
	if s.NewOnly {
		store, key, previous, err = openState(res.DBPath)
		if err != nil {
			return nil, err
		}
		rows = filterNew(rows, previous.LastCreated)
		skipped = len(res.Rows) - len(rows)
		log.Info().
			Str("since", previous.LastCreated).
			Int("skipped", skipped).
			Msg("exporting new highlights only")
	}

	sum := &summary{DB: res.DBPath, Rows: len(rows), Skipped: skipped, Stages: stageSummary(res.Stages)}

	csvPath := s.Out
	if csvPath == "" && wantCSV {
		csvPath = defaultCSVName
	}
	if csvPath == "" {
		tmp, err := os.MkdirTemp("", "kobo-highlights-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		csvPath = filepath.Join(tmp, defaultCSVName)
	} else {
		if abs, err := filepath.Abs(csvPath); err == nil {
			csvPath = abs
		}
		sum.CSV = csvPath
	}

	csvFormat, err := export.Lookup("csv")
	if err != nil {
		return nil, err
	}
	if _, err := csvFormat.Write(csvPath, rows); err != nil {
		return nil, err
	}
	log.Info().Int("rows", len(rows)).Str("csv", csvPath).Msg("wrote CSV")

	// Per-book formats render from the CSV just written. With --new-only the
	// CSV holds only new rows, so each book that gained one is rendered again
	// from all of its rows and the other books are left alone.
	bookRows, err := export.ReadCSVFile(csvPath)
	if err != nil {
		return nil, err
	}
	if s.NewOnly {
		bookRows = touchedBooks(res.Rows, rows)
	}
	for _, f := range formats {
		dest := s.MDDir
		if f.Name() == "html" {
			dest = s.HTMLDir
		}
		if dest == "" {
			log.Info().Str("format", f.Name()).Msg("no output directory; skipping")
			continue
		}
		n, err := f.Write(dest, bookRows)
		if err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.Name(), err)
		}
		if abs, err := filepath.Abs(dest); err == nil {
			dest = abs
		}
		log.Info().Str("format", f.Name()).Int("files", n).Str("dir", dest).Msg("rendered notes")
		sum.Outputs = append(sum.Outputs, output{Format: f.Name(), Dest: dest, Files: n})
	}

	if store != nil {
		next := state.ExportState{
			Path:        res.DBPath,
			LastExport:  time.Now().UTC(),
			LastCreated: latestCreated(rows, previous.LastCreated),
			Count:       len(rows),
		}
		if err := store.Set(key, next); err != nil {
			log.Warn().Err(err).Str("file", store.Path()).Msg("failed to save export state")
		}
	}
	return sum, nil
}

func openState(dbPath string) (*state.Store, string, state.ExportState, error) {
	store, err := state.NewStore()
	if err != nil {
		return nil, "", state.ExportState{}, fmt.Errorf("failed to open export state: %w", err)
	}
	key, err := state.Fingerprint(dbPath)
	if err != nil {
		return nil, "", state.ExportState{}, fmt.Errorf("failed to fingerprint %s: %w", dbPath, err)
	}
	previous, _ := store.Get(key)
	return store, key, previous, nil
}

func filterNew(rows []highlights.Row, mark string) []highlights.Row {
	var out []highlights.Row
	for _, r := range rows {
		if state.After(r.DateCreated, mark) {
			out = append(out, r)
		}
	}
	return out
}

// touchedBooks returns every row of the books that have at least one row in
// fresh, grouped the way the per-book formats group them.
func touchedBooks(all, fresh []highlights.Row) []highlights.Row {
	type key struct{ author, title string }
	touched := make(map[key]bool)
	for _, b := range export.GroupBooks(fresh) {
		touched[key{b.Author, b.Title}] = true
	}
	var out []highlights.Row
	for _, b := range export.GroupBooks(all) {
		if touched[key{b.Author, b.Title}] {
			out = append(out, b.Rows...)
		}
	}
	return out
}

func latestCreated(rows []highlights.Row, previous string) string {
	latest := previous
	for _, r := range rows {
		if r.DateCreated > latest {
			latest = r.DateCreated
		}
	}
	return latest
}

var (
	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#00AAFF"))

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Width(12)

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF"))
)

func (s *summary) render(w io.Writer) {
	line := func(label, value string) string {
		return summaryLabelStyle.Render(label) + summaryValueStyle.Render(value)
	}
	lines := []string{
		summaryTitleStyle.Render("Export complete"),
		line("database", s.DB),
		line("highlights", fmt.Sprintf("%d", s.Rows)),
	}
	if s.Skipped > 0 {
		lines = append(lines, line("skipped", fmt.Sprintf("%d already exported", s.Skipped)))
	}
	if s.CSV != "" {
		lines = append(lines, line("csv", s.CSV))
	}
	for _, o := range s.Outputs {
		lines = append(lines, line(o.Format, fmt.Sprintf("%d files under %s", o.Files, o.Dest)))
	}
	if s.Stages != "" {
		lines = append(lines, line("chapters", s.Stages))
	}
	fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, lines...))
}
