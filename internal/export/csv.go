package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/metcalfc/kobo-highlights/internal/highlights"
)

// CSVFormat writes every row to one CSV file with a header line.
type CSVFormat struct{}

func init() {
	Register(&CSVFormat{})
}

func (f *CSVFormat) Name() string         { return "csv" }
func (f *CSVFormat) Extensions() []string { return []string{".csv"} }

func (f *CSVFormat) Write(dest string, rows []highlights.Row) (int, error) {
	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	file, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(file, rows); err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := file.Close(); err != nil {
		return 0, err
	}
	return 1, nil
}

// WriteCSV writes a header and rows in highlights.Fields order.
func WriteCSV(w io.Writer, rows []highlights.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(highlights.Fields); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSVFile reads rows previously written by WriteCSV.
func ReadCSVFile(path string) ([]highlights.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("CSV not found: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV reads rows by header name, so column order and extra columns do
// not matter. Missing columns read as empty.
func ReadCSV(r io.Reader) ([]highlights.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var rows []highlights.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("failed to read CSV: %w", err)
		}
		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		rows = append(rows, highlights.Row{
			BookmarkID:   get("BookmarkID"),
			BookTitle:    get("BookTitle"),
			Author:       get("Author"),
			ChapterTitle: get("ChapterTitle"),
			DateCreated:  get("DateCreated"),
			DateModified: get("DateModified"),
			Color:        get("Color"),
			Text:         get("Text"),
			Annotation:   get("Annotation"),
			Type:         get("Type"),
		})
	}
	return rows, nil
}
