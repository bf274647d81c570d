// Package kobo reads highlights and content metadata from a Kobo e-reader's
// KoboReader.sqlite database.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (-tags cgo_sqlite): mattn/go-sqlite3
package kobo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/metcalfc/kobo-highlights/internal/logger"
)

var (
	// ErrDatabaseNotFound is returned when the database path is not a file.
	ErrDatabaseNotFound = errors.New("database file not found")
	// ErrNoDevice is returned when no mounted Kobo device can be found.
	ErrNoDevice = errors.New("no Kobo device found")
)

// DriverName returns the database/sql driver name in use.
func DriverName() string {
	return driverName
}

// DB is a read-only handle on a Kobo database.
type DB struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// Open opens path read-only. It first asks SQLite to treat the file as
// immutable, which avoids creating -wal/-shm sidecars on the device, and
// falls back to a plain read-only open when that is refused.
func Open(ctx context.Context, path string, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
	}

	var lastErr error
	for _, dsn := range []string{
		fileURI(path) + "?mode=ro&immutable=1",
		fileURI(path) + "?mode=ro",
	} {
		db, err := sql.Open(driverName, dsn)
		if err != nil {
			lastErr = err
			continue
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			lastErr = err
			log.Debug().Str("dsn", dsn).Err(err).Msg("open attempt failed")
			continue
		}
		return &DB{db: db, path: path, log: log}, nil
	}
	return nil, fmt.Errorf("failed to open database %s: %w", path, lastErr)
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// fileURI builds an SQLite "file:" URI for path.
func fileURI(path string) string {
	p := filepath.ToSlash(path)
	if vol := filepath.VolumeName(path); vol != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file:" + uriEscaper.Replace(p)
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}
