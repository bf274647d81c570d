// Package state remembers what was exported from each Kobo database so later
// runs can export only new highlights.
package state

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

const (
	stateFileName = "exports.json"
	headerBytes   = 100 // SQLite database header
)

// ExportState records the last export from one database.
type ExportState struct {
	Path        string    `json:"path"`
	LastExport  time.Time `json:"last_export"`
	LastCreated string    `json:"last_created"`
	Count       int       `json:"count"`
}

// Store manages persistent export state
type Store struct {
	path string
	data map[string]ExportState
	mu   sync.RWMutex
}

// NewStore creates or loads state from XDG_STATE_HOME/kobo-highlights/
func NewStore() (*Store, error) {
	dir := getStateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	store := &Store{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]ExportState),
	}
	if err := store.load(); err != nil {
		// Non-fatal - start with empty state
		store.data = make(map[string]ExportState)
	}
	return store, nil
}

// getStateDir returns XDG_STATE_HOME/kobo-highlights or ~/.local/state/kobo-highlights
func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "kobo-highlights")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "kobo-highlights")
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Fingerprint identifies a database by its absolute path and SQLite header.
// The change counters, page count and freelist fields are zeroed so the key
// survives the device writing to the database between exports.
func Fingerprint(filename string) (string, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return "", err
	}
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, headerBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	header := buf[:n]
	for _, r := range [][2]int{{24, 40}, {92, 100}} {
		for i := r[0]; i < r[1] && i < len(header); i++ {
			header[i] = 0
		}
	}

	h := blake3.New()
	h.Write([]byte(filepath.ToSlash(abs)))
	h.Write([]byte{0})
	h.Write(header)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]), nil
}

// Get returns saved state for a fingerprint.
func (s *Store) Get(key string) (ExportState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[key]
	return st, ok
}

// Set saves state for a fingerprint
func (s *Store) Set(key string, st ExportState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = st
	return s.save()
}

// Clear removes saved state for a fingerprint
func (s *Store) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.save()
}

// After reports whether a DateCreated value is newer than mark. Kobo stores
// ISO 8601 timestamps, which order correctly as strings. Everything is newer
// than an empty mark; blank dates never are.
func After(created, mark string) bool {
	if mark == "" {
		return true
	}
	return created != "" && created > mark
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.data)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
