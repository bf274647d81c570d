package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		"Warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"CRITICAL": zerolog.FatalLevel,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestComponentAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf}).Component("kobo")

	log.Debug().Msg("hidden")
	log.Info().Str("db", "KoboReader.sqlite").Msg("using database")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kobo", entry["component"])
	assert.Equal(t, "using database", entry["message"])
	assert.Equal(t, "KoboReader.sqlite", entry["db"])
}

func TestLogDbOperation(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf})

	log.LogDbOperation("load content", 3*time.Millisecond, 12, nil)
	log.LogDbOperation("load bookmarks", time.Millisecond, 0, errors.New("no such table: Bookmark"))

	out := buf.String()
	assert.Contains(t, out, `"records":12`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "no such table: Bookmark")
}
