// Package export writes enriched highlights to CSV, Markdown and HTML.
package export

import (
	"fmt"
	"strings"

	"github.com/metcalfc/kobo-highlights/internal/highlights"
)

// Format writes rows to dest. Single-file formats treat dest as a file path;
// per-book formats treat it as a directory. Write returns the number of files
// written.
type Format interface {
	Name() string
	Extensions() []string
	Write(dest string, rows []highlights.Row) (int, error)
}

var registry []Format

// Register adds a format to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Lookup returns the registered format with the given name, ignoring case.
func Lookup(name string) (Format, error) {
	for _, f := range registry {
		if strings.EqualFold(f.Name(), name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown export format %q (supported: %s)", name, strings.Join(Names(), ", "))
}

// Names returns registered format names in registration order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, f := range registry {
		out = append(out, f.Name())
	}
	return out
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
