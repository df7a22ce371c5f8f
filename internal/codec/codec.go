// Package codec reads and writes node data hashes in the formats the
// CLI and HTTP API speak.
package codec

import (
	"fmt"
	"io"
	"sort"
)

// Importer parses a data hash from a stream
type Importer interface {
	Parse(r io.Reader) (map[string]any, error)
	Format() string
}

// Exporter writes a data hash to a stream
type Exporter interface {
	Export(data map[string]any, w io.Writer) error
	Format() string
}

// Codec is both an Importer and an Exporter
type Codec interface {
	Importer
	Exporter
}

var codecs = map[string]Codec{
	"json": NewJSONCodec(),
	"yaml": NewYAMLCodec(),
	"yml":  NewYAMLCodec(),
}

// ForFormat returns the codec registered for format
func ForFormat(format string) (Codec, error) {
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q (want one of %v)", format, Formats())
	}
	return c, nil
}

// Formats lists the canonical format names
func Formats() []string {
	var out []string
	for name, c := range codecs {
		if name == c.Format() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
