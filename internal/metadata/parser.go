// Package metadata is the out-of-core collaborator behind the /toml/upload
// route: it turns the inner text of a metadata upload into a key/value map.
// The real tabular-configuration parser is a separate system component; this
// package is a deliberately minimal stand-in that satisfies the same
// contract (wavy.MetadataParser) so the ingest node can run end to end.
package metadata

import (
	"bufio"
	"bytes"
	"strings"
)

// LineParser parses simple "key = value" lines, skipping blank lines and
// lines beginning with "#". It does not attempt nested tables, arrays, or any
// other feature of a full tabular-configuration format.
type LineParser struct{}

// NewLineParser returns a LineParser.
func NewLineParser() *LineParser {
	return &LineParser{}
}

// Parse implements wavy.MetadataParser.
func (LineParser) Parse(data []byte) (map[string]string, error) {
	result := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if key == "" {
			continue
		}
		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
