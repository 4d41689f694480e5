package archive

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Manifest holds the main attributes of a MANIFEST.MF, keyed by lower-cased
// attribute name. Per-entry sections are ignored.
type Manifest map[string]string

// Get looks up an attribute. Attribute names are case-insensitive.
func (m Manifest) Get(name string) (string, bool) {
	v, ok := m[strings.ToLower(name)]
	return v, ok
}

// ParseManifest reads the main section of a manifest. A line starting with a
// single space continues the previous value; the main section ends at the
// first blank line.
func ParseManifest(r io.Reader) (Manifest, error) {
	m := Manifest{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var key string
	var value strings.Builder
	flush := func() {
		if key == "" {
			return
		}
		if _, exists := m[key]; !exists {
			m[key] = value.String()
		}
		key = ""
		value.Reset()
	}

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" {
			break
		}
		if strings.HasPrefix(line, " ") {
			if key == "" {
				return nil, fmt.Errorf("invalid manifest: continuation without attribute at line %d", lineNo)
			}
			value.WriteString(line[1:])
			continue
		}
		flush()
		name, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid manifest: missing ':' at line %d", lineNo)
		}
		key = strings.ToLower(strings.TrimSpace(name))
		value.WriteString(strings.TrimPrefix(v, " "))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read manifest: %w", err)
	}
	flush()
	return m, nil
}
