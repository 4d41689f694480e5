// Package output provides report serializers and the error summary.
package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the serialization of a report file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML}

// ParseFormat resolves a format name, ignoring case. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q (expected csv, json or yaml)", s)
}

// Extension returns the file extension of the format, with its dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Report is a report file, named after the analyzer producing it.
type Report struct {
	Name      string
	Path      string
	Format    Format
	Separator rune
}

// NewReport returns the report name in dir. A zero separator means ','.
func NewReport(dir, name string, format Format, separator rune) *Report {
	if format == "" {
		format = FormatCSV
	}
	if separator == 0 {
		separator = ','
	}
	return &Report{
		Name:      name,
		Path:      filepath.Join(dir, name+format.Extension()),
		Format:    format,
		Separator: separator,
	}
}

// String returns the path of the report.
func (r *Report) String() string {
	return r.Path
}

// Writer receives the rows of a report, the first one being the header.
type Writer interface {
	WriteRow(fields ...string) error
	Close() error
}

// Open creates the report file and its parent directories.
func (r *Report) Open() (Writer, error) {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create report directory: %w", err)
	}
	f, err := os.Create(r.Path)
	if err != nil {
		return nil, err
	}
	if r.Format == FormatCSV {
		w := csv.NewWriter(f)
		w.Comma = r.Separator
		return &csvWriter{f: f, w: w}, nil
	}
	return &tableWriter{f: f, format: r.Format}, nil
}

type csvWriter struct {
	f *os.File
	w *csv.Writer
}

func (c *csvWriter) WriteRow(fields ...string) error {
	return c.w.Write(fields)
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return errors.Join(c.w.Error(), c.f.Close())
}

// table is the JSON and YAML document of a report.
type table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// tableWriter buffers rows and serialises the whole table at Close.
type tableWriter struct {
	f      *os.File
	format Format
	table  table
	header bool
}

func (t *tableWriter) WriteRow(fields ...string) error {
	row := append([]string(nil), fields...)
	if !t.header {
		t.table.Columns = row
		t.header = true
		return nil
	}
	t.table.Rows = append(t.table.Rows, row)
	return nil
}

func (t *tableWriter) Close() error {
	if t.table.Rows == nil {
		t.table.Rows = [][]string{}
	}
	var err error
	switch t.format {
	case FormatJSON:
		var data []byte
		data, err = json.MarshalIndent(t.table, "", "  ")
		if err == nil {
			_, err = t.f.Write(append(data, '\n'))
		}
	case FormatYAML:
		enc := yaml.NewEncoder(t.f)
		enc.SetIndent(2)
		err = errors.Join(enc.Encode(t.table), enc.Close())
	default:
		err = fmt.Errorf("unsupported report format %q", t.format)
	}
	if err != nil {
		err = fmt.Errorf("failed to marshal %s report: %w", t.format, err)
	}
	return errors.Join(err, t.f.Close())
}
