// Package report serializes asset reports to delimited text, JSON and YAML.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vietdv277/geowalk/pkg/types"
)

var (
	// ErrWrite indicates the report destination could not be written.
	ErrWrite = errors.New("cannot write report")

	// ErrUnknownColumn indicates a column outside the supported set.
	ErrUnknownColumn = errors.New("unknown report column")

	// ErrUnknownFormat indicates an unsupported output format.
	ErrUnknownFormat = errors.New("unknown report format")
)

// Format is an output encoding
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses csv, json or yaml (yml)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: csv, json, yaml)", ErrUnknownFormat, s)
	}
}

// Column names, in the order they are declared
const (
	ColumnAsset     = "asset"
	ColumnType      = "type"
	ColumnSizeMB    = "size_mb"
	ColumnSizeBytes = "size_bytes"
)

// DefaultColumns is the header written when the caller selects none
var DefaultColumns = []string{ColumnAsset, ColumnType, ColumnSizeMB}

var knownColumns = map[string]func(types.AssetRecord) string{
	ColumnAsset:     func(r types.AssetRecord) string { return r.Path },
	ColumnType:      func(r types.AssetRecord) string { return r.Type },
	ColumnSizeMB:    func(r types.AssetRecord) string { return FormatMB(r.SizeMB) },
	ColumnSizeBytes: func(r types.AssetRecord) string { return strconv.FormatInt(r.SizeBytes, 10) },
}

// FormatMB renders megabytes with exactly two decimals
func FormatMB(mb float64) string {
	return strconv.FormatFloat(mb, 'f', 2, 64)
}

// Options controls serialization
type Options struct {
	Format  Format
	Columns []string // CSV only; nil means DefaultColumns
}

// ValidateColumns normalizes and checks a column selection
func ValidateColumns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		return DefaultColumns, nil
	}
	out := make([]string, 0, len(columns))
	seen := map[string]bool{}
	for _, c := range columns {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "sizemb" {
			c = ColumnSizeMB
		}
		if _, ok := knownColumns[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Write encodes the report to w
func Write(w io.Writer, rep *types.Report, opts Options) error {
	switch opts.Format {
	case "", FormatCSV:
		return writeCSV(w, rep, opts.Columns)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

func writeCSV(w io.Writer, rep *types.Report, columns []string) error {
	columns, err := ValidateColumns(columns)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range rep.Records {
		for i, c := range columns {
			row[i] = knownColumns[c](rec)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the report to path. The content goes to a temporary file
// in the same directory first and is renamed into place on success, so path
// is either fully written or untouched.
func WriteFile(path string, rep *types.Report, opts Options) (err error) {
	// Encoding errors are caller errors, not I/O errors; check them before
	// touching the filesystem.
	if _, err := ParseFormat(string(opts.Format)); err != nil {
		return err
	}
	if _, err := ValidateColumns(opts.Columns); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Write(tmp, rep, opts); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	return nil
}
