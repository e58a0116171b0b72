package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vietdv277/geowalk/internal/catalog"
	"github.com/vietdv277/geowalk/pkg/types"
)

// ErrInvalidReport indicates a CSV file that is not a geowalk report.
var ErrInvalidReport = errors.New("invalid report")

// ReadCSV parses a CSV report. The header decides which fields are filled;
// an asset column is required. When only size_bytes is present the size in
// megabytes is derived from it.
func ReadCSV(r io.Reader) ([]types.AssetRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrInvalidReport)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	index := map[string]int{}
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index[ColumnAsset]; !ok {
		return nil, fmt.Errorf("%w: missing %q column", ErrInvalidReport, ColumnAsset)
	}

	records := []types.AssetRecord{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
		}

		rec := types.AssetRecord{Path: row[index[ColumnAsset]]}
		if i, ok := index[ColumnType]; ok {
			rec.Type = row[i]
		}
		if i, ok := index[ColumnSizeBytes]; ok {
			rec.SizeBytes, err = strconv.ParseInt(row[i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: size_bytes: %w", ErrInvalidReport, line, err)
			}
			rec.SizeMB = catalog.RoundMB(rec.SizeBytes)
		}
		if i, ok := index[ColumnSizeMB]; ok {
			rec.SizeMB, err = strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: size_mb: %w", ErrInvalidReport, line, err)
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadCSVFile opens path and parses it with ReadCSV
func ReadCSVFile(path string) ([]types.AssetRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f)
}
