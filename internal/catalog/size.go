package catalog

import (
	"sort"

	"github.com/vietdv277/geowalk/pkg/types"
)

const bytesPerCentiMB = 10_000 // 1 MB = 1_000_000 bytes, reported with 2 decimals

// RoundMB converts a byte count to megabytes rounded to two decimals.
// Ties round half to even; the arithmetic stays in integers so equal inputs
// always produce equal outputs.
func RoundMB(sizeBytes int64) float64 {
	return float64(centiMB(sizeBytes)) / 100
}

func centiMB(sizeBytes int64) int64 {
	if sizeBytes <= 0 {
		return 0
	}
	q, r := sizeBytes/bytesPerCentiMB, sizeBytes%bytesPerCentiMB
	switch {
	case r > bytesPerCentiMB/2:
		q++
	case r == bytesPerCentiMB/2 && q%2 == 1:
		q++
	}
	return q
}

// NewRecord derives a report record from fetched metadata
func NewRecord(md *types.AssetMetadata) types.AssetRecord {
	return types.AssetRecord{
		Path:      md.Path,
		Type:      md.Type,
		SizeBytes: md.SizeBytes,
		SizeMB:    RoundMB(md.SizeBytes),
	}
}

// SortRecords orders records by SizeMB descending, keeping discovery order
// for equal sizes.
func SortRecords(records []types.AssetRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SizeMB > records[j].SizeMB
	})
}
