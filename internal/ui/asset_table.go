package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/vietdv277/geowalk/internal/report"
	"github.com/vietdv277/geowalk/pkg/types"
)

const (
	maxPathWidth = 72
	minPathWidth = 10
)

// TableOptions controls how records are rendered
type TableOptions struct {
	Human bool // humanized sizes (2.5 MB) instead of fixed MB with two decimals
}

// FormatSize renders a record's size for display
func FormatSize(rec types.AssetRecord, human bool) string {
	if human {
		return humanize.Bytes(uint64(rec.SizeBytes))
	}
	return report.FormatMB(rec.SizeMB) + " MB"
}

// PrintAssetTable writes records in a styled box table followed by a summary line
func PrintAssetTable(w io.Writer, records []types.AssetRecord, opts TableOptions) {
	headers := []string{"#", "Asset", "Type", "Size"}

	sizes := make([]string, len(records))
	widths := []int{
		runewidth.StringWidth(fmt.Sprint(len(records))),
		runewidth.StringWidth(headers[1]),
		runewidth.StringWidth(headers[2]),
		runewidth.StringWidth(headers[3]),
	}
	for i, rec := range records {
		sizes[i] = FormatSize(rec, opts.Human)
		widths[1] = max(widths[1], runewidth.StringWidth(rec.Path))
		widths[2] = max(widths[2], runewidth.StringWidth(rec.Type))
		widths[3] = max(widths[3], runewidth.StringWidth(sizes[i]))
	}
	widths[0] = max(widths[0], 1)
	widths[1] = min(max(widths[1], minPathWidth), maxPathWidth)

	var sb strings.Builder

	writeRule(&sb, widths, TopLeft, TopT, TopRight)

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range headers {
		sb.WriteString(HeaderStyle.Render(" " + padRight(h, widths[i]) + " "))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	writeRule(&sb, widths, LeftT, Cross, RightT)

	// Data rows
	for i, rec := range records {
		cells := []struct {
			text  string
			style lipgloss.Style
		}{
			{padLeft(fmt.Sprint(i+1), widths[0]), MutedStyle},
			{padRight(truncateMiddle(rec.Path, widths[1]), widths[1]), PathStyle},
			{padRight(rec.Type, widths[2]), TypeStyle},
			{padLeft(sizes[i], widths[3]), SizeStyle},
		}

		sb.WriteString(BorderStyle.Render(Vertical))
		for _, c := range cells {
			sb.WriteString(c.style.Render(" " + c.text + " "))
			sb.WriteString(BorderStyle.Render(Vertical))
		}
		sb.WriteString("\n")
	}

	writeRule(&sb, widths, BottomLeft, BottomT, BottomRight)

	_, _ = io.WriteString(w, sb.String())
	_, _ = fmt.Fprintln(w, summary(records, opts))
}

func writeRule(sb *strings.Builder, widths []int, left, mid, right string) {
	sb.WriteString(BorderStyle.Render(left))
	for i, w := range widths {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
		if i < len(widths)-1 {
			sb.WriteString(BorderStyle.Render(mid))
		}
	}
	sb.WriteString(BorderStyle.Render(right))
	sb.WriteString("\n")
}

func summary(records []types.AssetRecord, opts TableOptions) string {
	var total int64
	byType := map[string]int{}
	var order []string
	for _, rec := range records {
		total += rec.SizeBytes
		if byType[rec.Type] == 0 {
			order = append(order, rec.Type)
		}
		byType[rec.Type]++
	}

	noun := "assets"
	if len(records) == 1 {
		noun = "asset"
	}

	totalText := humanize.Bytes(uint64(total))
	if !opts.Human {
		totalText = humanize.Comma(total) + " bytes"
	}

	line := fmt.Sprintf("  %d %s, %s", len(records), noun, SizeStyle.Render(totalText))
	if len(order) > 1 {
		parts := make([]string, len(order))
		for i, t := range order {
			parts[i] = fmt.Sprintf("%d %s", byType[t], t)
		}
		line += MutedStyle.Render(" (" + strings.Join(parts, ", ") + ")")
	}
	return line
}

// PrintFailures lists leaves skipped under the skip failure policy
func PrintFailures(w io.Writer, failures []types.Failure) {
	if len(failures) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "%s\n", FailureStyle.Render(fmt.Sprintf("%d assets skipped:", len(failures))))
	for _, f := range failures {
		_, _ = fmt.Fprintf(w, "  %s %s\n", PathStyle.Render(f.Path), MutedStyle.Render(f.Err))
	}
}
