package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Box drawing characters
const (
	TopLeft     = "╭"
	TopRight    = "╮"
	BottomLeft  = "╰"
	BottomRight = "╯"
	Horizontal  = "─"
	Vertical    = "│"
	LeftT       = "├"
	RightT      = "┤"
	TopT        = "┬"
	BottomT     = "┴"
	Cross       = "┼"
)

// Layout shared by the interactive selectors
const (
	listHeight       = 8
	detailLabelWidth = 12
	minWidth         = 60
	maxWidth         = 120
)

// Color palette
const (
	ColorBorder  = "240"
	ColorHeader  = "252"
	ColorPath    = "81"
	ColorType    = "252"
	ColorSize    = "214"
	ColorSuccess = "82"
	ColorFailure = "203"
	ColorMuted   = "240"
	ColorHint    = "245"
	ColorAWS     = "214"
	ColorGCP     = "39"
)

// Shared styles
var (
	BorderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder))
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeader))
	PathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPath))
	TypeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorType))
	SizeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSize))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
	FailureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorFailure))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	HintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHint))
	AWSStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAWS))
	GCPStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGCP))
)

// ProviderStyle returns the accent style for a context provider
func ProviderStyle(p string) lipgloss.Style {
	switch p {
	case "aws":
		return AWSStyle
	case "gcp":
		return GCPStyle
	default:
		return MutedStyle
	}
}

// padRight pads a string to the specified display width using runewidth
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "...")
	}
	return s + strings.Repeat(" ", width-sw)
}

// padLeft right-aligns a string within the specified display width
func padLeft(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return strings.Repeat(" ", width-sw) + s
}

// truncateMiddle shortens long asset paths while keeping both ends readable
func truncateMiddle(s string, width int) string {
	if runewidth.StringWidth(s) <= width || width < 5 {
		return runewidth.Truncate(s, width, "")
	}
	keep := width - 3
	head := keep / 2
	tail := keep - head

	runes := []rune(s)
	if len(runes) <= keep {
		return runewidth.Truncate(s, width, "...")
	}
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}
