package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vietdv277/geowalk/internal/config"
)

// ErrSelectionCancelled is returned when the picker is closed without a choice
var ErrSelectionCancelled = errors.New("selection cancelled")

// contextItem holds display data for a single context entry.
type contextItem struct {
	name    string
	ctx     *config.Context
	current bool
}

// credential is the account a context authenticates as: GCP project or AWS profile.
func (i contextItem) credential() (label, value string) {
	if i.ctx.Provider == config.ProviderGCP {
		return "Project:", orDash(i.ctx.Project)
	}
	return "Profile:", orDash(i.ctx.Profile)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ContextModel is the bubbletea model for interactive context selection.
type ContextModel struct {
	items        []contextItem
	filtered     []contextItem
	cursor       int
	offset       int
	search       string
	selected     string
	quitting     bool
	cancelled    bool
	termWidth    int
	contentWidth int
	colWidths    []int // [Name, Provider, Credential, Region]
}

func newContextModel(items []contextItem) ContextModel {
	m := ContextModel{
		items:     items,
		filtered:  items,
		termWidth: 80,
	}
	m.resize()
	return m
}

func (m *ContextModel) resize() {
	m.contentWidth = min(max(m.termWidth-2, minWidth), maxWidth)

	provW, credW, regW := 3, 10, 10
	for _, item := range m.items {
		_, cred := item.credential()
		provW = max(provW, runewidth.StringWidth(item.ctx.Provider))
		credW = max(credW, runewidth.StringWidth(cred))
		regW = max(regW, runewidth.StringWidth(orDash(item.ctx.Region)))
	}

	// prefix(3) + name + gaps(2*3) + provider + credential + region
	nameW := max(m.contentWidth-(3+6+provW+credW+regW), 10)
	m.colWidths = []int{nameW, provW, credW, regW}
}

// Init implements tea.Model.
func (m ContextModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model.
func (m ContextModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit

		case tea.KeyEnter:
			if len(m.filtered) > 0 {
				m.selected = m.filtered[m.cursor].name
				m.quitting = true
				return m, tea.Quit
			}

		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
				m.offset = min(m.offset, m.cursor)
			}

		case tea.KeyDown:
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				if m.cursor >= m.offset+listHeight {
					m.offset = m.cursor - listHeight + 1
				}
			}

		case tea.KeyBackspace:
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.filter()
			}

		case tea.KeyRunes:
			m.search += string(msg.Runes)
			m.filter()
		}
	}

	return m, nil
}

func (m *ContextModel) filter() {
	m.filtered = m.items
	if m.search != "" {
		query := strings.ToLower(m.search)
		m.filtered = nil
		for _, item := range m.items {
			if strings.Contains(strings.ToLower(item.name), query) ||
				strings.Contains(strings.ToLower(item.ctx.Provider), query) {
				m.filtered = append(m.filtered, item)
			}
		}
	}
	m.cursor = max(min(m.cursor, len(m.filtered)-1), 0)
	m.offset = 0
}

// boxLine wraps already-padded content in side borders.
func (m ContextModel) boxLine(content string) string {
	return BorderStyle.Render(Vertical) + content + BorderStyle.Render(Vertical) + "\n"
}

func (m ContextModel) blankLine() string {
	return m.boxLine(strings.Repeat(" ", m.contentWidth))
}

func (m ContextModel) rule(left, right string) string {
	return BorderStyle.Render(left+strings.Repeat(Horizontal, m.contentWidth)+right) + "\n"
}

// View implements tea.Model.
func (m ContextModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	w := m.contentWidth

	sb.WriteString(m.rule(TopLeft, TopRight))
	sb.WriteString(m.boxLine(PathStyle.Render(padRight(" > "+m.search, w))))
	sb.WriteString(m.blankLine())

	visibleEnd := min(m.offset+listHeight, len(m.filtered))
	for i := m.offset; i < visibleEnd; i++ {
		sb.WriteString(m.renderRow(i))
	}
	for i := visibleEnd; i < m.offset+listHeight; i++ {
		sb.WriteString(m.blankLine())
	}

	sb.WriteString(m.blankLine())
	sb.WriteString(m.rule(LeftT, RightT))
	sb.WriteString(m.renderDetails())
	sb.WriteString(m.rule(BottomLeft, BottomRight))
	sb.WriteString(m.renderStatusBar())

	return sb.String()
}

func (m ContextModel) renderRow(idx int) string {
	item := m.filtered[idx]

	cursor, marker := " ", " "
	if idx == m.cursor {
		cursor = ">"
	}
	nameStyle := PathStyle
	if item.current {
		marker = "*"
		nameStyle = SuccessStyle
	}
	_, cred := item.credential()

	var line strings.Builder
	line.WriteString(" " + cursor + marker)
	line.WriteString(nameStyle.Render(padRight(item.name, m.colWidths[0])) + "  ")
	line.WriteString(ProviderStyle(item.ctx.Provider).Render(padRight(strings.ToUpper(item.ctx.Provider), m.colWidths[1])) + "  ")
	line.WriteString(MutedStyle.Render(padRight(cred, m.colWidths[2])) + "  ")
	line.WriteString(TypeStyle.Render(padRight(orDash(item.ctx.Region), m.colWidths[3])))

	used := 3 + m.colWidths[0] + m.colWidths[1] + m.colWidths[2] + m.colWidths[3] + 6
	if used < m.contentWidth {
		line.WriteString(strings.Repeat(" ", m.contentWidth-used))
	}

	return m.boxLine(line.String())
}

// detailRows is the fixed height of the details panel body.
const detailRows = 5

func (m ContextModel) renderDetails() string {
	var sb strings.Builder
	w := m.contentWidth

	sb.WriteString(m.boxLine(HeaderStyle.Render(padRight(" Context Details", w))))
	sb.WriteString(m.boxLine(MutedStyle.Render(padRight(" "+strings.Repeat(Horizontal, 20), w))))

	if len(m.filtered) == 0 {
		sb.WriteString(m.boxLine(MutedStyle.Render(padRight(" No contexts found", w))))
		for range detailRows {
			sb.WriteString(m.blankLine())
		}
		return sb.String()
	}

	item := m.filtered[m.cursor]
	credLabel, cred := item.credential()

	details := []struct {
		label string
		value string
		style lipgloss.Style
	}{
		{"Context:", item.name, PathStyle},
		{"Provider:", strings.ToUpper(item.ctx.Provider), ProviderStyle(item.ctx.Provider)},
		{credLabel, cred, MutedStyle},
		{"Region:", orDash(item.ctx.Region), TypeStyle},
		{"Endpoint:", orDash(item.ctx.Endpoint), MutedStyle},
	}

	for _, d := range details {
		value := runewidth.Truncate(d.value, w-1-detailLabelWidth, "...")
		used := 1 + detailLabelWidth + runewidth.StringWidth(value)
		line := MutedStyle.Render(" "+padRight(d.label, detailLabelWidth)) + d.style.Render(value)
		if used < w {
			line += strings.Repeat(" ", w-used)
		}
		sb.WriteString(m.boxLine(line))
	}
	sb.WriteString(m.blankLine())

	return sb.String()
}

func (m ContextModel) renderStatusBar() string {
	countInfo := fmt.Sprintf("  %d/%d contexts", len(m.filtered), len(m.items))
	hints := "[Enter:select] [Esc:quit]"

	padding := m.contentWidth + 2 - runewidth.StringWidth(countInfo) - runewidth.StringWidth(hints)
	return countInfo + strings.Repeat(" ", max(padding, 0)) + HintStyle.Render(hints) + "\n"
}

// SelectContext runs the interactive context selector TUI and returns the selected context name.
// The current context is pre-highlighted in the list.
func SelectContext(contexts map[string]*config.Context, current string) (string, error) {
	if len(contexts) == 0 {
		return "", fmt.Errorf("no contexts available")
	}

	names := config.SortedContextNames(contexts)
	items := make([]contextItem, len(names))
	m := newContextModel(nil)
	for i, name := range names {
		items[i] = contextItem{name: name, ctx: contexts[name], current: name == current}
		if items[i].current {
			m.cursor = i
		}
	}
	m.items, m.filtered = items, items
	m.resize()

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(ContextModel)
	if result.cancelled {
		return "", ErrSelectionCancelled
	}

	return result.selected, nil
}
