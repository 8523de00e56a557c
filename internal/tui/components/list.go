package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/encore/internal/tui/styles"
)

// Row is one line of a List.
type Row struct {
	Title  string
	Detail string
	// Active marks the song that is playing.
	Active bool
}

// List is a scrolling, selectable list of rows.
type List struct {
	offset   int
	selected int
}

// NewList creates a new List component
func NewList() *List {
	return &List{}
}

// Reset moves the selection back to the top.
func (l *List) Reset() {
	l.offset = 0
	l.selected = 0
}

// Down selects the next row.
func (l *List) Down(n int) {
	if l.selected < n-1 {
		l.selected++
	}
}

// Up selects the previous row.
func (l *List) Up() {
	if l.selected > 0 {
		l.selected--
	}
}

// Selected returns the selected index, clamped to n rows. It returns -1
// when the list is empty.
func (l *List) Selected(n int) int {
	if n == 0 {
		return -1
	}
	if l.selected >= n {
		return n - 1
	}
	return l.selected
}

// Render renders the list panel
func (l *List) Render(title string, rows []Row, empty string, width, height int, focused bool) string {
	var content string
	if len(rows) == 0 {
		content = styles.Muted.Render(empty)
	} else {
		content = l.renderRows(rows, width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.PanelTitle(title, focused),
		"",
		content,
	))
}

func (l *List) renderRows(rows []Row, width, maxLines int) string {
	selected := l.Selected(len(rows))

	visibleCount := maxLines - 1 // Leave room for "more" indicator
	if visibleCount < 1 {
		visibleCount = 1
	}

	// Keep the selection on screen
	if selected < l.offset {
		l.offset = selected
	}
	if selected >= l.offset+visibleCount {
		l.offset = selected - visibleCount + 1
	}

	start := l.offset
	end := start + visibleCount
	if end > len(rows) {
		end = len(rows)
	}

	lines := make([]string, 0, end-start+1)

	// Fixed overhead: "XX. " (4) + "▶ " or "  " (2) + separator (3) = 9 chars
	const overhead = 9

	for i := start; i < end; i++ {
		row := rows[i]
		num := fmt.Sprintf("%2d.", i+1)
		title, detail := fit(row.Title, row.Detail, width-overhead)

		marker := " "
		if row.Active {
			marker = "▶"
		}

		var line string
		switch {
		case row.Active:
			line = styles.Playing.Render(fmt.Sprintf("%s %s %s", num, marker, joinDetail(title, detail)))
		case detail != "":
			line = fmt.Sprintf("%s %s %s — %s", styles.Dim.Render(num), marker, title, styles.Muted.Render(detail))
		default:
			line = fmt.Sprintf("%s %s %s", styles.Dim.Render(num), marker, title)
		}
		if i == selected {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	if end < len(rows) {
		more := styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(rows)-end))
		lines = append(lines, more)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func joinDetail(title, detail string) string {
	if detail == "" {
		return title
	}
	return title + " — " + detail
}

// fit truncates title and detail to share available columns, giving the
// detail at least a third of the space.
func fit(title, detail string, available int) (string, string) {
	titleLen := len([]rune(title))
	detailLen := len([]rune(detail))
	if titleLen+detailLen <= available {
		return title, detail
	}

	minDetail := available / 3
	if minDetail < 10 {
		minDetail = 10
	}
	if minDetail > available-10 {
		minDetail = available - 10
	}
	detailSpace := minDetail
	if detailLen < detailSpace {
		detailSpace = detailLen
	}
	return Truncate(title, available-detailSpace), Truncate(detail, detailSpace)
}

// Truncate shortens s to max runes, ending in "..." when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
