// Package results provides the retrieved segment list component for the TUI.
package results

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui/styles"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// List displays retrieved segments in a navigable list.
type List struct {
	segments []domain.RetrievedSegment
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewList creates a new segment list component.
func NewList(s *styles.Styles) *List {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &List{
		segments: nil,
		selected: 0,
		styles:   s,
		width:    80,
		height:   10,
	}
}

// Init initialises the list.
func (l *List) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *List) Update(msg tea.Msg) (*List, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyUp:
			l.MoveUp()
		case tea.KeyDown:
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the segment list.
func (l *List) View() string {
	if len(l.segments) == 0 {
		return l.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(l.segments)*3+2)

	header := l.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(l.segments)))
	lines = append(lines, header, "")

	// Each segment takes three lines: title, snippet, blank.
	visibleCount := (l.height - 4) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(l.segments) {
		end = len(l.segments)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSegment(i, &l.segments[i]), "")
	}

	return strings.Join(lines, "\n")
}

// renderSegment formats one retrieved segment with a snippet line.
func (l *List) renderSegment(index int, seg *domain.RetrievedSegment) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	title := seg.Meta.Title
	if title == "" {
		title = seg.SegmentID
	}
	heading := fmt.Sprintf("%s%s / %s", indicator, title, seg.Meta.Section)

	maxLen := l.width - 16
	if maxLen < 10 {
		maxLen = 10
	}
	if len(heading) > maxLen {
		heading = heading[:maxLen-3] + "..."
	}

	score := scoreLabel(seg)

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(fmt.Sprintf("%-*s  %s", maxLen, heading, score))
	} else {
		titleLine = l.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxLen, heading)) +
			l.styles.Muted.Render(score)
	}

	snippet := strings.Join(strings.Fields(seg.Text), " ")
	if len(snippet) > maxLen {
		snippet = snippet[:maxLen-3] + "..."
	}

	return titleLine + "\n" + l.styles.Muted.Render("    "+snippet)
}

// scoreLabel renders the combined score, marking lexical-only hits.
func scoreLabel(seg *domain.RetrievedSegment) string {
	if seg.LexicalOnly() || math.IsInf(seg.Score, 1) {
		return "keyword-only"
	}
	return fmt.Sprintf("%.4f", seg.Score)
}

// MoveUp moves the selection up.
func (l *List) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection down.
func (l *List) MoveDown() {
	if l.selected < len(l.segments)-1 {
		l.selected++
	}
}

// SetSegments replaces the displayed segments and resets the selection.
func (l *List) SetSegments(segments []domain.RetrievedSegment) {
	l.segments = segments
	l.selected = 0
}

// Selected returns the currently selected segment, or nil when empty.
func (l *List) Selected() *domain.RetrievedSegment {
	if len(l.segments) == 0 {
		return nil
	}
	return &l.segments[l.selected]
}

// Len returns the number of displayed segments.
func (l *List) Len() int {
	return len(l.segments)
}

// SetDimensions updates the component dimensions.
func (l *List) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}
