// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady   State = "ready"
	StateWorking State = "working"
	StateError   State = "error"
	StateResults State = "results"
)

// Bar displays application state and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	state       State
	message     string
	resultCount int
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &Bar{
		styles: s,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.styles.Help.Render("enter run · tab search/ask · esc new query · ctrl+c quit")

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the state indicator and message.
func (b *Bar) renderLeft() string {
	switch b.state {
	case StateWorking:
		return b.styles.Subtitle.Render("Working...")
	case StateError:
		return b.styles.Error.Render("Error: " + b.message)
	case StateResults:
		return b.styles.Success.Render(fmt.Sprintf("%d results", b.resultCount))
	default:
		return b.styles.Muted.Render("Ready")
	}
}

// SetState updates the displayed state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// SetMessage sets the message shown in the error state.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// SetResultCount sets the count shown in the results state.
func (b *Bar) SetResultCount(n int) {
	b.resultCount = n
}

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}
