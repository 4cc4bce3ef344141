// Package tui provides an interactive terminal interface for searching
// stored documents and asking questions about them, following the Elm
// architecture on top of Bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui/components/input"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui/components/results"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui/components/status"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui/keymap"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui/messages"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/tui/styles"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// App is the main TUI application. It implements tea.Model.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input     *input.QueryInput
	results   *results.List
	statusbar *status.Bar

	// mode selects between segment search and question answering.
	mode messages.Mode

	// answer holds the last generated answer in ask mode.
	answer *domain.Answer

	// focusInput is true while typing a query, false while navigating
	// results.
	focusInput bool

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     keymap.DefaultKeyMap(),
		input:      input.NewQueryInput(s),
		results:    results.NewList(s),
		statusbar:  status.NewBar(s),
		mode:       messages.ModeSearch,
		focusInput: true,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init initialises the application.
func (a *App) Init() tea.Cmd {
	return a.input.Init()
}

// Update handles messages following the Elm architecture.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.SetWidth(msg.Width)
		a.results.SetDimensions(msg.Width, msg.Height-6)
		a.statusbar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.RetrieveCompleted:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.err = nil
		a.results.SetSegments(msg.Segments)
		a.statusbar.SetState(status.StateResults)
		a.statusbar.SetResultCount(len(msg.Segments))
		return a, nil

	case messages.AnswerCompleted:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.err = nil
		a.answer = msg.Answer
		a.results.SetSegments(msg.Segments)
		a.statusbar.SetState(status.StateResults)
		a.statusbar.SetResultCount(len(msg.Segments))
		return a, nil

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKey processes keyboard input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keymap.ToggleMode):
		a.toggleMode()
		return a, nil

	case key.Matches(msg, a.keymap.NewQuery):
		a.focusInput = true
		a.input.SetValue("")
		a.statusbar.SetState(status.StateReady)
		return a, a.input.Focus()

	case key.Matches(msg, a.keymap.Submit) && a.focusInput:
		query := strings.TrimSpace(a.input.Value())
		if query == "" {
			return a, nil
		}
		a.focusInput = false
		a.input.Blur()
		a.answer = nil
		a.statusbar.SetState(status.StateWorking)
		if a.mode == messages.ModeAsk {
			return a, a.performAsk(query)
		}
		return a, a.performRetrieve(query)
	}

	if a.focusInput {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.results, cmd = a.results.Update(msg)
	return a, cmd
}

// toggleMode switches between search and ask when ask is available.
func (a *App) toggleMode() {
	if a.ports.Answer == nil {
		return
	}
	if a.mode == messages.ModeSearch {
		a.mode = messages.ModeAsk
		a.input.SetLabel("Ask")
	} else {
		a.mode = messages.ModeSearch
		a.input.SetLabel("Search")
	}
	a.answer = nil
}

// performRetrieve runs retrieval as a Bubbletea command.
func (a *App) performRetrieve(query string) tea.Cmd {
	return func() tea.Msg {
		segments, err := a.ports.Retrieval.Retrieve(a.ctx, query, a.ports.TopK)
		return messages.RetrieveCompleted{Query: query, Segments: segments, Err: err}
	}
}

// performAsk runs the answer flow as a Bubbletea command.
func (a *App) performAsk(question string) tea.Cmd {
	return func() tea.Msg {
		answer, segments, err := a.ports.Answer.Ask(a.ctx, question, a.ports.TopK)
		return messages.AnswerCompleted{
			Question: question,
			Answer:   answer,
			Segments: segments,
			Err:      err,
		}
	}
}

func (a *App) setError(err error) {
	a.err = err
	a.statusbar.SetState(status.StateError)
	a.statusbar.SetMessage(err.Error())
}

// View renders the application.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("bizbrain"))
	b.WriteString(a.styles.Muted.Render("  " + a.mode.String() + " mode"))
	b.WriteString("\n\n")
	b.WriteString(a.input.View())
	b.WriteString("\n\n")

	if a.answer != nil {
		b.WriteString(a.renderAnswer())
		b.WriteString("\n\n")
	}
	b.WriteString(a.results.View())
	b.WriteString("\n\n")
	b.WriteString(a.statusbar.View())

	return b.String()
}

// renderAnswer formats the generated answer with its sources.
func (a *App) renderAnswer() string {
	var b strings.Builder
	b.WriteString(a.answer.Text)
	if len(a.answer.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(a.styles.Subtitle.Render("Sources"))
		for _, src := range a.answer.Sources {
			b.WriteString("\n")
			b.WriteString(a.styles.Muted.Render("  - " + src))
		}
	}
	width := a.width - 4
	if width < 20 {
		width = 20
	}
	return a.styles.Answer.Width(width).Render(b.String())
}

// Mode returns the current interaction mode.
func (a *App) Mode() messages.Mode {
	return a.mode
}

// Err returns the last error, if any.
func (a *App) Err() error {
	return a.err
}

// Run starts the TUI event loop and blocks until exit.
func Run(ctx context.Context, ports *Ports) error {
	app, err := NewApp(ports)
	if err != nil {
		return err
	}
	app = app.WithContext(ctx)

	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
