// Package progress implements a single-line-at-a-time bubbletea program
// reporting live directory reconciliation events for `docsearch index
// --watch`, reusing internal/ui's spinner/style conventions without the
// full-screen alt-buffer layout the initial indexing run uses.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/doylet/docsearch/internal/ui"
)

// Event reports the outcome of one reconciliation step (a file indexed,
// skipped, or removed) for display.
type Event struct {
	Path    string
	Action  string // "indexed", "skipped", "removed", "error"
	Err     error
}

// eventMsg wraps an Event for tea.Program.Send.
type eventMsg Event

// quitMsg requests the program stop.
type quitMsg struct{}

// Reporter drives a single-line bubbletea program from a background
// goroutine, fed via Report.
type Reporter struct {
	program *tea.Program
	done    chan struct{}
}

// Start launches the reporter for collection on the process's terminal.
// It does not check for a TTY itself: callers should check ui.IsTTY before
// constructing a Reporter and fall back to plain output.Writer logging
// otherwise.
func Start(ctx context.Context, collection string) *Reporter {
	m := newModel(collection)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()
	return &Reporter{program: p, done: done}
}

// Report pushes one reconciliation event onto the display line.
func (r *Reporter) Report(e Event) {
	r.program.Send(eventMsg(e))
}

// Stop ends the program and waits for it to finish rendering.
func (r *Reporter) Stop() {
	r.program.Send(quitMsg{})
	<-r.done
}

type model struct {
	collection string
	spin       spinner.Model
	styles     ui.Styles
	indexed    int
	skipped    int
	removed    int
	errors     int
	last       string
	start      time.Time
	quitting   bool
}

func newModel(collection string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		collection: collection,
		spin:       s,
		styles:     ui.DefaultStyles(),
		start:      time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case eventMsg:
		switch msg.Action {
		case "indexed":
			m.indexed++
		case "skipped":
			m.skipped++
		case "removed":
			m.removed++
		case "error":
			m.errors++
		}
		m.last = msg.Path
		return m, nil
	case quitMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return fmt.Sprintf("watch stopped: %s — %d indexed, %d skipped, %d removed, %d errors\n",
			m.collection, m.indexed, m.skipped, m.removed, m.errors)
	}
	elapsed := time.Since(m.start).Round(time.Second)
	line := fmt.Sprintf("%s %s  indexed=%d skipped=%d removed=%d errors=%d  %s",
		m.spin.View(),
		m.styles.Active.Render(m.collection),
		m.indexed, m.skipped, m.removed, m.errors,
		m.styles.Dim.Render(elapsed.String()))
	if m.last != "" {
		line += "  " + lipgloss.NewStyle().Faint(true).Render(m.last)
	}
	return line + "\n"
}
