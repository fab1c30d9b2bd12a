package cli

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// spinnerFrames is the braille animation cycle.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerTickMsg advances the animation.
type spinnerTickMsg time.Time

// spinnerDoneMsg carries the result of the wrapped operation.
type spinnerDoneMsg struct{ err error }

// spinnerModel is the bubbletea model for a single long-running operation.
// Ctrl+C cancels the operation's context; the spinner keeps running until
// the operation returns.
type spinnerModel struct {
	message string
	cancel  context.CancelFunc
	frame   int
	err     error
}

func (m spinnerModel) Init() tea.Cmd {
	return spinnerTick()
}

func spinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTickMsg:
		m.frame++
		return m, spinnerTick()
	case spinnerDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
		}
	}
	return m, nil
}

func (m spinnerModel) View() string {
	frame := spinnerFrames[m.frame%len(spinnerFrames)]
	return styleIconSpinner.Render(frame) + " " + StyleDim.Render(m.message) + "\n"
}

// runWithSpinner runs fn while showing an animated status line on stderr.
// The function receives a context that is cancelled when the user presses
// Ctrl+C; its error is returned once it completes.
func runWithSpinner(ctx context.Context, message string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		spinnerModel{message: message, cancel: cancel},
		tea.WithOutput(os.Stderr),
		tea.WithContext(ctx),
	)

	go func() {
		p.Send(spinnerDoneMsg{err: fn(ctx)})
	}()

	final, err := p.Run()
	if err != nil {
		// The program only fails when its context is cancelled; surface
		// the cancellation rather than the TUI error.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if m, ok := final.(spinnerModel); ok {
		return m.err
	}
	return nil
}
