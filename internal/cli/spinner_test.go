package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestSpinnerModelTickAdvancesFrame(t *testing.T) {
	m := spinnerModel{message: "working"}

	next, cmd := m.Update(spinnerTickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if got := next.(spinnerModel).frame; got != 1 {
		t.Errorf("frame = %d, want 1", got)
	}
}

func TestSpinnerModelDoneQuits(t *testing.T) {
	wantErr := errors.New("boom")
	m := spinnerModel{message: "working"}

	next, cmd := m.Update(spinnerDoneMsg{err: wantErr})
	if cmd == nil {
		t.Fatal("done should produce a quit command")
	}
	if got := next.(spinnerModel).err; got != wantErr {
		t.Errorf("err = %v, want %v", got, wantErr)
	}
}

func TestSpinnerModelCtrlCCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := spinnerModel{message: "working", cancel: cancel}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	select {
	case <-ctx.Done():
	default:
		t.Error("ctrl+c should cancel the operation context")
	}
}

func TestSpinnerModelView(t *testing.T) {
	m := spinnerModel{message: "Discovering Azure resources..."}

	view := m.View()
	if !strings.Contains(view, "Discovering Azure resources...") {
		t.Errorf("view %q missing message", view)
	}
}
