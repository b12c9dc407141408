// ABOUTME: Stacked toast notifications fed from the toast bus
// ABOUTME: Each toast expires after the display duration unless dismissed

package toasts

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lyonmu/quebec/console/internal/toast"
	"github.com/lyonmu/quebec/console/internal/tui/styles"
	"github.com/lyonmu/quebec/console/internal/tui/widgets"
)

// MaxVisible caps the number of toasts shown at once
const MaxVisible = 4

// ShowMsg delivers a bus event into the update loop
type ShowMsg struct {
	Event toast.Event
}

// expireMsg removes a toast once its timer fires
type expireMsg struct {
	id string
}

// Sender is satisfied by *tea.Program
type Sender interface {
	Send(msg tea.Msg)
}

// Forward subscribes to bus and sends every event to p. Events emitted from
// inside the program's own Update must not wait on its message loop, so each
// send runs on its own goroutine. The returned function unsubscribes.
func Forward(bus *toast.Bus, p Sender) func() {
	return bus.Subscribe(func(ev toast.Event) {
		go p.Send(ShowMsg{Event: ev})
	})
}

// Stack holds the visible toasts, oldest first
type Stack struct {
	items    []toast.Event
	duration time.Duration
}

// New creates an empty stack
func New() *Stack {
	return &Stack{duration: toast.DisplayDuration}
}

// Len returns the number of visible toasts
func (s *Stack) Len() int {
	return len(s.items)
}

// Items returns a copy of the visible toasts
func (s *Stack) Items() []toast.Event {
	out := make([]toast.Event, len(s.items))
	copy(out, s.items)
	return out
}

// Push shows ev and schedules its removal
func (s *Stack) Push(ev toast.Event) tea.Cmd {
	s.items = append(s.items, ev)
	if len(s.items) > MaxVisible {
		s.items = s.items[len(s.items)-MaxVisible:]
	}
	id := ev.ID
	return tea.Tick(s.duration, func(time.Time) tea.Msg {
		return expireMsg{id: id}
	})
}

// Dismiss removes the toast with the given ID
func (s *Stack) Dismiss(id string) {
	for i, ev := range s.items {
		if ev.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// DismissAll clears the stack
func (s *Stack) DismissAll() {
	s.items = nil
}

// Update handles ShowMsg and expiry; other messages are ignored
func (s *Stack) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ShowMsg:
		return s.Push(msg.Event)
	case expireMsg:
		s.Dismiss(msg.id)
	}
	return nil
}

// View renders the stack at the given width
func (s *Stack) View(width int) string {
	if len(s.items) == 0 {
		return ""
	}
	if width < 20 {
		width = 20
	}

	blocks := make([]string, 0, len(s.items))
	for _, ev := range s.items {
		level := widgets.LevelForSeverity(ev.Severity)
		blocks = append(blocks, styles.Toast.
			BorderForeground(widgets.Color(level)).
			Width(width-2).
			Render(widgets.StatusText(ev.Message, level)))
	}
	return strings.Join(blocks, "\n")
}
