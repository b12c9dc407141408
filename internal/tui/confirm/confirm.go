// ABOUTME: Yes/no dialog built on a huh confirm field
// ABOUTME: Reports the answer with ConfirmedMsg or CancelledMsg

package confirm

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/lyonmu/quebec/console/internal/tui/styles"
)

// ConfirmedMsg is sent when the operator accepts
type ConfirmedMsg struct {
	ID string
}

// CancelledMsg is sent when the operator declines or presses esc
type CancelledMsg struct {
	ID string
}

// Dialog asks a single question
type Dialog struct {
	id       string
	form     *huh.Form
	accepted bool
	width    int
}

// New creates a dialog. id is echoed back in the result message.
func New(id, title, affirmative, negative string) *Dialog {
	d := &Dialog{id: id}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative(affirmative).
				Negative(negative).
				Value(&d.accepted),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
	return d
}

// ID returns the dialog identifier
func (d *Dialog) ID() string {
	return d.id
}

// SetWidth sets the dialog width
func (d *Dialog) SetWidth(width int) {
	d.width = width
	d.form = d.form.WithWidth(width)
}

// Init implements tea.Model
func (d *Dialog) Init() tea.Cmd {
	return d.form.Init()
}

// Update implements tea.Model
func (d *Dialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return d, d.result(false)
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	switch d.form.State {
	case huh.StateCompleted:
		return d, d.result(d.accepted)
	case huh.StateAborted:
		return d, d.result(false)
	}
	return d, cmd
}

func (d *Dialog) result(accepted bool) tea.Cmd {
	id := d.id
	if accepted {
		return func() tea.Msg { return ConfirmedMsg{ID: id} }
	}
	return func() tea.Msg { return CancelledMsg{ID: id} }
}

// View implements tea.Model
func (d *Dialog) View() string {
	return styles.ActivePanel.Render(strings.TrimRight(d.form.View(), "\n"))
}
