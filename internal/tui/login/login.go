// ABOUTME: Login screen collecting credentials and the image challenge answer
// ABOUTME: Drives an auth.Handshake and reports success with LoggedInMsg

package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lyonmu/quebec/console/internal/auth"
	"github.com/lyonmu/quebec/console/internal/tui/captcha"
	"github.com/lyonmu/quebec/console/internal/tui/icons"
	"github.com/lyonmu/quebec/console/internal/tui/styles"
)

// Captcha image size in terminal cells
const (
	CaptchaCols = 36
	CaptchaRows = 6
)

const (
	fieldUsername = iota
	fieldPassword
	fieldCode
	fieldCount
)

// LoggedInMsg is sent once the session has been written
type LoggedInMsg struct{}

type captchaMsg struct{ err error }

type submitMsg struct{ err error }

// Model is the login screen
type Model struct {
	hs      *auth.Handshake
	inputs  []textinput.Model
	focus   int
	spinner spinner.Model
	width   int
}

// New creates a login screen bound to a fresh handshake
func New(hs *auth.Handshake) *Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Width = 24
		inputs[i] = in
	}
	inputs[fieldUsername].Placeholder = "username"
	inputs[fieldPassword].Placeholder = "password"
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '•'
	inputs[fieldCode].Placeholder = "code"
	inputs[fieldCode].CharLimit = 8
	inputs[fieldUsername].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{hs: hs, inputs: inputs, spinner: sp}
}

// Handshake returns the underlying handshake
func (m *Model) Handshake() *auth.Handshake {
	return m.hs
}

// Focused returns the index of the focused field
func (m *Model) Focused() int {
	return m.focus
}

// Value returns the text of a field
func (m *Model) Value(field int) string {
	return m.inputs[field].Value()
}

// SetSize records the available width
func (m *Model) SetSize(width int) {
	m.width = width
}

// Init mounts the handshake, which fetches the first challenge
func (m *Model) Init() tea.Cmd {
	hs := m.hs
	return tea.Batch(func() tea.Msg {
		return captchaMsg{err: hs.Mount(context.Background())}
	}, m.spinner.Tick, textinput.Blink)
}

func (m *Model) refresh() tea.Cmd {
	hs := m.hs
	m.inputs[fieldCode].SetValue("")
	hs.SetCode("")
	return tea.Batch(func() tea.Msg {
		return captchaMsg{err: hs.LoadCaptcha(context.Background())}
	}, m.spinner.Tick)
}

func (m *Model) submit() tea.Cmd {
	hs := m.hs
	hs.SetCode(m.inputs[fieldCode].Value())
	username := m.inputs[fieldUsername].Value()
	password := m.inputs[fieldPassword].Value()
	return tea.Batch(func() tea.Msg {
		return submitMsg{err: hs.Submit(context.Background(), username, password)}
	}, m.spinner.Tick)
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = (i + fieldCount) % fieldCount
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return textinput.Blink
}

// Update handles input and handshake results
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case captchaMsg:
		if c := m.hs.Snapshot().Captcha; c != nil && c.Length > 0 {
			m.inputs[fieldCode].CharLimit = c.Length
		}
		return nil

	case submitMsg:
		if msg.err == nil {
			return func() tea.Msg { return LoggedInMsg{} }
		}
		m.inputs[fieldCode].SetValue("")
		return m.setFocus(fieldCode)

	case spinner.TickMsg:
		if !m.busy() {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+r":
			return m.refresh()
		case "tab", "down":
			return m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m.setFocus(m.focus - 1)
		case "enter":
			if m.focus < fieldCode {
				return m.setFocus(m.focus + 1)
			}
			if m.hs.Snapshot().State == auth.StateSubmitting {
				return nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.focus == fieldCode {
		code := strings.ToUpper(m.inputs[fieldCode].Value())
		m.inputs[fieldCode].SetValue(code)
		m.hs.SetCode(code)
	}
	return cmd
}

func (m *Model) busy() bool {
	s := m.hs.Snapshot().State
	return s == auth.StateCaptchaLoading || s == auth.StateSubmitting
}

func (m *Model) field(i int, label string) string {
	l := styles.KeyStyle.Width(10).Render(label)
	if i == m.focus {
		l = styles.NavActive.UnsetPadding().Width(10).Render(label)
	}
	return l + " " + m.inputs[i].View()
}

// View renders the form
func (m *Model) View() string {
	snap := m.hs.Snapshot()

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Lock.String() + " Sign in to Quebec"))
	sb.WriteString("\n\n")
	sb.WriteString(m.field(fieldUsername, "Username"))
	sb.WriteString("\n")
	sb.WriteString(m.field(fieldPassword, "Password"))
	sb.WriteString("\n")
	sb.WriteString(m.field(fieldCode, "Code"))
	sb.WriteString("\n\n")

	switch {
	case snap.Loading():
		sb.WriteString(m.spinner.View() + " Loading captcha...")
	case snap.Captcha != nil:
		img, err := captcha.RenderURI(snap.Captcha.Pictures, CaptchaCols, CaptchaRows)
		if err != nil {
			sb.WriteString(styles.Help.Render("Captcha image unavailable, press ctrl+r"))
		} else {
			sb.WriteString(img)
		}
	default:
		sb.WriteString(styles.Help.Render("No captcha loaded, press ctrl+r"))
	}
	sb.WriteString("\n")

	if snap.State == auth.StateSubmitting {
		sb.WriteString("\n" + m.spinner.View() + " Signing in...")
	}
	if snap.Error != "" {
		sb.WriteString("\n" + styles.FieldError.Render(snap.Error))
	}

	form := styles.Panel.Render(sb.String())
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, form)
	}
	return form
}

// Help lists the key bindings for the footer
func (m *Model) Help() []string {
	return []string{"tab Next", "enter Sign in", "ctrl+r New code", "ctrl+c Quit"}
}
