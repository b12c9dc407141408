// ABOUTME: Sidebar navigation listing every console view
// ABOUTME: Moves a cursor over views and emits a selection on enter

package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lyonmu/quebec/console/internal/shell"
	"github.com/lyonmu/quebec/console/internal/tui/icons"
	"github.com/lyonmu/quebec/console/internal/tui/styles"
)

// SelectedMsg is sent when the operator picks a view
type SelectedMsg struct {
	View shell.View
}

// Width is the rendered sidebar width
const Width = 26

var viewIcons = map[shell.View]icons.Icon{
	shell.ViewDashboard:         icons.Dashboard,
	shell.ViewNodes:             icons.Server,
	shell.ViewProxyL4:           icons.Network,
	shell.ViewProxyL7:           icons.Route,
	shell.ViewCerts:             icons.Cert,
	shell.ViewSystemUsers:       icons.Users,
	shell.ViewSystemOnlineUsers: icons.Online,
	shell.ViewSystemRoles:       icons.Role,
	shell.ViewSystemMenus:       icons.Menu,
	shell.ViewSystemLogs:        icons.Log,
}

// section headers are printed before these views
var sections = map[shell.View]string{
	shell.ViewNodes:       "Gateway",
	shell.ViewSystemUsers: "System",
}

// Icon returns the icon for a view
func Icon(v shell.View) icons.Icon {
	if i, ok := viewIcons[v]; ok {
		return i
	}
	return icons.Info
}

// Menu is the sidebar model
type Menu struct {
	views  []shell.View
	cursor int
	active shell.View
}

// New creates a sidebar with the cursor on active
func New(active shell.View) *Menu {
	m := &Menu{views: shell.Views}
	m.SetActive(active)
	return m
}

// Active returns the highlighted view
func (m *Menu) Active() shell.View {
	return m.active
}

// Cursor returns the view under the cursor
func (m *Menu) Cursor() shell.View {
	return m.views[m.cursor]
}

// SetActive moves both the highlight and the cursor to v
func (m *Menu) SetActive(v shell.View) {
	m.active = v
	for i, view := range m.views {
		if view == v {
			m.cursor = i
			return
		}
	}
}

// Update handles navigation keys
func (m *Menu) Update(msg tea.Msg) (*Menu, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.views)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.views) - 1
	case "enter":
		v := m.views[m.cursor]
		return m, func() tea.Msg { return SelectedMsg{View: v} }
	}
	return m, nil
}

// View renders the sidebar; focused controls whether the cursor is shown
func (m *Menu) View(focused bool) string {
	var sb strings.Builder
	for i, v := range m.views {
		if header, ok := sections[v]; ok {
			sb.WriteString("\n")
			sb.WriteString(styles.Subtitle.MarginBottom(0).Render(" " + strings.ToUpper(header)))
			sb.WriteString("\n")
		}
		line := Icon(v).String() + " " + v.Title()
		switch {
		case focused && i == m.cursor:
			sb.WriteString(styles.NavCursor.Width(Width - 2).Render(line))
		case v == m.active:
			sb.WriteString(styles.NavActive.Render(line))
		default:
			sb.WriteString(styles.NavItem.Render(line))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
