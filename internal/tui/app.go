// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Switches between the login screen and the sidebar plus content frame

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lyonmu/quebec/console/internal/auth"
	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/session"
	"github.com/lyonmu/quebec/console/internal/shell"
	"github.com/lyonmu/quebec/console/internal/toast"
	"github.com/lyonmu/quebec/console/internal/tui/confirm"
	"github.com/lyonmu/quebec/console/internal/tui/dashboard"
	"github.com/lyonmu/quebec/console/internal/tui/icons"
	"github.com/lyonmu/quebec/console/internal/tui/login"
	"github.com/lyonmu/quebec/console/internal/tui/menu"
	"github.com/lyonmu/quebec/console/internal/tui/resources"
	"github.com/lyonmu/quebec/console/internal/tui/styles"
	"github.com/lyonmu/quebec/console/internal/tui/toasts"
	"go.uber.org/zap"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenMain
)

type focusArea int

const (
	focusSidebar focusArea = iota
	focusContent
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before stacking the sidebar above content
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
)

const logoutDialog = "logout"

// API is every backend call the screens make
type API interface {
	auth.API
	resources.API
	dashboard.API
}

// Options wires the application to its collaborators
type Options struct {
	API    API
	Store  session.Store
	Shell  *shell.Shell
	Bus    *toast.Bus
	Log    *zap.Logger
	Server string
}

// logoutDoneMsg is sent when the backend logout call returns
type logoutDoneMsg struct {
	err error
}

// App is the root model for the TUI
type App struct {
	api    API
	store  session.Store
	shell  *shell.Shell
	bus    *toast.Bus
	log    *zap.Logger
	server string

	screen     Screen
	focus      focusArea
	width      int
	height     int
	lastUpdate time.Time
	loggingOut bool

	// Child models
	menu    *menu.Menu
	login   *login.Model
	dash    *dashboard.Dashboard
	specs   map[shell.View]resources.Spec
	screens map[shell.View]*resources.Screen
	toasts  *toasts.Stack
	dialog  *confirm.Dialog
}

// New creates a new TUI application
func New(opts Options) *App {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	bus := opts.Bus
	if bus == nil {
		bus = toast.Default
	}

	a := &App{
		api:     opts.API,
		store:   opts.Store,
		shell:   opts.Shell,
		bus:     bus,
		log:     log,
		server:  opts.Server,
		menu:    menu.New(opts.Shell.View()),
		specs:   resources.Specs(),
		screens: make(map[shell.View]*resources.Screen),
		toasts:  toasts.New(),
		focus:   focusContent,
	}
	if a.shell.Authenticated() {
		a.screen = ScreenMain
	} else {
		a.screen = ScreenLogin
		a.login = a.newLogin()
	}
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.screen == ScreenLogin {
		return a.login.Init()
	}
	return a.activate(a.shell.View())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case toasts.ShowMsg:
		return a, a.toasts.Update(msg)

	case login.LoggedInMsg:
		return a, a.enterMain()

	case menu.SelectedMsg:
		return a, a.selectView(msg.View)

	case dashboard.LoadedMsg:
		if a.dash != nil {
			a.dash.Update(msg)
		}
		if msg.Err != nil {
			return a, a.checkSession()
		}
		a.lastUpdate = time.Now()
		return a, nil

	case resources.LoadedMsg:
		if scr := a.screens[msg.View]; scr != nil {
			scr.Update(msg)
		}
		if msg.Err != nil {
			return a, a.checkSession()
		}
		a.lastUpdate = time.Now()
		return a, nil

	case resources.ActionDoneMsg:
		var cmd tea.Cmd
		if scr := a.screens[msg.View]; scr != nil {
			cmd = scr.Update(msg)
		}
		if msg.Err != nil {
			return a, tea.Batch(cmd, a.checkSession())
		}
		return a, cmd

	case spinner.TickMsg:
		if a.screen == ScreenLogin {
			return a, a.login.Update(msg)
		}
		if scr := a.screens[a.shell.View()]; scr != nil {
			return a, scr.Update(msg)
		}
		return a, nil

	case confirm.ConfirmedMsg:
		a.dialog = nil
		if msg.ID == logoutDialog && !a.loggingOut {
			return a, a.logout()
		}
		return a, nil

	case confirm.CancelledMsg:
		a.dialog = nil
		return a, nil

	case logoutDoneMsg:
		a.loggingOut = false
		if msg.err != nil {
			var apiErr *client.Error
			if !errors.As(msg.err, &apiErr) {
				a.bus.Error(msg.err.Error())
			}
			return a, a.checkSession()
		}
		a.bus.Success("Signed out")
		return a, a.startLogin()
	}

	// Toast expiry, cursor blink and huh internals
	cmds := []tea.Cmd{a.toasts.Update(msg)}
	switch {
	case a.dialog != nil:
		model, cmd := a.dialog.Update(msg)
		a.dialog = model.(*confirm.Dialog)
		cmds = append(cmds, cmd)
	case a.screen == ScreenLogin && a.login != nil:
		cmds = append(cmds, a.login.Update(msg))
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.dialog != nil {
		model, cmd := a.dialog.Update(msg)
		a.dialog = model.(*confirm.Dialog)
		return a, cmd
	}

	if a.screen == ScreenLogin {
		return a, a.login.Update(msg)
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "tab":
		if a.focus == focusSidebar {
			a.focus = focusContent
		} else {
			a.focus = focusSidebar
		}
		return a, nil
	case "L":
		a.dialog = confirm.New(logoutDialog, "Sign out of Quebec?", "Sign out", "Stay")
		a.dialog.SetWidth(a.contentWidth())
		return a, a.dialog.Init()
	case "esc":
		a.toasts.DismissAll()
		a.focus = focusSidebar
		return a, nil
	}

	if a.focus == focusSidebar {
		_, cmd := a.menu.Update(msg)
		return a, cmd
	}

	view := a.shell.View()
	if view == shell.ViewDashboard && msg.String() == "r" {
		return a, dashboard.Load(a.api)
	}
	if scr := a.screens[view]; scr != nil {
		return a, scr.Update(msg)
	}
	return a, nil
}

func (a *App) newLogin() *login.Model {
	sh := a.shell
	hs := auth.New(a.api, a.store, func(client.LoginResponse) { sh.LoggedIn() }, a.log.Named("auth"))
	m := login.New(hs)
	m.SetSize(a.width)
	return m
}

// startLogin shows a fresh login screen; each visit gets its own handshake
func (a *App) startLogin() tea.Cmd {
	if a.login != nil {
		a.login.Handshake().Unmount()
	}
	a.screen = ScreenLogin
	a.dialog = nil
	a.dash = nil
	a.screens = make(map[shell.View]*resources.Screen)
	a.login = a.newLogin()
	a.log.Info("showing login screen")
	return a.login.Init()
}

func (a *App) enterMain() tea.Cmd {
	if a.login != nil {
		a.login.Handshake().Unmount()
		a.login = nil
	}
	a.screen = ScreenMain
	a.focus = focusContent

	sess := a.shell.Session()
	name := sess.Nickname
	if name == "" {
		name = sess.Username
	}
	a.bus.Success(fmt.Sprintf("Welcome, %s", name))
	return a.activate(a.shell.View())
}

// checkSession returns to the login screen when a forced deauth cleared the session
func (a *App) checkSession() tea.Cmd {
	if a.screen != ScreenMain || a.shell.Revalidate() {
		return nil
	}
	return a.startLogin()
}

func (a *App) selectView(v shell.View) tea.Cmd {
	if err := a.shell.ChangeView(v); err != nil && errors.Is(err, shell.ErrUnknownView) {
		return nil
	}
	a.focus = focusContent
	return a.activate(v)
}

// activate highlights v and starts loading its data
func (a *App) activate(v shell.View) tea.Cmd {
	a.menu.SetActive(v)

	if v == shell.ViewDashboard {
		if a.dash == nil {
			a.dash = dashboard.New(nil, a.contentWidth(), a.contentHeight())
		}
		a.dash.SetIdentity(a.shell.Session())
		return dashboard.Load(a.api)
	}

	spec, ok := a.specs[v]
	if !ok {
		return nil
	}
	scr := a.screens[v]
	if scr == nil {
		scr = resources.New(spec, a.api, a.bus)
		scr.SetSize(a.contentWidth(), a.contentHeight())
		a.screens[v] = scr
	}
	return scr.Load()
}

func (a *App) logout() tea.Cmd {
	a.loggingOut = true
	sh := a.shell
	return func() tea.Msg {
		return logoutDoneMsg{err: sh.Logout(context.Background())}
	}
}

func (a *App) resize() {
	if a.dash != nil {
		a.dash.SetSize(a.contentWidth(), a.contentHeight())
	}
	for _, scr := range a.screens {
		scr.SetSize(a.contentWidth(), a.contentHeight())
	}
	if a.login != nil {
		a.login.SetSize(a.width)
	}
	if a.dialog != nil {
		a.dialog.SetWidth(a.contentWidth())
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = a.login.View()
	default:
		content = a.viewMain()
	}

	if a.toasts.Len() > 0 {
		stack := a.toasts.View(a.toastWidth())
		if a.width > 0 {
			stack = lipgloss.PlaceHorizontal(a.width-1, lipgloss.Right, stack)
		}
		content = lipgloss.JoinVertical(lipgloss.Left, content, stack)
	}

	return a.wrapWithFrame(content)
}

// viewMain renders the sidebar next to the active view
func (a *App) viewMain() string {
	sidebarStyle := styles.Panel
	contentStyle := styles.ActivePanel
	if a.focus == focusSidebar {
		sidebarStyle, contentStyle = styles.ActivePanel, styles.Panel
	}

	sidebar := sidebarStyle.Width(menu.Width).Render(a.menu.View(a.focus == focusSidebar))
	body := contentStyle.Width(a.contentWidth()).Render(a.viewContent())

	if a.width > 0 && a.width < minTerminalWidth {
		return lipgloss.JoinVertical(lipgloss.Left, sidebar, body)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, body)
}

func (a *App) viewContent() string {
	if a.dialog != nil {
		return a.dialog.View()
	}

	view := a.shell.View()
	if view == shell.ViewDashboard {
		if a.dash == nil {
			return "Loading..."
		}
		return a.dash.View()
	}
	if scr := a.screens[view]; scr != nil {
		return scr.Render()
	}
	return viewNotice(view)
}

// viewNotice renders views whose resources are owned by the gateway itself
func viewNotice(v shell.View) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(menu.Icon(v).String() + " " + v.Title()))
	sb.WriteString("\n\n")
	sb.WriteString(styles.ValueStyle.Render("Opaque resource"))
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render("These objects are managed by the gateway data plane and are not editable from the console."))
	return sb.String()
}

// contentWidth calculates the width for the content pane
func (a *App) contentWidth() int {
	w := a.width - menu.Width - 2*panelPadding
	if a.width < minTerminalWidth {
		w = a.width - panelPadding
	}
	if w < 40 {
		w = 40
	}
	return w
}

// contentHeight calculates the height available for pane content
func (a *App) contentHeight() int {
	// Header, footer and the panel border plus padding take 8 lines
	return a.height - 8
}

func (a *App) toastWidth() int {
	w := a.width / 3
	if w < 30 {
		w = 30
	}
	return w
}

// frameWidth is the drawn frame width; one column is left free to avoid wrapping
func (a *App) frameWidth() int {
	width := a.width - 1
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width
}

// renderHeader creates the header bar with app branding and identity
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftRendered := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Quebec Console"))

	rightText := ""
	if a.screen == ScreenMain {
		sess := a.shell.Session()
		name := sess.Nickname
		if name == "" {
			name = sess.Username
		}
		rightText = icons.User.String() + " " + name
		if sess.RoleName != "" {
			rightText += " · " + sess.RoleName
		}
	} else if a.server != "" {
		rightText = a.server
	}
	rightRendered := ""
	if rightText != "" {
		rightRendered = " " + contextStyle.Render(rightText) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered) // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftRendered + strings.Repeat("─", fillWidth) + rightRendered + "─╮"
	return borderStyle.Render(header)
}

// shortcuts returns the key hints for the current screen
func (a *App) shortcuts() []string {
	switch {
	case a.screen == ScreenLogin:
		return a.login.Help()
	case a.dialog != nil:
		return []string{"←→ Choose", "Enter Confirm", "Esc Cancel"}
	case a.focus == focusSidebar:
		return []string{"↑↓ Navigate", "Enter Open", "tab Content", "L Logout", "q Quit"}
	}

	view := a.shell.View()
	var hints []string
	switch {
	case view == shell.ViewDashboard:
		hints = []string{"r Refresh"}
	case a.screens[view] != nil:
		hints = a.screens[view].Help()
	}
	return append(hints, "tab Menu", "L Logout", "q Quit")
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	shortcuts := a.shortcuts()
	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ") + " "
	leftPlainText := " " + strings.Join(shortcuts, "  ") + " "

	rightText := ""
	rightPlainText := ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenMain {
		elapsed := formatTimeSince(a.lastUpdate)
		rightText = " " + statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = " Updated " + elapsed + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftPlainText) - lipgloss.Width(rightPlainText) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI and blocks until it exits
func Run(opts Options) error {
	app := New(opts)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	unsubscribe := toasts.Forward(app.bus, p)
	defer unsubscribe()

	_, err := p.Run()
	return err
}
