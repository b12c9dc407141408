// ABOUTME: Paged table screen shared by the system resource views
// ABOUTME: Loads rows through the API client and runs per-row actions

package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/shell"
	"github.com/lyonmu/quebec/console/internal/toast"
	"github.com/lyonmu/quebec/console/internal/tui/styles"
)

// DefaultPageSize is the number of rows requested per page
const DefaultPageSize = 10

// API is the subset of the client the resource screens call
type API interface {
	UserPage(ctx context.Context, q client.UserQuery) (*client.Page[client.User], error)
	EnableUser(ctx context.Context, id string, status client.Status) error
	RolePage(ctx context.Context, q client.RoleQuery) (*client.Page[client.Role], error)
	EnableRole(ctx context.Context, id string, status client.Status) error
	MenuTree(ctx context.Context) ([]client.MenuTreeNode, error)
	OnlineUsers(ctx context.Context, q client.OnlineUserQuery) (*client.Page[client.OnlineUser], error)
	ClearOnlineUser(ctx context.Context, id string) error
	OperationLogPage(ctx context.Context, q client.OperationLogQuery) (*client.Page[client.OperationLog], error)
}

// Row is one table row plus the identity actions need
type Row struct {
	ID     string
	Status client.Status
	Cells  table.Row
}

// Result is a loaded page
type Result struct {
	Rows  []Row
	Total int
}

// Action runs against the selected row
type Action struct {
	Key     string
	Label   string
	Run     func(ctx context.Context, api API, row Row) error
	Success func(row Row) string
}

// Spec describes one resource view
type Spec struct {
	View    shell.View
	Columns []table.Column
	Paged   bool
	Load    func(ctx context.Context, api API, page, size int) (Result, error)
	Actions []Action
}

// LoadedMsg carries a page back to the screen that asked for it
type LoadedMsg struct {
	View   shell.View
	Seq    int
	Page   int
	Result Result
	Err    error
}

// ActionDoneMsg reports a finished row action
type ActionDoneMsg struct {
	View shell.View
	Err  error
}

// Screen is a paged table bound to a Spec
type Screen struct {
	spec     Spec
	api      API
	bus      *toast.Bus
	table    table.Model
	spinner  spinner.Model
	rows     []Row
	page     int
	pageSize int
	total    int
	seq      int
	loading  bool
	busy     bool
	err      error
}

// New creates a screen; call Load to fetch the first page
func New(spec Spec, api API, bus *toast.Bus) *Screen {
	t := table.New(
		table.WithColumns(spec.Columns),
		table.WithFocused(true),
		table.WithHeight(DefaultPageSize+1),
		table.WithStyles(styles.TableStyles()),
	)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Screen{
		spec:     spec,
		api:      api,
		bus:      bus,
		table:    t,
		spinner:  sp,
		page:     1,
		pageSize: DefaultPageSize,
	}
}

// ViewID identifies the screen
func (s *Screen) ViewID() shell.View {
	return s.spec.View
}

// Loading reports whether a fetch is in flight
func (s *Screen) Loading() bool {
	return s.loading
}

// Page returns the current page number
func (s *Screen) Page() int {
	return s.page
}

// Total returns the total reported by the backend
func (s *Screen) Total() int {
	return s.total
}

// Rows returns the loaded rows
func (s *Screen) Rows() []Row {
	return s.rows
}

// Err returns the last load error
func (s *Screen) Err() error {
	return s.err
}

// Selected returns the row under the cursor
func (s *Screen) Selected() (Row, bool) {
	i := s.table.Cursor()
	if i < 0 || i >= len(s.rows) {
		return Row{}, false
	}
	return s.rows[i], true
}

// SetSize fits the table to the content area
func (s *Screen) SetSize(width, height int) {
	s.table.SetWidth(width)
	if h := height - 4; h > 3 {
		s.table.SetHeight(h)
	}
}

// Load fetches the current page
func (s *Screen) Load() tea.Cmd {
	s.seq++
	s.loading = true
	seq, page, size := s.seq, s.page, s.pageSize
	spec, api := s.spec, s.api
	load := func() tea.Msg {
		res, err := spec.Load(context.Background(), api, page, size)
		return LoadedMsg{View: spec.View, Seq: seq, Page: page, Result: res, Err: err}
	}
	return tea.Batch(load, s.spinner.Tick)
}

func (s *Screen) pages() int {
	if s.total <= 0 || s.pageSize <= 0 {
		return 1
	}
	return (s.total + s.pageSize - 1) / s.pageSize
}

// Update handles keys and results addressed to this screen
func (s *Screen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.View != s.spec.View || msg.Seq != s.seq {
			return nil
		}
		s.loading = false
		s.err = msg.Err
		if msg.Err != nil {
			return nil
		}
		s.page = msg.Page
		s.rows = msg.Result.Rows
		s.total = msg.Result.Total
		cells := make([]table.Row, len(s.rows))
		for i, r := range s.rows {
			cells[i] = r.Cells
		}
		s.table.SetRows(cells)
		if s.table.Cursor() >= len(cells) {
			s.table.SetCursor(max(0, len(cells)-1))
		}
		return nil

	case ActionDoneMsg:
		if msg.View != s.spec.View {
			return nil
		}
		s.busy = false
		if msg.Err != nil {
			return nil
		}
		return s.Load()

	case spinner.TickMsg:
		if !s.loading {
			return nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r":
		return s.Load()
	case "right", "l", "n":
		if s.spec.Paged && s.page < s.pages() {
			s.page++
			return s.Load()
		}
		return nil
	case "left", "h", "p":
		if s.spec.Paged && s.page > 1 {
			s.page--
			return s.Load()
		}
		return nil
	}

	for _, a := range s.spec.Actions {
		if msg.String() == a.Key {
			return s.run(a)
		}
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

func (s *Screen) run(a Action) tea.Cmd {
	row, ok := s.Selected()
	if !ok || s.busy {
		return nil
	}
	s.busy = true
	view, api, bus := s.spec.View, s.api, s.bus
	return func() tea.Msg {
		err := a.Run(context.Background(), api, row)
		if err == nil && a.Success != nil && bus != nil {
			bus.Success(a.Success(row))
		}
		return ActionDoneMsg{View: view, Err: err}
	}
}

// Help lists the key bindings for the footer
func (s *Screen) Help() []string {
	help := []string{"↑↓ Select", "r Refresh"}
	if s.spec.Paged {
		help = append(help, "←→ Page")
	}
	for _, a := range s.spec.Actions {
		help = append(help, a.Key+" "+a.Label)
	}
	return help
}

// Render draws the table with a status line
func (s *Screen) Render() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(s.spec.View.Title()))
	sb.WriteString("\n")

	switch {
	case s.loading && len(s.rows) == 0:
		sb.WriteString(s.spinner.View() + " Loading...")
		return sb.String()
	case s.err != nil && len(s.rows) == 0:
		sb.WriteString(styles.StatusCritical.Render("Failed to load: " + s.err.Error()))
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("Press r to retry"))
		return sb.String()
	}

	sb.WriteString(s.table.View())
	sb.WriteString("\n")

	status := fmt.Sprintf("%d records", s.total)
	if s.spec.Paged {
		status = fmt.Sprintf("Page %d/%d  ·  %s", s.page, s.pages(), status)
	}
	if s.loading {
		status = s.spinner.View() + " " + status
	}
	sb.WriteString(styles.Help.Render(status))
	return sb.String()
}
