// ABOUTME: Dashboard component summarizing the control plane at a glance
// ABOUTME: Shows user, role, session and audit counts with the latest activity

package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/session"
	"github.com/lyonmu/quebec/console/internal/tui/icons"
	"github.com/lyonmu/quebec/console/internal/tui/styles"
	"github.com/lyonmu/quebec/console/internal/tui/widgets"
	"golang.org/x/sync/errgroup"
)

// RecentLimit is the number of audit entries shown under the counters
const RecentLimit = 5

// API is the subset of the client the dashboard reads
type API interface {
	UserPage(ctx context.Context, q client.UserQuery) (*client.Page[client.User], error)
	RolePage(ctx context.Context, q client.RoleQuery) (*client.Page[client.Role], error)
	OnlineUsers(ctx context.Context, q client.OnlineUserQuery) (*client.Page[client.OnlineUser], error)
	OperationLogPage(ctx context.Context, q client.OperationLogQuery) (*client.Page[client.OperationLog], error)
}

// Summary holds the dashboard counters
type Summary struct {
	Users  int
	Roles  int
	Online int
	Logs   int
	Recent []client.OperationLog
}

// LoadedMsg delivers a fetched summary
type LoadedMsg struct {
	Summary *Summary
	Err     error
}

// Fetch queries every counter concurrently. The first failure cancels the rest.
func Fetch(ctx context.Context, api API) (*Summary, error) {
	var s Summary
	one := client.PageQuery{Page: 1, PageSize: 1}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := api.UserPage(ctx, client.UserQuery{PageQuery: one})
		if err != nil {
			return err
		}
		s.Users = p.Total
		return nil
	})
	g.Go(func() error {
		p, err := api.RolePage(ctx, client.RoleQuery{PageQuery: one})
		if err != nil {
			return err
		}
		s.Roles = p.Total
		return nil
	})
	g.Go(func() error {
		p, err := api.OnlineUsers(ctx, client.OnlineUserQuery{PageQuery: one})
		if err != nil {
			return err
		}
		s.Online = p.Total
		return nil
	})
	g.Go(func() error {
		p, err := api.OperationLogPage(ctx, client.OperationLogQuery{PageQuery: client.PageQuery{Page: 1, PageSize: RecentLimit}})
		if err != nil {
			return err
		}
		s.Logs = p.Total
		s.Recent = p.Items
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load returns a command that fetches the summary
func Load(api API) tea.Cmd {
	return func() tea.Msg {
		s, err := Fetch(context.Background(), api)
		return LoadedMsg{Summary: s, Err: err}
	}
}

// Dashboard displays the control plane summary
type Dashboard struct {
	identity session.Session
	summary  *Summary
	err      error
	width    int
	height   int
}

// New creates a new dashboard with summary data
func New(summary *Summary, width, height int) *Dashboard {
	return &Dashboard{
		summary: summary,
		width:   width,
		height:  height,
	}
}

// Update refreshes the dashboard with a load result
func (d *Dashboard) Update(msg LoadedMsg) {
	d.err = msg.Err
	if msg.Err == nil {
		d.summary = msg.Summary
	}
}

// SetSize updates the dashboard dimensions
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// SetIdentity records the signed-in operator shown above the counters
func (d *Dashboard) SetIdentity(s session.Session) {
	d.identity = s
}

// Summary returns the last loaded summary, or nil
func (d *Dashboard) Summary() *Summary {
	return d.summary
}

// View renders the dashboard
func (d *Dashboard) View() string {
	if d.summary == nil {
		if d.err != nil {
			return styles.Panel.Width(d.width).Render(
				styles.StatusCritical.Render("Failed to load dashboard: "+d.err.Error()) + "\n" +
					styles.Help.Render("Press r to retry"))
		}
		return styles.Panel.Width(d.width).Render("Loading dashboard...")
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Overview"))
	sb.WriteString("\n")
	if d.identity.Username != "" {
		name := d.identity.Nickname
		if name == "" {
			name = d.identity.Username
		}
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("Signed in as %s (%s)", name, d.identity.Username)))
		if d.identity.RoleName != "" {
			sb.WriteString("  " + widgets.Badge(d.identity.RoleName, widgets.StatusInfo))
		}
	}
	sb.WriteString("\n\n")

	cfg := widgets.DefaultMetricBlockConfig()
	blocks := []string{
		widgets.CountBlock(icons.Users, "Users", d.summary.Users, "accounts", cfg),
		widgets.CountBlock(icons.Role, "Roles", d.summary.Roles, "roles", cfg),
		widgets.CountBlock(icons.Online, "Online", d.summary.Online, "sessions", cfg),
		widgets.CountBlock(icons.Log, "Audit", d.summary.Logs, "entries", cfg),
	}
	if d.width > 0 && d.width < 4*(cfg.Width+2) {
		sb.WriteString(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, blocks[0], " ", blocks[1]),
			lipgloss.JoinHorizontal(lipgloss.Top, blocks[2], " ", blocks[3]),
		))
	} else {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, blocks[0], " ", blocks[1], " ", blocks[2], " ", blocks[3]))
	}
	sb.WriteString("\n\n")

	sb.WriteString(styles.Subtitle.Render("Recent activity"))
	sb.WriteString("\n")
	if len(d.summary.Recent) == 0 {
		sb.WriteString(styles.Help.Render("No activity recorded"))
		return sb.String()
	}
	for _, l := range d.summary.Recent {
		who := l.Nickname
		if who == "" {
			who = l.UserID
		}
		sb.WriteString(fmt.Sprintf("%s  %s %s\n",
			styles.Help.Render(time.Unix(l.OperationTime, 0).Local().Format("01-02 15:04")),
			styles.ValueStyle.Render(who),
			l.OperationType.String(),
		))
	}
	return strings.TrimRight(sb.String(), "\n")
}
