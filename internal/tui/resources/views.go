// ABOUTME: Column layouts, loaders and actions for each system resource view
// ABOUTME: Users, roles, menus, online users and audit logs

package resources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/shell"
)

// Specs returns the table-backed views keyed by view
func Specs() map[shell.View]Spec {
	return map[shell.View]Spec{
		shell.ViewSystemUsers:       Users(),
		shell.ViewSystemRoles:       Roles(),
		shell.ViewSystemMenus:       Menus(),
		shell.ViewSystemOnlineUsers: OnlineUsers(),
		shell.ViewSystemLogs:        Logs(),
	}
}

func timestamp(unix int64) string {
	if unix <= 0 {
		return "-"
	}
	return time.Unix(unix, 0).Local().Format("2006-01-02 15:04")
}

func or(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func toggle(label string, enable func(ctx context.Context, api API, id string, s client.Status) error) Action {
	return Action{
		Key:   "e",
		Label: "Enable/Disable",
		Run: func(ctx context.Context, api API, row Row) error {
			return enable(ctx, api, row.ID, row.Status.Toggle())
		},
		Success: func(row Row) string {
			return fmt.Sprintf("%s %s %s", label, row.Cells[1], row.Status.Toggle())
		},
	}
}

// Users lists console accounts
func Users() Spec {
	return Spec{
		View:  shell.ViewSystemUsers,
		Paged: true,
		Columns: []table.Column{
			{Title: "ID", Width: 6},
			{Title: "Username", Width: 14},
			{Title: "Nickname", Width: 18},
			{Title: "Role", Width: 12},
			{Title: "Status", Width: 9},
			{Title: "Last login", Width: 17},
		},
		Load: func(ctx context.Context, api API, page, size int) (Result, error) {
			p, err := api.UserPage(ctx, client.UserQuery{PageQuery: client.PageQuery{Page: page, PageSize: size}})
			if err != nil {
				return Result{}, err
			}
			rows := make([]Row, 0, len(p.Items))
			for _, u := range p.Items {
				rows = append(rows, Row{ID: u.ID, Status: u.Status, Cells: table.Row{
					u.ID, u.Username, or(u.Nickname), or(u.RoleName), u.Status.String(), timestamp(u.LastLoginTime),
				}})
			}
			return Result{Rows: rows, Total: p.Total}, nil
		},
		Actions: []Action{toggle("User", func(ctx context.Context, api API, id string, s client.Status) error {
			return api.EnableUser(ctx, id, s)
		})},
	}
}

// Roles lists permission groups
func Roles() Spec {
	return Spec{
		View:  shell.ViewSystemRoles,
		Paged: true,
		Columns: []table.Column{
			{Title: "ID", Width: 6},
			{Title: "Name", Width: 16},
			{Title: "Users", Width: 6},
			{Title: "Status", Width: 9},
			{Title: "Remark", Width: 30},
		},
		Load: func(ctx context.Context, api API, page, size int) (Result, error) {
			p, err := api.RolePage(ctx, client.RoleQuery{PageQuery: client.PageQuery{Page: page, PageSize: size}})
			if err != nil {
				return Result{}, err
			}
			rows := make([]Row, 0, len(p.Items))
			for _, r := range p.Items {
				rows = append(rows, Row{ID: r.ID, Status: r.Status, Cells: table.Row{
					r.ID, r.Name, fmt.Sprintf("%d", r.Users), r.Status.String(), or(r.Remark),
				}})
			}
			return Result{Rows: rows, Total: p.Total}, nil
		},
		Actions: []Action{toggle("Role", func(ctx context.Context, api API, id string, s client.Status) error {
			return api.EnableRole(ctx, id, s)
		})},
	}
}

// Menus shows the navigation tree flattened with indentation
func Menus() Spec {
	return Spec{
		View: shell.ViewSystemMenus,
		Columns: []table.Column{
			{Title: "Name", Width: 26},
			{Title: "Type", Width: 10},
			{Title: "Component", Width: 20},
			{Title: "API", Width: 26},
			{Title: "Status", Width: 9},
		},
		Load: func(ctx context.Context, api API, _, _ int) (Result, error) {
			tree, err := api.MenuTree(ctx)
			if err != nil {
				return Result{}, err
			}
			var rows []Row
			flattenMenus(tree, 0, &rows)
			return Result{Rows: rows, Total: len(rows)}, nil
		},
	}
}

func flattenMenus(nodes []client.MenuTreeNode, depth int, out *[]Row) {
	for _, n := range nodes {
		name := n.Name
		if depth > 0 {
			name = strings.Repeat("  ", depth-1) + "└ " + n.Name
		}
		apiPath := "-"
		if n.APIPath != "" {
			apiPath = strings.TrimSpace(n.APIPathMethod + " " + n.APIPath)
		}
		*out = append(*out, Row{ID: n.ID, Status: n.Status, Cells: table.Row{
			name, n.MenuType.String(), or(n.Component), apiPath, n.Status.String(),
		}})
		flattenMenus(n.Children, depth+1, out)
	}
}

// OnlineUsers lists active sessions; x forces one offline
func OnlineUsers() Spec {
	return Spec{
		View:  shell.ViewSystemOnlineUsers,
		Paged: true,
		Columns: []table.Column{
			{Title: "User", Width: 6},
			{Title: "Nickname", Width: 18},
			{Title: "Address", Width: 15},
			{Title: "Last action", Width: 16},
			{Title: "At", Width: 17},
			{Title: "Client", Width: 20},
		},
		Load: func(ctx context.Context, api API, page, size int) (Result, error) {
			p, err := api.OnlineUsers(ctx, client.OnlineUserQuery{PageQuery: client.PageQuery{Page: page, PageSize: size}})
			if err != nil {
				return Result{}, err
			}
			rows := make([]Row, 0, len(p.Items))
			for _, o := range p.Items {
				rows = append(rows, Row{ID: o.ID, Cells: table.Row{
					o.ID, or(o.Nickname), o.AccessIP, o.OperationType.String(), timestamp(o.LastOperationTime),
					or(strings.TrimSpace(o.BrowserName + " " + o.BrowserVersion)),
				}})
			}
			return Result{Rows: rows, Total: p.Total}, nil
		},
		Actions: []Action{{
			Key:   "x",
			Label: "Kick",
			Run: func(ctx context.Context, api API, row Row) error {
				return api.ClearOnlineUser(ctx, row.ID)
			},
			Success: func(row Row) string {
				return fmt.Sprintf("%s has been signed out", row.Cells[1])
			},
		}},
	}
}

// Logs lists audit entries, newest first
func Logs() Spec {
	return Spec{
		View:  shell.ViewSystemLogs,
		Paged: true,
		Columns: []table.Column{
			{Title: "Time", Width: 17},
			{Title: "User", Width: 18},
			{Title: "Operation", Width: 18},
			{Title: "Address", Width: 15},
			{Title: "OS", Width: 14},
		},
		Load: func(ctx context.Context, api API, page, size int) (Result, error) {
			p, err := api.OperationLogPage(ctx, client.OperationLogQuery{PageQuery: client.PageQuery{Page: page, PageSize: size}})
			if err != nil {
				return Result{}, err
			}
			rows := make([]Row, 0, len(p.Items))
			for _, l := range p.Items {
				user := l.Nickname
				if user == "" {
					user = l.UserID
				}
				rows = append(rows, Row{ID: l.ID, Cells: table.Row{
					timestamp(l.OperationTime), or(user), l.OperationType.String(), or(l.AccessIP), or(l.OS),
				}})
			}
			return Result{Rows: rows, Total: p.Total}, nil
		},
	}
}
