// ABOUTME: Read-only list commands for system resources
// ABOUTME: users, roles, menus, online (with kick) and logs

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/tui/widgets"
	"github.com/spf13/cobra"
)

var (
	listPage     int
	listPageSize int
)

const defaultPageSize = 20

// listCommand builds a command that needs a signed-in session
func listCommand(use, short string, run func(ctx context.Context, e *env, w io.Writer, q client.PageQuery) int) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			exitCode := withEnv(ctx, os.Stdout, func(e *env) int {
				return run(ctx, e, os.Stdout, client.PageQuery{Page: listPage, PageSize: listPageSize})
			})
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	}
	c.Flags().IntVar(&listPage, "page", 1, "Page number")
	c.Flags().IntVar(&listPageSize, "page-size", defaultPageSize, "Rows per page")
	return c
}

var onlineCmd = listCommand("online", "List online users", runOnline)

var kickCmd = &cobra.Command{
	Use:   "kick <user-id>",
	Short: "Force an online user to sign out",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := withEnv(ctx, os.Stdout, func(e *env) int {
			return runKick(ctx, e, os.Stdout, args[0])
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	onlineCmd.AddCommand(kickCmd)
	rootCmd.AddCommand(
		listCommand("users", "List console users", runUsers),
		listCommand("roles", "List roles", runRoles),
		onlineCmd,
		listCommand("logs", "List audit log entries, newest first", runLogs),
	)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "menus",
		Short: "Show the menu tree",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			exitCode := withEnv(ctx, os.Stdout, func(e *env) int {
				return runMenus(ctx, e, os.Stdout)
			})
			if exitCode != 0 {
				os.Exit(exitCode)
			}
		},
	})
}

func runUsers(ctx context.Context, e *env, w io.Writer, q client.PageQuery) int {
	if !e.requireSession(w) {
		return exitError
	}
	p, err := e.client.UserPage(ctx, client.UserQuery{PageQuery: q})
	if err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, p)
		return exitOK
	}

	rows := make([][]string, 0, len(p.Items))
	for _, u := range p.Items {
		rows = append(rows, []string{u.ID, u.Username, orDash(u.Nickname), orDash(u.RoleName), statusCell(u.Status), formatTime(u.LastLoginTime)})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "USERNAME", "NICKNAME", "ROLE", "STATUS", "LAST LOGIN"}, rows, p.Page, p.PageSize, p.Total))
	return exitOK
}

func runRoles(ctx context.Context, e *env, w io.Writer, q client.PageQuery) int {
	if !e.requireSession(w) {
		return exitError
	}
	p, err := e.client.RolePage(ctx, client.RoleQuery{PageQuery: q})
	if err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, p)
		return exitOK
	}

	rows := make([][]string, 0, len(p.Items))
	for _, r := range p.Items {
		rows = append(rows, []string{r.ID, r.Name, strconv.Itoa(r.Users), statusCell(r.Status), orDash(r.Remark)})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "NAME", "USERS", "STATUS", "REMARK"}, rows, p.Page, p.PageSize, p.Total))
	return exitOK
}

func runMenus(ctx context.Context, e *env, w io.Writer) int {
	if !e.requireSession(w) {
		return exitError
	}
	tree, err := e.client.MenuTree(ctx)
	if err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, tree)
		return exitOK
	}
	var sb strings.Builder
	writeMenuTree(&sb, tree, "")
	fmt.Fprint(w, sb.String())
	return exitOK
}

func writeMenuTree(sb *strings.Builder, nodes []client.MenuTreeNode, indent string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Fprintf(sb, "%s%s%s [%s]", indent, branch, n.Name, n.MenuType)
		if n.APIPath != "" {
			fmt.Fprintf(sb, " %s %s", n.APIPathMethod, n.APIPath)
		}
		if n.Status == client.StatusDisabled {
			sb.WriteString(" (disabled)")
		}
		sb.WriteString("\n")
		writeMenuTree(sb, n.Children, indent+next)
	}
}

func runOnline(ctx context.Context, e *env, w io.Writer, q client.PageQuery) int {
	if !e.requireSession(w) {
		return exitError
	}
	p, err := e.client.OnlineUsers(ctx, client.OnlineUserQuery{PageQuery: q})
	if err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, p)
		return exitOK
	}

	rows := make([][]string, 0, len(p.Items))
	for _, o := range p.Items {
		rows = append(rows, []string{o.ID, orDash(o.Nickname), o.AccessIP, o.OperationType.String(), formatTime(o.LastOperationTime)})
	}
	fmt.Fprintln(w, renderTable([]string{"USER", "NICKNAME", "ADDRESS", "LAST ACTION", "AT"}, rows, p.Page, p.PageSize, p.Total))
	return exitOK
}

func runKick(ctx context.Context, e *env, w io.Writer, userID string) int {
	if !e.requireSession(w) {
		return exitError
	}
	if err := e.client.ClearOnlineUser(ctx, userID); err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, map[string]string{"kicked": userID})
		return exitOK
	}
	fmt.Fprintf(w, "User %s has been signed out\n", userID)
	return exitOK
}

func runLogs(ctx context.Context, e *env, w io.Writer, q client.PageQuery) int {
	if !e.requireSession(w) {
		return exitError
	}
	p, err := e.client.OperationLogPage(ctx, client.OperationLogQuery{PageQuery: q})
	if err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, p)
		return exitOK
	}

	rows := make([][]string, 0, len(p.Items))
	for _, l := range p.Items {
		who := l.Nickname
		if who == "" {
			who = l.UserID
		}
		rows = append(rows, []string{formatTime(l.OperationTime), orDash(who), l.OperationType.String(), orDash(l.AccessIP), orDash(l.OS)})
	}
	fmt.Fprintln(w, renderTable([]string{"TIME", "USER", "OPERATION", "ADDRESS", "OS"}, rows, p.Page, p.PageSize, p.Total))
	return exitOK
}

func statusCell(s client.Status) string {
	return widgets.StatusText(s.String(), widgets.LevelForStatus(s))
}
