// ABOUTME: Session commands: logout and whoami
// ABOUTME: Operate on the session stored for the active profile

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := withEnv(ctx, os.Stdout, func(e *env) int {
			return runLogout(ctx, e, os.Stdout)
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in operator",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := withEnv(cmd.Context(), os.Stdout, func(e *env) int {
			return runWhoami(e, os.Stdout)
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd, whoamiCmd)
}

// runLogout ends the session on the server; the local session is kept if the server refuses
func runLogout(ctx context.Context, e *env, w io.Writer) int {
	if !e.store.Get().Authenticated() {
		fmt.Fprintln(w, "Not logged in")
		return exitOK
	}
	if err := e.shell.Logout(ctx); err != nil {
		return fail(w, err)
	}
	fmt.Fprintln(w, "Logged out")
	return exitOK
}

// whoami is the whoami command output
type whoami struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	RoleName string `json:"role_name"`
	View     string `json:"current_view,omitempty"`
	Server   string `json:"server"`
	Profile  string `json:"profile"`
}

func runWhoami(e *env, w io.Writer) int {
	if !e.requireSession(w) {
		return exitError
	}
	sess := e.store.Get()
	out := whoami{
		Username: sess.Username,
		Nickname: sess.Nickname,
		RoleName: sess.RoleName,
		View:     sess.CurrentView,
		Server:   e.cfg.Server,
		Profile:  e.cfg.Profile,
	}
	if IsJSONOutput() {
		writeJSON(w, out)
		return exitOK
	}
	fmt.Fprintf(w, `Username:  %s
Nickname:  %s
Role:      %s
Server:    %s
Profile:   %s
`, out.Username, orDash(out.Nickname), orDash(out.RoleName), out.Server, out.Profile)
	return exitOK
}
