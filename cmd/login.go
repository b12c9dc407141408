// ABOUTME: Interactive sign-in outside the TUI
// ABOUTME: Prints the captcha to the terminal and collects credentials with huh

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/lyonmu/quebec/console/internal/auth"
	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/tui/captcha"
	"github.com/lyonmu/quebec/console/internal/tui/styles"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	loginUsername string
	loginPassword string
)

const (
	maxLoginAttempts = 3
	captchaCols      = 36
	captchaRows      = 6
)

// credentials collected for one attempt
type credentials struct {
	Username string
	Password string
	Code     string
}

// prompter shows the rendered challenge and fills in whatever is missing from creds
type prompter func(w io.Writer, c client.Captcha, picture string, creds *credentials) error

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a session for the active profile",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := withEnv(ctx, os.Stdout, func(e *env) int {
			return runLogin(ctx, e, os.Stdout, huhPrompt)
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when empty)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when empty)")
	rootCmd.AddCommand(loginCmd)
}

// runLogin drives the captcha handshake until it succeeds or attempts run out
func runLogin(ctx context.Context, e *env, w io.Writer, prompt prompter) int {
	hs := auth.New(e.client, e.store, func(client.LoginResponse) { e.shell.LoggedIn() }, e.log.Named("auth"))
	defer hs.Unmount()

	if err := hs.Mount(ctx); err != nil {
		return fail(w, err)
	}

	creds := credentials{Username: loginUsername, Password: loginPassword}
	var lastErr error
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		snap := hs.Snapshot()
		if snap.Captcha == nil {
			if err := hs.LoadCaptcha(ctx); err != nil {
				return fail(w, err)
			}
			snap = hs.Snapshot()
		}

		picture, err := captcha.RenderURI(snap.Captcha.Pictures, captchaCols, captchaRows)
		if err != nil {
			e.log.Warn("failed to render captcha", zap.Error(err))
			picture = "(captcha image unavailable)"
		}

		creds.Code = ""
		if err := prompt(w, *snap.Captcha, picture, &creds); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(w, "Login cancelled")
				return exitError
			}
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}

		hs.SetCode(creds.Code)
		lastErr = hs.Submit(ctx, creds.Username, creds.Password)
		if lastErr == nil {
			return printLoggedIn(e, w)
		}

		var validation *auth.ValidationError
		if !errors.As(lastErr, &validation) && !client.IsBusiness(lastErr) {
			return fail(w, lastErr)
		}
		fmt.Fprintf(w, "Login failed: %s\n", hs.Snapshot().Error)
		creds.Password = ""
	}

	fmt.Fprintf(w, "Error: giving up after %d attempts\n", maxLoginAttempts)
	return exitCode(lastErr)
}

func printLoggedIn(e *env, w io.Writer) int {
	sess := e.store.Get()
	if IsJSONOutput() {
		writeJSON(w, map[string]string{
			"username":  sess.Username,
			"nickname":  sess.Nickname,
			"role_name": sess.RoleName,
			"profile":   e.cfg.Profile,
		})
		return exitOK
	}
	fmt.Fprintf(w, "Logged in as %s (%s), role %s\n", orDash(sess.Nickname), sess.Username, orDash(sess.RoleName))
	return exitOK
}

// huhPrompt prints the challenge and asks for the missing fields
func huhPrompt(w io.Writer, c client.Captcha, picture string, creds *credentials) error {
	fmt.Fprintln(w, picture)

	var fields []huh.Field
	if creds.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&creds.Username))
	}
	if creds.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&creds.Password))
	}
	fields = append(fields, huh.NewInput().
		Title("Captcha").
		Description(fmt.Sprintf("Enter the %d characters shown above", c.Length)).
		Value(&creds.Code))

	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(styles.FormTheme()).Run()
}
