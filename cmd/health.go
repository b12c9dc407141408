// ABOUTME: Health command for the quebec console
// ABOUTME: Checks control plane connectivity through the public captcha endpoint

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check control plane connectivity",
	Long:  `Check connectivity to the Quebec control plane and report the stored session for the active profile.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := withEnv(ctx, os.Stdout, func(e *env) int {
			return runHealth(ctx, e, os.Stdout)
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// healthReport is the health command output
type healthReport struct {
	Server    string `json:"server"`
	APIRoot   string `json:"api_root"`
	Reachable bool   `json:"reachable"`
	LatencyMS int64  `json:"latency_ms"`
	Profile   string `json:"profile"`
	SignedIn  bool   `json:"signed_in"`
	Username  string `json:"username,omitempty"`
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, e *env, w io.Writer) int {
	sess := e.store.Get()
	report := healthReport{
		Server:   e.cfg.Server,
		APIRoot:  e.cfg.APIRoot(),
		Profile:  e.cfg.Profile,
		SignedIn: sess.Authenticated(),
		Username: sess.Username,
	}

	start := time.Now()
	if _, err := e.client.Captcha(ctx); err != nil {
		return fail(w, err)
	}
	report.Reachable = true
	report.LatencyMS = time.Since(start).Milliseconds()

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(report))
	} else {
		fmt.Fprintln(w, formatHealthHuman(report))
	}
	return exitOK
}

// formatHealthHuman formats the report for human readability
func formatHealthHuman(r healthReport) string {
	session := "not signed in"
	if r.SignedIn {
		session = "signed in as " + r.Username
	}
	return fmt.Sprintf(`Server:       %s
API root:     %s
Reachable:    %t (%dms)
Profile:      %s
Session:      %s`, r.Server, r.APIRoot, r.Reachable, r.LatencyMS, r.Profile, session)
}

// formatHealthJSON formats the report as JSON
func formatHealthJSON(r healthReport) string {
	data, _ := json.MarshalIndent(r, "", "  ")
	return string(data)
}
