// ABOUTME: Root command for the quebec console
// ABOUTME: Handles global flags, configuration and launches the TUI

package cmd

import (
	"os"
	"path/filepath"

	"github.com/lyonmu/quebec/console/internal/config"
	"github.com/spf13/cobra"
)

var (
	serverURL      string
	profile        string
	configPath     string
	sessionBackend string
	jsonOutput     bool
)

// Exit codes shared by every subcommand
const (
	exitOK       = 0
	exitBusiness = 1
	exitError    = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "quebec",
	Short: "Administrative console for the Quebec gateway control plane",
	Long: `quebec is a terminal console for the Quebec gateway control plane.

Run without arguments to open the interactive console. Subcommands cover
scripted sign-in and read access to users, roles, sessions and audit logs.

Environment Variables:
  QUEBEC_SERVER           Control plane URL (default: http://localhost:8080)
  QUEBEC_PROFILE          Session profile name (default: default)
  QUEBEC_SESSION_BACKEND  file, memory or redis (default: file)
  QUEBEC_CONFIG_DIR       Directory for config.yaml, sessions and logs`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Control plane URL (overrides QUEBEC_SERVER)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Session profile (overrides QUEBEC_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&sessionBackend, "session-backend", "", "Session storage: file, memory or redis")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// ConfigDir returns the directory holding config.yaml, sessions and the log file
func ConfigDir() string {
	if dir := os.Getenv("QUEBEC_CONFIG_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "quebec")
	}
	return ".quebec"
}

// LoadConfig resolves configuration from defaults, file, env and flags, in
// increasing priority
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(ConfigDir(), configPath)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Server = serverURL
	}
	if profile != "" {
		cfg.Profile = profile
	}
	if sessionBackend != "" {
		cfg.Session.Backend = sessionBackend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
