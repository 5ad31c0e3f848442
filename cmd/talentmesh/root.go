package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/amishk599/talentmesh/internal/config"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/notifier"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "talentmesh",
	Short: "Keyword-profile matching for candidates, jobs and people",
	Long: "TalentMesh builds weighted keyword profiles from resumes, LinkedIn exports and job descriptions,\n" +
		"and ranks candidates and users by compatibility.",
	// Running the binary with no subcommand starts the daemon.
	RunE: runStart,
	// Errors from RunE are runtime failures; cobra still prints them.
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: TALENTMESH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: --config > TALENTMESH_CONFIG > "./config.yaml". A missing default
// file falls back to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	resolved, explicit := config.ResolvePath(path)
	if !explicit {
		if _, err := os.Stat(resolved); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(resolved)
}

func setupLogger(cfg config.LogConfig, dbg bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dbg {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// mustSetup loads config and builds the logger, exiting on a bad config.
func mustSetup() (*config.Config, *slog.Logger) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		bootstrap := setupLogger(config.LogConfig{}, debug)
		bootstrap.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg, setupLogger(cfg.Log, debug)
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, cfg.Notification.TopN, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// requireTTY rejects a full-screen mode when stdout is not a terminal.
func requireTTY(flag string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("--%s needs a terminal on stdout", flag)
	}
	return nil
}

// splitList parses a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func optionalScore(cmd *cobra.Command, name string) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil, err
	}
	if v < 0 || v > 100 {
		return nil, fmt.Errorf("--%s must be between 0 and 100", name)
	}
	return &v, nil
}
