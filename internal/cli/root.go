// Package cli implements the agent-modules CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rcliao/agent-modules/internal/config"
	"github.com/rcliao/agent-modules/internal/logging"
	"github.com/rcliao/agent-modules/internal/model"
	"github.com/rcliao/agent-modules/internal/modules"
	"github.com/rcliao/agent-modules/internal/store"
)

var (
	dbPath     string
	configPath string
	serviceID  string
	logLevel   string
	userFlag   string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-modules",
	Short: "Adaptive typed modules for AI assistants",
	Long: "Detects, creates, updates and ages small typed knowledge modules (lists, planners,\n" +
		"calendars, interests, trackers, goals) per user. SQLite-backed, single binary.",
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVarP(&dbPath, "db", "d", "", "Database path (default: $AGENT_MODULES_DB or ~/.agent-modules/modules.db)")
	pf.StringVar(&configPath, "config", "", "Config file (default: ./config.yaml or ~/.config/agent-modules/config.yaml)")
	pf.StringVar(&serviceID, "service", "", "Service id minted into new identifiers")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVarP(&userFlag, "user", "u", "default", "User whose modules to operate on")
	pf.StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// app bundles what a command needs.
type app struct {
	cfg    *config.Config
	svc    *modules.Service
	store  *store.SQLiteStore
	logger *slog.Logger
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if serviceID != "" {
		cfg.Service = serviceID
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		exitErr("config", err)
	}
	return cfg
}

func openApp() *app {
	cfg := loadConfig()
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		exitErr("logger", err)
	}
	svc, err := modules.New(cfg.Service,
		modules.WithLogger(logger),
		modules.WithPolicy(cfg.Policy()),
		modules.WithSummaryOptions(cfg.SummaryOptions()),
	)
	if err != nil {
		exitErr("service", err)
	}
	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitErr("open store", err)
	}
	return &app{cfg: cfg, svc: svc, store: s, logger: logger}
}

func (a *app) Close() { a.store.Close() }

func (a *app) load(cmd *cobra.Command) model.Collection {
	c, err := a.store.Load(cmd.Context(), userFlag)
	if err != nil {
		exitErr("load modules", err)
	}
	return c
}

func (a *app) save(cmd *cobra.Command, c model.Collection, events ...store.Event) {
	if err := a.store.Save(cmd.Context(), userFlag, c); err != nil {
		exitErr("save modules", err)
	}
	for i := range events {
		events[i].User = userFlag
	}
	if err := a.store.RecordEvents(cmd.Context(), events); err != nil {
		a.logger.Warn("record events", "error", err)
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Println(string(b))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseNow(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		exitErr("parse --now", err)
	}
	return t
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
