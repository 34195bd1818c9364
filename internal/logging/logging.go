// Package logging builds the slog logger used across agent-modules, backed
// by a charmbracelet/log handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at level ("debug", "info", "warn",
// "error") in format ("text", "json" or "logfmt").
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	var formatter log.Formatter
	switch format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		Prefix:          "agent-modules",
		ReportTimestamp: true,
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
