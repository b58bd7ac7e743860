// Command cendekia runs the university analytics assistant: an HTTP
// server, one-shot questions, knowledge training, and feedback management.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "cendekia",
		Short:         "Natural-language analytics for a university data warehouse",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-format", "", `log output format: "json" or "text" (default from CENDEKIA_LOG_FORMAT)`)
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default from CENDEKIA_LOG_LEVEL)")

	root.AddCommand(serveCmd(), askCmd(), trainCmd(), feedbackCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger: JSON in production, tinted text for
// interactive use. Flags override the environment.
func newLogger(cmd *cobra.Command) *slog.Logger {
	format, _ := cmd.Flags().GetString("log-format")
	if format == "" {
		format = os.Getenv("CENDEKIA_LOG_FORMAT")
	}
	levelStr, _ := cmd.Flags().GetString("log-level")
	if levelStr == "" {
		levelStr = os.Getenv("CENDEKIA_LOG_LEVEL")
	}

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if format == "text" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
