package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/akbarsahata/LYWSD03MMC/internal/config"
)

// New logs to stderr so that stdout carries only readings.
func New(cfg config.Config, version string, appName string) *slog.Logger {
	return newWithWriter(os.Stderr, cfg, version, appName)
}

func newWithWriter(w io.Writer, cfg config.Config, version string, appName string) *slog.Logger {
	if useText(cfg.LogFormat, version) {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"backend", cfg.BLEBackend,
		"adapter", cfg.BLEAdapter,
	)
}

// useText picks tint for dev builds unless LOG_FORMAT forces a format.
func useText(format, version string) bool {
	switch format {
	case "text":
		return true
	case "json":
		return false
	default:
		return version == "dev"
	}
}

// isTerminal reports whether w is a terminal; colour codes would corrupt journald and pipes.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
