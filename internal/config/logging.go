package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// logLevel is shared by every handler SetupLogging installs so the level can
// change at runtime.
var logLevel = new(slog.LevelVar)

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	SetupLoggingTo(os.Stdout, cfg)
}

// SetupLoggingTo is SetupLogging writing to w. Commands that own stdout
// (mcp over stdio, ask) log to stderr instead.
func SetupLoggingTo(w io.Writer, cfg LoggingConfig) {
	logLevel.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WatchLogging re-reads the config file whenever it changes on disk and
// applies the new logging level. Other settings need a restart.
// It does nothing when no config file is in use.
func WatchLogging(configFile string) {
	v := newViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := parseLevel(v.GetString("logging.level"))
		if level == logLevel.Level() {
			return
		}
		logLevel.Set(level)
		slog.Info("log level changed", "level", level.String(), "file", e.Name)
	})
	v.WatchConfig()
	slog.Debug("watching config file", "path", v.ConfigFileUsed())
}
