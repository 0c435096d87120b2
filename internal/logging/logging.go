// Package logging builds the slog loggers used by the romakan commands.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel parses a level name as written in the [log] config section.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// New returns a text logger writing to w at the named level, tagged with
// component when it is not empty. Unknown levels fall back to info.
func New(w io.Writer, level, component string) *slog.Logger {
	lvl, _ := ParseLevel(level)
	return newLogger(w, lvl, component)
}

// NewLeveled is New with a level that can be changed after construction.
func NewLeveled(w io.Writer, level *slog.LevelVar, component string) *slog.Logger {
	return newLogger(w, level, component)
}

// SetLevel parses name into v. v is left unchanged on error.
func SetLevel(v *slog.LevelVar, name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	v.Set(lvl)
	return nil
}

func newLogger(w io.Writer, level slog.Leveler, component string) *slog.Logger {
	var handler slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if component != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("component", component)})
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
