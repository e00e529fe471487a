// Package logging configures process-wide slog output and the per-call log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sys/unix"
)

// DebugPrefix is prepended to every message in verbose mode.
const DebugPrefix = "TST: "

// ANSI sequences around the "error:" prefix of fatal messages.
const (
	errColorOn  = "\x1b[31m\x1b[1m" // red, bold
	errColorOff = "\x1b[22m\x1b[0m" // bold off, color reset
)

// Options selects the slog handler built by NewHandler.
type Options struct {
	// Verbose routes debug output to Stdout with DebugPrefix on each message.
	Verbose bool
	// Level applies when Verbose is false.
	Level slog.Level
	// Format is "text" (tint, colored on terminals) or "json".
	Format string

	Stdout io.Writer
	Stderr io.Writer
}

// NewHandler builds a handler for opts. Nil writers default to os.Stdout and
// os.Stderr.
func NewHandler(opts Options) slog.Handler {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	w, level := stderr, opts.Level
	if opts.Verbose {
		w, level = stdout, slog.LevelDebug
	}

	if opts.Format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	// When running under systemd, the journal adds its own timestamps and
	// does not render colors.
	underSystemd := os.Getenv("INVOCATION_ID") != ""
	verbose := opts.Verbose
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    underSystemd || !IsTerminal(w),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{}
			case slog.MessageKey:
				if verbose {
					return slog.String(slog.MessageKey, DebugPrefix+a.Value.String())
				}
			}
			return a
		},
	})
}

// Setup installs a handler built from opts as the slog default.
func Setup(opts Options) {
	slog.SetDefault(slog.New(NewHandler(opts)))
}

// ParseLevel maps a config string to a slog level. Unknown strings yield Info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsTerminal reports whether w is a file descriptor attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	_, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	return err == nil
}

// PrintErr writes "error: <message>" to w. The prefix is red and bold when
// color is true.
func PrintErr(w io.Writer, color bool, format string, args ...any) {
	prefix, suffix := "", ""
	if color {
		prefix, suffix = errColorOn, errColorOff
	}
	fmt.Fprintf(w, "%serror: %s%s\n", prefix, suffix, fmt.Sprintf(format, args...))
}

// Errorf prints a fatal message to stderr, coloring the prefix when stdout is
// a terminal.
func Errorf(format string, args ...any) {
	PrintErr(os.Stderr, IsTerminal(os.Stdout), format, args...)
}
