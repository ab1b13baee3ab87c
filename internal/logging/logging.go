// Package logging builds the charm logger shared by every front end.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// terminalWriter wraps an io.Writer and exposes an Fd method so the logger
// can still detect a TTY when output is tee'd to a file.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// Options controls New.
type Options struct {
	Prefix  string
	Level   string
	File    string
	Verbose bool
	// Out defaults to os.Stderr.
	Out io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to opts.Out (and opts.File when set) and a
// closer for the log file. An unknown level falls back to info with a
// warning; a log file that cannot be opened is reported and skipped.
func New(opts Options) (*log.Logger, io.Closer) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var (
		closer  io.Closer = nopCloser{}
		fileErr error
	)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fileErr = err
		} else {
			// keep the console output so interactive runs still show logs
			tee := io.MultiWriter(out, f)
			if console, ok := out.(*os.File); ok {
				out = &terminalWriter{w: tee, fd: console.Fd()}
			} else {
				out = tee
			}
			closer = f
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
	})

	level, known := ParseLevel(opts.Level)
	if opts.Verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	if !known {
		logger.Warn("unknown log_level, defaulting to info", "provided", opts.Level)
	}
	if fileErr != nil {
		logger.Warn("log_file specified but could not be opened; logging to stderr only", "path", opts.File, "err", fileErr)
	}
	return logger, closer
}

// ParseLevel maps a config level name to a log level. Empty means info.
func ParseLevel(s string) (log.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, true
	case "info", "":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	default:
		return log.InfoLevel, false
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
