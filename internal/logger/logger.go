// Package logger is the severity-filtered channel every user-facing message
// of md2html goes through.
package logger

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Verbosity selects which severities reach the output.
type Verbosity int

const (
	// VerbosityNormal shows warnings and errors.
	VerbosityNormal Verbosity = iota
	// VerbosityQuiet shows errors only.
	VerbosityQuiet
	// VerbosityVerbose adds informational messages.
	VerbosityVerbose
	// VerbosityDebug adds diagnostic detail.
	VerbosityDebug
)

var verbosityNames = map[string]Verbosity{
	"normal":  VerbosityNormal,
	"quiet":   VerbosityQuiet,
	"verbose": VerbosityVerbose,
	"debug":   VerbosityDebug,
}

// ParseVerbosity converts a config value to a Verbosity. The empty string is
// VerbosityNormal.
func ParseVerbosity(s string) (Verbosity, error) {
	if s == "" {
		return VerbosityNormal, nil
	}
	v, ok := verbosityNames[strings.ToLower(s)]
	if !ok {
		return VerbosityNormal, fmt.Errorf("unknown verbosity %q (want quiet, normal, verbose or debug)", s)
	}
	return v, nil
}

func (v Verbosity) String() string {
	for name, value := range verbosityNames {
		if value == v {
			return name
		}
	}
	return "normal"
}

// Level maps v to the minimum log level it lets through.
func (v Verbosity) Level() log.Level {
	switch v {
	case VerbosityQuiet:
		return log.ErrorLevel
	case VerbosityVerbose:
		return log.InfoLevel
	case VerbosityDebug:
		return log.DebugLevel
	default:
		return log.WarnLevel
	}
}

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a logger writing to w at the given verbosity. Timestamps and
// callers are only reported in debug mode.
func New(w io.Writer, v Verbosity) *Logger {
	l := log.NewWithOptions(w, log.Options{
		Level:           v.Level(),
		ReportTimestamp: v == VerbosityDebug,
		ReportCaller:    v == VerbosityDebug,
		TimeFormat:      time.TimeOnly,
	})
	l.SetStyles(levelStyles())
	return &Logger{Logger: l}
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard, VerbosityQuiet)
}

func levelStyles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERROR").Bold(true).Foreground(lipgloss.Color("9"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WARN").Bold(true).Foreground(lipgloss.Color("11"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	return styles
}

// Converted logs a Markdown file written as HTML
func (l *Logger) Converted(source, dest, template string) {
	l.Info("converted",
		"source", source,
		"dest", dest,
		"template", template)
}

// Copied logs an asset copied verbatim
func (l *Logger) Copied(source, dest string) {
	l.Info("copied",
		"source", source,
		"dest", dest)
}

// Skipped logs when a file is skipped
func (l *Logger) Skipped(file, reason string) {
	l.Info("skipped",
		"file", file,
		"reason", reason)
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file failed",
		"file", file,
		"error", err)
}
