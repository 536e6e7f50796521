package log

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout at the start of every line.
const TimeFormat = "2006-01-02 15:04:05.000"

// Options configures New.
type Options struct {
	// Level is "info" or "debug". Debug enables V(1) lines.
	Level string

	// Console, when non-nil, receives a copy of every line.
	Console io.Writer
}

// ParseLevel maps the configured level name to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger that writes plain "<timestamp> <message> k=v" lines
// to w, and to opts.Console if set.
func New(w io.Writer, opts Options) (logr.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return logr.Discard(), err
	}

	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
	zerologr.VerbosityFieldName = ""

	var out io.Writer = lineWriter(w, true)
	if opts.Console != nil {
		out = zerolog.MultiLevelWriter(out, lineWriter(opts.Console, !IsTerminal(opts.Console)))
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return zerologr.New(&zl), nil
}

func lineWriter(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: TimeFormat,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalConsole returns os.Stderr when the process is attached to a
// terminal, and nil otherwise.
func TerminalConsole() io.Writer {
	if IsTerminal(os.Stderr) {
		return os.Stderr
	}
	return nil
}

// LogUnhandled records a fault that escaped every other handler. It is
// meant to be deferred at the top of main and of long-lived goroutines:
//
//	defer log.LogUnhandled(logger)
//
// The panic continues after logging so the process still terminates.
func LogUnhandled(logger logr.Logger) {
	if r := recover(); r != nil {
		logger.Error(fmt.Errorf("%v", r), "Unhandled exception thrown:", "stack", string(debug.Stack()))
		panic(r)
	}
}
