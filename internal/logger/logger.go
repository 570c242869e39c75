package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Log = newLogger(consoleWriter(os.Stdout), zerolog.InfoLevel)
}

// Configure replaces the global logger. format is "console" or "json".
func Configure(level, format string) {
	var out io.Writer = os.Stdout
	if format != "json" {
		out = consoleWriter(os.Stdout)
	}
	Log = newLogger(out, zerolog.InfoLevel)
	SetLevel(level)
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
}

// Discard silences the global logger. Used by tests that exercise noisy paths.
func Discard() {
	Log = zerolog.Nop()
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}
