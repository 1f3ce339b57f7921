package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// Init initializes the global logger with the appropriate level.
// If verbose is true or LOG_LEVEL env var is "debug", debug logging is enabled.
func Init(verbose bool) {
	level := zerolog.InfoLevel
	if verbose || strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	log = zerolog.New(writer).With().Timestamp().Logger().Level(level)
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	withFields(log.Debug(), args).Msg(msg)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	withFields(log.Info(), args).Msg(msg)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	withFields(log.Warn(), args).Msg(msg)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	withFields(log.Error(), args).Msg(msg)
}

// withFields attaches alternating key-value pairs to an event. Keys that are
// not strings are skipped rather than panicking mid-log.
func withFields(event *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, args[i+1])
	}
	return event
}
