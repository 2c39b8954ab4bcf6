// Package log wires a single zerolog logger for the indexing engine,
// with a small set of named component loggers so every line carries a
// "component" field without each call site having to add one.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide base logger. Init replaces it; component
// loggers derive from whatever it currently is.
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// Init configures the global logger. level is one of debug/info/warn/
// error. When json is true, output is line-delimited JSON (production
// mode); otherwise a human-readable console writer is used. When file
// is non-empty, output additionally goes to that path.
func Init(level string, json bool, file string) error {
	var out io.Writer = os.Stderr
	if !json {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		out = io.MultiWriter(out, f)
	}
	Logger = zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(level))
	return nil
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a child logger tagged with the given component
// name, e.g. log.WithComponent("reorg").
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Named component loggers, re-derived lazily so they always reflect the
// current global Logger (Init may run after package init).
func Indexer() zerolog.Logger      { return WithComponent("indexer") }
func Reorg() zerolog.Logger        { return WithComponent("reorg") }
func FastStore() zerolog.Logger    { return WithComponent("faststore") }
func RelStore() zerolog.Logger     { return WithComponent("relstore") }
func RPC() zerolog.Logger          { return WithComponent("rpc") }
func Commit() zerolog.Logger       { return WithComponent("commit") }
