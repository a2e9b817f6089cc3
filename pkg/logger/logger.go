// Package logger builds the zerolog loggers used across the dashboard.
//
// main installs the process logger once with Init; packages that are not
// handed a logger ask For one tagged with their component name.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Defaults to "info" when empty or unrecognised.
	Level string
	// Pretty enables coloured console output for local development.
	Pretty bool
	// Output is the writer logs are sent to. Defaults to os.Stdout.
	Output io.Writer
	// Service and Env are attached to every line when set.
	Service string
	Env     string
}

var current atomic.Pointer[zerolog.Logger]

// New builds a logger from opts without installing it.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if opts.Env != "" {
		ctx = ctx.Str("env", opts.Env)
	}
	return ctx.Logger()
}

// Init installs the process logger and returns it. Once a logger is
// installed, later calls return it unchanged.
func Init(opts Options) zerolog.Logger {
	if l := current.Load(); l != nil {
		return *l
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := New(opts)
	if !current.CompareAndSwap(nil, &l) {
		return *current.Load()
	}
	return l
}

// Get returns the process logger. It panics before Init.
func Get() zerolog.Logger {
	l := current.Load()
	if l == nil {
		panic("logger: used before Init")
	}
	return *l
}

// For returns the process logger tagged with component.
func For(component string) zerolog.Logger {
	return Get().With().Str("component", component).Logger()
}

// ParseLevel maps a level name to a zerolog.Level. Anything unknown is info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
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
