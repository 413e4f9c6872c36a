// Package logging configures the zerolog root logger and adapts it to the
// small Logger interface the auth core consumes.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the root logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stdout)
	Service string    // optional service name attached to every log entry
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the root zerolog logger exactly once.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stdout
		}

		service := cfg.Service
		if service == "" {
			service = "changelog-api"
		}

		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", service).
			Logger()
	})
}

// Base returns the configured root logger.
func Base() *zerolog.Logger {
	Configure(Config{})
	return &base
}

// Named returns an Adapter for a component, satisfying auth.Logger.
func Named(component string) *Adapter {
	l := Base().With().Str("component", component).Logger()
	return &Adapter{l: l}
}

// Adapter exposes zerolog through the message-plus-keyvals interface the
// core packages accept.
type Adapter struct {
	l zerolog.Logger
}

func (a *Adapter) Debug(msg string, args ...any) { a.log(a.l.Debug(), msg, args) }
func (a *Adapter) Info(msg string, args ...any)  { a.log(a.l.Info(), msg, args) }
func (a *Adapter) Warn(msg string, args ...any)  { a.log(a.l.Warn(), msg, args) }
func (a *Adapter) Error(msg string, args ...any) { a.log(a.l.Error(), msg, args) }

// log treats args as alternating key/value pairs, matching how the core
// packages call their Logger.
func (a *Adapter) log(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}
