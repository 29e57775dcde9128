// Package gologger adapts goliatone/go-logger as the engine's structured
// logging backend. Sites opt in through the logging provider key; the
// console provider stays the default.
package gologger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Config mirrors the logging section of the runtime configuration.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Provider hands out go-logger child loggers behind the engine's logging
// contract.
type Provider struct {
	root *glog.BaseLogger
}

// NewProvider builds the go-logger root from cfg. Unknown formats error
// out; unknown levels fall back to the library default.
func NewProvider(cfg Config) (*Provider, error) {
	opts := []glog.Option{}

	if lvl, ok := levelFor(cfg.Level); ok {
		opts = append(opts, glog.WithLevel(lvl))
	}

	format, err := formatOption(cfg.Format)
	if err != nil {
		return nil, err
	}
	opts = append(opts, format)

	if cfg.AddSource {
		opts = append(opts, glog.WithAddSource(true))
	}

	root := glog.NewLogger(opts...)
	if focus := trimmedNames(cfg.Focus); len(focus) > 0 {
		root.Focus(focus...)
	}

	return &Provider{root: root}, nil
}

// GetLogger returns a named child logger. A nil provider yields a no-op
// logger and a blank name yields the root.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil {
		return logging.NoOp()
	}
	if name = strings.TrimSpace(name); name == "" {
		return bridge(p.root)
	}
	return bridge(p.root.GetLogger(name))
}

func bridge(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &bridged{inner: inner}
}

type bridged struct {
	inner glog.Logger
}

func (b *bridged) Trace(msg string, args ...any) { b.inner.Trace(msg, args...) }
func (b *bridged) Debug(msg string, args ...any) { b.inner.Debug(msg, args...) }
func (b *bridged) Info(msg string, args ...any)  { b.inner.Info(msg, args...) }
func (b *bridged) Warn(msg string, args ...any)  { b.inner.Warn(msg, args...) }
func (b *bridged) Error(msg string, args ...any) { b.inner.Error(msg, args...) }
func (b *bridged) Fatal(msg string, args ...any) { b.inner.Fatal(msg, args...) }

func (b *bridged) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return b
	}

	if fl, ok := b.inner.(glog.FieldsLogger); ok {
		clone := make(map[string]any, len(fields))
		for k, v := range fields {
			clone[k] = v
		}
		return bridge(fl.WithFields(clone))
	}

	// Loggers without native field support still get deterministic output
	// through sorted With pairs.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	if w, ok := b.inner.(interface{ With(...any) *glog.BaseLogger }); ok {
		return bridge(w.With(args...))
	}
	return b
}

func (b *bridged) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return b
	}
	return bridge(b.inner.WithContext(ctx))
}

func formatOption(format string) (glog.Option, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return glog.WithLoggerTypeJSON(), nil
	case "console":
		return glog.WithLoggerTypeConsole(), nil
	case "pretty":
		return glog.WithLoggerTypePretty(), nil
	}
	return nil, fmt.Errorf("logging: unsupported go-logger format %q", format)
}

func levelFor(level string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace, true
	case "debug":
		return glog.Debug, true
	case "info":
		return glog.Info, true
	case "warn", "warning":
		return glog.Warn, true
	case "error":
		return glog.Error, true
	case "fatal":
		return glog.Fatal, true
	}
	return "", false
}

func trimmedNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if n := strings.TrimSpace(name); n != "" {
			out = append(out, n)
		}
	}
	return out
}
