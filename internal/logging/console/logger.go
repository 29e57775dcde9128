package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Level is the severity attached to a console entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a configured level name onto a Level. Names match
// case-insensitively, an empty name keeps the debug default, and unknown
// names error so configuration validation can reject them.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, nil
	case "debug", "":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("console: unknown log level %q", name)
}

// Options configures NewProvider. Zero values fall back to stdout, the wall
// clock, and debug-and-up.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
}

// NewProvider builds the line-oriented provider the CLI logs through. Each
// entry renders as an RFC 3339 timestamp, the severity, the message, and
// sorted key=value fields.
func NewProvider(opts Options) interfaces.LoggerProvider {
	p := &provider{
		out: opts.Writer,
		now: opts.TimeFunc,
		min: LevelDebug,
	}
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.MinLevel != nil {
		p.min = *opts.MinLevel
	}
	return p
}

type provider struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
	min Level
}

func (p *provider) GetLogger(name string) interfaces.Logger {
	return &entryLogger{p: p, fields: map[string]any{"logger": name}}
}

func (p *provider) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, line+"\n")
}

type entryLogger struct {
	p      *provider
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*entryLogger)(nil)
	_ interfaces.FieldsLogger = (*entryLogger)(nil)
)

func (l *entryLogger) Trace(msg string, args ...any) { l.emit(LevelTrace, msg, args) }
func (l *entryLogger) Debug(msg string, args ...any) { l.emit(LevelDebug, msg, args) }
func (l *entryLogger) Info(msg string, args ...any)  { l.emit(LevelInfo, msg, args) }
func (l *entryLogger) Warn(msg string, args ...any)  { l.emit(LevelWarn, msg, args) }
func (l *entryLogger) Error(msg string, args ...any) { l.emit(LevelError, msg, args) }
func (l *entryLogger) Fatal(msg string, args ...any) { l.emit(LevelFatal, msg, args) }

func (l *entryLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	mergeInto(merged, l.fields)
	mergeInto(merged, fields)
	return &entryLogger{p: l.p, fields: merged, ctx: l.ctx}
}

func (l *entryLogger) WithContext(ctx context.Context) interfaces.Logger {
	clone := make(map[string]any, len(l.fields))
	mergeInto(clone, l.fields)
	return &entryLogger{p: l.p, fields: clone, ctx: ctx}
}

// emit folds bound fields, context fields, and call arguments together, in
// that order, so the most local value wins a key collision.
func (l *entryLogger) emit(level Level, msg string, args []any) {
	if level < l.p.min {
		return
	}

	fields := make(map[string]any, len(l.fields)+len(args)/2)
	mergeInto(fields, l.fields)
	mergeInto(fields, logging.ContextFields(l.ctx))
	collectPairs(fields, args)

	l.p.write(render(l.p.now().UTC(), level, msg, fields))
}

// collectPairs folds variadic key/value arguments into fields. A dangling
// value or non-string key keeps its data under a positional name instead
// of being dropped.
func collectPairs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields[positional(i)] = args[i]
			return
		}
		if key, ok := args[i].(string); ok && key != "" {
			fields[key] = args[i+1]
			continue
		}
		fields[positional(i)] = args[i+1]
	}
}

func positional(i int) string { return "field_" + strconv.Itoa(i) }

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

func render(ts time.Time, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.Grow(64 + len(msg) + len(fields)*16)
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)

	if len(fields) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fieldValue(fields[k]))
	}
	return b.String()
}

func fieldValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return quote(v.UTC().Format(time.RFC3339Nano))
	case *time.Time:
		if v == nil {
			return "null"
		}
		return quote(v.UTC().Format(time.RFC3339Nano))
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	default:
		return quote(fmt.Sprint(v))
	}
}

// quote wraps values containing whitespace, control characters, or '=' so
// a rendered line still splits cleanly on spaces.
func quote(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= 0x20 || r == '=' {
			return strconv.Quote(s)
		}
	}
	return s
}
