// Package console writes blog log entries as single logfmt-style lines.
package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Level is the severity attached to an entry.
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

// ParseLevel maps a configuration value onto a Level. Unknown values fall
// back to LevelInfo and report false.
func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	}
	return LevelInfo, false
}

// Options configures the provider. Zero values write to stderr at DEBUG.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
}

type provider struct {
	mu       sync.Mutex
	out      io.Writer
	now      func() time.Time
	minLevel Level
}

// NewProvider returns a LoggerProvider whose loggers share one writer.
func NewProvider(opts Options) interfaces.LoggerProvider {
	p := &provider{
		out:      opts.Writer,
		now:      opts.TimeFunc,
		minLevel: LevelDebug,
	}
	if p.out == nil {
		p.out = os.Stderr
	}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.MinLevel != nil {
		p.minLevel = *opts.MinLevel
	}
	return p
}

func (p *provider) GetLogger(name string) interfaces.Logger {
	return &logger{p: p, fields: map[string]any{"logger": name}}
}

func (p *provider) write(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// best effort
	_, _ = io.WriteString(p.out, line)
}

type logger struct {
	p      *provider
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*logger)(nil)
	_ interfaces.FieldsLogger = (*logger)(nil)
)

func (l *logger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *logger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *logger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return &logger{p: l.p, fields: merged, ctx: l.ctx}
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	return &logger{p: l.p, fields: maps.Clone(l.fields), ctx: ctx}
}

func (l *logger) log(level Level, msg string, args []any) {
	if l.p == nil || level < l.p.minLevel {
		return
	}

	fields := make(map[string]any, len(l.fields)+len(args)/2)
	maps.Copy(fields, l.fields)
	maps.Copy(fields, logging.ContextFields(l.ctx))
	pairsInto(fields, args)

	l.p.write(format(l.p.now().UTC(), level, msg, fields))
}

// pairsInto folds key/value args into fields. Values without a usable string
// key are stored under positional field_N keys.
func pairsInto(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields[positional(i/2)] = args[i]
			return
		}
		if key, ok := args[i].(string); ok && key != "" {
			fields[key] = args[i+1]
			continue
		}
		fields[positional(i/2)] = args[i+1]
	}
}

func positional(n int) string {
	return "field_" + strconv.Itoa(n)
}

func format(ts time.Time, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(render(fields[key]))
	}
	b.WriteByte('\n')
	return b.String()
}

func render(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case time.Time:
		return quote(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return v.String()
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return quote(fmt.Sprint(v))
	}
}

func quote(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsFunc(value, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(value)
	}
	return value
}
