// Package logger the console slog.Handler of the command line
package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	red    = 31
	yellow = 33
	blue   = 36
	grey   = 38
)

var bufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

func freeBuffer(buf *bytes.Buffer) {
	buf.Reset()
	bufPool.Put(buf)
}

// Options the logger options
type Options struct {
	// Level the minimum level: debug, info, warn or error
	Level string `yaml:"level"`
	// NoColor disable the colored level, the NO_COLOR environment also disables it
	NoColor bool `yaml:"no-color"`
}

// New creates a slog.Logger with a ConsoleHandler writes to w.
func New(w io.Writer, opt Options) (*slog.Logger, error) {
	var level slog.Level
	if opt.Level != "" {
		if err := level.UnmarshalText([]byte(opt.Level)); err != nil {
			return nil, err
		}
	}
	h := NewConsoleHandler(w, level)
	h.noColor = h.noColor || opt.NoColor
	return slog.New(h), nil
}

// ConsoleHandler is a Handler that writes Records to an io.Writer as
// single colored lines.
type ConsoleHandler struct {
	mu           *sync.Mutex
	level        slog.Leveler
	w            io.Writer
	attrs, group string
	noColor      bool
}

// NewConsoleHandler creates a ConsoleHandler that writes to w.
func NewConsoleHandler(w io.Writer, l slog.Leveler) *ConsoleHandler {
	return &ConsoleHandler{
		mu:      new(sync.Mutex),
		level:   l,
		w:       w,
		noColor: os.Getenv("NO_COLOR") != "",
	}
}

// Enabled reports whether the handler handles records at the given level.
// The handler ignores records whose level is lower.
func (c *ConsoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if c.level != nil {
		minLevel = c.level.Level()
	}
	return l >= minLevel
}

// WithAttrs returns a new ConsoleHandler whose attributes consists
// of h's attributes followed by attrs.
func (c *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	buf := bufPool.Get().(*bytes.Buffer)
	defer freeBuffer(buf)

	buf.WriteString(c.attrs)
	for _, attr := range attrs {
		c.writeAttr(buf, attr)
	}

	h := *c
	h.attrs = buf.String()
	return &h
}

// WithGroup returns a new Handler with the given group appended to
// the receiver's existing groups.
func (c *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	h := *c
	if h.group != "" {
		h.group += "."
	}
	h.group += name
	return &h
}

// Handle formats its argument Record as single line.
//
// If the Record's time is zero, the time is omitted.
//
// Each call to Handle results in a single serialized call to io.Writer.Write.
func (c *ConsoleHandler) Handle(_ context.Context, r slog.Record) (err error) {
	buf := bufPool.Get().(*bytes.Buffer)
	defer freeBuffer(buf)

	if !r.Time.IsZero() {
		buf.WriteByte('[')
		buf.WriteString(r.Time.Format("15:04:05.000"))
		buf.WriteString("] ")
	}

	var levelColor = grey
	switch {
	case r.Level >= slog.LevelError:
		levelColor = red
	case r.Level >= slog.LevelWarn:
		levelColor = yellow
	case r.Level < slog.LevelInfo:
		levelColor = blue
	}
	if c.noColor {
		buf.WriteString(r.Level.String())
	} else {
		_, _ = fmt.Fprintf(buf, "\x1b[%dm%s\x1b[0m", levelColor, r.Level.String())
	}
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteByte(' ')

	buf.WriteString(c.attrs)
	r.Attrs(func(a slog.Attr) bool {
		c.writeAttr(buf, a)
		return true
	})
	buf.Truncate(len(strings.TrimRight(buf.String(), " ")))
	buf.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.w.Write(buf.Bytes())
	return
}

func (c *ConsoleHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	if c.group != "" {
		buf.WriteString(c.group)
		buf.WriteByte('.')
	}
	buf.WriteString(a.Key)
	buf.WriteString(": ")
	buf.WriteString(a.Value.Resolve().String())
	buf.WriteByte(' ')
}
