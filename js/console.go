package js

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/grafana/sobek"
)

// EnableConsole set the global console to the sobek.Runtime.
// log and info print to the VM stdout, warn and error to the VM stderr,
// debug goes to the context logger.
func EnableConsole(rt *sobek.Runtime) {
	vm := self(rt)
	c := rt.NewObject()
	_ = c.Set("log", printer(func() io.Writer { return vm.stdout }))
	_ = c.Set("info", printer(func() io.Writer { return vm.stdout }))
	_ = c.Set("warn", printer(func() io.Writer { return vm.stderr }))
	_ = c.Set("error", printer(func() io.Writer { return vm.stderr }))
	_ = c.Set("debug", func(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
		if len(call.Arguments) > 0 {
			ctx := Context(rt)
			Logger(ctx).DebugContext(ctx, Format(rt, call.Arguments...))
		}
		return sobek.Undefined()
	})
	_ = rt.Set("console", c)
}

// printer writes the formatted arguments as one line.
func printer(out func() io.Writer) func(sobek.FunctionCall, *sobek.Runtime) sobek.Value {
	return func(call sobek.FunctionCall, rt *sobek.Runtime) sobek.Value {
		line := Format(rt, call.Arguments...) + "\n"
		if _, err := io.WriteString(out(), line); err != nil {
			Throw(rt, err)
		}
		return sobek.Undefined()
	}
}

// Format joins the string conversions of the values with spaces,
// a throwing toString propagates. When the first value is a string
// it is a format with the verbs %s (string), %d (number), %j (JSON)
// and %% (literal percent), the values left are appended.
func Format(rt *sobek.Runtime, values ...sobek.Value) string {
	if len(values) == 0 {
		return ""
	}

	var sb strings.Builder
	rest := values[1:]
	if _, ok := values[0].Export().(string); ok && len(rest) > 0 {
		rest = sprintf(rt, &sb, values[0].String(), rest)
	} else {
		sb.WriteString(values[0].String())
	}
	for _, v := range rest {
		sb.WriteByte(' ')
		sb.WriteString(v.String())
	}
	return sb.String()
}

// sprintf writes the format, it returns the values which are not consumed.
func sprintf(rt *sobek.Runtime, sb *strings.Builder, format string, values []sobek.Value) []sobek.Value {
	for {
		i := strings.IndexByte(format, '%')
		if i < 0 || i == len(format)-1 {
			sb.WriteString(format)
			return values
		}
		sb.WriteString(format[:i])
		verb := format[i+1]
		format = format[i+2:]

		if verb == '%' {
			sb.WriteByte('%')
			continue
		}
		if len(values) == 0 || !strings.ContainsRune("sdj", rune(verb)) {
			sb.WriteByte('%')
			sb.WriteByte(verb)
			continue
		}

		v := values[0]
		values = values[1:]
		switch verb {
		case 's':
			sb.WriteString(v.String())
		case 'd':
			sb.WriteString(v.ToNumber().String())
		case 'j':
			sb.WriteString(stringify(rt, v))
		}
	}
}

// stringify calls JSON.stringify, an exception is rethrown.
func stringify(rt *sobek.Runtime, v sobek.Value) string {
	j := rt.Get("JSON").ToObject(rt)
	fn, ok := sobek.AssertFunction(j.Get("stringify"))
	if !ok {
		return v.String()
	}
	ret, err := fn(j, v)
	if err != nil {
		Throw(rt, err)
	}
	return ret.String()
}

type loggerKey struct{}

// Logger get slog.Logger from the context
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger set the slog.Logger to context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}
