package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// terminalHandler formats records as coloured single-line output for
// interactive use:
//
//	15:04:05.000 INF retrieve completed request_id=... duration_ms=12
type terminalHandler struct {
	writer io.Writer
	level  slog.Level
	attrs  []slog.Attr
	mu     *sync.Mutex
}

func newTerminalHandler(w io.Writer, level slog.Level) *terminalHandler {
	return &terminalHandler{
		writer: w,
		level:  level,
		mu:     &sync.Mutex{},
	}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ansiDim + ts.Format("15:04:05.000") + ansiReset + " ")

	color, label := levelStyle(r.Level)
	buf.WriteString(color + label + ansiReset + " ")
	buf.WriteString(ansiBold + r.Message + ansiReset)

	for _, a := range h.attrs {
		writeAttr(&buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &terminalHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  merged,
		mu:     h.mu,
	}
}

// WithGroup flattens groups; grag never nests attribute groups.
func (h *terminalHandler) WithGroup(string) slog.Handler { return h }

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level < slog.LevelInfo:
		return ansiCyan, "DBG"
	case level < slog.LevelWarn:
		return ansiGreen, "INF"
	case level < slog.LevelError:
		return ansiYellow, "WRN"
	default:
		return ansiRed, "ERR"
	}
}

func writeAttr(buf *bytes.Buffer, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	buf.WriteString(" " + ansiDim + a.Key + "=" + ansiReset)

	if a.Value.Kind() == slog.KindString {
		s := a.Value.String()
		if strings.ContainsAny(s, " \t\n\"\\") {
			buf.WriteString(fmt.Sprintf("%q", s))
			return
		}
		buf.WriteString(s)
		return
	}
	buf.WriteString(a.Value.String())
}
