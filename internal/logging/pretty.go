// Package logging provides graflo's slog handler: colorized level tags,
// millisecond timestamps, and JSON-rendered attribute groups.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"

	"github.com/fatih/color"
)

// PrettyHandlerOptions wraps the standard slog.HandlerOptions; kept as its
// own type so callers configuring a PrettyHandler never need to import
// slog directly for anything but the Level/AddSource/ReplaceAttr fields.
type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
}

// PrettyHandler renders log records as "[HH:MM:SS.mmm] LEVEL: message {attrs}"
// with the level tag colorized by severity. It embeds a slog.Handler to
// inherit group/attribute-with-context bookkeeping and keeps its own
// *log.Logger for writing the rendered line.
type PrettyHandler struct {
	slog.Handler
	l *log.Logger
}

var (
	debugColor = color.New(color.FgMagenta).SprintFunc()
	infoColor  = color.New(color.FgCyan).SprintFunc()
	warnColor  = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
)

func levelTag(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return debugColor("DEBUG:")
	case level < slog.LevelWarn:
		return infoColor("INFO:")
	case level < slog.LevelError:
		return warnColor("WARN:")
	default:
		return errorColor("ERROR:")
	}
}

// Handle renders a single record to the handler's writer.
func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	timestamp := r.Time.Format("15:04:05.000")
	h.l.Printf("[%s] %s %s %s", timestamp, levelTag(r.Level), r.Message, string(b))
	return nil
}

// NewPrettyHandler builds a PrettyHandler writing to w, delegating
// level/attribute filtering to a slog.TextHandler configured from opts.
func NewPrettyHandler(w io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	h := &PrettyHandler{
		Handler: slog.NewTextHandler(w, &opts.SlogOpts),
		l:       log.New(w, "", 0),
	}
	return h
}

// New builds a process-wide *slog.Logger using PrettyHandler, the logger
// Caster and DBWriter are handed through their Log fields. The reference
// Postgres sink takes no logger.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewPrettyHandler(w, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	}))
}
