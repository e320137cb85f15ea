package logging

import (
	"context"
	"log/slog"
)

// fanout sends every record to a primary handler and a GELF handler.
type fanout struct {
	primary slog.Handler
	gelf    slog.Handler
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return f.primary.Enabled(ctx, level) || f.gelf.Enabled(ctx, level)
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	if f.primary.Enabled(ctx, r.Level) {
		if err := f.primary.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	if f.gelf.Enabled(ctx, r.Level) {
		// GELF delivery is best effort.
		_ = f.gelf.Handle(ctx, r.Clone())
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanout{primary: f.primary.WithAttrs(attrs), gelf: f.gelf.WithAttrs(attrs)}
}

func (f fanout) WithGroup(name string) slog.Handler {
	return fanout{primary: f.primary.WithGroup(name), gelf: f.gelf.WithGroup(name)}
}
