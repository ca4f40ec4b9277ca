package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
)

// zeroLogger implements Logger with a human friendly zerolog console writer.
// It is meant for the interactive loop where slog's key=value output is noisy.
type zeroLogger struct {
	log zerolog.Logger
}

func newZerolog(out io.Writer) Logger {
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	return &zeroLogger{log: zerolog.New(w).With().Timestamp().Logger()}
}

func (l *zeroLogger) Named(name string) Logger {
	return &zeroLogger{log: l.log.With().Str("component", name).Logger()}
}

func (l *zeroLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, slog.LevelInfo, l.log.Info(), msg, fields)
}

func (l *zeroLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, slog.LevelError, l.log.Error(), msg, fields)
}

func (l *zeroLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, slog.LevelDebug, l.log.Debug(), msg, fields)
}

func (l *zeroLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, slog.LevelWarn, l.log.Warn(), msg, fields)
}

func (l *zeroLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, slog.LevelError, l.log.Error(), msg, fields)
	os.Exit(1)
}

// emit filters on the shared slog level so SetLevelString governs both backends.
func (l *zeroLogger) emit(_ context.Context, level slog.Level, ev *zerolog.Event, msg string, fields []Field) {
	if level < levelVar.Level() {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case error:
			ev = ev.AnErr(f.Key, v)
		case string:
			ev = ev.Str(f.Key, v)
		case int:
			ev = ev.Int(f.Key, v)
		case float64:
			ev = ev.Float64(f.Key, v)
		case bool:
			ev = ev.Bool(f.Key, v)
		default:
			ev = ev.Interface(f.Key, v)
		}
	}
	ev.Str("source", getCaller()).Msg(msg)
}
