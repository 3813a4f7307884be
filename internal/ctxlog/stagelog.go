package ctxlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// StageLog is the logger a stage owns or inherits. The destination stream is
// shared when a log is derived from an upstream stage; the level is always
// private so every stage honors its own verbosity.
type StageLog struct {
	leader string
	w      io.Writer
	level  *slog.LevelVar
	logger *slog.Logger
	closer io.Closer
}

// NewStageLog creates a logger named after a stage, writing to the named
// destination. Recognized destinations are "stdlog" and "stderr" (standard
// error), "stdout" (standard output), and "devnull"; anything else is
// treated as a file path opened for append.
func NewStageLog(leader, destination string) (*StageLog, error) {
	var (
		w      io.Writer
		closer io.Closer
	)
	switch destination {
	case "stdlog", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	case "devnull":
		w = io.Discard
	default:
		f, err := os.OpenFile(destination, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log destination %q: %w", destination, err)
		}
		w = f
		closer = f
	}
	l := newStageLog(leader, w)
	l.closer = closer
	return l, nil
}

// Derive creates a logger for a downstream stage that shares the parent's
// destination stream. The new logger carries its own level.
func Derive(leader string, parent *StageLog) *StageLog {
	return newStageLog(leader, parent.w)
}

func newStageLog(leader string, w io.Writer) *StageLog {
	level := new(slog.LevelVar)
	level.Set(slog.LevelError)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &StageLog{
		leader: leader,
		w:      w,
		level:  level,
		logger: slog.New(handler).With("stage", leader),
	}
}

// SetVerbose maps a stage verbosity value onto the slog level: 0 logs only
// errors, 1 adds warnings, 2 adds info, 3 and above enables debug output.
func (l *StageLog) SetVerbose(verbose uint) {
	switch verbose {
	case 0:
		l.level.Set(slog.LevelError)
	case 1:
		l.level.Set(slog.LevelWarn)
	case 2:
		l.level.Set(slog.LevelInfo)
	default:
		l.level.Set(slog.LevelDebug)
	}
}

// SetLeader replaces the leader prefix, returning a logger view with the new
// stage attribute while keeping the destination and level.
func (l *StageLog) SetLeader(leader string) {
	l.leader = leader
	handler := slog.NewTextHandler(l.w, &slog.HandlerOptions{Level: l.level})
	l.logger = slog.New(handler).With("stage", leader)
}

// Leader returns the current leader prefix.
func (l *StageLog) Leader() string { return l.leader }

// Logger returns the underlying slog.Logger.
func (l *StageLog) Logger() *slog.Logger { return l.logger }

// Writer exposes the destination stream so downstream stages can attach to it.
func (l *StageLog) Writer() io.Writer { return l.w }

// Close releases the destination when the log owns a file handle. Further
// calls are no-ops.
func (l *StageLog) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
