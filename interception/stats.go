package interception

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is an interceptor collecting command statistics.
type Stats struct {
	queries   atomic.Int64
	execs     atomic.Int64
	duration  atomic.Int64 // nanoseconds
	slow      atomic.Int64
	faulted   atomic.Int64
	canceled  atomic.Int64
	mu        sync.RWMutex
	threshold time.Duration
	hook      SlowCommandHook
}

// SlowCommandHook is called for every command slower than the threshold.
type SlowCommandHook func(ctx context.Context, cmd *Command)

// StatsOption configures Stats.
type StatsOption func(*Stats)

// WithSlowThreshold sets the slow command threshold. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *Stats) {
		s.threshold = d
	}
}

// WithSlowCommandHook sets the hook called for slow commands.
func WithSlowCommandHook(hook SlowCommandHook) StatsOption {
	return func(s *Stats) {
		s.hook = hook
	}
}

// WithSlowCommandLog logs slow commands to l.
func WithSlowCommandLog(l *slog.Logger) StatsOption {
	return WithSlowCommandHook(func(ctx context.Context, cmd *Command) {
		l.WarnContext(ctx, "slow command detected",
			"id", cmd.ID, "kind", cmd.Kind, "duration", cmd.Duration, "command", cmd.Text)
	})
}

// NewStats returns a statistics interceptor.
func NewStats(opts ...StatsOption) *Stats {
	s := &Stats{threshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SlowThreshold returns the slow command threshold.
func (s *Stats) SlowThreshold() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

// SetSlowThreshold updates the slow command threshold.
func (s *Stats) SetSlowThreshold(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = d
}

// Executing implements Interceptor.
func (s *Stats) Executing(context.Context, *Command) {}

// Executed implements Interceptor.
func (s *Stats) Executed(ctx context.Context, cmd *Command) {
	if cmd.Kind == Query {
		s.queries.Add(1)
	} else {
		s.execs.Add(1)
	}
	s.duration.Add(int64(cmd.Duration))
	switch cmd.Outcome {
	case Faulted:
		s.faulted.Add(1)
	case Canceled:
		s.canceled.Add(1)
	}
	s.mu.RLock()
	threshold, hook := s.threshold, s.hook
	s.mu.RUnlock()
	if cmd.Duration > threshold {
		s.slow.Add(1)
		if hook != nil {
			hook(ctx, cmd)
		}
	}
}

// Snapshot returns the current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.queries.Load(),
		Execs:    s.execs.Load(),
		Duration: time.Duration(s.duration.Load()),
		Slow:     s.slow.Load(),
		Faulted:  s.faulted.Load(),
		Canceled: s.canceled.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *Stats) Reset() {
	s.queries.Store(0)
	s.execs.Store(0)
	s.duration.Store(0)
	s.slow.Store(0)
	s.faulted.Store(0)
	s.canceled.Store(0)
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Queries  int64
	Execs    int64
	Duration time.Duration
	Slow     int64
	Faulted  int64
	Canceled int64
}

// Avg returns the average command duration.
func (s StatsSnapshot) Avg() time.Duration {
	total := s.Queries + s.Execs
	if total == 0 {
		return 0
	}
	return s.Duration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d faulted=%d canceled=%d",
		s.Queries, s.Execs, s.Duration, s.Avg(), s.Slow, s.Faulted, s.Canceled,
	)
}

// Logger is an interceptor logging every command. Succeeded commands are
// logged at debug level, failed ones at error level.
type Logger struct {
	log *slog.Logger
}

// NewLogger returns a logging interceptor. A nil l logs to slog.Default.
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{log: l}
}

// Executing implements Interceptor.
func (l *Logger) Executing(ctx context.Context, cmd *Command) {
	l.log.DebugContext(ctx, "executing command", "id", cmd.ID, "kind", cmd.Kind, "command", cmd.Text, "args", cmd.Args)
}

// Executed implements Interceptor.
func (l *Logger) Executed(ctx context.Context, cmd *Command) {
	attrs := []any{"id", cmd.ID, "kind", cmd.Kind, "outcome", cmd.Outcome, "duration", cmd.Duration}
	if cmd.Err != nil {
		l.log.ErrorContext(ctx, "command failed", append(attrs, "command", cmd.Text, "error", cmd.Err)...)
		return
	}
	l.log.DebugContext(ctx, "command executed", attrs...)
}

var (
	_ Interceptor = (*Stats)(nil)
	_ Interceptor = (*Logger)(nil)
	_ Interceptor = Funcs{}
)
