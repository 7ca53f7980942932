// Package logging supplies the default components.Logger implementation,
// built on log/slog the way the teacher's extensions/graph_debug.go builds
// a *slog.Logger from a caller-supplied slog.Handler.
package logging

import (
	"fmt"
	"log/slog"
	"os"

	components "github.com/cafgo/components"
)

// SlogLogger adapts a *slog.Logger to the components.Logger contract.
type SlogLogger struct {
	logger *slog.Logger
}

// New wraps handler in a SlogLogger. A nil handler falls back to a text
// handler over os.Stderr, matching the teacher's NewHumanHandler default.
func New(handler slog.Handler) *SlogLogger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	return &SlogLogger{logger: slog.New(handler)}
}

var _ components.Logger = (*SlogLogger)(nil)

func (l *SlogLogger) Debug(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Info(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Warn(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *SlogLogger) Error(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

// Fatal logs at slog.LevelError+4, one level step (slog spaces its
// built-in levels 4 apart) above slog's highest built-in level, mirroring the
// teacher's LogLevelError-as-ceiling scheme but distinguishing the
// supervisor's terminal "die" log line (§4.7, §7 "surfaced ... on the
// standard log at fatal level before any exit") from an ordinary Error.
func (l *SlogLogger) Fatal(format string, args ...any) {
	l.logger.Log(nil, slog.LevelError+4, fmt.Sprintf(format, args...))
}
