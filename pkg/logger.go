package chamber

import (
	"log/slog"
)

type Logger interface {
	Info(message string, module string)
	Error(string)
}

// SlogLogger sends informational messages and errors to separate slog loggers.
type SlogLogger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l SlogLogger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l SlogLogger) Error(message string) {
	l.ErrorLog.Error(message)
}

type discardLogger struct{}

func (discardLogger) Info(string, string) {}
func (discardLogger) Error(string)        {}

// DiscardLogger drops every message.
var DiscardLogger Logger = discardLogger{}

func loggerOrDiscard(l Logger) Logger {
	if l == nil {
		return DiscardLogger
	}
	return l
}
