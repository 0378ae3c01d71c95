package core

import "log"

// Logger is any service that can log messages at the usual levels.
// Extra args may carry context objects (errors, the acting user) that
// implementations are free to interpret.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

type stdLogger struct {
	std     *log.Logger
	enabled bool
}

// NewStdLogger returns a Logger that only prints to the given std logger.
// Used in DEV/TEST mode where error reporting is not wanted.
func NewStdLogger(std *log.Logger) Logger {
	return &stdLogger{std: std, enabled: true}
}

func (l *stdLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *stdLogger) print(level, msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v", arg)
	}
}

func (l *stdLogger) Debug(msg string, args ...interface{}) { l.print("DEBUG", msg, args) }
func (l *stdLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, args) }
func (l *stdLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, args) }
func (l *stdLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }

func (l *stdLogger) Fatal(msg string, args ...interface{}) {
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
