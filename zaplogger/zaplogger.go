// Package zaplogger adapts *zap.SugaredLogger to the dbcore.Logger
// interface, so dbcore.SetLogger/WithLogger can be backed by zap without
// dbcore itself depending on it.
package zaplogger

import "go.uber.org/zap"

// Logger wraps a *zap.SugaredLogger to satisfy dbcore.Logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New wraps z as a dbcore.Logger. Passing a nil z panics inside New itself,
// because (*zap.Logger).Sugar dereferences its receiver.
func New(z *zap.Logger) *Logger {
	return &Logger{sugar: z.Sugar()}
}

func (l *Logger) Debug(msg string, keyvals ...any) {
	l.sugar.Debugw(msg, keyvals...)
}

func (l *Logger) Info(msg string, keyvals ...any) {
	l.sugar.Infow(msg, keyvals...)
}

func (l *Logger) Warn(msg string, keyvals ...any) {
	l.sugar.Warnw(msg, keyvals...)
}

func (l *Logger) Error(msg string, keyvals ...any) {
	l.sugar.Errorw(msg, keyvals...)
}
