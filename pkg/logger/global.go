// pkg/logger/global.go
package logger

import (
	"io"
	"sync/atomic"
	"time"
)

var globalLogger atomic.Pointer[Logger]

// InitGlobal создает глобальный логгер
func InitGlobal(logPath, logLevel string, debug bool) error {
	l, err := NewLogger(logPath, logLevel, debug)
	if err != nil {
		return err
	}
	SetGlobal(l)
	return nil
}

// SetGlobal подменяет глобальный логгер (nil отключает вывод)
func SetGlobal(l *Logger) {
	if old := globalLogger.Swap(l); old != nil && old != l {
		old.Close()
	}
}

// InitWriter направляет глобальный логгер в writer, используется в тестах
func InitWriter(w io.Writer, logLevel string) {
	SetGlobal(New(w, logLevel))
}

func GetLogger() *Logger {
	return globalLogger.Load()
}

// Глобальные методы для удобства
func Debug(format string, v ...interface{}) {
	if l := globalLogger.Load(); l != nil {
		l.Debug(format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if l := globalLogger.Load(); l != nil {
		l.Info(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if l := globalLogger.Load(); l != nil {
		l.Warn(format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if l := globalLogger.Load(); l != nil {
		l.Error(format, v...)
	}
}

func Request(requestID, method, path string, status int, elapsed time.Duration) {
	if l := globalLogger.Load(); l != nil {
		l.Request(requestID, method, path, status, elapsed)
	}
}

func Close() {
	if l := globalLogger.Load(); l != nil {
		l.Close()
	}
}
