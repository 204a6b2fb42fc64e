// pkg/logger/logger.go

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Уровни логирования
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

var levelPriority = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

type Logger struct {
	mu        sync.Mutex
	logFile   *os.File
	out       *log.Logger
	logLevel  string // Уровень логирования
	debugMode bool
}

// NewLogger создает логгер, пишущий в консоль и (если задан путь) в файл
func NewLogger(logPath string, logLevel string, debug bool) (*Logger, error) {
	var writer io.Writer = os.Stdout
	var file *os.File

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, err
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		file = f
		writer = io.MultiWriter(os.Stdout, file)
	}

	l := New(writer, logLevel)
	l.logFile = file
	l.debugMode = debug
	return l, nil
}

// New создает логгер поверх произвольного writer (удобно в тестах)
func New(w io.Writer, logLevel string) *Logger {
	return &Logger{
		out:      log.New(w, "", 0),
		logLevel: strings.ToUpper(logLevel),
	}
}

// shouldLog проверяет, нужно ли логировать сообщение на данном уровне
func (l *Logger) shouldLog(level string) bool {
	currentPriority, ok1 := levelPriority[l.logLevel]
	msgPriority, ok2 := levelPriority[level]

	if !ok1 || !ok2 {
		return true // Если неизвестный уровень, логируем всё
	}

	return msgPriority >= currentPriority
}

func (l *Logger) log(level string, format string, v ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	msg := fmt.Sprintf(format, v...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	// Цвета для консоли
	color := ""
	reset := ""
	if l.debugMode {
		switch level {
		case LevelDebug:
			color = "\033[36m" // Cyan
		case LevelInfo:
			color = "\033[32m" // Green
		case LevelWarn:
			color = "\033[33m" // Yellow
		case LevelError:
			color = "\033[31m" // Red
		case LevelFatal:
			color = "\033[35m" // Magenta
		}
		reset = "\033[0m"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("%s[%s] %s %s%s", color, level, timestamp, msg, reset)
}

// Методы для разных уровней
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(LevelDebug, format, v...)
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.log(LevelInfo, format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.log(LevelWarn, format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.log(LevelError, format, v...)
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.log(LevelFatal, format, v...)
	l.Close()
	os.Exit(1)
}

// Level возвращает текущий уровень
func (l *Logger) Level() string {
	return l.logLevel
}

// Request пишет строку access-лога
func (l *Logger) Request(requestID, method, path string, status int, elapsed time.Duration) {
	icon := "✅"
	switch {
	case status >= 500:
		icon = "❌"
	case status >= 400:
		icon = "⚠️"
	}
	l.Info("%s %s %s -> %d (%v) [%s]", icon, method, path, status, elapsed.Round(time.Millisecond), requestID)
}

func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
		l.logFile = nil
	}
}
