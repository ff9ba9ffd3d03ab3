package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"
)

// Logger is a caller annotated audit log
type Logger struct {
	logger *log.Logger
}

// NewLogger appends to app.log, or to stderr when the file cannot be opened
func NewLogger() *Logger {
	file, err := os.OpenFile("app.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Warning: failed to open log file: %v", err)
		return NewLoggerTo(os.Stderr)
	}
	return NewLoggerTo(file)
}

// NewLoggerTo writes entries to w
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{
		logger: log.New(w, "", 0),
	}
}

func (l *Logger) Logf(format string, args ...interface{}) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *Logger) write(message string) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] %s:%d %s\n", timestamp, file, line, message)
}
