package logging

import (
	"fmt"
	"io"
	"os"
	"time"
)

// NewDefaultLogger creates a zap logger with DefaultLogConfig.
func NewDefaultLogger() Logger {
	logger, err := NewZapLogger(DefaultLogConfig())
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	return logger
}

// InitGlobalLogger configures the global logger from LOG_LEVEL and LOG_FILE.
// Without LOG_FILE the logger writes to stderr. The returned closer releases
// the log file, if one was opened.
func InitGlobalLogger() (io.Closer, error) {
	return Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
}

// Init configures the global logger with an explicit level and log file
func Init(levelStr, logFileName string) (io.Closer, error) {
	level := ParseLevel(levelStr)

	var (
		output io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	if logFileName != "" {
		file, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logFileName, err)
		}
		output = file
		closer = file
	}

	logger, err := NewZapLogger(LogConfig{
		Level:      level,
		Output:     output,
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Mark the once as done so the default never replaces this logger.
	initOnce.Do(func() {})
	SetGlobalLogger(logger)

	logger.Debug("Logger initialized",
		Field{"level", level.String()},
		Field{"log_file", logFileName},
	)
	return closer, nil
}

// MustSync flushes any buffered log entries. Call before exit.
func MustSync() {
	if zapLogger, ok := GetGlobalLogger().(*ZapAdapter); ok {
		_ = zapLogger.Sync()
	}
}

// WithFields is a convenience function to add fields to the global logger
func WithFields(fields ...Field) Logger {
	return GetGlobalLogger().WithFields(fields...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
