package config

import (
	"io"
	"log/slog"
	"os"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// Logging is the process logger: text to the console, JSON to a file.
type Logging struct {
	Logger *slog.Logger

	console *switchWriter
	file    *os.File
}

// SetupLogger creates the dual-output logger. When the log file cannot be
// opened it logs to the console only.
func SetupLogger(logFile string, level slog.Level) *Logging {
	console := &switchWriter{w: os.Stderr}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return &Logging{Logger: slog.New(consoleHandler), console: console}
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return &Logging{
		Logger:  slog.New(slogmulti.Fanout(consoleHandler, fileHandler)),
		console: console,
		file:    file,
	}
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}

// MuteConsole discards console output until the returned function is called.
// The file output is unaffected.
func (l *Logging) MuteConsole() (restore func()) {
	prev := l.console.set(io.Discard)
	return func() { l.console.set(prev) }
}

// Close closes the log file.
func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}
