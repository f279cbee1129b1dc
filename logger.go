package vello

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger is the minimal structured logging contract the client emits to.
// Key-value pairs follow the message.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger writes leveled lines to stderr via the standard log package.
type SimpleLogger struct {
	l *log.Logger
}

// NewSimpleLogger creates a SimpleLogger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{l: log.New(os.Stderr, "vello ", log.LstdFlags)}
}

func (s *SimpleLogger) emit(level, msg string, kv []any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	s.l.Print(b.String())
}

func (s *SimpleLogger) Debug(msg string, kv ...any) { s.emit("DEBUG", msg, kv) }
func (s *SimpleLogger) Info(msg string, kv ...any)  { s.emit("INFO", msg, kv) }
func (s *SimpleLogger) Warn(msg string, kv ...any)  { s.emit("WARN", msg, kv) }
func (s *SimpleLogger) Error(msg string, kv ...any) { s.emit("ERROR", msg, kv) }

// DebugConfig controls which pipeline stages emit debug logs.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	LogCache     bool
	RequestIDGen func() string
}

// DefaultDebugConfig enables all stages with UUID request IDs.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      true,
		LogRequests:  true,
		LogRetries:   true,
		LogCache:     true,
		RequestIDGen: uuid.NewString,
	}
}

// debugLog emits a debug line when debug logging is enabled and the stage
// flag passes.
func (c *Client) debugLog(stage func(*DebugConfig) bool, msg string, kv ...any) {
	if c.debug == nil || !c.debug.Enabled || c.logger == nil {
		return
	}
	if stage != nil && !stage(c.debug) {
		return
	}
	c.logger.Debug(msg, kv...)
}

func (c *Client) warnLog(msg string, kv ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, kv...)
	}
}
