// Package debug writes component-tagged diagnostics for the updater, the
// randomized harness and the long-running servers. Output is off unless
// DEBUG is set (or the build flag is), and always off in MCP mode where
// stdio belongs to the protocol.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/relex/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// MCPMode tracks if we're running in MCP mode (set by main)
var MCPMode = false

// Component tags a line of debug output with the subsystem that wrote it
type Component string

const (
	Update Component = "UPDATE"
	Fuzz   Component = "FUZZ"
	Watch  Component = "WATCH"
	Server Component = "SERVER"
	MCP    Component = "MCP"
)

// sink is where debug output goes. A nil writer discards everything.
type sink struct {
	mu   sync.Mutex
	w    io.Writer
	file *os.File
}

var out sink

func (s *sink) writef(prefix, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return
	}
	fmt.Fprintf(s.w, prefix+" "+format, args...)
}

// SetMCPMode enables MCP mode which suppresses all debug output
func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetDebugOutput sets the writer for debug output. nil disables output.
func SetDebugOutput(w io.Writer) {
	out.mu.Lock()
	defer out.mu.Unlock()
	out.w = w
}

// InitDebugLogFile sends debug output to a new file under the temp
// directory and returns its path. Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	logDir := filepath.Join(os.TempDir(), "relex-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	name := fmt.Sprintf("relex-%d-%s.log", os.Getpid(), time.Now().Format("2006-01-02T150405"))
	logPath := filepath.Join(logDir, name)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	out.file = file
	out.w = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open
func CloseDebugLog() error {
	out.mu.Lock()
	defer out.mu.Unlock()
	if out.file == nil {
		return nil
	}
	err := out.file.Close()
	out.file = nil
	out.w = nil
	return err
}

// IsDebugEnabled returns true if debug mode is enabled and we're not in MCP mode
func IsDebugEnabled() bool {
	if MCPMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

// Printf writes an untagged debug line
func Printf(format string, args ...interface{}) {
	if IsDebugEnabled() {
		out.writef("[DEBUG]", format, args...)
	}
}

// Printf writes a debug line tagged with c
func (c Component) Printf(format string, args ...interface{}) {
	if IsDebugEnabled() {
		out.writef("[DEBUG:"+string(c)+"]", format, args...)
	}
}

// Log writes a debug line tagged with an arbitrary component name
func Log(component, format string, args ...interface{}) {
	Component(component).Printf(format, args...)
}

// LogUpdate logs incremental updater phases and edit results
func LogUpdate(format string, args ...interface{}) { Update.Printf(format, args...) }

// LogFuzz logs randomized harness progress
func LogFuzz(format string, args ...interface{}) { Fuzz.Printf(format, args...) }

// LogWatch logs file watcher events
func LogWatch(format string, args ...interface{}) { Watch.Printf(format, args...) }

// LogServer logs websocket session traffic
func LogServer(format string, args ...interface{}) { Server.Printf(format, args...) }

// LogMCP logs MCP tool calls
func LogMCP(format string, args ...interface{}) { MCP.Printf(format, args...) }

// Broken records that c left a token model in an indeterminate state. It is
// written whenever an output is configured, even with debug mode off, so a
// log file always explains a later rebuild. Suppressed in MCP mode.
func Broken(c Component, format string, args ...interface{}) {
	if MCPMode {
		return
	}
	out.writef("[BROKEN:"+string(c)+"]", format, args...)
}

// Fatal records a fatal error and returns it. Callers decide whether to exit.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !MCPMode {
		out.writef("[FATAL]", "%s", msg)
	}
	return fmt.Errorf("fatal error: %s", msg)
}
