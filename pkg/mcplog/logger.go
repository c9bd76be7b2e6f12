// Package mcplog appends one JSON line per MCP tool call to a call log.
package mcplog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxLoggedString is the longest string argument written verbatim. Longer
// values (source code, controller bodies) are logged by length only.
const maxLoggedString = 64

// Entry is one JSONL line.
type Entry struct {
	Ts            string         `json:"ts"`
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	DurationMs    int64          `json:"duration_ms"`
	ResponseBytes int            `json:"response_bytes"`
	ToolError     bool           `json:"tool_error"`
	Error         *string        `json:"error"`
}

// Logger appends entries to a writer. Safe for concurrent use. A nil
// *Logger discards everything.
type Logger struct {
	mu  sync.Mutex
	w   io.WriteCloser
	enc *json.Encoder
	now func() time.Time
}

// NewLogger opens path for appending, creating parent directories. An empty
// path returns a nil Logger.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mcplog: create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mcplog: open log file: %w", err)
	}
	return newLogger(f, time.Now), nil
}

func newLogger(w io.WriteCloser, now func() time.Time) *Logger {
	return &Logger{w: w, enc: json.NewEncoder(w), now: now}
}

// Now returns the logger's clock reading.
func (l *Logger) Now() time.Time {
	if l == nil || l.now == nil {
		return time.Now()
	}
	return l.now()
}

// Record writes the entry for a finished call. Write failures are dropped
// so logging never changes a tool result.
func (l *Logger) Record(req mcp.CallToolRequest, start time.Time, result *mcp.CallToolResult, callErr error) {
	if l == nil {
		return
	}
	entry := Entry{
		Ts:            start.UTC().Format(time.RFC3339),
		Tool:          req.Params.Name,
		Params:        SanitizeParams(req.GetArguments()),
		DurationMs:    l.Now().Sub(start).Milliseconds(),
		ResponseBytes: ResponseBytes(result),
		ToolError:     result != nil && result.IsError,
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.Error = &msg
	}
	_ = l.Write(entry)
}

// Write appends a single entry.
func (l *Logger) Write(entry Entry) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

// SanitizeParams copies args, replacing long strings with a "<key>_len"
// entry.
func SanitizeParams(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > maxLoggedString {
			out[k+"_len"] = len(s)
			continue
		}
		out[k] = v
	}
	return out
}

// ResponseBytes is the JSON size of a result's content, 0 for nil.
func ResponseBytes(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	b, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(b)
}
