package nutricoach

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// FlowLogger is the interface for per-event dialogue flow logging.
type FlowLogger interface {
	LogEvent(entry EventLog) error
}

// NewFlowLogFilePath returns a timestamped file path so logs from separate
// runs don't clobber each other.
func NewFlowLogFilePath() string {
	return fmt.Sprintf("./logs/%d.flow.json", time.Now().Unix())
}

// EventLog captures one handled event: what came in, which states the user's
// session moved between, which upstream services were consulted, and what
// went out.
type EventLog struct {
	Timestamp     time.Time         `json:"timestamp"`
	UserID        string            `json:"user_id"`
	Kind          string            `json:"kind"`
	Input         string            `json:"input,omitempty"`
	StateBefore   string            `json:"state_before,omitempty"`
	StateAfter    string            `json:"state_after,omitempty"`
	UpstreamCalls []UpstreamCallLog `json:"upstream_calls,omitempty"`
	Outgoing      int               `json:"outgoing"`
	Error         string            `json:"error,omitempty"`
}

// UpstreamCallLog records a single weather or catalog lookup made while
// handling an event.
type UpstreamCallLog struct {
	Service    string `json:"service"`
	Query      string `json:"query"`
	DurationMS int64  `json:"duration_ms"`
	Results    int    `json:"results,omitempty"`
}

// FileFlowLogger accumulates event logs in memory and flushes them as one
// JSON document at the end of the run.
type FileFlowLogger struct {
	entries []EventLog
	writer  io.Writer
}

// NewFileFlowLogger creates a new file-backed flow logger.
func NewFileFlowLogger(writer io.Writer) *FileFlowLogger {
	return &FileFlowLogger{
		entries: make([]EventLog, 0),
		writer:  writer,
	}
}

// LogEvent buffers an entry (does not flush immediately).
func (l *FileFlowLogger) LogEvent(entry EventLog) error {
	l.entries = append(l.entries, entry)
	return nil
}

// Flush writes all accumulated entries to the writer and clears the buffer.
func (l *FileFlowLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"flow_session": map[string]any{
			"timestamp": time.Now(),
			"events":    l.entries,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write flow log: %w", err)
	}

	l.entries = l.entries[:0]
	return nil
}

// NoOpFlowLogger discards all entries.
type NoOpFlowLogger struct{}

// NewNoOpFlowLogger creates a new no-op flow logger.
func NewNoOpFlowLogger() *NoOpFlowLogger { return &NoOpFlowLogger{} }

// LogEvent discards the entry.
func (NoOpFlowLogger) LogEvent(entry EventLog) error { return nil }

// StdoutFlowLogger writes each entry as a JSON line to stdout.
type StdoutFlowLogger struct{}

// NewStdoutFlowLogger creates a new stdout-based flow logger.
func NewStdoutFlowLogger() *StdoutFlowLogger { return &StdoutFlowLogger{} }

// LogEvent writes the entry as a JSON line to os.Stdout.
func (StdoutFlowLogger) LogEvent(entry EventLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
