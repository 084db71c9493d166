// Package telemetry keeps a durable record of error-level log entries.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

type contextKey string

const (
	// ContextKeyRunID carries the id of the CLI or API run that logged a record.
	ContextKeyRunID contextKey = "run_id"
	// ContextKeyCommand carries the command or route name.
	ContextKeyCommand contextKey = "command"
)

// WithRun returns ctx annotated with a run id and command name.
func WithRun(ctx context.Context, runID, command string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyRunID, runID)
	return context.WithValue(ctx, ContextKeyCommand, command)
}

// LogRecord represents a single log entry for Parquet storage
type LogRecord struct {
	ID         string    `parquet:"id"`
	Timestamp  time.Time `parquet:"timestamp"`
	Level      string    `parquet:"level"`
	Message    string    `parquet:"message"`
	RunID      string    `parquet:"run_id"`
	Command    string    `parquet:"command"`
	SourceFile string    `parquet:"source_file"`
	LineNumber int       `parquet:"line_number"`
	Attributes string    `parquet:"attributes"` // JSON string
}

// DefaultBatchSize is the number of records buffered before a file is written.
const DefaultBatchSize = 100

// ParquetHandler is a slog.Handler that writes error logs to Parquet files.
// Handlers derived with WithAttrs/WithGroup share one buffer.
type ParquetHandler struct {
	next  slog.Handler
	state *bufferState
	attrs []slog.Attr
	group string
}

type bufferState struct {
	mu        sync.Mutex
	outputDir string
	buffer    []LogRecord
	batchSize int
}

// NewParquetHandler creates a new ParquetHandler
func NewParquetHandler(next slog.Handler, outputDir string) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	return &ParquetHandler{
		next: next,
		state: &bufferState{
			outputDir: outputDir,
			batchSize: DefaultBatchSize,
			buffer:    make([]LogRecord, 0, DefaultBatchSize),
		},
	}, nil
}

// Enabled implements slog.Handler
func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	// Always pass to next handler first
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level < slog.LevelError {
		return nil
	}

	var runID, command string
	if v, ok := ctx.Value(ContextKeyRunID).(string); ok {
		runID = v
	}
	if v, ok := ctx.Value(ContextKeyCommand).(string); ok {
		command = v
	}

	attrs := make(map[string]interface{})
	prefix := ""
	if h.group != "" {
		prefix = h.group + "."
	}
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[prefix+a.Key] = a.Value.Any()
		return true
	})
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		attrsJSON = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}

	var sourceFile string
	var line int
	if r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		sourceFile, line = f.File, f.Line
	}

	record := LogRecord{
		ID:         uuid.New().String(),
		Timestamp:  r.Time.UTC(),
		Level:      r.Level.String(),
		Message:    r.Message,
		RunID:      runID,
		Command:    command,
		SourceFile: sourceFile,
		LineNumber: line,
		Attributes: string(attrsJSON),
	}

	s := h.state
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer = append(s.buffer, record)
	if len(s.buffer) >= s.batchSize {
		return s.flush()
	}
	return nil
}

// Flush writes any buffered records to a new Parquet file.
func (h *ParquetHandler) Flush() error {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	return h.state.flush()
}

// Close flushes the buffer. The handler stays usable.
func (h *ParquetHandler) Close() error {
	return h.Flush()
}

// flush writes the current buffer to a new Parquet file
// Caller must hold the lock
func (s *bufferState) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}

	now := time.Now()
	filename := fmt.Sprintf("execution_errors_%s_%d.parquet", now.Format("20060102_150405"), now.UnixNano())
	path := filepath.Join(s.outputDir, filename)

	if err := parquet.WriteFile(path, s.buffer); err != nil {
		// Report on stderr; the wrapped handler already saw the record.
		fmt.Fprintf(os.Stderr, "Failed to write telemetry parquet file: %v\n", err)
		return err
	}

	s.buffer = s.buffer[:0]
	return nil
}

// WithAttrs implements slog.Handler
func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &ParquetHandler{next: h.next.WithAttrs(attrs), state: h.state, attrs: merged, group: h.group}
}

// WithGroup implements slog.Handler
func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &ParquetHandler{next: h.next.WithGroup(name), state: h.state, attrs: h.attrs, group: group}
}

// ReadRecords loads every telemetry file in dir, oldest file first.
func ReadRecords(dir string) ([]LogRecord, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "execution_errors_*.parquet"))
	if err != nil {
		return nil, err
	}
	var out []LogRecord
	for _, path := range matches {
		rows, err := parquet.ReadFile[LogRecord](path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}
