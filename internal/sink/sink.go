// Package sink persists the derived label output.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultPath is the well-known location read by downstream tooling.
const DefaultPath = "/tmp/selected_label.txt"

// Sink receives the final output string of a submission.
type Sink interface {
	Write(ctx context.Context, output string) error
}

// FileSink replaces the content of a single file on every write.
type FileSink struct {
	Path string
}

// NewFileSink returns a FileSink for path, or DefaultPath when empty.
func NewFileSink(path string) *FileSink {
	if path == "" {
		path = DefaultPath
	}
	return &FileSink{Path: path}
}

// Write replaces the file content with output.
// Uses atomic write (tmp + rename) so readers never see a partial label.
func (f *FileSink) Write(ctx context.Context, output string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("sink: create temp: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(output); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sink: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sink: close temp: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sink: chmod: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sink: replace %s: %w", f.Path, err)
	}
	return nil
}

// MemorySink keeps every written output in memory.
type MemorySink struct {
	mu      sync.Mutex
	outputs []string
}

// Write appends output.
func (m *MemorySink) Write(ctx context.Context, output string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs = append(m.outputs, output)
	return nil
}

// Last returns the most recent output, or "" if nothing was written.
func (m *MemorySink) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.outputs) == 0 {
		return ""
	}
	return m.outputs[len(m.outputs)-1]
}

// Count returns the number of writes.
func (m *MemorySink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outputs)
}
