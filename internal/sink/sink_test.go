package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSinkOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selected_label.txt")
	if err := os.WriteFile(path, []byte("an older and much longer label line that must disappear"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewFileSink(path)
	if err := s.Write(context.Background(), "decision: [], label: [Idle]"); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "decision: [], label: [Idle]" {
		t.Errorf("expected full replacement, got %q", string(data))
	}
}

func TestFileSinkLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(filepath.Join(dir, "out.txt"))
	for i := 0; i < 3; i++ {
		if err := s.Write(context.Background(), "x"); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestFileSinkMissingDirectory(t *testing.T) {
	s := NewFileSink(filepath.Join(t.TempDir(), "missing", "out.txt"))
	if err := s.Write(context.Background(), "x"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestFileSinkCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewFileSink(path).Write(ctx, "x"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file after cancelled write")
	}
}

func TestNewFileSinkDefaultPath(t *testing.T) {
	if got := NewFileSink("").Path; got != DefaultPath {
		t.Errorf("expected %s, got %s", DefaultPath, got)
	}
}

func TestMemorySink(t *testing.T) {
	var m MemorySink
	if m.Last() != "" || m.Count() != 0 {
		t.Fatal("expected empty sink")
	}
	m.Write(context.Background(), "a")
	m.Write(context.Background(), "b")
	if m.Last() != "b" {
		t.Errorf("expected b, got %q", m.Last())
	}
	if m.Count() != 2 {
		t.Errorf("expected 2 writes, got %d", m.Count())
	}
}
