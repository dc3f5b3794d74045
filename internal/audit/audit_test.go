package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-audit.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open audit log: %v", err)
	}
	return l, path
}

func testEntry(label string) AuditEntry {
	return AuditEntry{
		Timestamp: time.Now().UTC().Format(TimestampFormat),
		SessionID: "s-test123",
		Selections: []Selected{
			{Category: "Customer Movement", Value: "Standing"},
			{Category: "Customer Location", Value: "Counter"},
		},
		Summary:    "Customer Movement: Standing, Customer Location: Counter",
		Label:      label,
		Rule:       "standing.gaze.other",
		LayoutHash: "sha256:abc123",
	}
}

func TestSequentialWritesProduceValidChain(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 5; i++ {
		if err := l.Record(testEntry("Looking")); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 5 {
		t.Fatalf("expected 5 lines, got %d", result.Lines)
	}
}

func TestVerifyDetectsTamperedEntry(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 3; i++ {
		if err := l.Record(testEntry("Looking")); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()

	// Relabel line 2; line 3 no longer links to it.
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	lines[1] = strings.Replace(lines[1], `"Looking"`, `"Purchasing"`, 1)
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected tampered chain to be invalid")
	}
	if result.ErrorLine != 3 {
		t.Fatalf("expected error at line 3, got line %d", result.ErrorLine)
	}
}

func TestVerifyDetectsDeletedEntry(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 3; i++ {
		if err := l.Record(testEntry("Looking")); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	remaining := []string{lines[0], lines[2]}
	os.WriteFile(path, []byte(strings.Join(remaining, "\n")+"\n"), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected chain with deleted entry to be invalid")
	}
	if result.ErrorLine != 2 {
		t.Fatalf("expected error at line 2, got line %d", result.ErrorLine)
	}
}

func TestVerifyDetectsForgedFirstEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forged.jsonl")
	fake := testEntry("Idle")
	fake.PrevHash = "sha256:fake"
	line, _ := json.Marshal(fake)
	os.WriteFile(path, append(line, '\n'), 0644)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected forged first entry to be invalid")
	}
	if result.ErrorLine != 1 {
		t.Fatalf("expected error at line 1, got %d", result.ErrorLine)
	}
	if !strings.Contains(result.Error, "genesis") {
		t.Errorf("expected genesis error, got %q", result.Error)
	}
}

func TestEmptyLogPassesVerification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	os.WriteFile(path, []byte{}, 0644)

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected empty log to be valid, got: %s", result.Error)
	}
	if result.Lines != 0 {
		t.Fatalf("expected 0 lines, got %d", result.Lines)
	}
}

func TestVerifyMissingFile(t *testing.T) {
	result := Verify(filepath.Join(t.TempDir(), "missing.jsonl"))
	if result.Valid {
		t.Fatal("expected missing file to be invalid")
	}
}

func TestConcurrentWritesSerializeCorrectly(t *testing.T) {
	l, path := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Record(testEntry("Mirror"))
		}()
	}
	wg.Wait()
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after concurrent writes, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 50 {
		t.Fatalf("expected 50 lines, got %d", result.Lines)
	}
}

func TestGenesisHashAndSelectionOrder(t *testing.T) {
	l, path := newTestLog(t)
	l.Record(testEntry("Looking"))
	l.Close()

	data, _ := os.ReadFile(path)
	var entry AuditEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatal(err)
	}

	if entry.PrevHash != GenesisHash {
		t.Fatalf("expected genesis hash %s, got %s", GenesisHash, entry.PrevHash)
	}
	if len(entry.Selections) != 2 || entry.Selections[0].Category != "Customer Movement" {
		t.Fatalf("expected selections in recorded order, got %+v", entry.Selections)
	}
}

func TestRecordFillsTimestamp(t *testing.T) {
	l, path := newTestLog(t)
	e := testEntry("Idle")
	e.Timestamp = ""
	l.Record(e)
	l.Close()

	result, err := Replay(path, ReplayFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := time.Parse(TimestampFormat, result.Entries[0].Timestamp); err != nil {
		t.Errorf("expected generated timestamp, got %q", result.Entries[0].Timestamp)
	}
}

func TestHashLineIsDeterministic(t *testing.T) {
	line := []byte(`{"ts":"2025-01-15T10:30:00.000Z","session_id":"s-abc","label":"Idle","prev_hash":"sha256:def"}`)
	h1 := HashLine(line)
	h2 := HashLine(line)
	if h1 != h2 {
		t.Fatalf("expected same hash, got %s and %s", h1, h2)
	}
	if !strings.HasPrefix(h1, "sha256:") {
		t.Fatalf("expected sha256: prefix, got %s", h1)
	}
	if len(h1) != 7+64 {
		t.Fatalf("expected 71 char hash string, got %d", len(h1))
	}
}

func TestOpenExistingLogContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.jsonl")

	l1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		l1.Record(testEntry("Looking"))
	}
	l1.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if l2.Path() != path {
		t.Errorf("expected path %s, got %s", path, l2.Path())
	}
	for i := 0; i < 2; i++ {
		l2.Record(testEntry("Browsing"))
	}
	l2.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after reopen, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 5 {
		t.Fatalf("expected 5 lines, got %d", result.Lines)
	}
}
