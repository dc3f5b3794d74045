package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ReplayFilter selects entries for a replay. Zero fields match everything.
type ReplayFilter struct {
	SessionID string
	Label     string
	From      time.Time
	To        time.Time
}

// ReplaySummary holds per-label counts and the time span of a replay.
type ReplaySummary struct {
	Total          int            `json:"total"`
	LabelCounts    map[string]int `json:"label_counts"`
	FirstTimestamp string         `json:"first_timestamp"`
	LastTimestamp  string         `json:"last_timestamp"`
}

// ReplayResult holds filtered entries and their summary.
type ReplayResult struct {
	SessionID string        `json:"session_id,omitempty"`
	Entries   []AuditEntry  `json:"entries"`
	Summary   ReplaySummary `json:"summary"`
}

// Replay reads the audit log and returns entries matching the filter.
// Malformed lines and unparseable timestamps are skipped.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{
		SessionID: filter.SessionID,
		Summary:   ReplaySummary{LabelCounts: map[string]int{}},
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if !filter.matches(entry) {
			continue
		}
		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return result, nil
}

func (f ReplayFilter) matches(entry AuditEntry) bool {
	if f.SessionID != "" && entry.SessionID != f.SessionID {
		return false
	}
	if f.Label != "" && entry.Label != f.Label {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}

	ts, err := time.Parse(TimestampFormat, entry.Timestamp)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ts.After(f.To) {
		return false
	}
	return true
}

func updateSummary(s *ReplaySummary, entry AuditEntry) {
	s.Total++
	s.LabelCounts[entry.Label]++

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
