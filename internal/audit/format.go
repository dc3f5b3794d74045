package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	scope := result.SessionID
	if scope == "" {
		scope = "all sessions"
	}
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Session: %s | No entries found.\n", scope)
	}

	var b strings.Builder

	first := formatDateTime(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	fmt.Fprintf(&b, "Session: %s | %s–%s UTC\n", scope, first, last)
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		fmt.Fprintf(&b, "%-10s %-12s %-36s %s\n",
			formatTimeOnly(e.Timestamp), e.Label, truncate(e.Rule, 36), truncate(e.Summary, 60))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateTime(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

// formatSummary lists label counts, most frequent first, ties by name.
func formatSummary(s ReplaySummary) string {
	labels := make([]string, 0, len(s.LabelCounts))
	for l := range s.LabelCounts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := s.LabelCounts[labels[i]], s.LabelCounts[labels[j]]
		if ci != cj {
			return ci > cj
		}
		return labels[i] < labels[j]
	})

	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%d %s", s.LabelCounts[l], l))
	}
	return fmt.Sprintf("Summary: %d submissions | %s\n", s.Total, strings.Join(parts, ", "))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
