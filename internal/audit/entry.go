package audit

// Selected is one recorded category value, kept as a slice element so the
// marshalled order matches the summary order.
type Selected struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// AuditEntry is one submission in the hash-chained JSONL audit log.
// All fields are structs or slices (no map[string]any) to guarantee
// deterministic json.Marshal output for reproducible hashing.
type AuditEntry struct {
	Timestamp  string     `json:"ts"`
	SessionID  string     `json:"session_id"`
	Selections []Selected `json:"selections"`
	Summary    string     `json:"summary"`
	Label      string     `json:"label"`
	Rule       string     `json:"rule"`
	LayoutHash string     `json:"layout_hash"`
	PrevHash   string     `json:"prev_hash"`
}
