// Package notify posts submitted labels to webhook endpoints.
package notify

// WebhookConfig defines a webhook destination.
type WebhookConfig struct {
	URL     string            `mapstructure:"url"     yaml:"url"     json:"url"`
	Format  string            `mapstructure:"format"  yaml:"format"  json:"format"` // "generic" or "slack"
	Labels  []string          `mapstructure:"labels"  yaml:"labels"  json:"labels"` // empty or "*" matches every label
	Headers map[string]string `mapstructure:"headers" yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints.
type Event struct {
	Timestamp    string `json:"timestamp"`
	SessionID    string `json:"session_id"`
	Label        string `json:"label"`
	Rule         string `json:"rule"`
	Summary      string `json:"summary"`
	Output       string `json:"output"`
	AnnotationID string `json:"annotation_id,omitempty"`
}
