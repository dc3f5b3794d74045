package notify

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	default:
		return json.Marshal(event)
	}
}

func formatSlack(event Event) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("labelsel: %s", event.Label),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Session:* %s", event.SessionID)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Rule:* %s", event.Rule)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Time:* %s", event.Timestamp)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Selections:* %s", orNone(event.Summary))},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
