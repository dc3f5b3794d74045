package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/labelsel/internal/session"
)

// Dispatcher fans out events to matching webhook configurations.
type Dispatcher struct {
	configs []WebhookConfig
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty (callers should nil-check).
func NewDispatcher(configs []WebhookConfig, logger *zap.Logger) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{configs: configs, logger: logger}
}

// Dispatch sends the event to every webhook whose Labels match.
// Sends run in goroutines; use Wait to block until they finish.
func (d *Dispatcher) Dispatch(event Event) {
	for _, cfg := range d.configs {
		if !matches(cfg.Labels, event.Label) {
			continue
		}
		d.wg.Add(1)
		go func(cfg WebhookConfig) {
			defer d.wg.Done()
			if err := Send(cfg, event); err != nil {
				d.logger.Warn("webhook delivery failed",
					zap.String("url", cfg.URL),
					zap.String("label", event.Label),
					zap.Error(err))
				return
			}
			d.logger.Debug("webhook delivered", zap.String("url", cfg.URL), zap.String("label", event.Label))
		}(cfg)
	}
}

// OnSubmit dispatches a session result. It has the session.CompletionHandler
// signature so it can be registered with Session.OnComplete.
func (d *Dispatcher) OnSubmit(r session.Result) {
	d.Dispatch(Event{
		Timestamp:    r.SubmittedAt.Format(time.RFC3339),
		SessionID:    r.SessionID,
		Label:        string(r.Decision.Label),
		Rule:         r.Decision.Rule,
		Summary:      r.Decision.Summary,
		Output:       r.Output,
		AnnotationID: r.AnnotationID,
	})
}

// Wait blocks until all dispatched sends have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func matches(labels []string, label string) bool {
	if len(labels) == 0 {
		return true
	}
	for _, l := range labels {
		if l == "*" || l == label {
			return true
		}
	}
	return false
}
