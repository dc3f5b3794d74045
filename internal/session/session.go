// Package session drives one annotation: it collects selections within a
// layout's domain, derives the label on submit, persists the output and
// notifies completion handlers. Whether the process exits afterwards is the
// caller's decision.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/labelsel/internal/audit"
	"github.com/ppiankov/labelsel/internal/history"
	"github.com/ppiankov/labelsel/internal/label"
	"github.com/ppiankov/labelsel/internal/layout"
	"github.com/ppiankov/labelsel/internal/sink"
)

// DomainError reports a selection outside the layout.
type DomainError struct {
	Category string
	Value    string
	Unknown  bool // category itself is not in the layout
}

func (e *DomainError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("unknown category %q", e.Category)
	}
	return fmt.Sprintf("%q is not a value of %q", e.Value, e.Category)
}

// Result is emitted once per successful submission.
type Result struct {
	SessionID    string         `json:"session_id"`
	Decision     label.Decision `json:"decision"`
	Output       string         `json:"output"`
	AnnotationID string         `json:"annotation_id,omitempty"`
	SubmittedAt  time.Time      `json:"submitted_at"`
}

// CompletionHandler is called after a submission has been persisted.
type CompletionHandler func(Result)

// Options wires a session to its collaborators. Nil collaborators are skipped.
type Options struct {
	ID         string
	Layout     *layout.Layout
	LayoutHash string
	Sink       sink.Sink
	Audit      *audit.Log
	History    *history.Store
	Logger     *zap.Logger
}

// Session holds the selections of one annotation.
type Session struct {
	mu         sync.Mutex
	id         string
	layout     *layout.Layout
	layoutHash string
	selections *label.Selections
	sink       sink.Sink
	audit      *audit.Log
	history    *history.Store
	logger     *zap.Logger
	handlers   []CompletionHandler
}

// New creates a session. A missing layout falls back to layout.Default and
// a missing ID to a random "s-" prefixed UUID.
func New(opts Options) *Session {
	l := opts.Layout
	if l == nil {
		l = layout.Default()
	}
	id := opts.ID
	if id == "" {
		id = "s-" + uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:         id,
		layout:     l,
		layoutHash: opts.LayoutHash,
		selections: l.NewSelections(),
		sink:       opts.Sink,
		audit:      opts.Audit,
		history:    opts.History,
		logger:     logger.With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier recorded with every submission.
func (s *Session) ID() string {
	return s.id
}

// Layout returns the layout currently in effect.
func (s *Session) Layout() *layout.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// OnComplete registers a handler for successful submissions.
func (s *Session) OnComplete(h CompletionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Select records value for category, replacing any earlier value.
// Categories and values outside the layout are rejected with *DomainError.
func (s *Session) Select(category, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.layout.Has(category) {
		return &DomainError{Category: category, Value: value, Unknown: true}
	}
	if !s.layout.Contains(category, value) {
		return &DomainError{Category: category, Value: value}
	}
	s.selections.Set(label.Category(category), value)
	s.logger.Debug("selection recorded", zap.String("category", category), zap.String("value", value))
	return nil
}

// Reset clears every selection.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections.Reset()
	s.logger.Debug("selections reset")
}

// Summary returns the current "Category: value" summary.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selections.Summarize()
}

// Preview derives the decision for the current selections without side effects.
func (s *Session) Preview() label.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return label.Derive(s.selections)
}

// SetLayout swaps the layout. Selections whose category or value is no
// longer offered are dropped; the rest keep their values.
func (s *Session) SetLayout(l *layout.Layout, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := l.NewSelections()
	for _, c := range s.selections.Categories() {
		sel := s.selections.Get(c)
		if !sel.Present {
			continue
		}
		if l.Contains(string(c), sel.Value) {
			next.Set(c, sel.Value)
		} else {
			s.logger.Info("selection dropped by layout change",
				zap.String("category", string(c)), zap.String("value", sel.Value))
		}
	}
	s.layout = l
	s.layoutHash = hash
	s.selections = next
}

// Submit derives the label, records it in the audit log and history, writes
// the output to the sink, then calls completion handlers. The sink is written
// last so a failed record never leaves a label for downstream readers.
// Selections are cleared after a successful submission. On error nothing is
// cleared and no handler runs.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	d := label.Derive(s.selections)
	res := Result{
		SessionID:   s.id,
		Decision:    d,
		Output:      d.Output(),
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.persist(ctx, &res); err != nil {
		s.mu.Unlock()
		s.logger.Error("submission failed", zap.Error(err))
		return Result{}, err
	}
	s.selections.Reset()
	handlers := append([]CompletionHandler(nil), s.handlers...)
	s.mu.Unlock()

	s.logger.Info("label submitted",
		zap.String("label", string(d.Label)),
		zap.String("rule", d.Rule),
		zap.String("summary", d.Summary))

	for _, h := range handlers {
		h(res)
	}
	return res, nil
}

// persist runs with s.mu held.
func (s *Session) persist(ctx context.Context, res *Result) error {
	d := res.Decision

	if s.audit != nil {
		entry := audit.AuditEntry{
			Timestamp:  res.SubmittedAt.Format(audit.TimestampFormat),
			SessionID:  s.id,
			Selections: s.orderedSelections(),
			Summary:    d.Summary,
			Label:      string(d.Label),
			Rule:       d.Rule,
			LayoutHash: s.layoutHash,
		}
		if err := s.audit.Record(entry); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}
	}

	if s.history != nil {
		a, err := s.history.Record(d, s.selections.Snapshot(), s.id, s.layoutHash)
		if err != nil {
			return fmt.Errorf("record history: %w", err)
		}
		res.AnnotationID = a.ID
	}

	if s.sink != nil {
		if err := s.sink.Write(ctx, res.Output); err != nil {
			return fmt.Errorf("write label: %w", err)
		}
	}
	return nil
}

func (s *Session) orderedSelections() []audit.Selected {
	var out []audit.Selected
	for _, c := range s.selections.Categories() {
		if sel := s.selections.Get(c); sel.Present {
			out = append(out, audit.Selected{Category: string(c), Value: sel.Value})
		}
	}
	return out
}
