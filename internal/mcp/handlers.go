package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/labelsel/internal/layout"
	"github.com/ppiankov/labelsel/internal/session"
)

// --- Input/Output types ---

// LayoutInput is empty; no parameters needed.
type LayoutInput struct{}

// LayoutOutput describes the active layout.
type LayoutOutput struct {
	Categories []layout.CategorySpec `json:"categories"`
	LayoutHash string                `json:"layout_hash"`
}

// DeriveInput defines parameters for the labelsel_derive tool.
type DeriveInput struct {
	Selections map[string]string `json:"selections" jsonschema:"category name to selected value, e.g. Customer Movement to Standing"`
}

// DeriveOutput contains the derived decision.
type DeriveOutput struct {
	Label   string `json:"label,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Summary string `json:"summary"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SubmitInput defines parameters for the labelsel_submit tool.
type SubmitInput struct {
	Selections map[string]string `json:"selections" jsonschema:"category name to selected value"`
	SessionID  string            `json:"session_id,omitempty" jsonschema:"session identifier recorded with the submission, generated when omitted"`
}

// SubmitOutput confirms a recorded submission.
type SubmitOutput struct {
	DeriveOutput
	SessionID    string `json:"session_id,omitempty"`
	AnnotationID string `json:"annotation_id,omitempty"`
}

// HistoryInput defines parameters for the labelsel_history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of annotations to return, default 20"`
}

// HistoryItem is one stored annotation.
type HistoryItem struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	Label     string `json:"label"`
	Rule      string `json:"rule"`
	Summary   string `json:"summary"`
}

// LabelCount is the number of annotations carrying one label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// HistoryOutput lists recent annotations.
type HistoryOutput struct {
	Annotations []HistoryItem `json:"annotations"`
	Counts      []LabelCount  `json:"counts"`
	Error       string        `json:"error,omitempty"`
}

// --- Handlers ---

func (s *Server) handleLayout(ctx context.Context, req *mcpsdk.CallToolRequest, input LayoutInput) (*mcpsdk.CallToolResult, LayoutOutput, error) {
	l, hash := s.currentLayout()
	return nil, LayoutOutput{Categories: l.Categories(), LayoutHash: hash}, nil
}

func (s *Server) handleDerive(ctx context.Context, req *mcpsdk.CallToolRequest, input DeriveInput) (*mcpsdk.CallToolResult, DeriveOutput, error) {
	l, hash := s.currentLayout()
	sess := session.New(session.Options{ID: "dry-run", Layout: l, LayoutHash: hash})
	if err := applySelections(sess, l, input.Selections); err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, DeriveOutput{Error: err.Error()}, nil
	}

	d := sess.Preview()
	return nil, DeriveOutput{
		Label:   string(d.Label),
		Rule:    d.Rule,
		Summary: d.Summary,
		Output:  d.Output(),
	}, nil
}

func (s *Server) handleSubmit(ctx context.Context, req *mcpsdk.CallToolRequest, input SubmitInput) (*mcpsdk.CallToolResult, SubmitOutput, error) {
	l, hash := s.currentLayout()
	sess := session.New(session.Options{
		ID:         input.SessionID,
		Layout:     l,
		LayoutHash: hash,
		Sink:       s.sink,
		Audit:      s.auditLog,
		History:    s.history,
		Logger:     s.logger,
	})
	if s.dispatcher != nil {
		sess.OnComplete(s.dispatcher.OnSubmit)
	}
	if err := applySelections(sess, l, input.Selections); err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, SubmitOutput{DeriveOutput: DeriveOutput{Error: err.Error()}}, nil
	}

	res, err := sess.Submit(ctx)
	if err != nil {
		return nil, SubmitOutput{}, fmt.Errorf("submit: %w", err)
	}

	return nil, SubmitOutput{
		DeriveOutput: DeriveOutput{
			Label:   string(res.Decision.Label),
			Rule:    res.Decision.Rule,
			Summary: res.Decision.Summary,
			Output:  res.Output,
		},
		SessionID:    res.SessionID,
		AnnotationID: res.AnnotationID,
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, req *mcpsdk.CallToolRequest, input HistoryInput) (*mcpsdk.CallToolResult, HistoryOutput, error) {
	if s.history == nil {
		return &mcpsdk.CallToolResult{IsError: true}, HistoryOutput{Error: "history is not configured"}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	annotations, err := s.history.List(limit)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	counts, err := s.history.CountByLabel()
	if err != nil {
		return nil, HistoryOutput{}, err
	}

	out := HistoryOutput{
		Annotations: make([]HistoryItem, 0, len(annotations)),
		Counts:      make([]LabelCount, 0, len(counts)),
	}
	for _, a := range annotations {
		out.Annotations = append(out.Annotations, HistoryItem{
			ID:        a.ID,
			SessionID: a.SessionID,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
			Label:     string(a.Label),
			Rule:      a.Rule,
			Summary:   a.Summary,
		})
	}
	for _, c := range counts {
		out.Counts = append(out.Counts, LabelCount{Label: string(c.Label), Count: c.Count})
	}
	return nil, out, nil
}

// applySelections records known categories in layout order, then reports
// categories the layout does not define, sorted by name.
func applySelections(sess *session.Session, l *layout.Layout, selections map[string]string) error {
	var errs []error
	for _, c := range l.Categories() {
		if v, ok := selections[c.Name]; ok {
			if err := sess.Select(c.Name, v); err != nil {
				errs = append(errs, err)
			}
		}
	}
	var unknown []string
	for name := range selections {
		if !l.Has(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, sess.Select(name, selections[name]))
	}
	return errors.Join(errs...)
}
