package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/labelsel/internal/audit"
	"github.com/ppiankov/labelsel/internal/layout"
	"github.com/ppiankov/labelsel/internal/notify"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		LayoutPath:   filepath.Join(dir, "layout.yaml"),
		OutputPath:   filepath.Join(dir, "selected_label.txt"),
		AuditLogPath: filepath.Join(dir, "audit.jsonl"),
		HistoryPath:  filepath.Join(dir, "history.db"),
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func TestLayoutTool(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleLayout(context.Background(), &mcpsdk.CallToolRequest{}, LayoutInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Categories) != 7 {
		t.Fatalf("expected 7 categories, got %d", len(out.Categories))
	}
	if out.Categories[0].Name != "Customer Movement" {
		t.Errorf("expected Customer Movement first, got %q", out.Categories[0].Name)
	}
	if !strings.HasPrefix(out.LayoutHash, "sha256:") {
		t.Errorf("expected sha256 hash, got %q", out.LayoutHash)
	}
}

func TestDeriveDryRun(t *testing.T) {
	s, dir := newTestServer(t)

	result, out, err := s.handleDerive(context.Background(), &mcpsdk.CallToolRequest{}, DeriveInput{
		Selections: map[string]string{
			"Customer Movement":      "Standing",
			"Customer Location":      "Mirror",
			"Customer Gaze":          "Mirror",
			"Customer Arm Movements": "Holding",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatalf("expected success, got error %q", out.Error)
	}
	if out.Label != "Holding" {
		t.Fatalf("expected Holding, got %q", out.Label)
	}
	if out.Rule != "standing.colocated.mirror.holding" {
		t.Errorf("unexpected rule %q", out.Rule)
	}
	want := "decision: [Customer Movement: Standing, Customer Location: Mirror, Customer Gaze: Mirror, Customer Arm Movements: Holding], label: [Holding]"
	if out.Output != want {
		t.Errorf("expected %q, got %q", want, out.Output)
	}

	if _, err := os.Stat(filepath.Join(dir, "selected_label.txt")); !os.IsNotExist(err) {
		t.Error("dry run must not write the label file")
	}
}

func TestDeriveRejectsOutOfDomain(t *testing.T) {
	s, _ := newTestServer(t)

	result, out, err := s.handleDerive(context.Background(), &mcpsdk.CallToolRequest{}, DeriveInput{
		Selections: map[string]string{"Customer Movement": "Running", "Customer Mood": "Happy"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result")
	}
	if !strings.Contains(out.Error, `"Running" is not a value of "Customer Movement"`) {
		t.Errorf("missing value error: %q", out.Error)
	}
	if !strings.Contains(out.Error, `unknown category "Customer Mood"`) {
		t.Errorf("missing category error: %q", out.Error)
	}
}

func TestUnknownCategoryErrorsAreSorted(t *testing.T) {
	s, _ := newTestServer(t)
	input := DeriveInput{Selections: map[string]string{
		"Customer Zone":  "B",
		"Customer Mood":  "Happy",
		"Customer Brand": "X",
		"Customer Aura":  "Blue",
	}}

	want := strings.Join([]string{
		`unknown category "Customer Aura"`,
		`unknown category "Customer Brand"`,
		`unknown category "Customer Mood"`,
		`unknown category "Customer Zone"`,
	}, "\n")
	for i := 0; i < 20; i++ {
		_, out, err := s.handleDerive(context.Background(), &mcpsdk.CallToolRequest{}, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.Error, want) {
			t.Fatalf("call %d: expected sorted errors %q, got %q", i, want, out.Error)
		}
	}
}

func TestSubmitPersists(t *testing.T) {
	s, dir := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleSubmit(ctx, &mcpsdk.CallToolRequest{}, SubmitInput{
		Selections: map[string]string{"Customer Movement": "Walking", "Customer Sex": "Male"},
		SessionID:  "s-mcp",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatalf("expected success, got %q", out.Error)
	}
	if out.Label != "Browsing" {
		t.Fatalf("expected Browsing, got %q", out.Label)
	}
	if out.SessionID != "s-mcp" {
		t.Errorf("expected session s-mcp, got %q", out.SessionID)
	}
	if out.AnnotationID == "" {
		t.Error("expected annotation ID")
	}

	data, err := os.ReadFile(filepath.Join(dir, "selected_label.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "decision: [Customer Movement: Walking, Customer Sex: Male], label: [Browsing]" {
		t.Errorf("unexpected label file %q", data)
	}

	r, err := audit.Replay(filepath.Join(dir, "audit.jsonl"), audit.ReplayFilter{SessionID: "s-mcp"})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(r.Entries))
	}

	_, hist, err := s.handleHistory(ctx, &mcpsdk.CallToolRequest{}, HistoryInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hist.Annotations) != 1 || hist.Annotations[0].ID != out.AnnotationID {
		t.Fatalf("expected submitted annotation in history, got %+v", hist.Annotations)
	}
	if len(hist.Counts) != 1 || hist.Counts[0].Label != "Browsing" || hist.Counts[0].Count != 1 {
		t.Errorf("unexpected counts %+v", hist.Counts)
	}
}

func TestSubmitRejectedWritesNothing(t *testing.T) {
	s, dir := newTestServer(t)

	result, _, err := s.handleSubmit(context.Background(), &mcpsdk.CallToolRequest{}, SubmitInput{
		Selections: map[string]string{"Customer Age": "Teen"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result")
	}
	if _, err := os.Stat(filepath.Join(dir, "selected_label.txt")); !os.IsNotExist(err) {
		t.Error("rejected submit must not write the label file")
	}
}

func TestHistoryNotConfigured(t *testing.T) {
	s, err := New(Config{LayoutPath: filepath.Join(t.TempDir(), "layout.yaml")})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	result, out, err := s.handleHistory(context.Background(), &mcpsdk.CallToolRequest{}, HistoryInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError || out.Error == "" {
		t.Fatal("expected error result when history is disabled")
	}
}

func TestSetLayout(t *testing.T) {
	s, _ := newTestServer(t)

	l, err := layout.Parse([]byte("categories:\n  - name: Customer Movement\n    actions: [Walking, Standing, Running]\n"))
	if err != nil {
		t.Fatal(err)
	}
	s.SetLayout(l, "sha256:custom")

	result, out, err := s.handleDerive(context.Background(), &mcpsdk.CallToolRequest{}, DeriveInput{
		Selections: map[string]string{"Customer Movement": "Running"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatalf("expected Running accepted after reload, got %q", out.Error)
	}
	if out.Label != "Idle" {
		t.Errorf("expected Idle, got %q", out.Label)
	}

	_, lo, _ := s.handleLayout(context.Background(), &mcpsdk.CallToolRequest{}, LayoutInput{})
	if lo.LayoutHash != "sha256:custom" {
		t.Errorf("expected new hash, got %q", lo.LayoutHash)
	}
}

func TestInvalidLayoutFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  - name: \"\"\n    actions: [A]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{LayoutPath: path}); err == nil {
		t.Fatal("expected error for invalid layout")
	}
}

func TestToolRegistration(t *testing.T) {
	s, _ := newTestServer(t)
	if s.mcpServer == nil {
		t.Fatal("expected MCP server to be initialized")
	}
}

func TestSubmitNotifiesWebhook(t *testing.T) {
	received := make(chan notify.Event, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var ev notify.Event
		json.Unmarshal(data, &ev)
		received <- ev
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	dir := t.TempDir()
	s, err := New(Config{
		LayoutPath: filepath.Join(dir, "layout.yaml"),
		OutputPath: filepath.Join(dir, "selected_label.txt"),
		Webhooks:   []notify.WebhookConfig{{URL: hook.URL, Labels: []string{"Looking"}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = s.handleSubmit(context.Background(), &mcpsdk.CallToolRequest{}, SubmitInput{
		Selections: map[string]string{"Customer Movement": "Standing", "Customer Location": "Shelf", "Customer Gaze": "Shelf"},
		SessionID:  "s-hook",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-received:
		if ev.Label != "Looking" || ev.SessionID != "s-hook" {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected webhook delivery before Close returned")
	}
}
