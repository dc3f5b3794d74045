package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ppiankov/labelsel/internal/audit"
	"github.com/ppiankov/labelsel/internal/history"
	"github.com/ppiankov/labelsel/internal/layout"
	"github.com/ppiankov/labelsel/internal/notify"
	"github.com/ppiankov/labelsel/internal/sink"
)

// Config holds MCP server configuration. Empty paths disable the
// corresponding store; an empty OutputPath disables the label file.
type Config struct {
	LayoutPath   string
	OutputPath   string
	AuditLogPath string
	HistoryPath  string
	Webhooks     []notify.WebhookConfig
	Version      string
	Logger       *zap.Logger
}

// Server exposes label derivation and submission as MCP tools.
type Server struct {
	mcpServer  *mcpsdk.Server
	sink       sink.Sink
	auditLog   *audit.Log
	history    *history.Store
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	mu         sync.Mutex
	layout     *layout.Layout
	layoutHash string
}

// New creates an MCP server with the loaded layout, stores and tools.
func New(cfg Config) (*Server, error) {
	l, hash, err := layout.LoadWithHash(cfg.LayoutPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		layout:     l,
		layoutHash: hash,
		logger:     logger.Named("mcp"),
	}
	s.dispatcher = notify.NewDispatcher(cfg.Webhooks, s.logger)
	if cfg.OutputPath != "" {
		s.sink = sink.NewFileSink(cfg.OutputPath)
	}

	if cfg.AuditLogPath != "" {
		s.auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	if cfg.HistoryPath != "" {
		s.history, err = history.NewStore(cfg.HistoryPath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "labelsel",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// SetLayout replaces the layout used by subsequent tool calls.
func (s *Server) SetLayout(l *layout.Layout, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = l
	s.layoutHash = hash
	s.logger.Info("layout reloaded", zap.String("layout_hash", hash))
}

func (s *Server) currentLayout() (*layout.Layout, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout, s.layoutHash
}

// Close waits for pending webhook deliveries, then closes the audit log
// and history store if configured.
func (s *Server) Close() error {
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	var firstErr error
	if s.auditLog != nil {
		if err := s.auditLog.Close(); err != nil {
			firstErr = err
		}
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// registerTools adds all labelsel tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "labelsel_layout",
		Description: "List the observation categories and the values each one accepts.",
	}, s.handleLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "labelsel_derive",
		Description: "Derive the behaviour label for a set of category selections without recording anything (dry-run).",
	}, s.handleDerive)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "labelsel_submit",
		Description: "Derive the behaviour label for a set of category selections and record it (label file, audit log, history).",
	}, s.handleSubmit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "labelsel_history",
		Description: "List recently submitted annotations, newest first, with per-label counts.",
	}, s.handleHistory)
}
