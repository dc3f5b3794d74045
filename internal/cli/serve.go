package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/labelsel/internal/layout"
	lsmcp "github.com/ppiankov/labelsel/internal/mcp"
)

var serveWatch bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Reload the layout file when it changes")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP tool server",
	Long: "Runs labelsel as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes tools: labelsel_layout, labelsel_derive, labelsel_submit, labelsel_history.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	layoutPath := cfg.Layout
	if layoutPath == "" {
		layoutPath = layout.DefaultPath()
	}

	srvCfg := lsmcp.Config{
		LayoutPath: layoutPath,
		OutputPath: cfg.Output,
		Webhooks:   cfg.Webhooks,
		Version:    version,
		Logger:     logger,
	}
	if cfg.Audit.Enabled {
		srvCfg.AuditLogPath = cfg.Audit.Path
	}
	if cfg.History.Enabled {
		srvCfg.HistoryPath = cfg.History.Path
	}

	srv, err := lsmcp.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if serveWatch {
		done, err := startLayoutWatch(ctx, layoutPath, srv.SetLayout)
		if err != nil {
			return err
		}
		defer func() {
			cancel()
			<-done
		}()
	}

	fmt.Fprintln(os.Stderr, "labelsel MCP server running on stdio")
	fmt.Fprintf(os.Stderr, "Label file: %s\n", cfg.Output)
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
