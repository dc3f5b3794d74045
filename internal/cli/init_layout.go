package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/labelsel/internal/layout"
)

var (
	initLayoutPath  string
	initLayoutForce bool
)

func init() {
	rootCmd.AddCommand(initLayoutCmd)
	initLayoutCmd.Flags().StringVar(&initLayoutPath, "path", "", "Where to write the layout (default ~/.labelsel/layout.yaml)")
	initLayoutCmd.Flags().BoolVar(&initLayoutForce, "force", false, "Overwrite an existing layout")
}

var initLayoutCmd = &cobra.Command{
	Use:   "init-layout",
	Short: "Generate default layout.yaml with comments",
	Long:  "Creates ~/.labelsel/layout.yaml with the default categories and buttons.\nEdit this file to change what annotators can select.",
	RunE:  runInitLayout,
}

func runInitLayout(cmd *cobra.Command, args []string) error {
	path := initLayoutPath
	if path == "" {
		path = layout.DefaultPath()
		if path == "" {
			return fmt.Errorf("cannot determine home directory")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil && !initLayoutForce {
		return fmt.Errorf("layout already exists at %s (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(layout.DefaultYAML()), 0644); err != nil {
		return fmt.Errorf("failed to write layout: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
