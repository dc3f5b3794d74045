package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/labelsel/internal/layout"
)

var layoutFormat string

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().StringVarP(&layoutFormat, "format", "f", "text", "Output format (text|yaml|json)")
}

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the effective layout",
	Long:  "Loads the layout (built-in defaults when no file exists) and prints its\ncategories, values and hash.",
	Args:  cobra.NoArgs,
	RunE:  runLayout,
}

type layoutDoc struct {
	Hash       string                `yaml:"hash" json:"hash"`
	Categories []layout.CategorySpec `yaml:"categories" json:"categories"`
}

func runLayout(cmd *cobra.Command, args []string) error {
	l, hash, err := layout.LoadWithHash(cfg.Layout)
	if err != nil {
		return err
	}
	doc := layoutDoc{Hash: hash, Categories: l.Categories()}
	out := cmd.OutOrStdout()

	switch layoutFormat {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal layout: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal layout: %w", err)
		}
		fmt.Fprint(out, string(data))
	default:
		fmt.Fprintf(out, "Layout %s\n\n", hash)
		for _, g := range []layout.Group{layout.GroupAction, layout.GroupMetadata} {
			fmt.Fprintf(out, "%s:\n", strings.ToUpper(string(g)))
			for _, c := range l.Group(g) {
				fmt.Fprintf(out, "  %-24s %s\n", c.Name, strings.Join(c.Actions, ", "))
			}
		}
	}
	return nil
}
