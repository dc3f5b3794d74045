package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/labelsel/internal/history"
)

var (
	historyLimit  int
	historyFormat string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.PersistentFlags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text|json)")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of annotations to show (0 for all)")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Annotation history operations",
	Long:  "Commands for inspecting annotations stored in the history database.",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent annotations, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count annotations per label",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

func openHistory() (*history.Store, error) {
	if cfg.History.Path == "" {
		return nil, fmt.Errorf("history path is not configured")
	}
	return history.NewStore(cfg.History.Path)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	annotations, err := store.List(historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyFormat == "json" {
		if annotations == nil {
			annotations = []history.Annotation{}
		}
		data, err := json.MarshalIndent(annotations, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(annotations) == 0 {
		fmt.Fprintln(out, "No annotations recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tLABEL\tSESSION\tSUMMARY")
	for _, a := range annotations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Label, a.SessionID, a.Summary)
	}
	return w.Flush()
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.CountByLabel()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyFormat == "json" {
		if counts == nil {
			counts = []history.LabelCount{}
		}
		data, err := json.MarshalIndent(counts, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	total := 0
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tCOUNT")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.Label, c.Count)
		total += c.Count
	}
	fmt.Fprintf(w, "TOTAL\t%d\n", total)
	return w.Flush()
}
