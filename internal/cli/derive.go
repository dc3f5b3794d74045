package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/labelsel/internal/layout"
	"github.com/ppiankov/labelsel/internal/notify"
	"github.com/ppiankov/labelsel/internal/session"
	"github.com/ppiankov/labelsel/internal/sink"
)

var (
	deriveSets      []string
	deriveWrite     bool
	deriveFormat    string
	deriveSessionID string
)

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().StringArrayVar(&deriveSets, "set", nil, "Selection as Category=Value (repeatable, later values replace earlier ones)")
	deriveCmd.Flags().BoolVar(&deriveWrite, "write", false, "Record the label (label file, audit log, history)")
	deriveCmd.Flags().StringVarP(&deriveFormat, "format", "f", "text", "Output format (text|json)")
	deriveCmd.Flags().StringVar(&deriveSessionID, "session-id", "", "Session identifier recorded with --write (generated when empty)")
}

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive a label from selections given as flags",
	Long: "Evaluates the decision rule for the --set selections and prints the result.\n" +
		"Without --write nothing is recorded.\n\n" +
		"Example:\n" +
		"  labelsel derive --set 'Customer Movement=Standing' --set 'Customer Gaze=Mirror'",
	Args: cobra.NoArgs,
	RunE: runDerive,
}

type deriveOutput struct {
	Label        string `json:"label"`
	Rule         string `json:"rule"`
	Summary      string `json:"summary"`
	Output       string `json:"output"`
	SessionID    string `json:"session_id,omitempty"`
	AnnotationID string `json:"annotation_id,omitempty"`
}

func runDerive(cmd *cobra.Command, args []string) error {
	l, hash, err := layout.LoadWithHash(cfg.Layout)
	if err != nil {
		return err
	}

	opts := session.Options{
		ID:         deriveSessionID,
		Layout:     l,
		LayoutHash: hash,
		Logger:     logger,
	}
	if deriveWrite {
		alog, hist, closeStores, err := openStores()
		if err != nil {
			return err
		}
		defer closeStores()
		opts.Sink = sink.NewFileSink(cfg.Output)
		opts.Audit = alog
		opts.History = hist
	}
	sess := session.New(opts)
	if deriveWrite {
		if d := notify.NewDispatcher(cfg.Webhooks, logger); d != nil {
			sess.OnComplete(d.OnSubmit)
			defer d.Wait()
		}
	}

	for _, set := range deriveSets {
		category, value, ok := strings.Cut(set, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: expected Category=Value", set)
		}
		if err := sess.Select(strings.TrimSpace(category), strings.TrimSpace(value)); err != nil {
			return err
		}
	}

	var out deriveOutput
	if deriveWrite {
		res, err := sess.Submit(cmd.Context())
		if err != nil {
			return err
		}
		out = deriveOutput{
			Label:        string(res.Decision.Label),
			Rule:         res.Decision.Rule,
			Summary:      res.Decision.Summary,
			Output:       res.Output,
			SessionID:    res.SessionID,
			AnnotationID: res.AnnotationID,
		}
	} else {
		d := sess.Preview()
		out = deriveOutput{
			Label:   string(d.Label),
			Rule:    d.Rule,
			Summary: d.Summary,
			Output:  d.Output(),
		}
	}

	switch deriveFormat {
	case "json":
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	default:
		fmt.Fprintln(cmd.OutOrStdout(), out.Output)
	}
	return nil
}
