package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/labelsel/internal/audit"
	"github.com/ppiankov/labelsel/internal/history"
	"github.com/ppiankov/labelsel/internal/logging"
	"github.com/ppiankov/labelsel/internal/settings"
	"github.com/ppiankov/labelsel/internal/sink"
)

var (
	configPath string
	verbose    bool

	cfg    *settings.Settings
	logger = zap.NewNop()
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to settings YAML (default ~/.labelsel/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (console|json)")
	pf.String("layout", "", "Path to layout YAML (default ~/.labelsel/layout.yaml)")
	pf.StringP("output", "o", "", "Path of the label file (default "+sink.DefaultPath+")")
	pf.String("audit-log", "", "Path to audit log JSONL file")
	pf.String("history-db", "", "Path to history database")
}

var rootCmd = &cobra.Command{
	Use:   "labelsel",
	Short: "Customer behaviour annotation tool",
	Long: "Records what an annotator observed about a shopper (movement, location, gaze,\n" +
		"arm movement and demographics) and derives a single behaviour label from it.\n" +
		"The label is written to a well-known file for downstream tooling.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = s

		l, err := logging.New(s.Log.Level, s.Log.Format, verbose)
		if err != nil {
			return err
		}
		logger = l
		logger.Debug("settings loaded",
			zap.String("layout", s.Layout),
			zap.String("output", s.Output),
			zap.Bool("audit", s.Audit.Enabled),
			zap.Bool("history", s.History.Enabled))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStores opens the audit log and history store enabled in settings.
// The returned close function is always non-nil.
func openStores() (*audit.Log, *history.Store, func(), error) {
	var (
		alog *audit.Log
		hist *history.Store
		err  error
	)
	closeAll := func() {
		if alog != nil {
			alog.Close()
		}
		if hist != nil {
			hist.Close()
		}
	}

	if cfg.Audit.Enabled {
		alog, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			return nil, nil, func() {}, fmt.Errorf("failed to open audit log: %w", err)
		}
	}
	if cfg.History.Enabled {
		hist, err = history.NewStore(cfg.History.Path)
		if err != nil {
			closeAll()
			return nil, nil, func() {}, fmt.Errorf("failed to open history: %w", err)
		}
	}
	return alog, hist, closeAll, nil
}
