package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/labelsel/internal/layout"
	"github.com/ppiankov/labelsel/internal/notify"
	"github.com/ppiankov/labelsel/internal/session"
	"github.com/ppiankov/labelsel/internal/sink"
)

var (
	runScript    string
	runWatch     bool
	runStrict    bool
	runSessionID string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runScript, "script", "s", "", "Read commands from file instead of stdin (- for stdin)")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Reload the layout file when it changes")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Stop at the first rejected command")
	runCmd.Flags().StringVar(&runSessionID, "session-id", "", "Session identifier recorded with the submission (generated when empty)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one annotation session",
	Long: "Reads selection commands, one per line, until submit:\n\n" +
		"  set <Category>=<Value>   record a value\n" +
		"  reset | show | preview | layout | help | submit | quit\n\n" +
		"On submit the derived label is written to the label file, appended to\n" +
		"the audit log and stored in history, then the command exits.",
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	layoutPath := cfg.Layout
	if layoutPath == "" {
		layoutPath = layout.DefaultPath()
	}
	l, hash, err := layout.LoadWithHash(layoutPath)
	if err != nil {
		return err
	}

	alog, hist, closeStores, err := openStores()
	if err != nil {
		return err
	}
	defer closeStores()

	sess := session.New(session.Options{
		ID:         runSessionID,
		Layout:     l,
		LayoutHash: hash,
		Sink:       sink.NewFileSink(cfg.Output),
		Audit:      alog,
		History:    hist,
		Logger:     logger,
	})
	sess.OnComplete(func(r session.Result) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Label %s written to %s\n", r.Decision.Label, cfg.Output)
	})
	if d := notify.NewDispatcher(cfg.Webhooks, logger); d != nil {
		sess.OnComplete(d.OnSubmit)
		defer d.Wait()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runWatch {
		watchCtx, cancelWatch := context.WithCancel(ctx)
		done, err := startLayoutWatch(watchCtx, layoutPath, sess.SetLayout)
		if err != nil {
			cancelWatch()
			return err
		}
		defer func() {
			cancelWatch()
			<-done
		}()
	}

	var in io.Reader = cmd.InOrStdin()
	prompt := ""
	switch runScript {
	case "":
		prompt = "> "
	case "-":
	default:
		f, err := os.Open(runScript)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	logger.Info("session started",
		zap.String("session_id", sess.ID()),
		zap.String("layout_hash", hash))

	sc := &session.Script{
		Session: sess,
		Out:     cmd.OutOrStdout(),
		Strict:  runStrict,
		Prompt:  prompt,
	}
	if _, err := sc.Run(ctx, in); err != nil {
		if errors.Is(err, session.ErrNoSubmit) {
			fmt.Fprintln(cmd.ErrOrStderr(), "No label submitted")
			return nil
		}
		return err
	}
	return nil
}

// startLayoutWatch runs a layout watcher until ctx is cancelled. The
// returned channel closes when the watcher has stopped.
func startLayoutWatch(ctx context.Context, path string, onReload layout.ReloadFunc) (<-chan struct{}, error) {
	w, err := layout.NewWatcher(path, onReload, logger)
	if err != nil {
		return nil, fmt.Errorf("watch layout: %w", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			logger.Warn("layout watcher stopped", zap.Error(err))
		}
	}()
	return done, nil
}
