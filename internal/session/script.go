package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoSubmit is returned by Script.Run when input ends or "quit" is read
// before a submission.
var ErrNoSubmit = errors.New("input ended without submit")

const scriptHelp = `commands:
  set <Category>=<Value>   record a value (replaces the previous one)
  reset                    clear all selections
  show                     print the current selections
  preview                  print the label the current selections would produce
  layout                   list categories and values
  submit                   derive, write the label and finish
  quit                     finish without submitting
`

// Script drives a session from a line-oriented command stream.
// Blank lines and lines starting with '#' are ignored.
type Script struct {
	Session *Session
	Out     io.Writer
	// Strict stops at the first rejected command instead of reporting and
	// continuing.
	Strict bool
	// Prompt is written before each line when non-empty.
	Prompt string
}

// Run reads commands until submit, quit or end of input. Cancelling ctx
// returns ctx.Err() even while a read is blocked; the blocked read itself
// finishes in the background when r yields a line or closes.
func (sc *Script) Run(ctx context.Context, r io.Reader) (Result, error) {
	out := sc.Out
	if out == nil {
		out = io.Discard
	}

	lines, readErr, stop := readLines(r)
	defer close(stop)

	lineNum := 0
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if sc.Prompt != "" {
			fmt.Fprint(out, sc.Prompt)
		}

		var raw string
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return Result{}, fmt.Errorf("read commands: %w", err)
				}
				return Result{}, ErrNoSubmit
			}
			raw = l
		}
		lineNum++

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "set":
			category, value, ok := strings.Cut(arg, "=")
			if !ok {
				if err := sc.reject(out, lineNum, fmt.Errorf("expected set <Category>=<Value>, got %q", line)); err != nil {
					return Result{}, err
				}
				continue
			}
			if err := sc.Session.Select(strings.TrimSpace(category), strings.TrimSpace(value)); err != nil {
				if err := sc.reject(out, lineNum, err); err != nil {
					return Result{}, err
				}
				continue
			}
			fmt.Fprintf(out, "selected: %s\n", sc.Session.Summary())

		case "reset":
			sc.Session.Reset()
			fmt.Fprintln(out, "selections cleared")

		case "show":
			fmt.Fprintf(out, "selected: %s\n", sc.Session.Summary())

		case "preview":
			d := sc.Session.Preview()
			fmt.Fprintf(out, "%s (rule %s)\n", d.Output(), d.Rule)

		case "layout":
			for _, c := range sc.Session.Layout().Categories() {
				fmt.Fprintf(out, "%s [%s]: %s\n", c.Name, c.Group, strings.Join(c.Actions, ", "))
			}

		case "help", "?":
			fmt.Fprint(out, scriptHelp)

		case "submit":
			res, err := sc.Session.Submit(ctx)
			if err != nil {
				return Result{}, err
			}
			fmt.Fprintln(out, res.Output)
			return res, nil

		case "quit", "exit":
			return Result{}, ErrNoSubmit

		default:
			if err := sc.reject(out, lineNum, fmt.Errorf("unknown command %q", cmd)); err != nil {
				return Result{}, err
			}
		}
	}
}

// readLines scans r on its own goroutine. lines is closed at end of input,
// after the scanner error (possibly nil) has been sent on errc. Closing stop
// makes the goroutine exit once its pending read returns.
func readLines(r io.Reader) (lines <-chan string, errc <-chan error, stop chan struct{}) {
	lc := make(chan string)
	ec := make(chan error, 1)
	stop = make(chan struct{})
	go func() {
		defer close(lc)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lc <- scanner.Text():
			case <-stop:
				return
			}
		}
		ec <- scanner.Err()
	}()
	return lc, ec, stop
}

func (sc *Script) reject(out io.Writer, lineNum int, err error) error {
	if sc.Strict {
		return fmt.Errorf("line %d: %w", lineNum, err)
	}
	fmt.Fprintf(out, "error: %v\n", err)
	return nil
}
