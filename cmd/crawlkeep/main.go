// Package main provides the crawlkeep CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/crawlkeep/engine"
	"github.com/lukemcguire/crawlkeep/result"
	"github.com/lukemcguire/crawlkeep/store"
	"github.com/lukemcguire/crawlkeep/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(opts.databaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	sess, err := resumeOrCreateSession(ctx, st, opts)
	if err != nil {
		return err
	}

	cfg := engine.DefaultConfig()
	cfg.UserAgent = opts.userAgent
	cfg.RequestTimeout = opts.timeout
	cfg.RateLimit = opts.rateLimit

	var (
		summary  *result.Summary
		runErr   error
		exitCode int
	)
	switch opts.format {
	case "tui":
		summary, runErr = runTUI(ctx, cancel, cfg, st, sess.ID, opts.seeds)
	case "stdout":
		summary, runErr = runStdout(ctx, cfg, st, sess.ID, opts.seeds)
	default:
		return fmt.Errorf("unknown --format %q (want tui or stdout)", opts.format)
	}
	if runErr != nil {
		return runErr
	}

	if err := writeStructuredOutput(opts, summary); err != nil {
		return err
	}

	if summary != nil && len(summary.FailedLinks) > 0 {
		exitCode = 1
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

// resumeOrCreateSession resumes opts.sessionID if set, otherwise starts
// a fresh session rooted at the first seed.
func resumeOrCreateSession(ctx context.Context, st *store.Store, opts *cliFlags) (*store.Session, error) {
	if opts.sessionID != 0 {
		sess, err := st.GetSession(ctx, opts.sessionID)
		if err != nil {
			return nil, fmt.Errorf("resume session %d: %w", opts.sessionID, err)
		}
		return sess, nil
	}
	sess, err := st.CreateSession(ctx, opts.seeds[0])
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// runTUI drives the engine through the Bubble Tea progress view.
func runTUI(ctx context.Context, cancel context.CancelFunc, cfg engine.Config, st *store.Store, sessionID int64, seeds []string) (*result.Summary, error) {
	progressCh := make(chan engine.CrawlEvent, 64)
	eng := engine.New(cfg, st, progressCh)

	model := tui.NewModel(ctx, cancel, eng, st, sessionID, seeds)
	program := tea.NewProgram(model)

	finalModel, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("run tui: %w", err)
	}

	m := finalModel.(tui.Model)
	return m.GetSummary(), nil
}

// runStdout drives the engine directly, printing one line per crawled
// URL, for scripting and CI use. It shares engine.Engine.Start with the
// TUI driver rather than reimplementing the crawl loop.
func runStdout(ctx context.Context, cfg engine.Config, st *store.Store, sessionID int64, seeds []string) (*result.Summary, error) {
	progressCh := make(chan engine.CrawlEvent, 64)
	eng := engine.New(cfg, st, progressCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range progressCh {
			if evt.Error != "" {
				fmt.Fprintf(os.Stdout, "FAIL %s: %s\n", evt.URL, evt.Error)
				continue
			}
			fmt.Fprintf(os.Stdout, "OK   %d %s\n", evt.StatusCode, evt.URL)
		}
	}()

	started := time.Now()
	runErr := eng.Start(ctx, sessionID, seeds)
	close(progressCh)
	<-done
	if runErr != nil {
		return nil, fmt.Errorf("crawl: %w", runErr)
	}

	sess, err := st.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	failed, err := st.ListFailed(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list failed urls: %w", err)
	}
	summary := result.Build(sess, failed, time.Since(started))
	result.PrintSummary(os.Stdout, summary)
	return summary, nil
}

// writeStructuredOutput writes JSON/CSV output to stdout or a file,
// when requested and a summary was produced.
func writeStructuredOutput(opts *cliFlags, summary *result.Summary) error {
	if summary == nil || (!opts.outputJSON && !opts.outputCSV && opts.outputFile == "") {
		return nil
	}

	w := os.Stdout
	var closeFile func() error
	if opts.outputFile != "" {
		f, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		w = f
		closeFile = f.Close
	}
	defer func() {
		if closeFile != nil {
			if err := closeFile(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing output file: %v\n", err)
			}
		}
	}()

	useJSON := opts.outputJSON || (!opts.outputCSV && opts.outputFile != "")
	if useJSON {
		if err := result.WriteJSON(w, summary); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		return nil
	}
	if err := result.WriteCSV(w, summary); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
