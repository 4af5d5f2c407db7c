// Package tui provides the Bubble Tea terminal UI for crawlkeep,
// displaying live crawl progress and a styled summary of results.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukemcguire/crawlkeep/engine"
	"github.com/lukemcguire/crawlkeep/result"
	"github.com/lukemcguire/crawlkeep/store"
)

// Model is the Bubble Tea model for the crawl TUI. It drives the same
// engine.Engine.Start loop the stdout driver uses (see cmd/crawlkeep);
// the TUI only adds progress rendering around it.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	eng        *engine.Engine
	store      *store.Store
	sessionID  int64
	seeds      []string
	spinner    spinner.Model
	progressCh chan engine.CrawlEvent

	pagesCrawled int
	errors       int
	current      string
	quitting     bool
	done         bool
	summary      *result.Summary
	err          error
	width        int
}

// NewModel creates a TUI model that will crawl seeds through eng,
// starting from sessionID.
func NewModel(ctx context.Context, cancel context.CancelFunc, eng *engine.Engine, st *store.Store, sessionID int64, seeds []string) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		eng:        eng,
		store:      st,
		sessionID:  sessionID,
		seeds:      seeds,
		spinner:    spin,
		progressCh: make(chan engine.CrawlEvent, 64),
	}
}

// Init starts the spinner, crawl, and progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCrawl(), waitForProgress(m.progressCh))
}

// startCrawl returns a tea.Cmd that runs the engine and sends
// CrawlDoneMsg once it returns, closing progressCh so the progress
// listener unsubscribes cleanly.
func (m Model) startCrawl() tea.Cmd {
	return func() tea.Msg {
		started := time.Now()
		runErr := m.eng.Start(m.ctx, m.sessionID, m.seeds)
		close(m.progressCh)
		if runErr != nil {
			return CrawlDoneMsg{Err: fmt.Errorf("crawl: %w", runErr)}
		}

		sess, err := m.store.GetSession(m.ctx, m.sessionID)
		if err != nil {
			return CrawlDoneMsg{Err: fmt.Errorf("load session: %w", err)}
		}
		failed, err := m.store.ListFailed(m.ctx, m.sessionID)
		if err != nil {
			return CrawlDoneMsg{Err: fmt.Errorf("list failed urls: %w", err)}
		}
		return CrawlDoneMsg{Summary: result.Build(sess, failed, time.Since(started))}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case CrawlProgressMsg:
		m.pagesCrawled = msg.PagesCrawled
		m.errors = msg.ErrorsEncountered
		m.current = msg.URL
		return m, waitForProgress(m.progressCh)

	case CrawlDoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.summary != nil {
		return RenderSummary(m.summary)
	}
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	return fmt.Sprintf("%s Crawling... pages %d, errors %d\n%s\n",
		m.spinner.View(), m.pagesCrawled, m.errors,
		dimStyle.Render("  "+m.current))
}

// HasFailures reports whether the crawl ended with any failed URLs.
func (m Model) HasFailures() bool {
	return m.summary != nil && len(m.summary.FailedLinks) > 0
}

// GetSummary returns the crawl summary for output formatting.
func (m Model) GetSummary() *result.Summary {
	return m.summary
}
