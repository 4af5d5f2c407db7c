package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/crawlkeep/engine"
	"github.com/lukemcguire/crawlkeep/result"
)

// CrawlProgressMsg reports progress for a single URL processed by the engine.
type CrawlProgressMsg struct {
	URL               string
	Host              string
	StatusCode        int
	Error             string
	PagesCrawled      int
	ErrorsEncountered int
}

// CrawlDoneMsg signals the crawl has completed, either because the
// frontier drained or the engine returned an error. Summary is nil
// when Err is set to something other than a clean drain.
type CrawlDoneMsg struct {
	Summary *result.Summary
	Err     error
}

// waitForProgress returns a tea.Cmd that reads one event from the
// engine's progress channel. A closed channel yields a nil message,
// which ends the subscription; the crawl's outcome (summary or error)
// comes from startCrawl's own CrawlDoneMsg.
func waitForProgress(ch <-chan engine.CrawlEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return CrawlProgressMsg{
			URL:               evt.URL,
			Host:              evt.Host,
			StatusCode:        evt.StatusCode,
			Error:             evt.Error,
			PagesCrawled:      evt.PagesCrawled,
			ErrorsEncountered: evt.ErrorsEncountered,
		}
	}
}
