// Package result builds and renders a crawl session's summary: pages
// saved, errors encountered, and the URLs a session gave up on.
package result

import "time"

// FailedLink is one frontier entry a session could not complete.
type FailedLink struct {
	URL           string        `json:"url"`
	RetryCount    int           `json:"retry_count"`
	Error         string        `json:"error,omitempty"`
	ErrorCategory ErrorCategory `json:"error_type,omitempty"`
}

// Summary is the complete outcome of one crawl session.
type Summary struct {
	SessionID         int64         `json:"session_id"`
	StartURL          string        `json:"start_url"`
	Status            string        `json:"status"`
	PagesCrawled      int           `json:"pages_crawled"`
	ErrorsEncountered int           `json:"errors_encountered"`
	Duration          time.Duration `json:"duration"`
	FailedLinks       []FailedLink  `json:"failed_links"`
}
