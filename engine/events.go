package engine

// CrawlEvent reports progress for a single URL processed by the engine,
// generalized from the teacher's per-link progress event to carry the
// session-wide counters a resumable, multi-page crawl needs.
type CrawlEvent struct {
	SessionID         int64
	URL               string
	Host              string
	StatusCode        int
	Error             string
	PagesCrawled      int
	ErrorsEncountered int
}
