package result

import (
	"time"

	"github.com/lukemcguire/crawlkeep/store"
)

// Build assembles a Summary from a session's final state, its failed
// frontier entries, and the wall-clock duration the run took.
func Build(sess *store.Session, failed []store.FailedURL, duration time.Duration) *Summary {
	links := make([]FailedLink, 0, len(failed))
	for _, f := range failed {
		links = append(links, FailedLink{
			URL:           f.URL,
			RetryCount:    f.RetryCount,
			Error:         f.LastError,
			ErrorCategory: ClassifyError(f.LastError),
		})
	}

	return &Summary{
		SessionID:         sess.ID,
		StartURL:          sess.StartURL,
		Status:            string(sess.Status),
		PagesCrawled:      sess.PagesCrawled,
		ErrorsEncountered: sess.ErrorsEncountered,
		Duration:          duration,
		FailedLinks:       links,
	}
}
