package result

import (
	"fmt"
	"io"
)

// PrintSummary writes a plain-text crawl summary to w, for the
// --format=stdout driver.
func PrintSummary(w io.Writer, sum *Summary) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	if len(sum.FailedLinks) == 0 {
		writef("No failed URLs.\n")
	} else {
		writef("Failed URLs:\n")
		for i, link := range sum.FailedLinks {
			writef("  URL: %s\n", link.URL)
			writef("  Error: %s\n", link.Error)
			writef("  Retries: %d\n", link.RetryCount)
			if i < len(sum.FailedLinks)-1 {
				writef("\n")
			}
		}
	}
	writef("Crawled %d pages, %d errors, in %s\n", sum.PagesCrawled, sum.ErrorsEncountered, sum.Duration.Round(1_000_000))
}
