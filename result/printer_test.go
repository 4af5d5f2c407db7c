package result

import (
	"bytes"
	"testing"
	"time"
)

func TestPrintSummary_NoFailedLinks(t *testing.T) {
	var buf bytes.Buffer
	sum := &Summary{PagesCrawled: 10, ErrorsEncountered: 0, Duration: time.Second}

	PrintSummary(&buf, sum)

	got := buf.String()
	want := "No failed URLs.\nCrawled 10 pages, 0 errors, in 1s\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintSummary_WithFailedLinks(t *testing.T) {
	var buf bytes.Buffer
	sum := &Summary{
		PagesCrawled:      50,
		ErrorsEncountered: 2,
		Duration:          5 * time.Second,
		FailedLinks: []FailedLink{
			{URL: "http://example.com/dead", Error: "http error 404: Not Found", RetryCount: 0},
			{URL: "http://example.com/fail", Error: "network error after retries exhausted: connection refused", RetryCount: 3},
		},
	}

	PrintSummary(&buf, sum)
	got := buf.String()

	if !bytes.Contains([]byte(got), []byte("Failed URLs:")) {
		t.Error("missing 'Failed URLs:' header")
	}
	if !bytes.Contains([]byte(got), []byte("URL: http://example.com/dead")) {
		t.Error("missing first failed link URL")
	}
	if !bytes.Contains([]byte(got), []byte("Error: http error 404: Not Found")) {
		t.Error("missing error for first link")
	}
	if !bytes.Contains([]byte(got), []byte("URL: http://example.com/fail")) {
		t.Error("missing second failed link URL")
	}
	if !bytes.Contains([]byte(got), []byte("Retries: 3")) {
		t.Error("missing retry count for second link")
	}
	if !bytes.Contains([]byte(got), []byte("Crawled 50 pages, 2 errors")) {
		t.Error("missing or incorrect summary line")
	}
}
