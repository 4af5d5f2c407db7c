// Package fetch drives a single bounded-counter state machine per call:
// redirects and retries are capped, backoff doubles on every retry, and
// every terminal HTTP or network outcome is one of the typed errors in
// errors.go. Context cancellation during a backoff sleep, an unresolvable
// Location header, and a failed body read are returned as plain errors. The
// http.Client is configured to never auto-follow redirects — the state
// machine inspects Location itself so redirect and retry counters stay
// in lockstep.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lukemcguire/crawlkeep/urlutil"
)

const (
	initialRedirects = 5
	initialRetries   = 3
	initialBackoff   = 500 * time.Millisecond
)

// Result is a successful fetch: the 200 response body plus provenance.
type Result struct {
	URL               string
	FinalURL          string
	StatusCode        int
	ContentType       string
	HTMLContent       []byte
	FetchedDurationMs int64
	FetchedAt         time.Time
}

// Fetcher performs bounded, retrying HTTP fetches with a fixed identity.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// New returns a Fetcher with the given user agent and per-request
// timeout. Redirects are never followed by the client itself.
func New(userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		UserAgent: userAgent,
	}
}

// Fetch retrieves rawURL, following redirects and retrying transient
// failures per the bounded state machine described in the package doc.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	currentURL := rawURL
	redirectsRemaining := initialRedirects
	retriesRemaining := initialRetries
	backoff := initialBackoff

	for {
		start := time.Now()
		resp, err := f.do(ctx, currentURL)
		if err != nil {
			if retriesRemaining <= 0 {
				return nil, &NetworkError{Err: err}
			}
			retriesRemaining--
			if werr := wait(ctx, backoff); werr != nil {
				return nil, werr
			}
			backoff *= 2
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return f.readSuccess(resp, rawURL, currentURL, start)

		case resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound:
			next, rerr := resolveLocation(currentURL, resp)
			closeBody(resp)
			if rerr != nil {
				return nil, rerr
			}
			if redirectsRemaining <= 0 {
				return nil, &TooManyRedirectsError{URL: rawURL}
			}
			redirectsRemaining--
			retriesRemaining = initialRetries
			currentURL = next
			continue

		case resp.StatusCode == http.StatusInternalServerError || resp.StatusCode == http.StatusServiceUnavailable:
			closeBody(resp)
			if retriesRemaining <= 0 {
				return nil, &ServerError{Status: resp.StatusCode}
			}
			retriesRemaining--
			if werr := wait(ctx, backoff); werr != nil {
				return nil, werr
			}
			backoff *= 2
			continue

		default:
			reason := resp.Status
			closeBody(resp)
			return nil, &HTTPError{Status: resp.StatusCode, Reason: reason}
		}
	}
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	return f.Client.Do(req)
}

func (f *Fetcher) readSuccess(resp *http.Response, originalURL, finalURL string, start time.Time) (*Result, error) {
	defer closeBody(resp)

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, &NotHTMLError{ContentType: contentType}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", finalURL, err)
	}

	return &Result{
		URL:               originalURL,
		FinalURL:          finalURL,
		StatusCode:        resp.StatusCode,
		ContentType:       contentType,
		HTMLContent:       body,
		FetchedDurationMs: time.Since(start).Milliseconds(),
		FetchedAt:         time.Now(),
	}, nil
}

func resolveLocation(currentURL string, resp *http.Response) (string, error) {
	location := resp.Header.Get("Location")
	if location == "" {
		return "", &HTTPError{Status: resp.StatusCode, Reason: "redirect missing Location header"}
	}
	resolved, err := urlutil.ResolveReference(currentURL, location)
	if err != nil {
		return "", fmt.Errorf("resolve redirect location %q: %w", location, err)
	}
	return resolved, nil
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}
}
