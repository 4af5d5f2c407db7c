// Package politeness enforces per-host crawl-delay scheduling and
// robots.txt acquisition/caching, plus an advisory session-wide rate
// limit. It owns no persistence; callers that need robots.txt to
// survive a restart persist the raw text themselves.
package politeness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lukemcguire/crawlkeep/robots"
)

// Scheduler keeps the politeness state a crawl session needs per host:
// the last time a fetch was dispatched, the crawl-delay to honor before
// the next one, and the parsed Robot governing allow/deny decisions.
type Scheduler struct {
	mu        sync.Mutex
	lastFetch map[string]time.Time
	delay     map[string]time.Duration
	robotsMap map[string]*robots.Robot

	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// New returns a Scheduler with an advisory global rate limit of
// ratePerSecond requests/second (0 disables the advisory limit, relying
// on crawl-delay alone).
func New(userAgent string, ratePerSecond float64, robotsTimeout time.Duration) *Scheduler {
	s := &Scheduler{
		lastFetch: make(map[string]time.Time),
		delay:     make(map[string]time.Duration),
		robotsMap: make(map[string]*robots.Robot),
		client:    &http.Client{Timeout: robotsTimeout},
		userAgent: userAgent,
	}
	if ratePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)+1)
	}
	return s
}

// HasRobots reports whether host's robots.txt has already been acquired.
func (s *Scheduler) HasRobots(host string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.robotsMap[host]
	return ok
}

// EnsureRobots acquires and caches host's robots.txt if not already
// cached, per spec.md §4.E's status-code handling. rawText is the
// fetched body on a 200 (empty otherwise), returned so the caller can
// persist it; ok reports whether a fetch was actually performed (false
// means the host was already cached, and rawText is meaningless).
func (s *Scheduler) EnsureRobots(ctx context.Context, scheme, host string) (rawText string, ok bool, err error) {
	if s.HasRobots(host) {
		return "", false, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return "", true, fmt.Errorf("build robots.txt request for %s: %w", host, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.installRobots(host, robots.Permissive())
		return "", true, nil
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			s.installRobots(host, robots.Permissive())
			return "", true, nil
		}
		robot := robots.Parse(body)
		s.installRobots(host, robot)
		if delay, ok := robot.CrawlDelay(s.userAgent); ok {
			s.mu.Lock()
			s.delay[host] = delay
			s.mu.Unlock()
		}
		return string(body), true, nil

	case http.StatusNotFound:
		s.installRobots(host, robots.Permissive())
		return "", true, nil

	case http.StatusForbidden:
		s.installRobots(host, robots.Forbidden())
		return "", true, nil

	default:
		s.installRobots(host, robots.Permissive())
		return "", true, nil
	}
}

func (s *Scheduler) installRobots(host string, robot *robots.Robot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.robotsMap[host] = robot
}

// Allowed reports whether path is allowed on host for userAgent. A host
// with no cached Robot is treated as permissive.
func (s *Scheduler) Allowed(host, path, userAgent string) bool {
	s.mu.Lock()
	robot, ok := s.robotsMap[host]
	s.mu.Unlock()
	if !ok {
		return true
	}
	return robot.Allowed(path, userAgent)
}

// WaitBeforeFetch sleeps, if necessary, until host's crawl-delay has
// elapsed since its last dispatched fetch, then blocks on the advisory
// global rate limiter. Callers must call MarkFetched(host) immediately
// after dispatching, not after the fetch completes, so delay is
// measured between dispatches rather than skewed by response latency.
func (s *Scheduler) WaitBeforeFetch(ctx context.Context, host string) error {
	s.mu.Lock()
	last, hasLast := s.lastFetch[host]
	delay := s.delay[host]
	s.mu.Unlock()

	if hasLast && delay > 0 {
		elapsed := time.Since(last)
		if remaining := delay - elapsed; remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}

	if s.limiter != nil {
		return s.limiter.Wait(ctx)
	}
	return nil
}

// MarkFetched records now as host's last dispatched fetch time.
func (s *Scheduler) MarkFetched(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFetch[host] = time.Now()
}

// InstallRobotsText parses a previously persisted robots.txt body for
// host and installs it in the cache, letting a resumed session skip
// re-fetching robots.txt for hosts it already knows about.
func (s *Scheduler) InstallRobotsText(host, text string) {
	robot := robots.Parse([]byte(text))
	s.installRobots(host, robot)
	if delay, ok := robot.CrawlDelay(s.userAgent); ok {
		s.mu.Lock()
		s.delay[host] = delay
		s.mu.Unlock()
	}
}
