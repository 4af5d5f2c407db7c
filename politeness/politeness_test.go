package politeness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u.Host
}

func TestEnsureRobots_200ParsesAndCachesCrawlDelay(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nCrawl-delay: 2\nDisallow: /private"))
	}))
	defer ts.Close()

	s := New("crawlkeep-test/1.0", 0, time.Second)
	host := hostOf(t, ts.URL)
	u, _ := url.Parse(ts.URL)

	_, fetched, err := s.EnsureRobots(context.Background(), u.Scheme, host)
	if err != nil || !fetched {
		t.Fatalf("ensure robots: fetched=%v err=%v", fetched, err)
	}

	if s.Allowed(host, "/private", "crawlkeep-test/1.0") {
		t.Error("expected /private to be disallowed")
	}
	if !s.Allowed(host, "/public", "crawlkeep-test/1.0") {
		t.Error("expected /public to be allowed")
	}

	s.mu.Lock()
	delay := s.delay[host]
	s.mu.Unlock()
	if delay != 2*time.Second {
		t.Errorf("expected 2s crawl-delay cached, got %v", delay)
	}
}

func TestEnsureRobots_404IsPermissive(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	s := New("crawlkeep-test/1.0", 0, time.Second)
	host := hostOf(t, ts.URL)
	u, _ := url.Parse(ts.URL)

	if _, _, err := s.EnsureRobots(context.Background(), u.Scheme, host); err != nil {
		t.Fatalf("ensure robots: %v", err)
	}
	if !s.Allowed(host, "/anything", "crawlkeep-test/1.0") {
		t.Error("expected permissive robot on 404")
	}
}

func TestEnsureRobots_403IsForbidden(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	s := New("crawlkeep-test/1.0", 0, time.Second)
	host := hostOf(t, ts.URL)
	u, _ := url.Parse(ts.URL)

	if _, _, err := s.EnsureRobots(context.Background(), u.Scheme, host); err != nil {
		t.Fatalf("ensure robots: %v", err)
	}
	if s.Allowed(host, "/anything", "crawlkeep-test/1.0") {
		t.Error("expected forbidden robot on 403")
	}
}

func TestEnsureRobots_OnlyFetchesOnce(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("User-agent: *\n"))
	}))
	defer ts.Close()

	s := New("crawlkeep-test/1.0", 0, time.Second)
	host := hostOf(t, ts.URL)
	u, _ := url.Parse(ts.URL)

	for i := 0; i < 3; i++ {
		if _, _, err := s.EnsureRobots(context.Background(), u.Scheme, host); err != nil {
			t.Fatalf("ensure robots call %d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Errorf("expected robots.txt fetched exactly once, got %d hits", hits)
	}
}

func TestWaitBeforeFetch_HonorsCrawlDelay(t *testing.T) {
	s := New("crawlkeep-test/1.0", 0, time.Second)
	host := "example.com"

	s.mu.Lock()
	s.delay[host] = 100 * time.Millisecond
	s.mu.Unlock()
	s.MarkFetched(host)

	start := time.Now()
	if err := s.WaitBeforeFetch(context.Background(), host); err != nil {
		t.Fatalf("wait before fetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("expected wait of ~100ms, waited only %v", elapsed)
	}
}

func TestWaitBeforeFetch_NoDelayNoWait(t *testing.T) {
	s := New("crawlkeep-test/1.0", 0, time.Second)
	start := time.Now()
	if err := s.WaitBeforeFetch(context.Background(), "example.com"); err != nil {
		t.Fatalf("wait before fetch: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("expected near-instant return, took %v", elapsed)
	}
}

func TestInstallRobotsText_SkipsNetworkOnResume(t *testing.T) {
	s := New("crawlkeep-test/1.0", 0, time.Second)
	s.InstallRobotsText("example.com", "User-agent: *\nDisallow: /x")

	if !s.HasRobots("example.com") {
		t.Fatal("expected robots installed from persisted text")
	}
	if s.Allowed("example.com", "/x", "crawlkeep-test/1.0") {
		t.Error("expected /x disallowed per installed text")
	}
}
