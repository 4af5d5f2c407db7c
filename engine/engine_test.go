package engine_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/lukemcguire/crawlkeep/engine"
	"github.com/lukemcguire/crawlkeep/store"
)

// newTestServer mirrors a small same-host site:
//
//	/        -> /page1, /page2, external
//	/page1   -> /page2 (dedup), /disallowed
//	/page2   -> no outgoing links
//	/disallowed -> blocked by robots.txt
func newTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /disallowed\n")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body>
			<a href="/page1">Page 1</a>
			<a href="/page2">Page 2</a>
			<a href="https://external.example.com/resource">External</a>
		</body></html>`)
	})

	mux.HandleFunc("/page1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/page2">Page 2 again</a>
			<a href="/disallowed">Disallowed</a>
		</body></html>`)
	})

	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>No links here</p></body></html>`)
	})

	mux.HandleFunc("/disallowed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>should never be fetched</body></html>`)
	})

	return httptest.NewServer(mux)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawlkeep.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestEngine_CrawlsSameHostAndSkipsDisallowed(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	st := newTestStore(t)
	session, err := st.CreateSession(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	cfg := engine.DefaultConfig()
	cfg.RequestTimeout = 5 * time.Second
	cfg.RobotsTimeout = 5 * time.Second
	cfg.RateLimit = 0

	events := make(chan engine.CrawlEvent, 64)
	e := engine.New(cfg, st, events)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Start(ctx, session.ID, []string{ts.URL}); err != nil {
		t.Fatalf("engine.Start: %v", err)
	}

	seenRoot, err := st.HasSeen(context.Background(), session.ID, ts.URL)
	if err != nil {
		t.Fatalf("has_seen root: %v", err)
	}
	if !seenRoot {
		t.Error("expected root page saved")
	}

	seenDisallowed, err := st.HasSeen(context.Background(), session.ID, ts.URL+"/disallowed")
	if err != nil {
		t.Fatalf("has_seen disallowed: %v", err)
	}
	if seenDisallowed {
		t.Error("expected /disallowed to never be saved, robots.txt forbids it")
	}
}

func TestEngine_ResumeSkipsAlreadySavedPages(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	st := newTestStore(t)
	session, err := st.CreateSession(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	cfg := engine.DefaultConfig()
	cfg.RequestTimeout = 5 * time.Second
	cfg.RateLimit = 0

	e := engine.New(cfg, st, nil)
	ctx := context.Background()

	if err := e.Start(ctx, session.ID, []string{ts.URL}); err != nil {
		t.Fatalf("first engine.Start: %v", err)
	}

	resumed, err := st.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if resumed.PagesCrawled < 2 {
		t.Fatalf("expected at least 2 pages crawled before resume, got %d", resumed.PagesCrawled)
	}

	// A second pass over the same seed must not error even though every
	// reachable URL is already marked completed or seen.
	if err := e.Start(ctx, session.ID, []string{ts.URL}); err != nil {
		t.Fatalf("resumed engine.Start: %v", err)
	}

	after, err := st.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session after resume: %v", err)
	}
	if after.PagesCrawled != resumed.PagesCrawled {
		t.Errorf("expected no page re-crawled on resume, pages_crawled went from %d to %d", resumed.PagesCrawled, after.PagesCrawled)
	}
}
