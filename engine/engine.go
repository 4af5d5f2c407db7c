// Package engine orchestrates the robots/link-extract/fetch/store/
// politeness components into the crawl loop spec.md §4.F describes:
// pop -> robots -> wait -> fetch -> extract -> save -> enqueue.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lukemcguire/crawlkeep/fetch"
	"github.com/lukemcguire/crawlkeep/linkextract"
	"github.com/lukemcguire/crawlkeep/politeness"
	"github.com/lukemcguire/crawlkeep/store"
	"github.com/lukemcguire/crawlkeep/urlutil"
)

// Config configures one Engine.
type Config struct {
	UserAgent      string
	RequestTimeout time.Duration
	RobotsTimeout  time.Duration
	RateLimit      float64 // advisory requests/sec, 0 disables
	MaxCrossHost   int     // bounded concurrent distinct-host batch; <=1 is sequential
	MaxHeapMB      int64   // soft heap limit driving MemoryGuard batch throttling; 0 disables
}

// DefaultConfig returns sensible defaults, matching the teacher's
// DefaultConfig pattern in crawler/worker.go.
func DefaultConfig() Config {
	return Config{
		UserAgent:      "crawlkeep/1.0 (+https://github.com/lukemcguire/crawlkeep)",
		RequestTimeout: 10 * time.Second,
		RobotsTimeout:  5 * time.Second,
		RateLimit:      10,
		MaxCrossHost:   1,
		MaxHeapMB:      512,
	}
}

// Engine owns one crawl session's execution. It is not safe to run two
// sessions concurrently through the same Engine.
type Engine struct {
	cfg        Config
	store      *store.Store
	politeness *politeness.Scheduler
	fetcher    *fetch.Fetcher
	events     chan<- CrawlEvent
	memGuard   *MemoryGuard

	hostLocksMu sync.Mutex
	hostLocks   map[string]*sync.Mutex

	pagesCrawled atomic.Int64
	errorCount   atomic.Int64
}

// New builds an Engine. events is optional; pass nil to run without a
// progress stream.
func New(cfg Config, st *store.Store, events chan<- CrawlEvent) *Engine {
	var guard *MemoryGuard
	if cfg.MaxHeapMB > 0 {
		guard = NewMemoryGuard(cfg.MaxHeapMB)
	}
	return &Engine{
		cfg:        cfg,
		store:      st,
		politeness: politeness.New(cfg.UserAgent, cfg.RateLimit, cfg.RobotsTimeout),
		fetcher:    fetch.New(cfg.UserAgent, cfg.RequestTimeout),
		events:     events,
		memGuard:   guard,
		hostLocks:  make(map[string]*sync.Mutex),
	}
}

// Start seeds the frontier and drains it to completion, per spec.md
// §4.F. It returns only on a frontier-store invariant violation or
// context cancellation; per-URL failures are logged and skipped.
func (e *Engine) Start(ctx context.Context, sessionID int64, seeds []string) error {
	normalized := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		n, err := urlutil.Normalize(seed)
		if err != nil {
			log.Warn().Str("seed", seed).Err(err).Msg("skipping unnormalizable seed")
			continue
		}
		if !urlutil.IsHTTPScheme(n) {
			log.Warn().Str("seed", n).Msg("skipping non-http(s) seed")
			continue
		}
		normalized = append(normalized, n)
	}

	if _, err := e.store.AddToQueue(ctx, sessionID, normalized); err != nil {
		return fmt.Errorf("seed frontier: %w", err)
	}

	batchSize := e.cfg.MaxCrossHost
	if batchSize < 1 {
		batchSize = 1
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		effectiveBatch := batchSize
		if e.memGuard != nil {
			effectiveBatch = e.memGuard.ThrottleBatch(batchSize)
		}

		batch, err := e.collectBatch(ctx, sessionID, effectiveBatch)
		if err != nil {
			return fmt.Errorf("collect batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		if len(batch) == 1 {
			e.processURL(ctx, sessionID, batch[0])
			continue
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, u := range batch {
			u := u
			group.Go(func() error {
				e.processURL(groupCtx, sessionID, u)
				return nil
			})
		}
		_ = group.Wait()
	}
}

// collectBatch pops up to n pending URLs from the frontier. It stops
// early on an empty frontier; ErrFrontierEmpty is swallowed into a
// shorter (possibly empty) batch rather than propagated.
func (e *Engine) collectBatch(ctx context.Context, sessionID int64, n int) ([]string, error) {
	batch := make([]string, 0, n)
	for len(batch) < n {
		u, err := e.store.NextQueue(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrFrontierEmpty) {
				break
			}
			return nil, err
		}
		batch = append(batch, u)
	}
	return batch, nil
}

// hostMutex returns (creating if necessary) the mutex serializing
// fetches for host, guaranteeing no two goroutines ever fetch the same
// host concurrently even when they land in the same cross-host batch.
func (e *Engine) hostMutex(host string) *sync.Mutex {
	e.hostLocksMu.Lock()
	defer e.hostLocksMu.Unlock()
	m, ok := e.hostLocks[host]
	if !ok {
		m = &sync.Mutex{}
		e.hostLocks[host] = m
	}
	return m
}

// processURL runs one URL through robots -> policy -> wait -> fetch ->
// extract -> save -> enqueue. Every failure is logged and absorbed;
// the engine loop always continues to the next URL.
func (e *Engine) processURL(ctx context.Context, sessionID int64, rawURL string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		e.fail(ctx, sessionID, rawURL, fmt.Errorf("parse url: %w", err))
		return
	}
	host := parsed.Host

	mu := e.hostMutex(host)
	mu.Lock()
	defer mu.Unlock()

	if text, fetched, err := e.politeness.EnsureRobots(ctx, parsed.Scheme, host); err != nil {
		log.Warn().Str("host", host).Err(err).Msg("robots.txt acquisition failed, treating permissive")
	} else if fetched && text != "" {
		if err := e.store.SetRobotsText(ctx, host, text); err != nil {
			log.Warn().Str("host", host).Err(err).Msg("persist robots.txt failed")
		}
	}

	allowOverride, err := e.store.CheckRobotPolicy(ctx, host)
	if err != nil {
		e.fail(ctx, sessionID, rawURL, fmt.Errorf("check_robot_policy: %w", err))
		return
	}
	if !allowOverride {
		_ = e.store.MarkAsFailed(ctx, sessionID, rawURL, "denied by operator domain policy")
		return
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if !e.politeness.Allowed(host, path, e.cfg.UserAgent) {
		_ = e.store.MarkAsFailed(ctx, sessionID, rawURL, "disallowed by robots.txt")
		return
	}

	if err := e.politeness.WaitBeforeFetch(ctx, host); err != nil {
		e.fail(ctx, sessionID, rawURL, fmt.Errorf("wait before fetch: %w", err))
		return
	}

	seen, err := e.store.HasSeen(ctx, sessionID, rawURL)
	if err != nil {
		e.fail(ctx, sessionID, rawURL, fmt.Errorf("has_seen: %w", err))
		return
	}
	if seen {
		_ = e.store.MarkAsVisited(ctx, sessionID, rawURL)
		return
	}

	e.politeness.MarkFetched(host)
	result, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		e.fail(ctx, sessionID, rawURL, fmt.Errorf("fetch: %w", err))
		return
	}

	finalURL, err := url.Parse(result.FinalURL)
	if err != nil {
		finalURL = parsed
	}
	links, extractErrs := linkextract.Extract(finalURL, bytes.NewReader(result.HTMLContent))
	for _, extractErr := range extractErrs {
		log.Debug().Str("url", rawURL).Err(extractErr).Msg("link extraction warning")
	}

	if _, err := e.store.Save(ctx, sessionID, store.SavePageInput{
		URL:           rawURL,
		FinalURL:      result.FinalURL,
		StatusCode:    result.StatusCode,
		ContentType:   result.ContentType,
		ContentLength: int64(len(result.HTMLContent)),
		HTMLContent:   result.HTMLContent,
		FetchedAt:     result.FetchedAt,
		Links:         links,
	}); err != nil {
		e.fail(ctx, sessionID, rawURL, fmt.Errorf("save: %w", err))
		return
	}

	if err := e.store.MarkAsVisited(ctx, sessionID, rawURL); err != nil {
		e.fail(ctx, sessionID, rawURL, fmt.Errorf("mark_as_visited: %w", err))
		return
	}

	if err := e.store.IncrementPagesCrawled(ctx, sessionID); err != nil {
		log.Warn().Err(err).Msg("increment pages_crawled failed")
	}
	e.pagesCrawled.Add(1)

	discovered := make([]string, 0, len(links.Internal)+len(links.External))
	for _, l := range links.Internal {
		discovered = append(discovered, l.URL)
	}
	for _, l := range links.External {
		discovered = append(discovered, l.URL)
	}
	if len(discovered) > 0 {
		if _, err := e.store.AddToQueue(ctx, sessionID, discovered); err != nil {
			log.Warn().Err(err).Msg("enqueue discovered links failed")
		}
	}

	e.emit(CrawlEvent{
		SessionID:         sessionID,
		URL:               rawURL,
		Host:              host,
		StatusCode:        result.StatusCode,
		PagesCrawled:      int(e.pagesCrawled.Load()),
		ErrorsEncountered: int(e.errorCount.Load()),
	})
}

// fail records a per-URL failure: logged, counted, and the frontier
// entry is moved to failed so the loop can make progress. Per spec.md
// §4.F, no per-URL error aborts the engine.
func (e *Engine) fail(ctx context.Context, sessionID int64, rawURL string, err error) {
	log.Error().Str("url", rawURL).Err(err).Msg("crawl failed for url")
	_ = e.store.MarkAsFailed(ctx, sessionID, rawURL, err.Error())
	if incErr := e.store.IncrementErrors(ctx, sessionID); incErr != nil {
		log.Warn().Err(incErr).Msg("increment errors_encountered failed")
	}
	e.errorCount.Add(1)
	e.emit(CrawlEvent{
		SessionID:         sessionID,
		URL:               rawURL,
		Error:             err.Error(),
		PagesCrawled:      int(e.pagesCrawled.Load()),
		ErrorsEncountered: int(e.errorCount.Load()),
	})
}

func (e *Engine) emit(evt CrawlEvent) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- evt:
	default:
	}
}
