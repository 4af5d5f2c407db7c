package store

import (
	"context"
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of a CrawlSession.
type SessionStatus string

const (
	SessionRunning  SessionStatus = "running"
	SessionPaused   SessionStatus = "paused"
	SessionFinished SessionStatus = "finished"
	SessionFailed   SessionStatus = "failed"
)

// Session is the resumable unit of a crawl.
type Session struct {
	ID                int64
	StartURL          string
	Status            SessionStatus
	PagesCrawled      int
	ErrorsEncountered int
	CreatedAt         time.Time
}

// CreateSession starts a new crawl session for startURL.
func (s *Store) CreateSession(ctx context.Context, startURL string) (*Session, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO crawl_sessions (start_url, status) VALUES (?, ?)`,
		startURL, SessionRunning)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create session: last insert id: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession loads a session by id, for resuming a prior crawl. On
// resume, any frontier entries stuck in "processing" from an
// interrupted run are unconditionally re-promoted to "pending" per the
// engine's recovery policy.
func (s *Store) GetSession(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, start_url, status, pages_crawled, errors_encountered, created_at
		 FROM crawl_sessions WHERE id = ?`, id)

	var sess Session
	var status string
	if err := row.Scan(&sess.ID, &sess.StartURL, &status, &sess.PagesCrawled, &sess.ErrorsEncountered, &sess.CreatedAt); err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	sess.Status = SessionStatus(status)

	if _, err := s.db.ExecContext(ctx,
		`UPDATE frontier_entries SET status = 'pending' WHERE session_id = ? AND status = 'processing'`,
		id); err != nil {
		return nil, fmt.Errorf("recover stuck frontier entries for session %d: %w", id, err)
	}

	return &sess, nil
}

// SetStatus transitions the session's status and, for a terminal
// status, leaves pages_crawled/errors_encountered as last recorded by
// IncrementPagesCrawled/IncrementErrors.
func (s *Store) SetStatus(ctx context.Context, sessionID int64, status SessionStatus) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE crawl_sessions SET status = ? WHERE id = ?`, status, sessionID); err != nil {
		return fmt.Errorf("set session %d status: %w", sessionID, err)
	}
	return nil
}

// IncrementPagesCrawled bumps the session's pages_crawled counter by one.
func (s *Store) IncrementPagesCrawled(ctx context.Context, sessionID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE crawl_sessions SET pages_crawled = pages_crawled + 1 WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("increment pages_crawled for session %d: %w", sessionID, err)
	}
	return nil
}

// IncrementErrors bumps the session's errors_encountered counter by one.
func (s *Store) IncrementErrors(ctx context.Context, sessionID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE crawl_sessions SET errors_encountered = errors_encountered + 1 WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("increment errors_encountered for session %d: %w", sessionID, err)
	}
	return nil
}
