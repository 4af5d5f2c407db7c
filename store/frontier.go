package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AddResult reports how many of the URLs passed to AddToQueue were
// newly inserted versus already present.
type AddResult struct {
	Added   int
	Skipped int
}

// AddToQueue inserts each url as a pending FrontierEntry, skipping any
// that already exist for this session. Priority defaults to 0; callers
// needing prioritized seeds should use AddToQueueWithPriority.
func (s *Store) AddToQueue(ctx context.Context, sessionID int64, urls []string) (AddResult, error) {
	return s.AddToQueueWithPriority(ctx, sessionID, urls, 0)
}

// AddToQueueWithPriority is AddToQueue with an explicit priority for
// every url in the batch (larger sorts sooner).
func (s *Store) AddToQueueWithPriority(ctx context.Context, sessionID int64, urls []string, priority int) (AddResult, error) {
	var result AddResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("add_to_queue: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range urls {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO frontier_entries (session_id, url, priority, status)
			 SELECT ?, ?, ?, 'pending'
			 WHERE NOT EXISTS (
			   SELECT 1 FROM frontier_entries WHERE session_id = ? AND url = ?
			 )`,
			sessionID, u, priority, sessionID, u)
		if err != nil {
			return result, fmt.Errorf("add_to_queue: insert %s: %w", u, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("add_to_queue: rows affected for %s: %w", u, err)
		}
		if n > 0 {
			result.Added++
		} else {
			result.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("add_to_queue: commit: %w", err)
	}
	return result, nil
}

// ErrFrontierEmpty is returned by NextQueue when no pending entry remains.
var ErrFrontierEmpty = errors.New("frontier queue is empty")

// NextQueue atomically selects the highest-priority pending entry,
// transitions it to processing, and returns its URL. Returns
// ErrFrontierEmpty when nothing is pending.
func (s *Store) NextQueue(ctx context.Context, sessionID int64) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("next_queue: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	var url string
	row := tx.QueryRowContext(ctx,
		`SELECT id, url FROM frontier_entries
		 WHERE session_id = ? AND status = 'pending'
		 ORDER BY priority DESC, id ASC
		 LIMIT 1`, sessionID)
	if err := row.Scan(&id, &url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrFrontierEmpty
		}
		return "", fmt.Errorf("next_queue: select: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE frontier_entries SET status = 'processing' WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("next_queue: mark processing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("next_queue: commit: %w", err)
	}
	return url, nil
}

// MarkAsVisited moves a processing entry to completed.
func (s *Store) MarkAsVisited(ctx context.Context, sessionID int64, url string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE frontier_entries SET status = 'completed'
		 WHERE session_id = ? AND url = ?`, sessionID, url); err != nil {
		return fmt.Errorf("mark_as_visited %s: %w", url, err)
	}
	return nil
}

// MarkAsFailed moves a processing entry to failed, increments its retry
// count, and records reason (if non-empty) for later reporting, for
// URLs that could not be fetched or were denied by policy.
func (s *Store) MarkAsFailed(ctx context.Context, sessionID int64, url, reason string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE frontier_entries SET status = 'failed', retry_count = retry_count + 1, last_error = ?
		 WHERE session_id = ? AND url = ?`, reason, sessionID, url); err != nil {
		return fmt.Errorf("mark_as_failed %s: %w", url, err)
	}
	return nil
}

// FailedURL is one frontier entry that ended in the failed state,
// reported for crawl-summary output.
type FailedURL struct {
	URL        string
	RetryCount int
	LastError  string
}

// ListFailed returns every failed frontier entry for sessionID, in
// insertion order.
func (s *Store) ListFailed(ctx context.Context, sessionID int64) ([]FailedURL, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, retry_count, COALESCE(last_error, '') FROM frontier_entries
		 WHERE session_id = ? AND status = 'failed' ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list_failed: %w", err)
	}
	defer rows.Close()

	var out []FailedURL
	for rows.Next() {
		var f FailedURL
		if err := rows.Scan(&f.URL, &f.RetryCount, &f.LastError); err != nil {
			return nil, fmt.Errorf("list_failed: scan: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list_failed: rows: %w", err)
	}
	return out, nil
}
