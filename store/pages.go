package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/lukemcguire/crawlkeep/linkextract"
)

// SavedPage is a persisted, successfully fetched page.
type SavedPage struct {
	ID            int64
	SessionID     int64
	URL           string
	FinalURL      string
	StatusCode    int
	ContentType   string
	ContentLength int64
	ContentHash   string
	Title         string
	Description   string
	FetchedAt     time.Time
}

// SavePageInput is everything the engine has in hand after a fetch and
// link extraction, ready to persist in one call.
type SavePageInput struct {
	URL           string
	FinalURL      string
	StatusCode    int
	ContentType   string
	ContentLength int64
	HTMLContent   []byte
	FetchedAt     time.Time
	Links         *linkextract.Result
}

// HasSeen reports whether a SavedPage already exists for (sessionID,
// url). The bloom pre-filter is checked first: a "not seen" verdict
// from the filter is certain and returned directly; a "maybe seen"
// verdict falls through to the authoritative SQL query.
func (s *Store) HasSeen(ctx context.Context, sessionID int64, url string) (bool, error) {
	if !s.seen.maybeSeen(sessionID, url) {
		return false, nil
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM saved_pages WHERE session_id = ? AND url = ? LIMIT 1`,
		sessionID, url).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("has_seen %s: %w", url, err)
	}
	return true, nil
}

// Save computes title, description, and content hash; upserts the
// SavedPage; and inserts one OutLink per anchor in in.Links, tagged
// with the extractor's classification. The bloom cache is updated only
// after the database commit succeeds, preserving the §8 invariant that
// a true has_seen implies save has completed against the database.
func (s *Store) Save(ctx context.Context, sessionID int64, in SavePageInput) (*SavedPage, error) {
	title, description := extractMeta(bytes.NewReader(in.HTMLContent))

	hash := sha256.Sum256(in.HTMLContent)
	contentHash := hex.EncodeToString(hash[:])

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save %s: begin tx: %w", in.URL, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO saved_pages
		   (session_id, url, final_url, status_code, content_type, content_length,
		    content_hash, html_content, title, description, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, url) DO UPDATE SET
		   final_url = excluded.final_url,
		   status_code = excluded.status_code,
		   content_type = excluded.content_type,
		   content_length = excluded.content_length,
		   content_hash = excluded.content_hash,
		   html_content = excluded.html_content,
		   title = excluded.title,
		   description = excluded.description,
		   fetched_at = excluded.fetched_at`,
		sessionID, in.URL, in.FinalURL, in.StatusCode, in.ContentType, in.ContentLength,
		contentHash, string(in.HTMLContent), title, description, in.FetchedAt)
	if err != nil {
		return nil, fmt.Errorf("save %s: upsert: %w", in.URL, err)
	}

	// last_insert_rowid() is left untouched by the DO UPDATE path, so it
	// cannot distinguish an insert from an update; always resolve the id
	// by querying the unique (session_id, url) row directly.
	var pageID int64
	row := tx.QueryRowContext(ctx,
		`SELECT id FROM saved_pages WHERE session_id = ? AND url = ?`, sessionID, in.URL)
	if err := row.Scan(&pageID); err != nil {
		return nil, fmt.Errorf("save %s: fetch page id: %w", in.URL, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM out_links WHERE source_page_id = ?`, pageID); err != nil {
		return nil, fmt.Errorf("save %s: clear prior out_links: %w", in.URL, err)
	}

	if in.Links != nil {
		if err := insertOutLinks(ctx, tx, pageID, linkextract.Internal, in.Links.Internal); err != nil {
			return nil, err
		}
		if err := insertOutLinks(ctx, tx, pageID, linkextract.External, in.Links.External); err != nil {
			return nil, err
		}
		if err := insertOutLinks(ctx, tx, pageID, linkextract.Mailto, in.Links.Mailto); err != nil {
			return nil, err
		}
		if err := insertOutLinks(ctx, tx, pageID, linkextract.Phone, in.Links.Phone); err != nil {
			return nil, err
		}
		if err := insertOutLinks(ctx, tx, pageID, linkextract.Anchor, in.Links.Anchor); err != nil {
			return nil, err
		}
		if err := insertOutLinks(ctx, tx, pageID, linkextract.Javascript, in.Links.Javascript); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save %s: commit: %w", in.URL, err)
	}

	s.seen.markSeen(sessionID, in.URL)

	return &SavedPage{
		ID: pageID, SessionID: sessionID, URL: in.URL, FinalURL: in.FinalURL,
		StatusCode: in.StatusCode, ContentType: in.ContentType, ContentLength: in.ContentLength,
		ContentHash: contentHash, Title: title, Description: description, FetchedAt: in.FetchedAt,
	}, nil
}

func insertOutLinks(ctx context.Context, tx execer, pageID int64, class linkextract.Classification, links []linkextract.Link) error {
	for _, l := range links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO out_links (source_page_id, target_url, link_text, classification)
			 VALUES (?, ?, ?, ?)`,
			pageID, l.URL, l.Text, string(class)); err != nil {
			return fmt.Errorf("insert out_link %s: %w", l.URL, err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
