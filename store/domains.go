package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DomainRecord is the operator-facing policy record for one host.
type DomainRecord struct {
	Host            string
	AllowCrawl      bool
	RobotsText      string
	RobotsFetchedAt *time.Time
}

// CheckRobotPolicy returns the operator-override allow_crawl flag for
// host, creating a default (allow=true) record on first encounter.
func (s *Store) CheckRobotPolicy(ctx context.Context, host string) (bool, error) {
	var allow bool
	err := s.db.QueryRowContext(ctx,
		`SELECT allow_crawl FROM domain_records WHERE host = ?`, host).Scan(&allow)
	if err == nil {
		return allow, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("check_robot_policy %s: %w", host, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO domain_records (host, allow_crawl) VALUES (?, 1)
		 ON CONFLICT (host) DO NOTHING`, host); err != nil {
		return false, fmt.Errorf("check_robot_policy %s: create default record: %w", host, err)
	}
	return true, nil
}

// GetRobotsText returns the cached robots.txt body for host, if any was
// stored by SetRobotsText.
func (s *Store) GetRobotsText(ctx context.Context, host string) (string, bool, error) {
	var text sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT robots_text FROM domain_records WHERE host = ?`, host).Scan(&text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get_robots_text %s: %w", host, err)
	}
	if !text.Valid {
		return "", false, nil
	}
	return text.String, true, nil
}

// SetRobotsText persists the robots.txt body fetched for host, creating
// the domain record (with its default allow_crawl=true) if absent.
func (s *Store) SetRobotsText(ctx context.Context, host, text string) error {
	now := time.Now()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO domain_records (host, allow_crawl, robots_text, robots_fetched_at)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT (host) DO UPDATE SET
		   robots_text = excluded.robots_text,
		   robots_fetched_at = excluded.robots_fetched_at`,
		host, text, now); err != nil {
		return fmt.Errorf("set_robots_text %s: %w", host, err)
	}
	return nil
}
