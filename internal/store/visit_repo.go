package store

import (
	"context"
	"fmt"
	"time"
)

// RecordVisit stores one page view.
func (repo *Repository) RecordVisit(ctx context.Context, v Visit) error {
	query := `INSERT INTO visits (hashed_ip, user_agent, path, visited_at) VALUES (?, ?, ?, ?)`

	_, err := repo.dbConn.ExecContext(ctx, query, v.HashedIP, v.UserAgent, v.Path, toMillis(v.VisitedAt))
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// VisitStats computes dashboard totals relative to now. "Today" starts at
// UTC midnight; "this week" is the trailing seven days.
func (repo *Repository) VisitStats(ctx context.Context, now time.Time, recent int) (*VisitStats, error) {
	stats := &VisitStats{}
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	if err := repo.dbConn.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM visits`); err != nil {
		return nil, fmt.Errorf("counting visits: %w", err)
	}
	if err := repo.dbConn.GetContext(ctx, &stats.Unique, `SELECT COUNT(DISTINCT hashed_ip) FROM visits`); err != nil {
		return nil, fmt.Errorf("counting unique visitors: %w", err)
	}
	if err := repo.dbConn.GetContext(ctx, &stats.Today, `SELECT COUNT(*) FROM visits WHERE visited_at >= ?`, toMillis(midnight)); err != nil {
		return nil, fmt.Errorf("counting visits today: %w", err)
	}
	if err := repo.dbConn.GetContext(ctx, &stats.ThisWeek, `SELECT COUNT(*) FROM visits WHERE visited_at >= ?`, toMillis(weekAgo)); err != nil {
		return nil, fmt.Errorf("counting visits this week: %w", err)
	}

	visits, err := repo.RecentVisits(ctx, recent)
	if err != nil {
		return nil, err
	}
	stats.Recent = visits

	return stats, nil
}

// RecentVisits returns the newest visits first.
func (repo *Repository) RecentVisits(ctx context.Context, limit int) ([]Visit, error) {
	var rows []dbVisit
	query := `SELECT id, hashed_ip, user_agent, path, visited_at
			  FROM visits
			  ORDER BY visited_at DESC, id DESC
			  LIMIT ?`

	if err := repo.dbConn.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("getting recent visits: %w", err)
	}

	out := make([]Visit, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toVisit())
	}
	return out, nil
}

// PruneVisits deletes visits recorded before cutoff and reports how many went.
func (repo *Repository) PruneVisits(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := repo.dbConn.ExecContext(ctx, `DELETE FROM visits WHERE visited_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning visits: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning visits: %w", err)
	}
	return n, nil
}
