package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertSubmission stores a new submission in the pending state.
func (repo *Repository) InsertSubmission(ctx context.Context, s *Submission) error {
	query := `INSERT INTO submissions (id, name, email, message, status, attempts, last_error, created_at)
			  VALUES (?, ?, ?, ?, ?, 0, '', ?)`

	_, err := repo.dbConn.ExecContext(ctx, query, s.ID, s.Name, s.Email, s.Message, string(StatusPending), toMillis(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting submission %s: %w", s.ID, err)
	}
	s.Status = StatusPending
	s.Attempts = 0
	return nil
}

// GetSubmission returns the submission with the given id.
func (repo *Repository) GetSubmission(ctx context.Context, id uuid.UUID) (Submission, error) {
	var row dbSubmission
	query := `SELECT id, name, email, message, status, attempts, last_error, created_at, delivered_at
			  FROM submissions WHERE id = ?`

	err := repo.dbConn.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, fmt.Errorf("getting submission %s: %w", id, err)
	}
	return row.toSubmission(), nil
}

// ClaimSubmission moves a submission into the sending state for one delivery
// attempt. It reports false when the row is delivered, held by a claim made
// after staleBefore, or no longer at the given attempt count.
func (repo *Repository) ClaimSubmission(ctx context.Context, id uuid.UUID, attempts int, at, staleBefore time.Time) (bool, error) {
	query := `UPDATE submissions
			  SET status = ?, claimed_at = ?
			  WHERE id = ? AND attempts = ?
			    AND (status IN (?, ?) OR (status = ? AND claimed_at < ?))`

	result, err := repo.dbConn.ExecContext(ctx, query,
		string(StatusSending), toMillis(at), id, attempts,
		string(StatusPending), string(StatusFailed), string(StatusSending), toMillis(staleBefore))
	if err != nil {
		return false, fmt.Errorf("claiming submission %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming submission %s: %w", id, err)
	}
	return n == 1, nil
}

// MarkDelivered records a successful attempt.
func (repo *Repository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE submissions
			  SET status = ?, attempts = attempts + 1, last_error = '', delivered_at = ?, claimed_at = NULL
			  WHERE id = ?`
	return repo.updateOne(ctx, id, query, string(StatusDelivered), toMillis(at), id)
}

// MarkFailed records a failed attempt and keeps its error text.
func (repo *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	query := `UPDATE submissions
			  SET status = ?, attempts = attempts + 1, last_error = ?, claimed_at = NULL
			  WHERE id = ?`
	return repo.updateOne(ctx, id, query, string(StatusFailed), cause, id)
}

func (repo *Repository) updateOne(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	result, err := repo.dbConn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating submission %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating submission %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PendingSubmissions returns undelivered submissions created at or before
// olderThan with fewer than maxAttempts attempts, oldest first. Rows in the
// sending state are included; ClaimSubmission decides whether they are free.
func (repo *Repository) PendingSubmissions(ctx context.Context, maxAttempts int, olderThan time.Time, limit int) ([]Submission, error) {
	var rows []dbSubmission
	query := `SELECT id, name, email, message, status, attempts, last_error, created_at, delivered_at
			  FROM submissions
			  WHERE status IN (?, ?, ?) AND attempts < ? AND created_at <= ?
			  ORDER BY created_at ASC
			  LIMIT ?`

	err := repo.dbConn.SelectContext(ctx, &rows, query,
		string(StatusPending), string(StatusFailed), string(StatusSending), maxAttempts, toMillis(olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("getting pending submissions: %w", err)
	}
	return convertSubmissions(rows), nil
}

// RecentSubmissions returns the newest submissions first.
func (repo *Repository) RecentSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	var rows []dbSubmission
	query := `SELECT id, name, email, message, status, attempts, last_error, created_at, delivered_at
			  FROM submissions
			  ORDER BY created_at DESC
			  LIMIT ?`

	err := repo.dbConn.SelectContext(ctx, &rows, query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting recent submissions: %w", err)
	}
	return convertSubmissions(rows), nil
}

// DeleteSubmission removes a submission.
func (repo *Repository) DeleteSubmission(ctx context.Context, id uuid.UUID) error {
	result, err := repo.dbConn.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting submission %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting submission %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSubmissions returns submission totals keyed by status.
func (repo *Repository) CountSubmissions(ctx context.Context) (map[SubmissionStatus]int64, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM submissions GROUP BY status`

	if err := repo.dbConn.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("counting submissions: %w", err)
	}

	counts := map[SubmissionStatus]int64{
		StatusPending:   0,
		StatusSending:   0,
		StatusDelivered: 0,
		StatusFailed:    0,
	}
	for _, r := range rows {
		counts[SubmissionStatus(r.Status)] = r.Count
	}
	return counts, nil
}

func convertSubmissions(rows []dbSubmission) []Submission {
	out := make([]Submission, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toSubmission())
	}
	return out
}
