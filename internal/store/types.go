// Package store persists contact submissions and privacy-conscious visit
// records in SQLite.
//
// Times are stored as Unix milliseconds in UTC so range queries compare
// integers. The db* structs mirror table rows and convert to the exported
// types at the package boundary.
package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// SubmissionStatus tracks delivery of a contact submission.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusSending   SubmissionStatus = "sending"
	StatusDelivered SubmissionStatus = "delivered"
	StatusFailed    SubmissionStatus = "failed"
)

// Submission is one contact form post held in the outbox.
type Submission struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Message     string           `json:"message"`
	Status      SubmissionStatus `json:"status"`
	Attempts    int              `json:"attempts"`
	LastError   string           `json:"last_error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
}

// Visit is one tracked page view. The client address is never stored raw.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	VisitedAt time.Time `json:"visited_at"`
}

// VisitStats summarizes tracked visits for the admin dashboard.
type VisitStats struct {
	Total    int64   `json:"total_visitors"`
	Unique   int64   `json:"unique_visitors"`
	Today    int64   `json:"visitors_today"`
	ThisWeek int64   `json:"visitors_this_week"`
	Recent   []Visit `json:"recent_visitors"`
}

type dbSubmission struct {
	ID          uuid.UUID     `db:"id"`
	Name        string        `db:"name"`
	Email       string        `db:"email"`
	Message     string        `db:"message"`
	Status      string        `db:"status"`
	Attempts    int           `db:"attempts"`
	LastError   string        `db:"last_error"`
	CreatedAt   int64         `db:"created_at"`
	DeliveredAt sql.NullInt64 `db:"delivered_at"`
}

func (s dbSubmission) toSubmission() Submission {
	out := Submission{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Message:   s.Message,
		Status:    SubmissionStatus(s.Status),
		Attempts:  s.Attempts,
		LastError: s.LastError,
		CreatedAt: fromMillis(s.CreatedAt),
	}
	if s.DeliveredAt.Valid {
		t := fromMillis(s.DeliveredAt.Int64)
		out.DeliveredAt = &t
	}
	return out
}

type dbVisit struct {
	ID        int64  `db:"id"`
	HashedIP  string `db:"hashed_ip"`
	UserAgent string `db:"user_agent"`
	Path      string `db:"path"`
	VisitedAt int64  `db:"visited_at"`
}

func (v dbVisit) toVisit() Visit {
	return Visit{
		ID:        v.ID,
		HashedIP:  v.HashedIP,
		UserAgent: v.UserAgent,
		Path:      v.Path,
		VisitedAt: fromMillis(v.VisitedAt),
	}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
