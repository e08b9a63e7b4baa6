package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	if err != nil {
		t.Fatalf("os.CreateTemp() failed: %v", err)
	}
	tempFile.Close()

	repo, err := Open(tempFile.Name())
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}

	teardown := func() {
		repo.Close()
		os.Remove(tempFile.Name())
	}

	return repo, teardown
}

func testSubmission(t *testing.T, repo *Repository, createdAt time.Time) *Submission {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}

	s := &Submission{
		ID:        id,
		Name:      "Ada",
		Email:     "ada@example.com",
		Message:   "Hello there",
		CreatedAt: createdAt,
	}
	if err := repo.InsertSubmission(context.Background(), s); err != nil {
		t.Fatalf("inserting submission: %v", err)
	}
	return s
}

func TestSubmissionRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("should insert as pending and read back", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		s := testSubmission(t, repo, created)

		got, err := repo.GetSubmission(ctx, s.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if got.Status != StatusPending {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", StatusPending, got.Status)
		}
		if !got.CreatedAt.Equal(created) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", created, got.CreatedAt)
		}
		if got.DeliveredAt != nil {
			t.Fatalf("\nwanted:\nnil delivered_at\ngot:\n%v", got.DeliveredAt)
		}
	})

	t.Run("should record failures then delivery", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		s := testSubmission(t, repo, time.Now())

		if err := repo.MarkFailed(ctx, s.ID, "webhook returned 500"); err != nil {
			t.Fatalf("marking failed: %v", err)
		}
		got, _ := repo.GetSubmission(ctx, s.ID)
		if got.Status != StatusFailed || got.Attempts != 1 || got.LastError != "webhook returned 500" {
			t.Fatalf("\nwanted:\nfailed/1/webhook returned 500\ngot:\n%s/%d/%s", got.Status, got.Attempts, got.LastError)
		}

		at := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
		if err := repo.MarkDelivered(ctx, s.ID, at); err != nil {
			t.Fatalf("marking delivered: %v", err)
		}
		got, _ = repo.GetSubmission(ctx, s.ID)
		if got.Status != StatusDelivered || got.Attempts != 2 || got.LastError != "" {
			t.Fatalf("\nwanted:\ndelivered/2/\ngot:\n%s/%d/%s", got.Status, got.Attempts, got.LastError)
		}
		if got.DeliveredAt == nil || !got.DeliveredAt.Equal(at) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", at, got.DeliveredAt)
		}
	})

	t.Run("should return ErrNotFound for unknown ids", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		id := uuid.New()
		if _, err := repo.GetSubmission(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrNotFound, err)
		}
		if err := repo.MarkFailed(ctx, id, "x"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrNotFound, err)
		}
		if err := repo.DeleteSubmission(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrNotFound, err)
		}
	})
}

func TestSubmissionRepo_PendingSubmissions(t *testing.T) {
	ctx := context.Background()
	repo, teardown := setupTestDB(t)
	defer teardown()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldPending := testSubmission(t, repo, base)
	failedOnce := testSubmission(t, repo, base.Add(time.Minute))
	exhausted := testSubmission(t, repo, base.Add(2*time.Minute))
	delivered := testSubmission(t, repo, base.Add(3*time.Minute))
	testSubmission(t, repo, base.Add(time.Hour)) // too new to retry

	repo.MarkFailed(ctx, failedOnce.ID, "boom")
	for range 3 {
		repo.MarkFailed(ctx, exhausted.ID, "boom")
	}
	repo.MarkDelivered(ctx, delivered.ID, base)

	got, err := repo.PendingSubmissions(ctx, 3, base.Add(10*time.Minute), 10)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}

	want := []uuid.UUID{oldPending.ID, failedOnce.ID}
	if len(got) != len(want) {
		t.Fatalf("\nwanted:\n%d submissions\ngot:\n%d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("\nwanted:\n%s at %d\ngot:\n%s", want[i], i, got[i].ID)
		}
	}
}

func TestSubmissionRepo_ClaimSubmission(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-5 * time.Minute)

	t.Run("should grant a single claim per attempt", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		s := testSubmission(t, repo, now)

		ok, err := repo.ClaimSubmission(ctx, s.ID, 0, now, stale)
		if err != nil || !ok {
			t.Fatalf("\nwanted:\nclaimed\ngot:\n%v %v", ok, err)
		}
		got, _ := repo.GetSubmission(ctx, s.ID)
		if got.Status != StatusSending {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", StatusSending, got.Status)
		}

		ok, err = repo.ClaimSubmission(ctx, s.ID, 0, now, stale)
		if err != nil || ok {
			t.Fatalf("\nwanted:\nsecond claim refused\ngot:\n%v %v", ok, err)
		}
	})

	t.Run("should refuse a stale attempt count", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		s := testSubmission(t, repo, now)
		repo.MarkFailed(ctx, s.ID, "boom")

		if ok, _ := repo.ClaimSubmission(ctx, s.ID, 0, now, stale); ok {
			t.Fatalf("\nwanted:\nrefused at attempts=0\ngot:\nclaimed")
		}
		if ok, _ := repo.ClaimSubmission(ctx, s.ID, 1, now, stale); !ok {
			t.Fatalf("\nwanted:\nclaimed at attempts=1\ngot:\nrefused")
		}
	})

	t.Run("should take over an abandoned claim", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		s := testSubmission(t, repo, now)
		if ok, _ := repo.ClaimSubmission(ctx, s.ID, 0, now.Add(-time.Hour), stale); !ok {
			t.Fatalf("\nwanted:\nclaimed\ngot:\nrefused")
		}
		if ok, _ := repo.ClaimSubmission(ctx, s.ID, 0, now, stale); !ok {
			t.Fatalf("\nwanted:\nabandoned claim taken over\ngot:\nrefused")
		}
	})

	t.Run("should never claim a delivered submission", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		s := testSubmission(t, repo, now)
		repo.MarkDelivered(ctx, s.ID, now)

		if ok, _ := repo.ClaimSubmission(ctx, s.ID, 1, now, now.Add(time.Hour)); ok {
			t.Fatalf("\nwanted:\nrefused\ngot:\nclaimed")
		}
	})
}

func TestSubmissionRepo_RecentAndCount(t *testing.T) {
	ctx := context.Background()
	repo, teardown := setupTestDB(t)
	defer teardown()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := testSubmission(t, repo, base)
	second := testSubmission(t, repo, base.Add(time.Minute))
	repo.MarkDelivered(ctx, second.ID, base)

	recent, err := repo.RecentSubmissions(ctx, 10)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if len(recent) != 2 || recent[0].ID != second.ID || recent[1].ID != first.ID {
		t.Fatalf("\nwanted:\nnewest first\ngot:\n%+v", recent)
	}

	counts, err := repo.CountSubmissions(ctx)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if counts[StatusPending] != 1 || counts[StatusDelivered] != 1 || counts[StatusFailed] != 0 {
		t.Fatalf("\nwanted:\npending=1 delivered=1 failed=0\ngot:\n%v", counts)
	}

	if err := repo.DeleteSubmission(ctx, first.ID); err != nil {
		t.Fatalf("deleting: %v", err)
	}
	recent, _ = repo.RecentSubmissions(ctx, 10)
	if len(recent) != 1 {
		t.Fatalf("\nwanted:\n1\ngot:\n%d", len(recent))
	}
}

func TestVisitRepo_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("should return zeroes when no visits exist", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		stats, err := repo.VisitStats(ctx, time.Now(), 50)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if stats.Total != 0 || stats.Unique != 0 || len(stats.Recent) != 0 {
			t.Fatalf("\nwanted:\nempty stats\ngot:\n%+v", stats)
		}
	})

	t.Run("should bucket visits by day and week", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
		visits := []Visit{
			{HashedIP: "aaa", Path: "/", VisitedAt: now.Add(-time.Hour)},
			{HashedIP: "aaa", Path: "/", VisitedAt: now.Add(-2 * time.Hour)},
			{HashedIP: "bbb", Path: "/", VisitedAt: now.Add(-20 * time.Hour)},
			{HashedIP: "ccc", Path: "/", VisitedAt: now.Add(-30 * 24 * time.Hour)},
		}
		for _, v := range visits {
			if err := repo.RecordVisit(ctx, v); err != nil {
				t.Fatalf("recording visit: %v", err)
			}
		}

		stats, err := repo.VisitStats(ctx, now, 2)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if stats.Total != 4 {
			t.Fatalf("\nwanted:\n4\ngot:\n%d", stats.Total)
		}
		if stats.Unique != 3 {
			t.Fatalf("\nwanted:\n3\ngot:\n%d", stats.Unique)
		}
		if stats.Today != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", stats.Today)
		}
		if stats.ThisWeek != 3 {
			t.Fatalf("\nwanted:\n3\ngot:\n%d", stats.ThisWeek)
		}
		if len(stats.Recent) != 2 || !stats.Recent[0].VisitedAt.Equal(now.Add(-time.Hour)) {
			t.Fatalf("\nwanted:\n2 recent, newest first\ngot:\n%+v", stats.Recent)
		}
	})
}

func TestVisitRepo_PruneVisits(t *testing.T) {
	ctx := context.Background()
	repo, teardown := setupTestDB(t)
	defer teardown()

	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	repo.RecordVisit(ctx, Visit{HashedIP: "old", Path: "/", VisitedAt: now.AddDate(-2, 0, 0)})
	repo.RecordVisit(ctx, Visit{HashedIP: "new", Path: "/", VisitedAt: now})

	n, err := repo.PruneVisits(ctx, now.AddDate(-1, 0, 0))
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if n != 1 {
		t.Fatalf("\nwanted:\n1\ngot:\n%d", n)
	}

	left, _ := repo.RecentVisits(ctx, 10)
	if len(left) != 1 || left[0].HashedIP != "new" {
		t.Fatalf("\nwanted:\nonly the new visit\ngot:\n%+v", left)
	}
}
