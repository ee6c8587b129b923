package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/statebridge/internal/infrastructure/database"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db.DB)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return repo
}

func TestRepository_RecordFailure(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	cause := errors.New("broker unreachable")
	err := repo.RecordFailure(ctx, "home_assistant_all", "light.kitchen", []byte(`{"state":"on"}`), cause)
	if err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}

	entries, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}

	e := entries[0]
	if e.ID == "" {
		t.Error("entry ID should not be empty")
	}
	if e.Topic != "home_assistant_all" {
		t.Errorf("entry Topic = %q, want %q", e.Topic, "home_assistant_all")
	}
	if e.EntityID != "light.kitchen" {
		t.Errorf("entry EntityID = %q, want %q", e.EntityID, "light.kitchen")
	}
	if string(e.Payload) != `{"state":"on"}` {
		t.Errorf("entry Payload = %q, want original payload", e.Payload)
	}
	if e.Cause != "broker unreachable" {
		t.Errorf("entry Cause = %q, want %q", e.Cause, "broker unreachable")
	}
	if e.CreatedAt.IsZero() {
		t.Error("entry CreatedAt should be set")
	}
}

func TestRepository_RecordFailure_NilCause(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.RecordFailure(ctx, "t", "light.kitchen", []byte("x"), nil); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}

	entries, err := repo.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if entries[0].Cause != "" {
		t.Errorf("entry Cause = %q, want empty for nil cause", entries[0].Cause)
	}
}

func TestRepository_Recent_Ordering(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	cause := errors.New("x")

	for _, entity := range []string{"light.one", "light.two", "light.three"} {
		if err := repo.RecordFailure(ctx, "t", entity, []byte("p"), cause); err != nil {
			t.Fatalf("RecordFailure(%s) error = %v", entity, err)
		}
		// SQLite timestamp resolution needs distinct times for ordering.
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (limit)", len(entries))
	}
	if entries[0].EntityID != "light.three" {
		t.Errorf("entries[0].EntityID = %q, want newest first", entries[0].EntityID)
	}
}

func TestRepository_CountAndPrune(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	cause := errors.New("x")

	for i := 0; i < 3; i++ {
		if err := repo.RecordFailure(ctx, "t", "light.kitchen", []byte("p"), cause); err != nil {
			t.Fatalf("RecordFailure() error = %v", err)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	// Nothing is older than an hour; prune removes nothing.
	deleted, err := repo.Prune(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("Prune(1h) deleted = %d, want 0", deleted)
	}

	// Zero retention deletes everything recorded before now.
	time.Sleep(2 * time.Millisecond)
	deleted, err = repo.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("Prune(0) deleted = %d, want 3", deleted)
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after prune = %d, want 0", count)
	}
}
