package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "wallet.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	stamp := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return stamp }

	created, err := repo.Append(context.Background(), core.Transaction{
		ID:          "spoofed-id",
		OwnerID:     "u-1",
		Description: "Salário",
		Amount:      core.Money{Cents: 500000},
		Type:        core.Income,
		OccurredAt:  time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if created.ID == "" || created.ID == "spoofed-id" {
		t.Fatalf("id = %q, want a fresh server-assigned id", created.ID)
	}
	if !created.OccurredAt.Equal(stamp) {
		t.Fatalf("occurred_at = %v, want the repository clock %v", created.OccurredAt, stamp)
	}
}

func TestListPeriodFiltersAndOrders(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC),
	}
	i := 0
	repo.now = func() time.Time { ts := times[i]; i++; return ts }

	for _, desc := range []string{"março 1", "março 2", "abril"} {
		if _, err := repo.Append(ctx, core.Transaction{
			OwnerID: "u-1", Description: desc,
			Amount: core.Money{Cents: 100}, Type: core.Expense,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// Another owner's record in the same month must not leak.
	repo.now = time.Now
	if _, err := repo.Append(ctx, core.Transaction{
		OwnerID: "u-2", Description: "alheio",
		Amount: core.Money{Cents: 100}, Type: core.Income,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	start, end := core.MonthRange(2025, time.March)
	txs, err := repo.ListPeriod(ctx, "u-1", start, end)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("listed %d records, want 2", len(txs))
	}
	if !txs[0].OccurredAt.After(txs[1].OccurredAt) {
		t.Fatal("records are not ordered newest first")
	}
}

func TestRemoveScopedByOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Append(ctx, core.Transaction{
		OwnerID: "u-1", Description: "mercado",
		Amount: core.Money{Cents: 4000}, Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := repo.Remove(ctx, "u-2", created.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("cross-owner remove = %v, want ledger.ErrNotFound", err)
	}
	if err := repo.Remove(ctx, "u-1", created.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := repo.Remove(ctx, "u-1", created.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("repeat remove = %v, want ledger.ErrNotFound", err)
	}
}

func TestUserAccounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "ana@example.com", "bcrypt-hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == "" {
		t.Fatal("user id not assigned")
	}

	if _, err := repo.CreateUser(ctx, "ana@example.com", "other-hash"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate create = %v, want ErrDuplicateEmail", err)
	}

	found, err := repo.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if found.ID != created.ID || found.PasswordHash != "bcrypt-hash" {
		t.Fatalf("found = %+v, want the created user", found)
	}

	if _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user = %v, want ErrUserNotFound", err)
	}
}
