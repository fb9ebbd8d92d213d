// Package memory is an in-process transaction store used as the default
// backend and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	now   func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock allows tests to control the timestamps the store assigns.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// Append stores the transaction, assigning id and occurred_at.
func (s *Store) Append(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.OccurredAt = s.now().UTC()
	s.items = append(s.items, t)
	return t, nil
}

// Remove deletes by owner and id. A nonexistent id reports ledger.ErrNotFound.
func (s *Store) Remove(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID == id && t.OwnerID == ownerID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

// ListPeriod returns the owner's transactions within [start, end], newest
// first.
func (s *Store) ListPeriod(_ context.Context, ownerID string, start, end time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.items {
		if t.OwnerID != ownerID {
			continue
		}
		if t.OccurredAt.Before(start) || t.OccurredAt.After(end) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}
