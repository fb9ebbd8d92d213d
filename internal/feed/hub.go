// Package feed delivers live snapshots of an owner's transactions to
// subscribers. Every delivery is the entire current matching set for the
// subscription's filter, never a delta; a newer snapshot supersedes any
// undelivered older one.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/ledger"
)

// Hub owns the live subscriptions of one process. It re-queries the store on
// every change notification and pushes full snapshots to the matching
// subscriptions.
type Hub struct {
	lister ledger.TransactionLister

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{} // keyed by owner id
}

func NewHub(lister ledger.TransactionLister) *Hub {
	return &Hub{
		lister: lister,
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe opens a standing subscription filtered to ownerID and to
// OccurredAt within [start, end]. The initial snapshot is delivered before
// Subscribe returns. The caller must Cancel the subscription before opening
// a replacement for a different period, so a superseded filter can never
// overwrite current state.
func (h *Hub) Subscribe(ctx context.Context, ownerID string, start, end time.Time) (*Subscription, error) {
	initial, err := h.lister.ListPeriod(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		hub:     h,
		ownerID: ownerID,
		start:   start,
		end:     end,
		ch:      make(chan []core.Transaction, 1),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	owner := h.subs[ownerID]
	if owner == nil {
		owner = make(map[*Subscription]struct{})
		h.subs[ownerID] = owner
	}
	owner[sub] = struct{}{}
	h.mu.Unlock()

	sub.deliver(initial)
	return sub, nil
}

// Notify tells the hub that ownerID's transaction set changed. Each of the
// owner's subscriptions is re-queried with its own filter and receives a
// fresh full snapshot. Query failures are logged and leave the subscriber on
// its last-known snapshot.
func (h *Hub) Notify(ctx context.Context, ownerID string) {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs[ownerID]))
	for sub := range h.subs[ownerID] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		snapshot, err := h.lister.ListPeriod(ctx, ownerID, sub.start, sub.end)
		if err != nil {
			slog.ErrorContext(ctx, "Subscription requery failed",
				"owner_id", ownerID, "error", err)
			continue
		}
		sub.deliver(snapshot)
	}
}

// SubscriberCount reports how many live subscriptions an owner has.
func (h *Hub) SubscriberCount(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	owner := h.subs[sub.ownerID]
	delete(owner, sub)
	if len(owner) == 0 {
		delete(h.subs, sub.ownerID)
	}
}

// Subscription is one live query handle. Receive snapshots from Updates,
// stop with Cancel.
type Subscription struct {
	hub     *Hub
	ownerID string
	start   time.Time
	end     time.Time

	sendMu sync.Mutex
	ch     chan []core.Transaction

	cancelOnce sync.Once
	done       chan struct{}
}

// Updates is the snapshot channel. It has capacity one and is latest-wins:
// if the subscriber is slow, an undelivered snapshot is replaced by its
// successor, so whatever is read is always the most recent delivery.
func (s *Subscription) Updates() <-chan []core.Transaction {
	return s.ch
}

// Done is closed when the subscription is canceled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel terminates the subscription. No delivery is made after Cancel
// returns.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}

func (s *Subscription) deliver(snapshot []core.Transaction) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	select {
	case <-s.done:
		return
	default:
	}
	// Drop a pending older snapshot, then place the new one.
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snapshot
}
