package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guhrizzo/my-wallet/internal/amqp"
	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/feed"
	"github.com/guhrizzo/my-wallet/internal/ledger"
)

// TransactionService orchestrates writes across the store, the live feed and
// the AMQP fanout. The hub and the AMQP client are optional: without a hub
// there is nobody to notify, without AMQP other processes simply don't hear
// about local changes.
type TransactionService struct {
	store      ledger.Store
	hub        *feed.Hub
	amqpClient *amqp.Client
}

func NewTransactionService(store ledger.Store, hub *feed.Hub, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		store:      store,
		hub:        hub,
		amqpClient: amqpClient,
	}
}

// Create validates and persists a transaction. Validation runs before any
// store access: an invalid record never reaches the store. Subscribers are
// notified after the write; the AMQP publish is best-effort and never fails
// the request.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.Append(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.notify(ctx, created.OwnerID)
	s.publishEvent(ctx, amqp.OpCreated, created.OwnerID, created.ID)

	return created, nil
}

// Delete removes an owner's transaction. Deleting a record that does not
// exist (or belongs to someone else) returns ledger.ErrNotFound.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.Remove(ctx, ownerID, id); err != nil {
		return err
	}

	s.notify(ctx, ownerID)
	s.publishEvent(ctx, amqp.OpDeleted, ownerID, id)

	return nil
}

// ListMonth returns the owner's transactions for one calendar month, newest
// first.
func (s *TransactionService) ListMonth(ctx context.Context, ownerID string, year int, month time.Month) ([]core.Transaction, error) {
	start, end := core.MonthRange(year, month)
	txs, err := s.store.ListPeriod(ctx, ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// HandleRemoteEvent reacts to a change event published by another process by
// refreshing this process's local subscriptions for the affected owner.
func (s *TransactionService) HandleRemoteEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	if event.OwnerID == "" {
		return fmt.Errorf("event without owner id")
	}
	s.notify(ctx, event.OwnerID)
	return nil
}

func (s *TransactionService) notify(ctx context.Context, ownerID string) {
	if s.hub == nil {
		return
	}
	s.hub.Notify(ctx, ownerID)
}

func (s *TransactionService) publishEvent(ctx context.Context, op, ownerID, id string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(op, ownerID, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"op", op, "transaction_id", id, "error", err)
		// The write already succeeded locally, don't fail the request.
	}
}

// Close releases the AMQP connection if one is attached.
func (s *TransactionService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp: %w", err)
		}
	}
	return nil
}
