// Package ledger defines the ports of the transaction store boundary.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/guhrizzo/my-wallet/internal/core"
)

// ErrNotFound is returned by Remove when no row matches the given owner and
// id. Deleting a nonexistent transaction is a reported failure, not a no-op.
var ErrNotFound = errors.New("transaction not found")

// Ports for outbound adapters.
type (
	// TransactionWriter persists a new transaction. The store assigns the ID
	// and stamps OccurredAt with its own clock; any caller-supplied values
	// for those fields are ignored. Validation is the caller's precondition.
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	// TransactionRemover deletes a transaction by id, scoped to its owner.
	TransactionRemover interface {
		Remove(ctx context.Context, ownerID, id string) error
	}

	// TransactionLister returns an owner's transactions with OccurredAt in
	// [start, end], ordered by OccurredAt descending.
	TransactionLister interface {
		ListPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]core.Transaction, error)
	}
)

// Store bundles the three ports for callers that need the full boundary.
type Store interface {
	TransactionWriter
	TransactionRemover
	TransactionLister
}
