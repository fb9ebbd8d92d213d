package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	// TransactionType discriminates money coming in from money going out.
	// Fixed at creation time; there is no edit operation.
	TransactionType string

	// Money is an amount in minor units (cents). All arithmetic happens on
	// cents; floating point only appears at the display boundary.
	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record. ID and OccurredAt are
	// assigned by the store at write time and are zero on a record that has
	// not been persisted yet.
	Transaction struct {
		ID          string
		OwnerID     string
		Description string
		Amount      Money
		Type        TransactionType
		OccurredAt  time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrMissingOwner     = errors.New("missing owner")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the creation preconditions. The store does not re-validate,
// so every write path must go through this first.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrMissingOwner
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Signed returns the amount in cents with expense negated.
func (t Transaction) Signed() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}
