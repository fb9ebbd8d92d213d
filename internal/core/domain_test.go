package core

import (
	"errors"
	"strings"
	"testing"
)

func validTx() Transaction {
	return Transaction{
		OwnerID:     "u-1",
		Description: "Mercado",
		Amount:      Money{Cents: 1234},
		Type:        Expense,
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{name: "valid", mutate: func(*Transaction) {}, wantErr: nil},
		{name: "empty description", mutate: func(tx *Transaction) { tx.Description = "" }, wantErr: ErrEmptyDescription},
		{name: "whitespace description", mutate: func(tx *Transaction) { tx.Description = "   " }, wantErr: ErrEmptyDescription},
		{name: "zero amount", mutate: func(tx *Transaction) { tx.Amount.Cents = 0 }, wantErr: ErrInvalidAmount},
		{name: "negative amount", mutate: func(tx *Transaction) { tx.Amount.Cents = -100 }, wantErr: ErrInvalidAmount},
		{name: "unknown type", mutate: func(tx *Transaction) { tx.Type = "transfer" }, wantErr: ErrInvalidType},
		{name: "missing owner", mutate: func(tx *Transaction) { tx.OwnerID = "" }, wantErr: ErrMissingOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTx()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionValidateLongDescription(t *testing.T) {
	tx := validTx()
	tx.Description = strings.Repeat("a", 201)
	if err := tx.Validate(); err == nil {
		t.Fatal("expected error for description over 200 characters")
	}
}

func TestSigned(t *testing.T) {
	in := validTx()
	in.Type = Income
	if in.Signed() != 1234 {
		t.Errorf("income signed = %d, want 1234", in.Signed())
	}
	out := validTx()
	if out.Signed() != -1234 {
		t.Errorf("expense signed = %d, want -1234", out.Signed())
	}
}
