package amqp

import (
	"encoding/json"
	"time"
)

// Operations carried by a TransactionEvent.
const (
	OpCreated = "created"
	OpDeleted = "deleted"
)

// TransactionEvent announces that an owner's transaction set changed.
// It carries identifiers only; consumers re-query their own store for the
// current state instead of trusting a payload that may already be stale.
type TransactionEvent struct {
	Op            string    `json:"op"`
	OwnerID       string    `json:"owner_id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(op, ownerID, transactionID string) *TransactionEvent {
	return &TransactionEvent{
		Op:            op,
		OwnerID:       ownerID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var event TransactionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
