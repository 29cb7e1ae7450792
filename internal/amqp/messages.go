package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"budgetbuddy/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionDeleted EventKind = "transaction.deleted"
)

// LedgerEvent announces a committed ledger mutation. Consumers refetch
// whatever they need; the payload carries enough to pick the month.
type LedgerEvent struct {
	ID            uuid.UUID            `json:"id"`
	Kind          EventKind            `json:"kind"`
	TransactionID int64                `json:"transaction_id"`
	Type          core.TransactionType `json:"type,omitempty"`
	Amount        decimal.Decimal      `json:"amount"`
	Date          time.Time            `json:"date"`
	Timestamp     time.Time            `json:"timestamp"`
}

func NewTransactionCreated(tx core.Transaction) *LedgerEvent {
	return newLedgerEvent(TransactionCreated, tx)
}

func NewTransactionDeleted(tx core.Transaction) *LedgerEvent {
	return newLedgerEvent(TransactionDeleted, tx)
}

func newLedgerEvent(kind EventKind, tx core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		ID:            uuid.New(),
		Kind:          kind,
		TransactionID: tx.ID,
		Type:          tx.Type,
		Amount:        tx.Amount,
		Date:          tx.Date,
		Timestamp:     time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes a delivery body and rejects unknown kinds.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case TransactionCreated, TransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return &e, nil
}
