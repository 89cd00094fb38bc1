package amqp

import (
	"encoding/json"
	"time"
)

// Event operations carried on the transaction events queue.
const (
	OpCreated     = "created"
	OpUpdated     = "updated"
	OpDeleted     = "deleted"
	OpTransferred = "transferred"
)

// TransactionEvent is published after every successful ledger operation.
// Amounts travel as formatted strings so consumers never touch floats.
type TransactionEvent struct {
	Op          string    `json:"op"`
	Kind        string    `json:"kind,omitempty"`
	ID          int64     `json:"id,omitempty"`
	AccountID   int64     `json:"account_id"`
	ToAccountID int64     `json:"to_account_id,omitempty"`
	Amount      string    `json:"amount"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
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
