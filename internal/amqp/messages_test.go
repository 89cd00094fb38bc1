package amqp

import (
	"testing"
	"time"
)

func TestTransactionEventJSONRoundTrip(t *testing.T) {
	event := &TransactionEvent{
		Op:          OpCreated,
		Kind:        "expense",
		ID:          42,
		AccountID:   1,
		Amount:      "75.50",
		Description: "groceries",
		Date:        "2025-06-15",
		Timestamp:   time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}

	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if *got != *event {
		t.Errorf("round trip = %+v, want %+v", got, event)
	}
}

func TestTransactionEventFromJSONInvalid(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestTransferEventOmitsKind(t *testing.T) {
	event := &TransactionEvent{
		Op:          OpTransferred,
		AccountID:   1,
		ToAccountID: 2,
		Amount:      "200.00",
		Timestamp:   time.Now(),
	}
	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if string(body) == "" {
		t.Fatal("empty body")
	}
	got, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Kind != "" || got.ToAccountID != 2 {
		t.Errorf("transfer event = %+v, want empty kind and to_account_id 2", got)
	}
}
