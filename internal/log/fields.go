package log

// Shared field names so log lines stay greppable across components.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldKind      = "kind"
	FieldAccountID = "account_id"
	FieldAmount    = "amount"
	FieldTxnID     = "transaction_id"
)

// Component names.
const (
	ComponentApp    = "app"
	ComponentLedger = "ledger"
	ComponentWorker = "worker"
	ComponentExport = "export"
)
