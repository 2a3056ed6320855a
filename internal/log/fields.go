package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldPrincipal   = "principal"
	FieldCollection  = "collection"
	FieldRecordID    = "record_id"
	FieldGoalID      = "goal_id"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldSlot        = "slot"
	FieldQuery       = "query"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentEngine  = "engine"
	ComponentStore   = "store"
	ComponentRecords = "records"
	ComponentGoals   = "goals"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentSession = "session"
)

// Operations defines standard operation names
const (
	OpSubmit    = "submit"
	OpSubscribe = "subscribe"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpToggle    = "toggle"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
