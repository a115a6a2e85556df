package audit

import (
	"time"

	"tradelane/pkg/domain"
)

// Action names a registry mutation worth a durable trail entry.
type Action string

const (
	ActionDocumentIssued        Action = "document_issued"
	ActionDocumentTransferred   Action = "document_transferred"
	ActionDocumentStatusUpdated Action = "document_status_updated"

	ActionExporterRegistered  Action = "exporter_registered"
	ActionExporterVerified    Action = "exporter_verified"
	ActionTransactionRecorded Action = "transaction_recorded"
	ActionTransactionRated    Action = "transaction_rated"
	ActionAdminTransferred    Action = "admin_transferred"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	Actor     domain.Principal
	// Subject is the record the action applied to: a document id, an
	// exporter id, or "exporter/tx" for transaction-level actions.
	Subject   string
	Action    Action
	RequestID string
	// Detail carries action-specific context, e.g. the new owner on a
	// transfer or the new status on a verification.
	Detail string
}
