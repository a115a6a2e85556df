package models

import (
	"time"

	"tradelane/pkg/domain"
)

// VerificationPending is the status every exporter starts in. Verification
// status is otherwise a free-form label set by the registry admin.
const VerificationPending = "pending"

// TransactionStatusCompleted is the only status a transaction record ever
// carries. Records are append-only; only the rating field is ever rewritten.
const TransactionStatusCompleted = "completed"

// Exporter is a registered exporter profile.
//
// Invariants:
//   - ID is unique and immutable once registered
//   - Principal is the registrant identity and never changes
//   - VerificationStatus/VerificationDate change only through admin-gated
//     verification
//   - TotalTransactions increments by exactly one per recorded transaction
//   - Rating is a reserved aggregate; no operation updates it
type Exporter struct {
	ID                 domain.ExporterID `json:"id"`
	Principal          domain.Principal  `json:"principal"`
	Name               string            `json:"name"`
	Country            string            `json:"country"`
	VerificationStatus string            `json:"verification_status"`
	VerificationDate   time.Time         `json:"verification_date"`
	Rating             uint32            `json:"rating"`
	TotalTransactions  uint64            `json:"total_transactions"`
}

// NewExporter constructs an exporter in its initial state: pending
// verification, zero counters, principal fixed to the caller.
func NewExporter(id domain.ExporterID, principal domain.Principal, name, country string) *Exporter {
	return &Exporter{
		ID:                 id,
		Principal:          principal,
		Name:               name,
		Country:            country,
		VerificationStatus: VerificationPending,
	}
}

// RegisteredBy reports whether p is the exporter's registrant principal.
func (e *Exporter) RegisteredBy(p domain.Principal) bool {
	return e.Principal == p
}

// ApplyVerification records an admin verification decision.
func (e *Exporter) ApplyVerification(status string, now time.Time) {
	e.VerificationStatus = status
	e.VerificationDate = now
}

// TransactionRecord is one entry in an exporter's transaction history, keyed
// by the (ExporterID, TransactionID) pair.
type TransactionRecord struct {
	ExporterID    domain.ExporterID    `json:"exporter_id"`
	TransactionID domain.TransactionID `json:"transaction_id"`
	Buyer         domain.Principal     `json:"buyer"`
	Amount        uint64               `json:"amount"`
	Date          time.Time            `json:"date"`
	Status        string               `json:"status"`
	Rating        uint32               `json:"rating"`
}

// NewTransactionRecord builds a completed transaction entry with no rating.
func NewTransactionRecord(
	exporterID domain.ExporterID,
	transactionID domain.TransactionID,
	buyer domain.Principal,
	amount uint64,
	now time.Time,
) *TransactionRecord {
	return &TransactionRecord{
		ExporterID:    exporterID,
		TransactionID: transactionID,
		Buyer:         buyer,
		Amount:        amount,
		Date:          now,
		Status:        TransactionStatusCompleted,
	}
}

// RatedBy reports whether p is the buyer recorded on the transaction.
func (t *TransactionRecord) RatedBy(p domain.Principal) bool {
	return t.Buyer == p
}
