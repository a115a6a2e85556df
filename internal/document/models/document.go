package models

import (
	"time"

	"tradelane/pkg/domain"
)

// DocumentStatusActive is the status every document starts in. Status is a
// free-form label afterwards ("amended", "surrendered", ...); the calling
// layer interprets it, the registry only records it.
const DocumentStatusActive = "active"

// TransferStatusCompleted is the only status a transfer record ever carries.
// Transfer records are append-only audit entries, never mutated.
const TransferStatusCompleted = "completed"

// Document is a registered shipping document (bill of lading, certificate).
//
// Invariants:
//   - ID is unique and immutable once issued
//   - Issuer and VerificationHash are set at creation and never change
//   - Owner changes only through a transfer by the current owner
//   - Status changes only through an update by the issuer or current owner
//   - Documents are never deleted
type Document struct {
	ID               domain.DocumentID `json:"id"`
	Type             string            `json:"document_type"`
	Issuer           domain.Principal  `json:"issuer"`
	Owner            domain.Principal  `json:"owner"`
	RelatedTrade     string            `json:"related_trade"`
	IssueDate        time.Time         `json:"issue_date"`
	ExpiryDate       time.Time         `json:"expiry_date"`
	Status           string            `json:"status"`
	Metadata         string            `json:"metadata"`
	VerificationHash domain.Digest     `json:"verification_hash"`
}

// NewDocument constructs a document in its initial state: status "active",
// issue date stamped from the request-scoped clock, issuer fixed to the
// caller.
func NewDocument(
	id domain.DocumentID,
	docType string,
	issuer, owner domain.Principal,
	relatedTrade string,
	expiryDate time.Time,
	metadata string,
	hash domain.Digest,
	now time.Time,
) *Document {
	return &Document{
		ID:               id,
		Type:             docType,
		Issuer:           issuer,
		Owner:            owner,
		RelatedTrade:     relatedTrade,
		IssueDate:        now,
		ExpiryDate:       expiryDate,
		Status:           DocumentStatusActive,
		Metadata:         metadata,
		VerificationHash: hash,
	}
}

// OwnedBy reports whether p is the current owner.
func (d *Document) OwnedBy(p domain.Principal) bool {
	return d.Owner == p
}

// CanUpdateStatus reports whether p holds status-update rights: the issuer
// keeps them for the document's lifetime, the owner holds them while owning.
func (d *Document) CanUpdateStatus(p domain.Principal) bool {
	return d.Issuer == p || d.Owner == p
}

// IsExpired reports whether the document's expiry lies strictly before now.
func (d *Document) IsExpired(now time.Time) bool {
	return now.After(d.ExpiryDate)
}

// TransferRecord is one entry in a document's ownership history, keyed by
// the (DocumentID, TransferID) pair.
type TransferRecord struct {
	DocumentID domain.DocumentID `json:"document_id"`
	TransferID domain.TransferID `json:"transfer_id"`
	From       domain.Principal  `json:"from"`
	To         domain.Principal  `json:"to"`
	Timestamp  time.Time         `json:"timestamp"`
	Status     string            `json:"status"`
}

// NewTransferRecord builds the audit entry for a completed ownership change.
func NewTransferRecord(
	documentID domain.DocumentID,
	transferID domain.TransferID,
	from, to domain.Principal,
	now time.Time,
) *TransferRecord {
	return &TransferRecord{
		DocumentID: documentID,
		TransferID: transferID,
		From:       from,
		To:         to,
		Timestamp:  now,
		Status:     TransferStatusCompleted,
	}
}
