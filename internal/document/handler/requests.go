package handler

import (
	"time"

	"tradelane/pkg/domain"
	dErrors "tradelane/pkg/domain-errors"
)

// IssueRequest is the payload for POST /documents.
type IssueRequest struct {
	DocumentID       string    `json:"document_id"`
	DocumentType     string    `json:"document_type"`
	Owner            string    `json:"owner"`
	RelatedTrade     string    `json:"related_trade"`
	ExpiryDate       time.Time `json:"expiry_date"`
	Metadata         string    `json:"metadata"`
	VerificationHash string    `json:"verification_hash"`
}

// Validate checks transport-level requirements. Field contents beyond these
// are deliberately unvalidated; the registry records what callers supply.
func (r *IssueRequest) Validate() error {
	if r.DocumentID == "" {
		return dErrors.New(dErrors.CodeValidation, "document_id is required")
	}
	if r.Owner == "" {
		return dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	return nil
}

// Digest parses the verification hash field.
func (r *IssueRequest) Digest() (domain.Digest, error) {
	d, err := domain.ParseDigest(r.VerificationHash)
	if err != nil {
		return domain.Digest{}, dErrors.New(dErrors.CodeValidation, "verification_hash must be a 32-byte hex digest")
	}
	return d, nil
}

// TransferRequest is the payload for POST /documents/{documentID}/transfers.
type TransferRequest struct {
	TransferID string `json:"transfer_id"`
	NewOwner   string `json:"new_owner"`
}

func (r *TransferRequest) Validate() error {
	if r.TransferID == "" {
		return dErrors.New(dErrors.CodeValidation, "transfer_id is required")
	}
	if r.NewOwner == "" {
		return dErrors.New(dErrors.CodeValidation, "new_owner is required")
	}
	return nil
}

// UpdateStatusRequest is the payload for POST /documents/{documentID}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}

// VerifyRequest is the payload for POST /documents/{documentID}/verify.
type VerifyRequest struct {
	Hash string `json:"hash"`
}

func (r *VerifyRequest) Digest() (domain.Digest, error) {
	d, err := domain.ParseDigest(r.Hash)
	if err != nil {
		return domain.Digest{}, dErrors.New(dErrors.CodeValidation, "hash must be a 32-byte hex digest")
	}
	return d, nil
}
