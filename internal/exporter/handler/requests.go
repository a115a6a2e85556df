package handler

import (
	dErrors "tradelane/pkg/domain-errors"
)

// RegisterRequest is the payload for POST /exporters.
type RegisterRequest struct {
	ExporterID string `json:"exporter_id"`
	Name       string `json:"name"`
	Country    string `json:"country"`
}

func (r *RegisterRequest) Validate() error {
	if r.ExporterID == "" {
		return dErrors.New(dErrors.CodeValidation, "exporter_id is required")
	}
	return nil
}

// VerifyRequest is the payload for POST /exporters/{exporterID}/verification.
type VerifyRequest struct {
	Status string `json:"status"`
}

func (r *VerifyRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}

// AddTransactionRequest is the payload for
// POST /exporters/{exporterID}/transactions.
type AddTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
	Buyer         string `json:"buyer"`
	Amount        uint64 `json:"amount"`
}

func (r *AddTransactionRequest) Validate() error {
	if r.TransactionID == "" {
		return dErrors.New(dErrors.CodeValidation, "transaction_id is required")
	}
	if r.Buyer == "" {
		return dErrors.New(dErrors.CodeValidation, "buyer is required")
	}
	return nil
}

// RateTransactionRequest is the payload for
// POST /exporters/{exporterID}/transactions/{transactionID}/rating.
type RateTransactionRequest struct {
	Rating uint32 `json:"rating"`
}

// TransferAdminRequest is the payload for POST /registry/admin/transfer.
type TransferAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}

func (r *TransferAdminRequest) Validate() error {
	if r.NewAdmin == "" {
		return dErrors.New(dErrors.CodeValidation, "new_admin is required")
	}
	return nil
}
