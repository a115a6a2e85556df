// Package domain holds the identifier types shared by both registries.
//
// Identifiers are caller-chosen strings. The registries treat them as opaque
// keys; length bounds are enforced by the storage schema, not by business
// logic.
package domain

// Principal is an authenticated caller identity supplied by the execution
// environment (auth middleware in production, test helpers in tests).
type Principal string

// IsZero reports whether no caller identity is present.
func (p Principal) IsZero() bool { return p == "" }

func (p Principal) String() string { return string(p) }

// DocumentID identifies a shipping document.
type DocumentID string

func (id DocumentID) String() string { return string(id) }

// TransferID identifies a transfer record within a document's history.
// Transfer records are keyed by the (DocumentID, TransferID) pair.
type TransferID string

func (id TransferID) String() string { return string(id) }

// ExporterID identifies an exporter profile.
type ExporterID string

func (id ExporterID) String() string { return string(id) }

// TransactionID identifies a transaction record within an exporter's history.
// Transaction records are keyed by the (ExporterID, TransactionID) pair.
type TransactionID string

func (id TransactionID) String() string { return string(id) }
