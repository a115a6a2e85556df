// Package store provides the keyed storage backends for the shipping
// document registry: documents keyed by id, transfer records keyed by the
// (document id, transfer id) pair.
package store

import (
	"context"
	"sort"
	"sync"

	"tradelane/internal/document/models"
	"tradelane/pkg/domain"
	"tradelane/pkg/platform/sentinel"
)

type transferKey struct {
	documentID domain.DocumentID
	transferID domain.TransferID
}

// InMemory keeps documents and transfer history in process memory. Records
// are stored by value so callers cannot mutate registry state behind the
// store's back.
type InMemory struct {
	mu        sync.RWMutex
	documents map[domain.DocumentID]models.Document
	transfers map[transferKey]models.TransferRecord
}

func NewInMemory() *InMemory {
	return &InMemory{
		documents: make(map[domain.DocumentID]models.Document),
		transfers: make(map[transferKey]models.TransferRecord),
	}
}

// CreateIfAbsent inserts a document, returning sentinel.ErrConflict when the
// id is already taken. A document id, once inserted, is never re-inserted.
func (s *InMemory) CreateIfAbsent(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.documents[doc.ID] = *doc
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &doc, nil
}

// Update persists changes to an existing document.
func (s *InMemory) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.documents[doc.ID] = *doc
	return nil
}

// PutTransfer upserts a transfer record. A duplicate (document id, transfer
// id) pair overwrites the prior record; transfer id collisions are the
// caller's responsibility.
func (s *InMemory) PutTransfer(_ context.Context, rec *models.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers[transferKey{rec.DocumentID, rec.TransferID}] = *rec
	return nil
}

func (s *InMemory) FindTransfer(_ context.Context, documentID domain.DocumentID, transferID domain.TransferID) (*models.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.transfers[transferKey{documentID, transferID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// ListTransfers returns a document's transfer history ordered by timestamp,
// with the transfer id breaking ties so equal-timestamp records (several
// transfers under one request-scoped clock) list deterministically.
func (s *InMemory) ListTransfers(_ context.Context, documentID domain.DocumentID) ([]*models.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TransferRecord
	for key, rec := range s.transfers {
		if key.documentID == documentID {
			r := rec
			out = append(out, &r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].TransferID < out[j].TransferID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
