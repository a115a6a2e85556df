// Package store provides the keyed storage backends for the exporter
// reputation registry: exporters by id, transaction records by the
// (exporter id, transaction id) pair, plus the singleton admin principal.
package store

import (
	"context"
	"sort"
	"sync"

	"tradelane/internal/exporter/models"
	"tradelane/pkg/domain"
	"tradelane/pkg/platform/sentinel"
)

type transactionKey struct {
	exporterID    domain.ExporterID
	transactionID domain.TransactionID
}

// InMemory keeps exporter state in process memory. The admin principal lives
// alongside the keyed maps, reified as explicit registry state rather than
// ambient configuration.
type InMemory struct {
	mu           sync.RWMutex
	exporters    map[domain.ExporterID]models.Exporter
	transactions map[transactionKey]models.TransactionRecord
	admin        domain.Principal
}

// NewInMemory creates the store with the deploying identity as admin.
func NewInMemory(admin domain.Principal) *InMemory {
	return &InMemory{
		exporters:    make(map[domain.ExporterID]models.Exporter),
		transactions: make(map[transactionKey]models.TransactionRecord),
		admin:        admin,
	}
}

// CreateIfAbsent inserts an exporter, returning sentinel.ErrConflict when the
// id is already taken.
func (s *InMemory) CreateIfAbsent(_ context.Context, exp *models.Exporter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.exporters[exp.ID]; exists {
		return sentinel.ErrConflict
	}
	s.exporters[exp.ID] = *exp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ExporterID) (*models.Exporter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.exporters[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &exp, nil
}

func (s *InMemory) Update(_ context.Context, exp *models.Exporter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exporters[exp.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.exporters[exp.ID] = *exp
	return nil
}

// CreateTransaction inserts a transaction record, returning
// sentinel.ErrConflict on a repeated (exporter id, transaction id) pair.
// Unlike document transfers, transaction history never overwrites.
func (s *InMemory) CreateTransaction(_ context.Context, rec *models.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := transactionKey{rec.ExporterID, rec.TransactionID}
	if _, exists := s.transactions[key]; exists {
		return sentinel.ErrConflict
	}
	s.transactions[key] = *rec
	return nil
}

func (s *InMemory) FindTransaction(_ context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID) (*models.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.transactions[transactionKey{exporterID, transactionID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// UpdateTransaction persists a rating change to an existing record.
func (s *InMemory) UpdateTransaction(_ context.Context, rec *models.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := transactionKey{rec.ExporterID, rec.TransactionID}
	if _, ok := s.transactions[key]; !ok {
		return sentinel.ErrNotFound
	}
	s.transactions[key] = *rec
	return nil
}

// ListTransactions returns an exporter's transaction history in date order,
// with the transaction id breaking ties so equal-date records list
// deterministically.
func (s *InMemory) ListTransactions(_ context.Context, exporterID domain.ExporterID) ([]*models.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TransactionRecord
	for key, rec := range s.transactions {
		if key.exporterID == exporterID {
			r := rec
			out = append(out, &r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].TransactionID < out[j].TransactionID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// Admin returns the current registry admin.
func (s *InMemory) Admin(_ context.Context) (domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin, nil
}

// SetAdmin replaces the registry admin. No history is kept.
func (s *InMemory) SetAdmin(_ context.Context, admin domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = admin
	return nil
}
