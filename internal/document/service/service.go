// Package service implements the shipping document registry: issue,
// transfer, verify, and status-update operations over keyed document storage,
// with ownership-gated mutation and an append-only transfer history.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"tradelane/internal/audit"
	"tradelane/internal/document/metrics"
	"tradelane/internal/document/models"
	"tradelane/pkg/domain"
	dErrors "tradelane/pkg/domain-errors"
	"tradelane/pkg/platform/sentinel"
	"tradelane/pkg/platform/tx"
	"tradelane/pkg/requestcontext"
)

var tracer = otel.Tracer("tradelane/internal/document")

// DocumentStore is the keyed storage the registry owns: documents by id,
// transfer records by (document id, transfer id) pair.
type DocumentStore interface {
	CreateIfAbsent(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id domain.DocumentID) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	PutTransfer(ctx context.Context, rec *models.TransferRecord) error
	FindTransfer(ctx context.Context, documentID domain.DocumentID, transferID domain.TransferID) (*models.TransferRecord, error)
	ListTransfers(ctx context.Context, documentID domain.DocumentID) ([]*models.TransferRecord, error)
}

// Cache is an optional read-through cache for document lookups.
type Cache interface {
	Get(ctx context.Context, id domain.DocumentID) (*models.Document, bool, error)
	Set(ctx context.Context, doc *models.Document) error
	Invalidate(ctx context.Context, id domain.DocumentID) error
}

// AuditPublisher records registry mutations on the audit stream.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates document lifecycle operations.
type Service struct {
	store   DocumentStore
	tx      tx.Runner
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *metrics.Metrics
	cache   Cache
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// New constructs a Service. The runner provides the atomicity boundary for
// mutations; pass tx.NewMemory() with the in-memory store and tx.NewSQL(db)
// with the Postgres store.
func New(store DocumentStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tx:     runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueParams carries the caller-supplied attributes of a new document.
type IssueParams struct {
	DocumentID       domain.DocumentID
	DocumentType     string
	Owner            domain.Principal
	RelatedTrade     string
	ExpiryDate       time.Time
	Metadata         string
	VerificationHash domain.Digest
}

// Issue registers a new document with issuer = caller, status "active", and
// issue date = now. Fails with a conflict when the document id is taken.
func (s *Service) Issue(ctx context.Context, p IssueParams) (*models.Document, error) {
	ctx, span := tracer.Start(ctx, "document.Issue")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	var doc *models.Document
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		doc = models.NewDocument(
			p.DocumentID, p.DocumentType, caller, p.Owner,
			p.RelatedTrade, p.ExpiryDate, p.Metadata, p.VerificationHash,
			requestcontext.Now(txCtx),
		)
		if err := s.store.CreateIfAbsent(txCtx, doc); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "document id already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue document")
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: p.DocumentID.String(),
		Action:  audit.ActionDocumentIssued,
		Detail:  p.DocumentType,
	})
	if s.metrics != nil {
		s.metrics.DocumentsIssued.Inc()
	}
	return doc, nil
}

// Transfer moves ownership to newOwner and appends a transfer record, as one
// atomic mutation. Only the current owner may transfer. A repeated transfer
// id for the same document overwrites the earlier record.
func (s *Service) Transfer(ctx context.Context, documentID domain.DocumentID, transferID domain.TransferID, newOwner domain.Principal) (*models.TransferRecord, error) {
	ctx, span := tracer.Start(ctx, "document.Transfer")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	var rec *models.TransferRecord
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.store.FindByID(txCtx, documentID)
		if err != nil {
			return wrapStoreErr(err, "document not found", "failed to load document")
		}
		if !doc.OwnedBy(caller) {
			return dErrors.New(dErrors.CodeForbidden, "caller is not the document owner")
		}

		doc.Owner = newOwner
		if err := s.store.Update(txCtx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document owner")
		}

		rec = models.NewTransferRecord(documentID, transferID, caller, newOwner, requestcontext.Now(txCtx))
		if err := s.store.PutTransfer(txCtx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transfer")
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: documentID.String(),
		Action:  audit.ActionDocumentTransferred,
		Detail:  newOwner.String(),
	})
	s.invalidateCache(ctx, documentID)
	if s.metrics != nil {
		s.metrics.DocumentsTransferred.Inc()
	}
	return rec, nil
}

// Verify compares a supplied digest against the stored verification hash.
// Verification is intentionally public; there is no authorization check.
func (s *Service) Verify(ctx context.Context, documentID domain.DocumentID, hash domain.Digest) (bool, error) {
	ctx, span := tracer.Start(ctx, "document.Verify")
	defer span.End()

	var doc *models.Document
	err := s.tx.RunInReadTx(ctx, func(txCtx context.Context) error {
		found, err := s.store.FindByID(txCtx, documentID)
		if err != nil {
			return err
		}
		doc = found
		return nil
	})
	if err != nil {
		err = wrapStoreErr(err, "document not found", "failed to load document")
		recordError(span, err)
		return false, err
	}

	match := doc.VerificationHash.Equal(hash)
	if s.metrics != nil {
		outcome := "mismatch"
		if match {
			outcome = "match"
		}
		s.metrics.VerifyChecks.WithLabelValues(outcome).Inc()
	}
	return match, nil
}

// UpdateStatus sets the document status. The issuer and the current owner
// hold status-update rights; any status string is accepted.
func (s *Service) UpdateStatus(ctx context.Context, documentID domain.DocumentID, newStatus string) error {
	ctx, span := tracer.Start(ctx, "document.UpdateStatus")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.store.FindByID(txCtx, documentID)
		if err != nil {
			return wrapStoreErr(err, "document not found", "failed to load document")
		}
		if !doc.CanUpdateStatus(caller) {
			return dErrors.New(dErrors.CodeForbidden, "caller is neither issuer nor owner")
		}

		doc.Status = newStatus
		if err := s.store.Update(txCtx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document status")
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return err
	}

	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: documentID.String(),
		Action:  audit.ActionDocumentStatusUpdated,
		Detail:  newStatus,
	})
	s.invalidateCache(ctx, documentID)
	if s.metrics != nil {
		s.metrics.StatusUpdates.Inc()
	}
	return nil
}

// GetDocument is a pure lookup: absent documents yield (nil, nil), not an
// error.
func (s *Service) GetDocument(ctx context.Context, documentID domain.DocumentID) (*models.Document, error) {
	ctx, span := tracer.Start(ctx, "document.GetDocument")
	defer span.End()

	if s.cache != nil {
		doc, ok, err := s.cache.Get(ctx, documentID)
		if err != nil {
			s.logger.WarnContext(ctx, "document cache read failed", "document_id", documentID, "error", err)
		} else if ok {
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
			}
			return doc, nil
		} else if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}
	}

	var doc *models.Document
	err := s.tx.RunInReadTx(ctx, func(txCtx context.Context) error {
		found, err := s.store.FindByID(txCtx, documentID)
		if err != nil {
			return err
		}
		doc = found
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, doc); err != nil {
			s.logger.WarnContext(ctx, "document cache write failed", "document_id", documentID, "error", err)
		}
	}
	return doc, nil
}

// GetTransfer is a pure lookup: absent records yield (nil, nil).
func (s *Service) GetTransfer(ctx context.Context, documentID domain.DocumentID, transferID domain.TransferID) (*models.TransferRecord, error) {
	ctx, span := tracer.Start(ctx, "document.GetTransfer")
	defer span.End()

	var rec *models.TransferRecord
	err := s.tx.RunInReadTx(ctx, func(txCtx context.Context) error {
		found, err := s.store.FindTransfer(txCtx, documentID, transferID)
		if err != nil {
			return err
		}
		rec = found
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer record")
	}
	return rec, nil
}

// ListTransfers returns a document's transfer history in timestamp order.
func (s *Service) ListTransfers(ctx context.Context, documentID domain.DocumentID) ([]*models.TransferRecord, error) {
	ctx, span := tracer.Start(ctx, "document.ListTransfers")
	defer span.End()

	var recs []*models.TransferRecord
	err := s.tx.RunInReadTx(ctx, func(txCtx context.Context) error {
		found, err := s.store.ListTransfers(txCtx, documentID)
		if err != nil {
			return err
		}
		recs = found
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transfer records")
	}
	return recs, nil
}

// IsExpired reports whether now is past the document's expiry date. A
// nonexistent document is not expired; absence is a policy answer here, not
// an error.
func (s *Service) IsExpired(ctx context.Context, documentID domain.DocumentID) (bool, error) {
	ctx, span := tracer.Start(ctx, "document.IsExpired")
	defer span.End()

	var doc *models.Document
	err := s.tx.RunInReadTx(ctx, func(txCtx context.Context) error {
		found, err := s.store.FindByID(txCtx, documentID)
		if err != nil {
			return err
		}
		doc = found
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	return doc.IsExpired(requestcontext.Now(ctx)), nil
}

// emit records the event after the mutation has committed. Failures are
// logged, not returned: the audit stream must not wedge the registries, and
// the memory runner cannot roll an applied mutation back.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
	}
}

func (s *Service) invalidateCache(ctx context.Context, documentID domain.DocumentID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, documentID); err != nil {
		s.logger.WarnContext(ctx, "document cache invalidation failed", "document_id", documentID, "error", err)
	}
}

func wrapStoreErr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
}
