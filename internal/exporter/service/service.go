// Package service implements the exporter reputation registry: registration,
// admin-gated verification, transaction logging, and buyer-side rating over
// keyed exporter storage.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"tradelane/internal/audit"
	"tradelane/internal/exporter/metrics"
	"tradelane/internal/exporter/models"
	"tradelane/pkg/domain"
	dErrors "tradelane/pkg/domain-errors"
	"tradelane/pkg/platform/sentinel"
	"tradelane/pkg/platform/tx"
	"tradelane/pkg/requestcontext"
)

var tracer = otel.Tracer("tradelane/internal/exporter")

// ExporterStore is the keyed storage the registry owns: exporters by id,
// transaction records by (exporter id, transaction id) pair, and the
// singleton admin principal.
type ExporterStore interface {
	CreateIfAbsent(ctx context.Context, exp *models.Exporter) error
	FindByID(ctx context.Context, id domain.ExporterID) (*models.Exporter, error)
	Update(ctx context.Context, exp *models.Exporter) error
	CreateTransaction(ctx context.Context, rec *models.TransactionRecord) error
	FindTransaction(ctx context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID) (*models.TransactionRecord, error)
	UpdateTransaction(ctx context.Context, rec *models.TransactionRecord) error
	ListTransactions(ctx context.Context, exporterID domain.ExporterID) ([]*models.TransactionRecord, error)
	Admin(ctx context.Context) (domain.Principal, error)
	SetAdmin(ctx context.Context, admin domain.Principal) error
}

// AuditPublisher records registry mutations on the audit stream.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates exporter lifecycle and reputation operations.
type Service struct {
	store   ExporterStore
	tx      tx.Runner
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *metrics.Metrics
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

// New constructs a Service.
func New(store ExporterStore, runner tx.Runner, opts ...Option) *Service {
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

// Register creates an exporter profile owned by the caller. Fails with a
// conflict when the exporter id is taken.
func (s *Service) Register(ctx context.Context, exporterID domain.ExporterID, name, country string) (*models.Exporter, error) {
	ctx, span := tracer.Start(ctx, "exporter.Register")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	var exp *models.Exporter
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		exp = models.NewExporter(exporterID, caller, name, country)
		if err := s.store.CreateIfAbsent(txCtx, exp); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "exporter id already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register exporter")
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: exporterID.String(),
		Action:  audit.ActionExporterRegistered,
		Detail:  country,
	})
	if s.metrics != nil {
		s.metrics.ExportersRegistered.Inc()
	}
	return exp, nil
}

// Verify records an admin verification decision. The admin check runs before
// the existence check: non-admin callers cannot probe which exporter ids
// exist through this operation.
func (s *Service) Verify(ctx context.Context, exporterID domain.ExporterID, status string) error {
	ctx, span := tracer.Start(ctx, "exporter.Verify")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		admin, err := s.store.Admin(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry admin")
		}
		if caller != admin {
			return dErrors.New(dErrors.CodeForbidden, "caller is not the registry admin")
		}

		exp, err := s.store.FindByID(txCtx, exporterID)
		if err != nil {
			return wrapStoreErr(err, "exporter not found", "failed to load exporter")
		}

		exp.ApplyVerification(status, requestcontext.Now(txCtx))
		if err := s.store.Update(txCtx, exp); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exporter verification")
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return err
	}

	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: exporterID.String(),
		Action:  audit.ActionExporterVerified,
		Detail:  status,
	})
	if s.metrics != nil {
		s.metrics.ExportersVerified.Inc()
	}
	return nil
}

// AddTransaction logs a completed transaction and bumps the exporter's
// counter, as one atomic mutation. Only the exporter's registrant principal
// logs its own transactions. The existence check runs before the
// authorization check, the reverse of Verify.
func (s *Service) AddTransaction(ctx context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID, buyer domain.Principal, amount uint64) (*models.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "exporter.AddTransaction")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	var rec *models.TransactionRecord
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		exp, err := s.store.FindByID(txCtx, exporterID)
		if err != nil {
			return wrapStoreErr(err, "exporter not found", "failed to load exporter")
		}
		if !exp.RegisteredBy(caller) {
			return dErrors.New(dErrors.CodeForbidden, "caller is not the exporter principal")
		}

		rec = models.NewTransactionRecord(exporterID, transactionID, buyer, amount, requestcontext.Now(txCtx))
		if err := s.store.CreateTransaction(txCtx, rec); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "transaction id already exists for this exporter")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transaction")
		}

		exp.TotalTransactions++
		if err := s.store.Update(txCtx, exp); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update exporter counters")
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: exporterID.String() + "/" + transactionID.String(),
		Action:  audit.ActionTransactionRecorded,
		Detail:  buyer.String(),
	})
	if s.metrics != nil {
		s.metrics.TransactionsRecorded.Inc()
	}
	return rec, nil
}

// RateTransaction sets the buyer's rating on a transaction. Repeated calls
// overwrite: last write wins, no history of prior ratings. The exporter-level
// aggregate rating is deliberately left untouched.
func (s *Service) RateTransaction(ctx context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID, rating uint32) error {
	ctx, span := tracer.Start(ctx, "exporter.RateTransaction")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.store.FindTransaction(txCtx, exporterID, transactionID)
		if err != nil {
			return wrapStoreErr(err, "transaction not found", "failed to load transaction")
		}
		if !rec.RatedBy(caller) {
			return dErrors.New(dErrors.CodeForbidden, "caller is not the transaction buyer")
		}

		rec.Rating = rating
		if err := s.store.UpdateTransaction(txCtx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update transaction rating")
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return err
	}

	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: exporterID.String() + "/" + transactionID.String(),
		Action:  audit.ActionTransactionRated,
	})
	if s.metrics != nil {
		s.metrics.TransactionsRated.Inc()
	}
	return nil
}

// GetExporterInfo is a pure lookup: absent exporters yield (nil, nil).
func (s *Service) GetExporterInfo(ctx context.Context, exporterID domain.ExporterID) (*models.Exporter, error) {
	ctx, span := tracer.Start(ctx, "exporter.GetExporterInfo")
	defer span.End()

	var exp *models.Exporter
	err := s.tx.RunInReadTx(ctx, func(txCtx context.Context) error {
		found, err := s.store.FindByID(txCtx, exporterID)
		if err != nil {
			return err
		}
		exp = found
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load exporter")
	}
	return exp, nil
}

// GetTransaction is a pure lookup: absent records yield (nil, nil).
func (s *Service) GetTransaction(ctx context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID) (*models.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "exporter.GetTransaction")
	defer span.End()

	var rec *models.TransactionRecord
	err := s.tx.RunInReadTx(ctx, func(txCtx context.Context) error {
		found, err := s.store.FindTransaction(txCtx, exporterID, transactionID)
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
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transaction")
	}
	return rec, nil
}

// ListTransactions returns an exporter's transaction history in date order.
func (s *Service) ListTransactions(ctx context.Context, exporterID domain.ExporterID) ([]*models.TransactionRecord, error) {
	ctx, span := tracer.Start(ctx, "exporter.ListTransactions")
	defer span.End()

	var recs []*models.TransactionRecord
	err := s.tx.RunInReadTx(ctx, func(txCtx context.Context) error {
		found, err := s.store.ListTransactions(txCtx, exporterID)
		if err != nil {
			return err
		}
		recs = found
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transactions")
	}
	return recs, nil
}

// TransferAdmin hands the registry admin role to newAdmin. Only the current
// admin may transfer it; no history of past admins is kept.
func (s *Service) TransferAdmin(ctx context.Context, newAdmin domain.Principal) error {
	ctx, span := tracer.Start(ctx, "exporter.TransferAdmin")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		admin, err := s.store.Admin(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry admin")
		}
		if caller != admin {
			return dErrors.New(dErrors.CodeForbidden, "caller is not the registry admin")
		}
		if err := s.store.SetAdmin(txCtx, newAdmin); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer registry admin")
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return err
	}

	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: newAdmin.String(),
		Action:  audit.ActionAdminTransferred,
	})
	if s.metrics != nil {
		s.metrics.AdminTransfers.Inc()
	}
	return nil
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

func wrapStoreErr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
}
