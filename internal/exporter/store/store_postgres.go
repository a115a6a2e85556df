package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"tradelane/internal/exporter/models"
	"tradelane/pkg/domain"
	"tradelane/pkg/platform/sentinel"
	txcontext "tradelane/pkg/platform/tx"
)

// Postgres persists exporter state in PostgreSQL, including the singleton
// admin row. Writes issued inside a tx.Runner transaction pick the
// transaction up from the context.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// SeedAdmin installs the deploying identity as admin if no admin exists yet.
// Restarting the process never overwrites a transferred admin.
func (s *Postgres) SeedAdmin(ctx context.Context, admin domain.Principal) error {
	query := `
		INSERT INTO registry_admin (singleton, principal)
		VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, admin.String()); err != nil {
		return fmt.Errorf("seed registry admin: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *Postgres) CreateIfAbsent(ctx context.Context, exp *models.Exporter) error {
	query := `
		INSERT INTO exporters (id, principal, name, country, verification_status, verification_date, rating, total_transactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		exp.ID.String(),
		exp.Principal.String(),
		exp.Name,
		exp.Country,
		exp.VerificationStatus,
		nullTime(exp.VerificationDate),
		exp.Rating,
		exp.TotalTransactions,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert exporter: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ExporterID) (*models.Exporter, error) {
	query := `
		SELECT id, principal, name, country, verification_status, verification_date, rating, total_transactions
		FROM exporters
		WHERE id = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, id.String())

	var exp models.Exporter
	var expID, principal string
	var verificationDate sql.NullTime
	err := row.Scan(&expID, &principal, &exp.Name, &exp.Country,
		&exp.VerificationStatus, &verificationDate, &exp.Rating, &exp.TotalTransactions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan exporter: %w", err)
	}
	exp.ID = domain.ExporterID(expID)
	exp.Principal = domain.Principal(principal)
	if verificationDate.Valid {
		exp.VerificationDate = verificationDate.Time
	}
	return &exp, nil
}

func (s *Postgres) Update(ctx context.Context, exp *models.Exporter) error {
	query := `
		UPDATE exporters
		SET verification_status = $2, verification_date = $3, rating = $4, total_transactions = $5
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		exp.ID.String(),
		exp.VerificationStatus,
		nullTime(exp.VerificationDate),
		exp.Rating,
		exp.TotalTransactions,
	)
	if err != nil {
		return fmt.Errorf("update exporter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exporter rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CreateTransaction(ctx context.Context, rec *models.TransactionRecord) error {
	query := `
		INSERT INTO exporter_transactions (exporter_id, transaction_id, buyer, amount, transacted_at, status, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ExporterID.String(),
		rec.TransactionID.String(),
		rec.Buyer.String(),
		rec.Amount,
		rec.Date,
		rec.Status,
		rec.Rating,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert transaction record: %w", err)
	}
	return nil
}

func (s *Postgres) FindTransaction(ctx context.Context, exporterID domain.ExporterID, transactionID domain.TransactionID) (*models.TransactionRecord, error) {
	query := `
		SELECT exporter_id, transaction_id, buyer, amount, transacted_at, status, rating
		FROM exporter_transactions
		WHERE exporter_id = $1 AND transaction_id = $2
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, exporterID.String(), transactionID.String())
	rec, err := scanTransaction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *Postgres) UpdateTransaction(ctx context.Context, rec *models.TransactionRecord) error {
	query := `
		UPDATE exporter_transactions
		SET rating = $3
		WHERE exporter_id = $1 AND transaction_id = $2
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, rec.ExporterID.String(), rec.TransactionID.String(), rec.Rating)
	if err != nil {
		return fmt.Errorf("update transaction record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListTransactions(ctx context.Context, exporterID domain.ExporterID) ([]*models.TransactionRecord, error) {
	query := `
		SELECT exporter_id, transaction_id, buyer, amount, transacted_at, status, rating
		FROM exporter_transactions
		WHERE exporter_id = $1
		ORDER BY transacted_at, transaction_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, exporterID.String())
	if err != nil {
		return nil, fmt.Errorf("list transaction records: %w", err)
	}
	defer rows.Close()

	var out []*models.TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction records: %w", err)
	}
	return out, nil
}

func (s *Postgres) Admin(ctx context.Context) (domain.Principal, error) {
	query := `SELECT principal FROM registry_admin WHERE singleton = TRUE`
	var principal string
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&principal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("load registry admin: %w", err)
	}
	return domain.Principal(principal), nil
}

func (s *Postgres) SetAdmin(ctx context.Context, admin domain.Principal) error {
	query := `
		INSERT INTO registry_admin (singleton, principal)
		VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET principal = EXCLUDED.principal
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, admin.String()); err != nil {
		return fmt.Errorf("set registry admin: %w", err)
	}
	return nil
}

func scanTransaction(scan func(dest ...any) error) (*models.TransactionRecord, error) {
	var rec models.TransactionRecord
	var exporterID, transactionID, buyer string
	err := scan(&exporterID, &transactionID, &buyer, &rec.Amount, &rec.Date, &rec.Status, &rec.Rating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction record: %w", err)
	}
	rec.ExporterID = domain.ExporterID(exporterID)
	rec.TransactionID = domain.TransactionID(transactionID)
	rec.Buyer = domain.Principal(buyer)
	return &rec, nil
}

// nullTime maps the zero time to NULL so "never verified" round-trips.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
