package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"tradelane/internal/document/models"
	"tradelane/pkg/domain"
	"tradelane/pkg/platform/sentinel"
	txcontext "tradelane/pkg/platform/tx"
)

// Postgres persists documents and transfer records in PostgreSQL. Writes
// issued inside a tx.Runner transaction pick the transaction up from the
// context, so a transfer's ownership update and its audit record commit
// together.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
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

func (s *Postgres) CreateIfAbsent(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (
			id, document_type, issuer, owner, related_trade,
			issue_date, expiry_date, status, metadata, verification_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		doc.ID.String(),
		doc.Type,
		doc.Issuer.String(),
		doc.Owner.String(),
		doc.RelatedTrade,
		doc.IssueDate,
		doc.ExpiryDate,
		doc.Status,
		doc.Metadata,
		doc.VerificationHash[:],
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	query := `
		SELECT id, document_type, issuer, owner, related_trade,
		       issue_date, expiry_date, status, metadata, verification_hash
		FROM documents
		WHERE id = $1
	`
	return scanDocument(s.execer(ctx).QueryRowContext(ctx, query, id.String()))
}

func (s *Postgres) Update(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE documents
		SET owner = $2, status = $3
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, doc.ID.String(), doc.Owner.String(), doc.Status)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) PutTransfer(ctx context.Context, rec *models.TransferRecord) error {
	query := `
		INSERT INTO document_transfers (document_id, transfer_id, from_principal, to_principal, transferred_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id, transfer_id) DO UPDATE
		SET from_principal = EXCLUDED.from_principal,
		    to_principal = EXCLUDED.to_principal,
		    transferred_at = EXCLUDED.transferred_at,
		    status = EXCLUDED.status
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.DocumentID.String(),
		rec.TransferID.String(),
		rec.From.String(),
		rec.To.String(),
		rec.Timestamp,
		rec.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert transfer record: %w", err)
	}
	return nil
}

func (s *Postgres) FindTransfer(ctx context.Context, documentID domain.DocumentID, transferID domain.TransferID) (*models.TransferRecord, error) {
	query := `
		SELECT document_id, transfer_id, from_principal, to_principal, transferred_at, status
		FROM document_transfers
		WHERE document_id = $1 AND transfer_id = $2
	`
	return scanTransfer(s.execer(ctx).QueryRowContext(ctx, query, documentID.String(), transferID.String()))
}

func (s *Postgres) ListTransfers(ctx context.Context, documentID domain.DocumentID) ([]*models.TransferRecord, error) {
	query := `
		SELECT document_id, transfer_id, from_principal, to_principal, transferred_at, status
		FROM document_transfers
		WHERE document_id = $1
		ORDER BY transferred_at, transfer_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, documentID.String())
	if err != nil {
		return nil, fmt.Errorf("list transfer records: %w", err)
	}
	defer rows.Close()

	var out []*models.TransferRecord
	for rows.Next() {
		var rec models.TransferRecord
		var docID, transferID, from, to string
		if err := rows.Scan(&docID, &transferID, &from, &to, &rec.Timestamp, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan transfer record: %w", err)
		}
		rec.DocumentID = domain.DocumentID(docID)
		rec.TransferID = domain.TransferID(transferID)
		rec.From = domain.Principal(from)
		rec.To = domain.Principal(to)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer records: %w", err)
	}
	return out, nil
}

func scanDocument(row *sql.Row) (*models.Document, error) {
	var doc models.Document
	var id, issuer, owner string
	var hash []byte
	err := row.Scan(&id, &doc.Type, &issuer, &owner, &doc.RelatedTrade,
		&doc.IssueDate, &doc.ExpiryDate, &doc.Status, &doc.Metadata, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.ID = domain.DocumentID(id)
	doc.Issuer = domain.Principal(issuer)
	doc.Owner = domain.Principal(owner)
	copy(doc.VerificationHash[:], hash)
	return &doc, nil
}

func scanTransfer(row *sql.Row) (*models.TransferRecord, error) {
	var rec models.TransferRecord
	var docID, transferID, from, to string
	err := row.Scan(&docID, &transferID, &from, &to, &rec.Timestamp, &rec.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan transfer record: %w", err)
	}
	rec.DocumentID = domain.DocumentID(docID)
	rec.TransferID = domain.TransferID(transferID)
	rec.From = domain.Principal(from)
	rec.To = domain.Principal(to)
	return &rec, nil
}
