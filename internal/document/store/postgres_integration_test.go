//go:build integration

package store_test

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tradelane/internal/document/models"
	"tradelane/internal/document/store"
	"tradelane/pkg/domain"
	"tradelane/pkg/platform/sentinel"
	"tradelane/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "document_transfers", "documents")
	s.Require().NoError(err)
}

func newTestDocument(id domain.DocumentID) *models.Document {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hash := domain.Digest(sha256.Sum256([]byte(id)))
	return models.NewDocument(id, "bill_of_lading", "carrier", "shipper",
		"trade-42", now.AddDate(0, 6, 0), "port of Rotterdam", hash, now)
}

func (s *PostgresStoreSuite) TestCreateIfAbsent() {
	ctx := context.Background()
	doc := newTestDocument("doc-1")

	s.Require().NoError(s.store.CreateIfAbsent(ctx, doc))
	s.ErrorIs(s.store.CreateIfAbsent(ctx, newTestDocument("doc-1")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	doc := newTestDocument("doc-1")
	s.Require().NoError(s.store.CreateIfAbsent(ctx, doc))

	found, err := s.store.FindByID(ctx, "doc-1")
	s.Require().NoError(err)
	s.Equal(doc.Issuer, found.Issuer)
	s.Equal(doc.Owner, found.Owner)
	s.Equal(doc.Status, found.Status)
	s.Equal(doc.VerificationHash, found.VerificationHash)
	s.True(doc.IssueDate.Equal(found.IssueDate))
	s.True(doc.ExpiryDate.Equal(found.ExpiryDate))
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("absent document", func() {
		s.ErrorIs(s.store.Update(ctx, newTestDocument("missing")), sentinel.ErrNotFound)
	})

	s.Run("owner and status persist", func() {
		doc := newTestDocument("doc-1")
		s.Require().NoError(s.store.CreateIfAbsent(ctx, doc))

		doc.Owner = "consignee"
		doc.Status = "amended"
		s.Require().NoError(s.store.Update(ctx, doc))

		found, err := s.store.FindByID(ctx, "doc-1")
		s.Require().NoError(err)
		s.Equal(domain.Principal("consignee"), found.Owner)
		s.Equal("amended", found.Status)
	})
}

func (s *PostgresStoreSuite) TestPutTransferUpsert() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, newTestDocument("doc-1")))

	first := models.NewTransferRecord("doc-1", "t-1", "shipper", "consignee", base)
	s.Require().NoError(s.store.PutTransfer(ctx, first))

	second := models.NewTransferRecord("doc-1", "t-1", "consignee", "bank", base.Add(time.Hour))
	s.Require().NoError(s.store.PutTransfer(ctx, second))

	found, err := s.store.FindTransfer(ctx, "doc-1", "t-1")
	s.Require().NoError(err)
	s.Equal(domain.Principal("bank"), found.To)
	s.True(found.Timestamp.Equal(base.Add(time.Hour)))
}

func (s *PostgresStoreSuite) TestListTransfers() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, newTestDocument("doc-1")))
	s.Require().NoError(s.store.CreateIfAbsent(ctx, newTestDocument("doc-2")))

	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-1", "t-2", "b", "c", base.Add(time.Hour))))
	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-1", "t-1", "a", "b", base)))
	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-2", "t-1", "x", "y", base)))

	recs, err := s.store.ListTransfers(ctx, "doc-1")
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(domain.TransferID("t-1"), recs[0].TransferID)
	s.Equal(domain.TransferID("t-2"), recs[1].TransferID)
}
