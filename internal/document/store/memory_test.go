package store

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tradelane/internal/document/models"
	"tradelane/pkg/domain"
	"tradelane/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func newTestDocument(id domain.DocumentID, issuer, owner domain.Principal) *models.Document {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hash := domain.Digest(sha256.Sum256([]byte(id)))
	return models.NewDocument(id, "bill_of_lading", issuer, owner,
		"trade-42", now.AddDate(0, 6, 0), "", hash, now)
}

func (s *InMemoryStoreSuite) TestCreateIfAbsent() {
	ctx := context.Background()
	doc := newTestDocument("doc-1", "carrier", "shipper")

	s.Run("first insert succeeds", func() {
		s.NoError(s.store.CreateIfAbsent(ctx, doc))
	})

	s.Run("second insert with same id conflicts", func() {
		dup := newTestDocument("doc-1", "other-carrier", "other-shipper")
		s.ErrorIs(s.store.CreateIfAbsent(ctx, dup), sentinel.ErrConflict)
	})

	s.Run("original document is unchanged", func() {
		found, err := s.store.FindByID(ctx, "doc-1")
		s.Require().NoError(err)
		s.Equal(domain.Principal("carrier"), found.Issuer)
	})
}

func (s *InMemoryStoreSuite) TestFindByID() {
	ctx := context.Background()

	s.Run("absent document", func() {
		_, err := s.store.FindByID(ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned document is a copy", func() {
		s.Require().NoError(s.store.CreateIfAbsent(ctx, newTestDocument("doc-1", "carrier", "shipper")))
		found, err := s.store.FindByID(ctx, "doc-1")
		s.Require().NoError(err)

		found.Owner = "mutated"
		again, err := s.store.FindByID(ctx, "doc-1")
		s.Require().NoError(err)
		s.Equal(domain.Principal("shipper"), again.Owner)
	})
}

func (s *InMemoryStoreSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("absent document", func() {
		s.ErrorIs(s.store.Update(ctx, newTestDocument("missing", "a", "b")), sentinel.ErrNotFound)
	})

	s.Run("owner and status persist", func() {
		doc := newTestDocument("doc-1", "carrier", "shipper")
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

func (s *InMemoryStoreSuite) TestPutTransfer() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Run("insert then lookup", func() {
		rec := models.NewTransferRecord("doc-1", "t-1", "shipper", "consignee", base)
		s.Require().NoError(s.store.PutTransfer(ctx, rec))

		found, err := s.store.FindTransfer(ctx, "doc-1", "t-1")
		s.Require().NoError(err)
		s.Equal(domain.Principal("consignee"), found.To)
	})

	s.Run("repeated pair overwrites the earlier record", func() {
		rec := models.NewTransferRecord("doc-1", "t-1", "consignee", "bank", base.Add(time.Hour))
		s.Require().NoError(s.store.PutTransfer(ctx, rec))

		found, err := s.store.FindTransfer(ctx, "doc-1", "t-1")
		s.Require().NoError(err)
		s.Equal(domain.Principal("bank"), found.To)
		s.Equal(base.Add(time.Hour), found.Timestamp)
	})

	s.Run("absent pair", func() {
		_, err := s.store.FindTransfer(ctx, "doc-1", "t-404")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestListTransfers() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-1", "t-2", "b", "c", base.Add(time.Hour))))
	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-1", "t-1", "a", "b", base)))
	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-2", "t-1", "x", "y", base)))

	recs, err := s.store.ListTransfers(ctx, "doc-1")
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(domain.TransferID("t-1"), recs[0].TransferID)
	s.Equal(domain.TransferID("t-2"), recs[1].TransferID)
}

// Equal timestamps happen when several transfers land under one
// request-scoped clock; the listing must still come back in a fixed order.
func (s *InMemoryStoreSuite) TestListTransfersEqualTimestamps() {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-1", "t-b", "a", "b", at)))
	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-1", "t-c", "b", "c", at)))
	s.Require().NoError(s.store.PutTransfer(ctx, models.NewTransferRecord("doc-1", "t-a", "c", "d", at)))

	for i := 0; i < 5; i++ {
		recs, err := s.store.ListTransfers(ctx, "doc-1")
		s.Require().NoError(err)
		s.Require().Len(recs, 3)
		s.Equal(domain.TransferID("t-a"), recs[0].TransferID)
		s.Equal(domain.TransferID("t-b"), recs[1].TransferID)
		s.Equal(domain.TransferID("t-c"), recs[2].TransferID)
	}
}
