package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tradelane/internal/exporter/models"
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
	s.store = NewInMemory("registry-admin")
}

func (s *InMemoryStoreSuite) TestCreateIfAbsent() {
	ctx := context.Background()
	exp := models.NewExporter("exp-1", "principal-1", "Acme Exports", "NL")

	s.Require().NoError(s.store.CreateIfAbsent(ctx, exp))
	s.ErrorIs(s.store.CreateIfAbsent(ctx, models.NewExporter("exp-1", "other", "", "")), sentinel.ErrConflict)

	found, err := s.store.FindByID(ctx, "exp-1")
	s.Require().NoError(err)
	s.Equal(domain.Principal("principal-1"), found.Principal)
	s.Equal(models.VerificationPending, found.VerificationStatus)
}

func (s *InMemoryStoreSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("absent exporter", func() {
		s.ErrorIs(s.store.Update(ctx, models.NewExporter("missing", "p", "", "")), sentinel.ErrNotFound)
	})

	s.Run("verification and counters persist", func() {
		exp := models.NewExporter("exp-1", "principal-1", "Acme Exports", "NL")
		s.Require().NoError(s.store.CreateIfAbsent(ctx, exp))

		exp.ApplyVerification("verified", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		exp.TotalTransactions = 3
		s.Require().NoError(s.store.Update(ctx, exp))

		found, err := s.store.FindByID(ctx, "exp-1")
		s.Require().NoError(err)
		s.Equal("verified", found.VerificationStatus)
		s.Equal(uint64(3), found.TotalTransactions)
	})
}

func (s *InMemoryStoreSuite) TestCreateTransaction() {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := models.NewTransactionRecord("exp-1", "tx-1", "buyer-1", 1000, now)
	s.Require().NoError(s.store.CreateTransaction(ctx, rec))

	s.Run("duplicate pair conflicts without overwriting", func() {
		dup := models.NewTransactionRecord("exp-1", "tx-1", "buyer-2", 5000, now.Add(time.Hour))
		s.ErrorIs(s.store.CreateTransaction(ctx, dup), sentinel.ErrConflict)

		found, err := s.store.FindTransaction(ctx, "exp-1", "tx-1")
		s.Require().NoError(err)
		s.Equal(domain.Principal("buyer-1"), found.Buyer)
		s.Equal(uint64(1000), found.Amount)
	})

	s.Run("same transaction id under another exporter is distinct", func() {
		other := models.NewTransactionRecord("exp-2", "tx-1", "buyer-2", 2000, now)
		s.NoError(s.store.CreateTransaction(ctx, other))
	})
}

func (s *InMemoryStoreSuite) TestUpdateTransaction() {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Run("absent record", func() {
		rec := models.NewTransactionRecord("exp-1", "missing", "buyer-1", 1, now)
		s.ErrorIs(s.store.UpdateTransaction(ctx, rec), sentinel.ErrNotFound)
	})

	s.Run("rating persists", func() {
		rec := models.NewTransactionRecord("exp-1", "tx-1", "buyer-1", 1000, now)
		s.Require().NoError(s.store.CreateTransaction(ctx, rec))

		rec.Rating = 5
		s.Require().NoError(s.store.UpdateTransaction(ctx, rec))

		found, err := s.store.FindTransaction(ctx, "exp-1", "tx-1")
		s.Require().NoError(err)
		s.Equal(uint32(5), found.Rating)
	})
}

func (s *InMemoryStoreSuite) TestListTransactions() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.CreateTransaction(ctx, models.NewTransactionRecord("exp-1", "tx-2", "b", 2, base.Add(time.Hour))))
	s.Require().NoError(s.store.CreateTransaction(ctx, models.NewTransactionRecord("exp-1", "tx-1", "a", 1, base)))
	s.Require().NoError(s.store.CreateTransaction(ctx, models.NewTransactionRecord("exp-2", "tx-1", "c", 3, base)))

	recs, err := s.store.ListTransactions(ctx, "exp-1")
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(domain.TransactionID("tx-1"), recs[0].TransactionID)
	s.Equal(domain.TransactionID("tx-2"), recs[1].TransactionID)
}

// Same-date records must list in a fixed order across calls.
func (s *InMemoryStoreSuite) TestListTransactionsEqualDates() {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.CreateTransaction(ctx, models.NewTransactionRecord("exp-1", "tx-b", "a", 1, at)))
	s.Require().NoError(s.store.CreateTransaction(ctx, models.NewTransactionRecord("exp-1", "tx-c", "b", 2, at)))
	s.Require().NoError(s.store.CreateTransaction(ctx, models.NewTransactionRecord("exp-1", "tx-a", "c", 3, at)))

	for i := 0; i < 5; i++ {
		recs, err := s.store.ListTransactions(ctx, "exp-1")
		s.Require().NoError(err)
		s.Require().Len(recs, 3)
		s.Equal(domain.TransactionID("tx-a"), recs[0].TransactionID)
		s.Equal(domain.TransactionID("tx-b"), recs[1].TransactionID)
		s.Equal(domain.TransactionID("tx-c"), recs[2].TransactionID)
	}
}

func (s *InMemoryStoreSuite) TestAdmin() {
	ctx := context.Background()

	admin, err := s.store.Admin(ctx)
	s.Require().NoError(err)
	s.Equal(domain.Principal("registry-admin"), admin)

	s.Require().NoError(s.store.SetAdmin(ctx, "new-admin"))
	admin, err = s.store.Admin(ctx)
	s.Require().NoError(err)
	s.Equal(domain.Principal("new-admin"), admin)
}
