//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tradelane/internal/exporter/models"
	"tradelane/internal/exporter/store"
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
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "exporter_transactions", "exporters", "registry_admin")
	s.Require().NoError(err)
	s.Require().NoError(s.store.SeedAdmin(ctx, "registry-admin"))
}

func (s *PostgresStoreSuite) TestExporterRoundTrip() {
	ctx := context.Background()
	exp := models.NewExporter("exp-1", "principal-1", "Acme Exports", "NL")
	s.Require().NoError(s.store.CreateIfAbsent(ctx, exp))

	s.Run("duplicate id conflicts", func() {
		s.ErrorIs(s.store.CreateIfAbsent(ctx, models.NewExporter("exp-1", "other", "", "")), sentinel.ErrConflict)
	})

	s.Run("zero verification date survives the round trip", func() {
		found, err := s.store.FindByID(ctx, "exp-1")
		s.Require().NoError(err)
		s.Equal(exp.Principal, found.Principal)
		s.True(found.VerificationDate.IsZero())
	})

	s.Run("verification persists", func() {
		verifiedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		exp.ApplyVerification("verified", verifiedAt)
		exp.TotalTransactions = 2
		s.Require().NoError(s.store.Update(ctx, exp))

		found, err := s.store.FindByID(ctx, "exp-1")
		s.Require().NoError(err)
		s.Equal("verified", found.VerificationStatus)
		s.True(found.VerificationDate.Equal(verifiedAt))
		s.Equal(uint64(2), found.TotalTransactions)
	})

	s.Run("absent exporter", func() {
		_, err := s.store.FindByID(ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestTransactions() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, models.NewExporter("exp-1", "principal-1", "Acme", "NL")))

	rec := models.NewTransactionRecord("exp-1", "tx-1", "principal-2", 1000, base)
	s.Require().NoError(s.store.CreateTransaction(ctx, rec))

	s.Run("duplicate pair conflicts", func() {
		dup := models.NewTransactionRecord("exp-1", "tx-1", "other", 1, base)
		s.ErrorIs(s.store.CreateTransaction(ctx, dup), sentinel.ErrConflict)
	})

	s.Run("rating update persists only the rating", func() {
		rec.Rating = 5
		s.Require().NoError(s.store.UpdateTransaction(ctx, rec))

		found, err := s.store.FindTransaction(ctx, "exp-1", "tx-1")
		s.Require().NoError(err)
		s.Equal(uint32(5), found.Rating)
		s.Equal(uint64(1000), found.Amount)
	})

	s.Run("history in date order", func() {
		second := models.NewTransactionRecord("exp-1", "tx-2", "principal-2", 2000, base.Add(time.Hour))
		s.Require().NoError(s.store.CreateTransaction(ctx, second))

		recs, err := s.store.ListTransactions(ctx, "exp-1")
		s.Require().NoError(err)
		s.Require().Len(recs, 2)
		s.Equal(domain.TransactionID("tx-1"), recs[0].TransactionID)
		s.Equal(domain.TransactionID("tx-2"), recs[1].TransactionID)
	})
}

func (s *PostgresStoreSuite) TestAdmin() {
	ctx := context.Background()

	s.Run("seeded admin", func() {
		admin, err := s.store.Admin(ctx)
		s.Require().NoError(err)
		s.Equal(domain.Principal("registry-admin"), admin)
	})

	s.Run("re-seeding never overwrites", func() {
		s.Require().NoError(s.store.SeedAdmin(ctx, "intruder"))
		admin, err := s.store.Admin(ctx)
		s.Require().NoError(err)
		s.Equal(domain.Principal("registry-admin"), admin)
	})

	s.Run("transfer replaces the singleton", func() {
		s.Require().NoError(s.store.SetAdmin(ctx, "new-admin"))
		admin, err := s.store.Admin(ctx)
		s.Require().NoError(err)
		s.Equal(domain.Principal("new-admin"), admin)
	})
}
