package handler_test

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"tradelane/internal/document/handler"
	"tradelane/internal/document/models"
	"tradelane/internal/document/service"
	"tradelane/internal/document/store"
	"tradelane/pkg/domain"
	"tradelane/pkg/platform/tx"
	"tradelane/pkg/requestcontext"
	"tradelane/pkg/testutil"
)

const callerHeader = "X-Test-Caller"

// testAuth stands in for the JWT middleware: the caller principal comes from
// a plain header.
func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := r.Header.Get(callerHeader)
		if caller == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx := requestcontext.WithCaller(r.Context(), domain.Principal(caller))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type DocumentHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestDocumentHandlerSuite(t *testing.T) {
	suite.Run(t, new(DocumentHandlerSuite))
}

func (s *DocumentHandlerSuite) SetupTest() {
	svc := service.New(store.NewInMemory(), tx.NewMemory())
	h := handler.New(svc, testutil.DiscardLogger())

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.Register(s.router, testAuth)
}

func (s *DocumentHandlerSuite) hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (s *DocumentHandlerSuite) issueBody(id string) handler.IssueRequest {
	return handler.IssueRequest{
		DocumentID:       id,
		DocumentType:     "bill_of_lading",
		Owner:            "shipper-co",
		RelatedTrade:     "trade-42",
		ExpiryDate:       time.Now().AddDate(0, 6, 0),
		VerificationHash: s.hash("manifest-v1"),
	}
}

func (s *DocumentHandlerSuite) issue(id string) {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", s.issueBody(id))
	req.Header.Set(callerHeader, "carrier-line")
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code)
}

func (s *DocumentHandlerSuite) TestIssue() {
	s.Run("creates a document", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", s.issueBody("doc-1"))
		req.Header.Set(callerHeader, "carrier-line")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		doc := testutil.UnmarshalResponse[models.Document](s.T(), rr)
		s.Equal(domain.Principal("carrier-line"), doc.Issuer)
		s.Equal(models.DocumentStatusActive, doc.Status)
	})

	s.Run("duplicate id returns conflict", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", s.issueBody("doc-1"))
		req.Header.Set(callerHeader, "carrier-line")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	})

	s.Run("missing token returns unauthorized", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", s.issueBody("doc-2"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("invalid hash returns validation error", func() {
		body := s.issueBody("doc-3")
		body.VerificationHash = "not-hex"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", body)
		req.Header.Set(callerHeader, "carrier-line")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *DocumentHandlerSuite) TestTransfer() {
	s.issue("doc-1")

	s.Run("owner transfers", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/doc-1/transfers",
			handler.TransferRequest{TransferID: "t-1", NewOwner: "consignee-bank"})
		req.Header.Set(callerHeader, "shipper-co")
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		rec := testutil.UnmarshalResponse[models.TransferRecord](s.T(), rr)
		s.Equal(domain.Principal("consignee-bank"), rec.To)
	})

	s.Run("non-owner is forbidden", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/doc-1/transfers",
			handler.TransferRequest{TransferID: "t-2", NewOwner: "shipper-co"})
		req.Header.Set(callerHeader, "stranger")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("absent document returns not found", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/missing/transfers",
			handler.TransferRequest{TransferID: "t-1", NewOwner: "consignee-bank"})
		req.Header.Set(callerHeader, "shipper-co")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}

func (s *DocumentHandlerSuite) TestVerify() {
	s.issue("doc-1")

	s.Run("match without authentication", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/doc-1/verify",
			handler.VerifyRequest{Hash: s.hash("manifest-v1")})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
		s.True((*resp)["match"])
	})

	s.Run("mismatch", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/doc-1/verify",
			handler.VerifyRequest{Hash: s.hash("tampered")})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
		s.False((*resp)["match"])
	})
}

func (s *DocumentHandlerSuite) TestUpdateStatus() {
	s.issue("doc-1")

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents/doc-1/status",
		handler.UpdateStatusRequest{Status: "surrendered"})
	req.Header.Set(callerHeader, "carrier-line")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	get := testutil.NewRequest(s.T(), http.MethodGet, "/documents/doc-1")
	rr = testutil.DoRequest(s.router, get)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	doc := testutil.UnmarshalResponse[models.Document](s.T(), rr)
	s.Equal("surrendered", doc.Status)
}

func (s *DocumentHandlerSuite) TestLookups() {
	s.issue("doc-1")

	s.Run("absent document returns not found", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/documents/missing")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("expired check is public", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/documents/doc-1/expired")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
		s.False((*resp)["expired"])
	})

	s.Run("empty transfer history is an empty list", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/documents/doc-1/transfers")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq("[]", rr.Body.String())
	})
}
