package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workgovernance "atelier/contexts/creative-works/work-governance"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	workhttp "atelier/contexts/creative-works/work-governance/transport/http"
	"atelier/internal/platform/auth"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, identity IdentityResolver, opts Options) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(workgovernance.NewInMemoryModule(1, logger), identity, logger, opts)
	return &testServer{t: t, handler: srv.Handler()}
}

func (s *testServer) do(method, path, caller string, body any, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != "" {
		req.Header.Set("X-Account-Id", caller)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) seedWork(owner string, collaborators ...string) workhttp.WorkDTO {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/authors", owner, workhttp.CreateAuthorRequest{Name: "Owner", Age: 40}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	fee := int64(10)
	rec = s.do(http.MethodPost, "/v1/works", owner, workhttp.CreateWorkRequest{
		Title:         "Etude",
		Content:       "hidden",
		Collaborators: collaborators,
		Fee:           &fee,
	}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[workhttp.WorkResponse](s.t, rec).Item
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec := s.do(http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = s.do(http.MethodGet, "/healthz", "", nil, map[string]string{"X-Request-Id": "req-7"})
	assert.Equal(t, "req-7", rec.Header().Get("X-Request-Id"))
}

func TestWriteEndpointsRequireIdentity(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec := s.do(http.MethodPost, "/v1/authors", "", workhttp.CreateAuthorRequest{Name: "A"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_identity", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodGet, "/v1/works", "", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorEndpoints(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec := s.do(http.MethodPost, "/v1/authors", "alice", workhttp.CreateAuthorRequest{Name: "Alice", Age: 30}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", decode[workhttp.AuthorResponse](t, rec).Item.AuthorID)

	rec = s.do(http.MethodPost, "/v1/authors", "alice", workhttp.CreateAuthorRequest{Name: "Alice", Age: 30}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "author_exists", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPatch, "/v1/authors/me", "alice", `{"age":31}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 31, decode[workhttp.AuthorResponse](t, rec).Item.Age)

	rec = s.do(http.MethodGet, "/v1/authors/nobody", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "author_not_found", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodDelete, "/v1/authors/alice", "mallory", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, "/v1/authors/alice", "alice", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/v1/authors", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[workhttp.ListAuthorsResponse](t, rec).Items)
}

func TestWorkVisibilityOverHTTP(t *testing.T) {
	s := newTestServer(t, nil, Options{})
	work := s.seedWork("alice", "bob")

	rec := s.do(http.MethodGet, "/v1/works/"+work.WorkID, "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	public := decode[workhttp.WorkResponse](t, rec).Item
	assert.Equal(t, "public", public.Visibility)
	assert.Equal(t, "Invisible content", public.Content)

	rec = s.do(http.MethodGet, "/v1/works/"+work.WorkID, "bob", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hidden", decode[workhttp.WorkResponse](t, rec).Item.Content)

	rec = s.do(http.MethodGet, "/v1/authors/alice/works", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[workhttp.ListWorksResponse](t, rec).Items, 1)

	rec = s.do(http.MethodGet, "/v1/works/missing", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "work_not_found", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodGet, "/v1/stats", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workhttp.StatsResponse{Authors: 1, Works: 1}, decode[workhttp.StatsResponse](t, rec))
}

func TestRequestValidationErrors(t *testing.T) {
	s := newTestServer(t, nil, Options{})
	work := s.seedWork("alice")
	path := "/v1/works/" + work.WorkID

	rec := s.do(http.MethodPost, path+"/ratings", "carol", `{"rating":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, path+"/ratings", "carol", workhttp.RateWorkRequest{Rating: 9}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, path+"/access", "carol", nil, map[string]string{"X-Attached-Amount": "-5", "Idempotency-Key": "k1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_attached_amount", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, path+"/access", "carol", nil, map[string]string{"X-Attached-Amount": "10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "idempotency_key_required", decode[workhttp.ErrorResponse](t, rec).Code)
}

func TestAccessAndVotingOverHTTP(t *testing.T) {
	s := newTestServer(t, nil, Options{})
	work := s.seedWork("alice", "bob")
	path := "/v1/works/" + work.WorkID

	rec := s.do(http.MethodPost, path+"/access", "carol", nil, map[string]string{"X-Attached-Amount": "3", "Idempotency-Key": "k1"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "payment_mismatch", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, path+"/access", "carol", nil, map[string]string{"X-Attached-Amount": "10", "Idempotency-Key": "k2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	access := decode[workhttp.AccessResponse](t, rec)
	assert.True(t, access.Granted)
	assert.Equal(t, int64(10), access.Charged)

	rec = s.do(http.MethodPost, path+"/access", "carol", nil, map[string]string{"X-Attached-Amount": "10", "Idempotency-Key": "k2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[workhttp.AccessResponse](t, rec).Replayed)

	rec = s.do(http.MethodPost, path+"/votes", "carol", workhttp.VoteRequest{Decision: true}, map[string]string{"X-Attached-Amount": "1", "Idempotency-Key": "v1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, path, "alice", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_open_round", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, path+"/votes", "alice", workhttp.VoteRequest{Decision: true}, map[string]string{"X-Attached-Amount": "1", "Idempotency-Key": "v2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tally := decode[workhttp.VoteResponse](t, rec)
	assert.Equal(t, 2, tally.TotalPeople)
	assert.Equal(t, 1, tally.RequiredVotes)

	rec = s.do(http.MethodPost, path+"/votes", "alice", workhttp.VoteRequest{Decision: true}, map[string]string{"X-Attached-Amount": "1", "Idempotency-Key": "v3"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_voted", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodDelete, path, "alice", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, path, "alice", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDistributeOverHTTP(t *testing.T) {
	s := newTestServer(t, nil, Options{})
	work := s.seedWork("alice", "bob")
	path := "/v1/works/" + work.WorkID + "/distributions"

	rec := s.do(http.MethodPost, path, "carol", workhttp.DistributeFundsRequest{TotalAmount: 100}, map[string]string{"X-Attached-Amount": "99", "Idempotency-Key": "d1"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = s.do(http.MethodPost, path, "carol", workhttp.DistributeFundsRequest{TotalAmount: 100}, map[string]string{"X-Attached-Amount": "100", "Idempotency-Key": "d2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[workhttp.DistributionResponse](t, rec)
	assert.True(t, result.EqualSplit)
	assert.Equal(t, int64(100), result.Distributed)
	assert.Len(t, result.Payouts, 2)
}

func TestBearerIdentity(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret", "atelier", time.Hour)
	s := newTestServer(t, BearerIdentity{Tokens: tokens}, Options{})

	token, err := tokens.GenerateToken("alice")
	require.NoError(t, err)

	rec := s.do(http.MethodPost, "/v1/authors", "", workhttp.CreateAuthorRequest{Name: "Alice", Age: 30}, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "alice", decode[workhttp.AuthorResponse](t, rec).Item.AuthorID)

	rec = s.do(http.MethodGet, "/v1/works", "", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[workhttp.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodGet, "/v1/works", "", nil, map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/v1/authors", "bob", workhttp.CreateAuthorRequest{Name: "Bob"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "header identity is ignored in bearer mode")
}

func TestSwaggerDocs(t *testing.T) {
	s := newTestServer(t, nil, Options{EnableSwagger: true})
	rec := s.do(http.MethodGet, "/swagger/doc.json", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/works/{work_id}/votes")

	s = newTestServer(t, nil, Options{})
	rec = s.do(http.MethodGet, "/swagger/doc.json", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIdempotencyErrorCodes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(workgovernance.NewInMemoryModule(1, logger), HeaderIdentity{}, logger, Options{})

	for code, err := range map[string]error{
		"idempotency_conflict":    domainerrors.ErrIdempotencyConflict,
		"idempotency_in_progress": fmt.Errorf("distribute: %w", domainerrors.ErrIdempotencyInProgress),
	} {
		rec := httptest.NewRecorder()
		srv.writeDomainError(rec, httptest.NewRequest(http.MethodPost, "/v1/works/w1/distributions", nil), err)
		assert.Equal(t, http.StatusConflict, rec.Code, code)
		assert.Equal(t, code, decode[workhttp.ErrorResponse](t, rec).Code)
	}
}
