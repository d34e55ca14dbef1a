package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	workgovernance "atelier/contexts/creative-works/work-governance"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	workhttp "atelier/contexts/creative-works/work-governance/transport/http"
	_ "atelier/internal/platform/httpserver/docs"
)

const maxBodyBytes = 1 << 20

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	EnableSwagger   bool
}

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	opts     Options
	works    workgovernance.Module
	identity IdentityResolver
}

func New(
	works workgovernance.Module,
	identity IdentityResolver,
	logger *slog.Logger,
	opts Options,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if identity == nil {
		identity = HeaderIdentity{}
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		opts:     opts,
		works:    works,
		identity: identity,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the routed mux wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLog(s.mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.opts.Addr,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) registerRoutes() {
	if s.opts.EnableSwagger {
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /v1/stats", s.handleStats)

	s.mux.HandleFunc("POST /v1/authors", s.handleCreateAuthor)
	s.mux.HandleFunc("GET /v1/authors", s.handleListAuthors)
	s.mux.HandleFunc("PATCH /v1/authors/me", s.handleUpdateAuthor)
	s.mux.HandleFunc("GET /v1/authors/{author_id}", s.handleGetAuthor)
	s.mux.HandleFunc("DELETE /v1/authors/{author_id}", s.handleDeleteAuthor)
	s.mux.HandleFunc("GET /v1/authors/{author_id}/works", s.handleListWorksByAuthor)

	s.mux.HandleFunc("POST /v1/works", s.handleCreateWork)
	s.mux.HandleFunc("GET /v1/works", s.handleListWorks)
	s.mux.HandleFunc("GET /v1/works/{work_id}", s.handleGetWork)
	s.mux.HandleFunc("PATCH /v1/works/{work_id}", s.handleUpdateWork)
	s.mux.HandleFunc("DELETE /v1/works/{work_id}", s.handleDeleteWork)
	s.mux.HandleFunc("POST /v1/works/{work_id}/ratings", s.handleRateWork)
	s.mux.HandleFunc("POST /v1/works/{work_id}/collaborators", s.handleAddCollaborators)
	s.mux.HandleFunc("POST /v1/works/{work_id}/reports", s.handleReportInfringement)
	s.mux.HandleFunc("POST /v1/works/{work_id}/distributions", s.handleDistributeFunds)
	s.mux.HandleFunc("POST /v1/works/{work_id}/access", s.handleGetAccess)
	s.mux.HandleFunc("POST /v1/works/{work_id}/votes", s.handleVote)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.works.Handler.StatsHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateAuthor(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req workhttp.CreateAuthorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.CreateAuthorHandler(r.Context(), callerID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAuthors(w http.ResponseWriter, r *http.Request) {
	resp, err := s.works.Handler.ListAuthorsHandler(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateAuthor(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req workhttp.UpdateAuthorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.UpdateAuthorHandler(r.Context(), callerID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAuthor(w http.ResponseWriter, r *http.Request) {
	resp, err := s.works.Handler.GetAuthorHandler(r.Context(), r.PathValue("author_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAuthor(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.works.Handler.DeleteAuthorHandler(r.Context(), callerID, r.PathValue("author_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListWorksByAuthor(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.optionalCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.works.Handler.ListWorksByAuthorHandler(r.Context(), callerID, r.PathValue("author_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateWork(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req workhttp.CreateWorkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.CreateWorkHandler(r.Context(), callerID, req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListWorks(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.optionalCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.works.Handler.ListWorksHandler(r.Context(), callerID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.optionalCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.works.Handler.GetWorkHandler(r.Context(), callerID, r.PathValue("work_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateWork(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req workhttp.UpdateWorkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.UpdateWorkHandler(r.Context(), callerID, r.PathValue("work_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteWork(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.works.Handler.DeleteWorkHandler(r.Context(), callerID, r.PathValue("work_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRateWork(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req workhttp.RateWorkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.RateWorkHandler(r.Context(), callerID, r.PathValue("work_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddCollaborators(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req workhttp.AddCollaboratorsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.AddCollaboratorsHandler(r.Context(), callerID, r.PathValue("work_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReportInfringement(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	var req workhttp.ReportInfringementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.ReportInfringementHandler(r.Context(), callerID, r.PathValue("work_id"), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistributeFunds(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	attached, ok := attachedAmount(w, r)
	if !ok {
		return
	}
	var req workhttp.DistributeFundsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.DistributeFundsHandler(
		r.Context(),
		callerID,
		r.PathValue("work_id"),
		attached,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccess(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	attached, ok := attachedAmount(w, r)
	if !ok {
		return
	}
	resp, err := s.works.Handler.GetAccessHandler(
		r.Context(),
		callerID,
		r.PathValue("work_id"),
		attached,
		r.Header.Get("Idempotency-Key"),
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	callerID, ok := s.requireCaller(w, r)
	if !ok {
		return
	}
	attached, ok := attachedAmount(w, r)
	if !ok {
		return
	}
	var req workhttp.VoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.works.Handler.VoteHandler(
		r.Context(),
		callerID,
		r.PathValue("work_id"),
		attached,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID, ok := s.optionalCaller(w, r)
	if !ok {
		return "", false
	}
	if callerID == "" {
		writeError(w, http.StatusUnauthorized, "missing_identity", domainerrors.ErrMissingIdentity.Error())
		return "", false
	}
	return callerID, true
}

func (s *Server) optionalCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID, err := s.identity.Resolve(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "credentials are invalid or expired")
		return "", false
	}
	return callerID, true
}

func attachedAmount(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.Header.Get("X-Attached-Amount"))
	if raw == "" {
		return 0, true
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount < 0 {
		writeError(w, http.StatusBadRequest, "invalid_attached_amount", "X-Attached-Amount must be a non-negative integer")
		return 0, false
	}
	return amount, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrAuthorNotFound):
		writeError(w, http.StatusNotFound, "author_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrWorkNotFound):
		writeError(w, http.StatusNotFound, "work_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrMissingIdentity):
		writeError(w, http.StatusUnauthorized, "missing_identity", err.Error())
	case errors.Is(err, domainerrors.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrPaymentMismatch):
		writeError(w, http.StatusPaymentRequired, "payment_mismatch", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyKeyRequired):
		writeError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, domainerrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrAuthorAlreadyExists):
		writeError(w, http.StatusConflict, "author_exists", err.Error())
	case errors.Is(err, domainerrors.ErrCollaboratorExists):
		writeError(w, http.StatusConflict, "collaborator_exists", err.Error())
	case errors.Is(err, domainerrors.ErrNoOpenRound):
		writeError(w, http.StatusConflict, "no_open_round", err.Error())
	case errors.Is(err, domainerrors.ErrQuorumNotMet):
		writeError(w, http.StatusConflict, "quorum_not_met", err.Error())
	case errors.Is(err, domainerrors.ErrConsensusRejected):
		writeError(w, http.StatusConflict, "consensus_rejected", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyInProgress):
		writeError(w, http.StatusConflict, "idempotency_in_progress", err.Error())
	case errors.Is(err, domainerrors.ErrTransferFailed):
		writeError(w, http.StatusBadGateway, "transfer_failed", err.Error())
	default:
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, workhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("request served",
			"event", "http_request_served",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
