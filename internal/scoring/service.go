// Package scoring implements the method-dispatch core: envelope validation,
// authorization, per-method argument validation, and the score/interests
// business operations. The transport layer stays thin and delegates here.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"scoring/internal/platform/metrics"
	"scoring/internal/scoring/auth"
	"scoring/internal/scoring/models"
	"scoring/internal/scoring/store"
	"scoring/internal/validate"
	dErrors "scoring/pkg/domain-errors"
)

// Method names this core serves. Anything else is the transport's 404.
const (
	MethodScore     = "score"
	MethodInterests = "interests"
)

// Context keys the handlers populate for the caller's diagnostics.
const (
	CtxHasFields = "has"
	CtxNClients  = "nclients"
)

// adminScore is returned on the admin fast path without touching the store
// or the inner schema.
const adminScore float64 = 42

// Service orchestrates one request from validated envelope to terminal
// state. It holds no per-request state; one Service serves all requests.
type Service struct {
	store    store.Store
	checker  *auth.Checker
	schemas  *models.Schemas
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cacheTTL time.Duration
	group    singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCacheTTL overrides the score cache expiry; tests use it to pin the
// cache window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

func New(st store.Store, checker *auth.Checker, schemas *models.Schemas, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if checker == nil {
		return nil, fmt.Errorf("auth checker is required")
	}
	if schemas == nil {
		return nil, fmt.Errorf("schemas are required")
	}

	svc := &Service{
		store:    st,
		checker:  checker,
		schemas:  schemas,
		logger:   slog.Default(),
		cacheTTL: ScoreCacheTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Handle dispatches a decoded request body by method name and returns the
// response payload with its status code. reqCtx accumulates per-request
// diagnostics ("has", "nclients") for the caller.
func (s *Service) Handle(ctx context.Context, method string, body map[string]any, reqCtx map[string]any) (any, int) {
	switch method {
	case MethodScore:
		return s.HandleScore(ctx, body, reqCtx)
	case MethodInterests:
		return s.HandleInterests(ctx, body, reqCtx)
	default:
		return nil, http.StatusNotFound
	}
}

// HandleScore runs the score state machine: envelope -> auth -> admin fast
// path or argument validation -> cached score. Validation failures abort
// before the store is touched.
func (s *Service) HandleScore(ctx context.Context, body map[string]any, reqCtx map[string]any) (any, int) {
	env, code := s.bindEnvelope(ctx, MethodScore, body)
	if env == nil {
		s.metrics.ObserveRequest(MethodScore, code)
		return nil, code
	}

	role := s.checker.Check(env)
	if role == auth.RoleForbidden {
		s.logger.WarnContext(ctx, "authorization failed", "method", MethodScore, "login", env.LoginValue())
		s.metrics.ObserveRequest(MethodScore, http.StatusForbidden)
		return nil, http.StatusForbidden
	}

	if role == auth.RoleAdmin {
		s.metrics.ObserveRequest(MethodScore, http.StatusOK)
		return map[string]any{"score": adminScore}, http.StatusOK
	}

	args, err := s.schemas.BindOnlineScore(env.Arguments)
	if err != nil {
		s.logValidation(ctx, MethodScore, err)
		s.metrics.ObserveRequest(MethodScore, http.StatusUnprocessableEntity)
		return nil, http.StatusUnprocessableEntity
	}

	score := s.score(ctx, args)
	reqCtx[CtxHasFields] = args.PresentFields()

	s.metrics.ObserveRequest(MethodScore, http.StatusOK)
	return map[string]any{"score": score}, http.StatusOK
}

// HandleInterests runs the interests state machine. Admin and user are
// authorized identically. The store is consulted per client id in list
// order; a connectivity failure aborts the whole request with no partial
// results.
func (s *Service) HandleInterests(ctx context.Context, body map[string]any, reqCtx map[string]any) (any, int) {
	env, code := s.bindEnvelope(ctx, MethodInterests, body)
	if env == nil {
		s.metrics.ObserveRequest(MethodInterests, code)
		return nil, code
	}

	role := s.checker.Check(env)
	if role == auth.RoleForbidden {
		s.logger.WarnContext(ctx, "authorization failed", "method", MethodInterests, "login", env.LoginValue())
		s.metrics.ObserveRequest(MethodInterests, http.StatusForbidden)
		return nil, http.StatusForbidden
	}

	args, err := s.schemas.BindClientsInterests(env.Arguments)
	if err != nil {
		s.logValidation(ctx, MethodInterests, err)
		s.metrics.ObserveRequest(MethodInterests, http.StatusUnprocessableEntity)
		return nil, http.StatusUnprocessableEntity
	}

	result := make(map[int64][]string, len(args.ClientIDs))
	for _, cid := range args.ClientIDs {
		list, err := s.interests(ctx, cid)
		if err != nil {
			s.logger.ErrorContext(ctx, "interests lookup failed", "method", MethodInterests, "client_id", cid, "error", err)
			code := dErrors.ToHTTPStatus(dErrors.CodeOf(err))
			s.metrics.ObserveRequest(MethodInterests, code)
			return nil, code
		}
		result[cid] = list
	}

	// nclients counts the raw client_ids value, not the validated slice.
	if raw, ok := env.Arguments["client_ids"].([]any); ok {
		reqCtx[CtxNClients] = len(raw)
	}

	s.metrics.ObserveRequest(MethodInterests, http.StatusOK)
	return result, http.StatusOK
}

// bindEnvelope validates the outer schema. On failure it returns a nil
// envelope and the terminal status code.
func (s *Service) bindEnvelope(ctx context.Context, method string, body map[string]any) (*models.MethodRequest, int) {
	if len(body) == 0 {
		s.logger.WarnContext(ctx, "empty request body", "method", method)
		return nil, http.StatusUnprocessableEntity
	}
	env, err := s.schemas.BindMethodRequest(body)
	if err != nil {
		s.logValidation(ctx, method, err)
		return nil, http.StatusUnprocessableEntity
	}
	return env, http.StatusOK
}

func (s *Service) logValidation(ctx context.Context, method string, err error) {
	var ve *validate.Error
	if errors.As(err, &ve) {
		s.logger.WarnContext(ctx, "request validation failed",
			"method", method, "field", ve.Field, "kind", string(ve.Kind), "error", ve.Detail)
		return
	}
	s.logger.WarnContext(ctx, "request validation failed", "method", method, "error", err)
}
