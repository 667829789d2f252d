package scoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"scoring/internal/scoring/auth"
	"scoring/internal/scoring/models"
	"scoring/internal/scoring/store/memory"
	"scoring/pkg/platform/sentinel"
)

// ServiceSuite drives the dispatch state machines against a real in-memory
// store with a pinned clock.
type ServiceSuite struct {
	suite.Suite
	now     time.Time
	store   *memory.InMemoryStore
	checker *auth.Checker
	svc     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2023, 11, 15, 14, 30, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.store = memory.New(clock)
	s.checker = auth.New(auth.Config{Salt: "Otus", AdminSalt: "42", AdminLogin: "admin"}, clock)

	var err error
	s.svc, err = New(s.store, s.checker, models.NewSchemas(clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
}

func (s *ServiceSuite) userBody(method string, args map[string]any) map[string]any {
	return map[string]any{
		"account":   "horns&hoofs",
		"login":     "h&f",
		"token":     s.checker.UserToken("horns&hoofs", "h&f"),
		"arguments": args,
		"method":    method,
	}
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, s.checker, models.NewSchemas(nil))
		s.Error(err)
	})

	s.Run("nil checker returns error", func() {
		_, err := New(s.store, nil, models.NewSchemas(nil))
		s.Error(err)
	})
}

func (s *ServiceSuite) TestEmptyRequest() {
	for _, method := range []string{MethodScore, MethodInterests} {
		_, code := s.svc.Handle(context.Background(), method, map[string]any{}, map[string]any{})
		s.Equal(http.StatusUnprocessableEntity, code, method)
	}
}

func (s *ServiceSuite) TestUnknownMethod() {
	_, code := s.svc.Handle(context.Background(), "export", s.userBody("export", map[string]any{}), map[string]any{})
	s.Equal(http.StatusNotFound, code)
}

func (s *ServiceSuite) TestBadAuth() {
	bodies := []map[string]any{
		{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "token": "", "arguments": map[string]any{}},
		{"account": "horns&hoofs", "login": "h&f", "method": "online_score", "token": "sdd", "arguments": map[string]any{}},
		{"account": "horns&hoofs", "login": "admin", "method": "online_score", "token": "", "arguments": map[string]any{}},
	}
	for i, body := range bodies {
		reqCtx := map[string]any{}
		_, code := s.svc.HandleScore(context.Background(), body, reqCtx)
		s.Equal(http.StatusForbidden, code, "score case %d", i)
		s.NotContains(reqCtx, CtxHasFields, "forbidden requests must not populate context")

		_, code = s.svc.HandleInterests(context.Background(), body, reqCtx)
		s.Equal(http.StatusForbidden, code, "interests case %d", i)
		s.NotContains(reqCtx, CtxNClients)
	}
}

func (s *ServiceSuite) TestScoreInvalidArguments() {
	cases := []map[string]any{
		{"phone": "791750020401"},
		{"phone": "89175002040", "email": "stupnikov@otus.ru"},
		{"phone": "79175002040", "email": "stupnikovotus.ru"},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": float64(-1)},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": "1"},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": float64(1), "birthday": "01.01.1890"},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": float64(1), "birthday": "XXX"},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": float64(1), "birthday": "01.01.2000", "first_name": float64(1)},
		{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": float64(1), "birthday": "01.01.2000", "first_name": "s", "last_name": float64(2)},
		{"email": "stupnikov@otus.ru", "gender": float64(1), "last_name": float64(2)},
	}
	for i, args := range cases {
		_, code := s.svc.HandleScore(context.Background(), s.userBody("online_score", args), map[string]any{})
		s.Equal(http.StatusUnprocessableEntity, code, "case %d: %v", i, args)
	}
}

func (s *ServiceSuite) TestScoreOK() {
	cases := []struct {
		args  map[string]any
		score float64
	}{
		{map[string]any{"phone": "79175002040", "email": "stupnikov@otus.ru"}, 3.0},
		{map[string]any{"gender": float64(1), "birthday": "01.01.2000", "first_name": "a", "last_name": "b"}, 2.0},
		{map[string]any{"gender": float64(0), "birthday": "01.01.2000"}, 1.5},
		{map[string]any{"first_name": "a", "last_name": "b"}, 0.5},
		{map[string]any{"phone": "79175002040", "email": "stupnikov@otus.ru", "gender": float64(1),
			"birthday": "01.01.2000", "first_name": "a", "last_name": "b"}, 5.0},
	}
	for i, tc := range cases {
		response, code := s.svc.HandleScore(context.Background(), s.userBody("online_score", tc.args), map[string]any{})
		s.Require().Equal(http.StatusOK, code, "case %d", i)
		payload, ok := response.(map[string]any)
		s.Require().True(ok, "case %d", i)
		s.Equal(tc.score, payload["score"], "case %d", i)
	}
}

func (s *ServiceSuite) TestScoreContext() {
	reqCtx := map[string]any{}
	args := map[string]any{
		"phone": "79175002040", "email": "stupnikov@otus.ru",
		"first_name": "", "gender": float64(0),
	}
	_, code := s.svc.HandleScore(context.Background(), s.userBody("online_score", args), reqCtx)
	s.Require().Equal(http.StatusOK, code)
	s.Equal([]string{"email", "phone", "gender"}, reqCtx[CtxHasFields])
}

func (s *ServiceSuite) TestScoreAdmin() {
	body := map[string]any{
		"account":   "",
		"login":     "admin",
		"token":     s.checker.AdminToken(s.now),
		"arguments": map[string]any{},
		"method":    "online_score",
	}
	reqCtx := map[string]any{}
	response, code := s.svc.HandleScore(context.Background(), body, reqCtx)
	s.Require().Equal(http.StatusOK, code)
	payload := response.(map[string]any)
	s.Equal(adminScore, payload["score"])
}

func (s *ServiceSuite) TestScoreCache() {
	ctx := context.Background()
	args, err := models.NewSchemas(nil).BindOnlineScore(map[string]any{
		"phone": "79175002040", "email": "a@b.com",
	})
	s.Require().NoError(err)
	key := scoreCacheKey(args)
	body := s.userBody("online_score", map[string]any{"phone": "79175002040", "email": "a@b.com"})

	s.Run("a cached value wins over recomputing", func() {
		s.store.SetCache(ctx, key, []byte("4.2"), time.Minute)
		response, code := s.svc.HandleScore(ctx, body, map[string]any{})
		s.Require().Equal(http.StatusOK, code)
		s.Equal(4.2, response.(map[string]any)["score"])
	})

	s.Run("an expired entry is recomputed and recached", func() {
		s.store.SetCache(ctx, key, []byte("4.2"), 30*time.Second)
		s.now = s.now.Add(31 * time.Second)
		response, code := s.svc.HandleScore(ctx, body, map[string]any{})
		s.Require().Equal(http.StatusOK, code)
		s.Equal(3.0, response.(map[string]any)["score"])
		s.Equal([]byte("3"), s.store.GetCache(ctx, key), "recomputed score is cached")
	})

	s.Run("a cached zero reads as a miss", func() {
		s.store.SetCache(ctx, key, []byte("0"), time.Minute)
		response, code := s.svc.HandleScore(ctx, body, map[string]any{})
		s.Require().Equal(http.StatusOK, code)
		s.Equal(3.0, response.(map[string]any)["score"])
	})

	s.Run("a broken cache tier degrades to recomputing", func() {
		svc, err := New(brokenCacheStore{s.store}, s.checker, models.NewSchemas(nil),
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		s.Require().NoError(err)
		response, code := svc.HandleScore(ctx, body, map[string]any{})
		s.Require().Equal(http.StatusOK, code)
		s.Equal(3.0, response.(map[string]any)["score"])
	})
}

func (s *ServiceSuite) TestInterestsInvalidArguments() {
	cases := []map[string]any{
		{},
		{"date": "20.07.2017"},
		{"client_ids": []any{}, "date": "20.07.2017"},
		{"client_ids": map[string]any{"1": float64(2)}, "date": "20.07.2017"},
		{"client_ids": []any{"1", "2"}, "date": "20.07.2017"},
		{"client_ids": []any{float64(1), float64(2)}, "date": "XXX"},
	}
	for i, args := range cases {
		_, code := s.svc.HandleInterests(context.Background(), s.userBody("clients_interests", args), map[string]any{})
		s.Equal(http.StatusUnprocessableEntity, code, "case %d: %v", i, args)
	}
}

func (s *ServiceSuite) TestInterestsOK() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "1", []byte(`["travel","sport"]`)))
	s.Require().NoError(s.store.Set(ctx, "2", []byte(`["books","cinema"]`)))

	reqCtx := map[string]any{}
	response, code := s.svc.HandleInterests(ctx,
		s.userBody("clients_interests", map[string]any{"client_ids": []any{float64(1), float64(2)}, "date": "19.07.2017"}),
		reqCtx)
	s.Require().Equal(http.StatusOK, code)

	result, ok := response.(map[int64][]string)
	s.Require().True(ok)
	s.Len(result, 2)
	s.Equal([]string{"travel", "sport"}, result[1])
	s.Equal([]string{"books", "cinema"}, result[2])
	s.Equal(2, reqCtx[CtxNClients])
}

func (s *ServiceSuite) TestInterestsMissingIDReadsEmpty() {
	response, code := s.svc.HandleInterests(context.Background(),
		s.userBody("clients_interests", map[string]any{"client_ids": []any{float64(9)}}),
		map[string]any{})
	s.Require().Equal(http.StatusOK, code)
	s.Equal([]string{}, response.(map[int64][]string)[9])
}

func (s *ServiceSuite) TestInterestsAdminAuthorized() {
	body := map[string]any{
		"account":   "",
		"login":     "admin",
		"token":     s.checker.AdminToken(s.now),
		"arguments": map[string]any{"client_ids": []any{float64(1)}},
		"method":    "clients_interests",
	}
	_, code := s.svc.HandleInterests(context.Background(), body, map[string]any{})
	s.Equal(http.StatusOK, code)
}

func (s *ServiceSuite) TestInterestsStoreFailure() {
	svc, err := New(unavailableStore{s.store}, s.checker, models.NewSchemas(nil),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	reqCtx := map[string]any{}
	response, code := svc.HandleInterests(context.Background(),
		s.userBody("clients_interests", map[string]any{"client_ids": []any{float64(1), float64(2)}}),
		reqCtx)
	s.Equal(http.StatusInternalServerError, code)
	s.Nil(response, "no partial results on a connectivity failure")
}

// unavailableStore simulates a persistent tier connectivity failure.
type unavailableStore struct {
	*memory.InMemoryStore
}

func (unavailableStore) Get(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("%w: connection refused", sentinel.ErrUnavailable)
}

// brokenCacheStore simulates a cache tier that always misses and drops
// writes.
type brokenCacheStore struct {
	*memory.InMemoryStore
}

func (brokenCacheStore) GetCache(context.Context, string) []byte { return nil }

func (brokenCacheStore) SetCache(context.Context, string, []byte, time.Duration) {}
