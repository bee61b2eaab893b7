package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"competencymap/internal/auth"
	"competencymap/internal/domain"
	"competencymap/internal/lang"
	"competencymap/internal/repository/sqlstore"
	"competencymap/internal/service"
)

const testSecret = "handler-test-secret-0123456789"

type testEnv struct {
	store   *sqlstore.Store
	svc     *service.MappingService
	auth    *auth.Authenticator
	handler http.Handler
}

// newTestEnv seeds question 42 (context 15, course 3), question 43
// (context 16, no course) and competencies 7 and 8
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.EnsureHostSchema(ctx))

	require.NoError(t, store.InsertQuestion(ctx, domain.Question{ID: 42, Name: "Capital of Italy", ContextID: 15, CourseID: 3}))
	require.NoError(t, store.InsertQuestion(ctx, domain.Question{ID: 43, Name: "Unfiled", ContextID: 16}))
	require.NoError(t, store.InsertCompetency(ctx, domain.Competency{ID: 7, ShortName: "COMM", IDNumber: "C-01"}))
	require.NoError(t, store.InsertCompetency(ctx, domain.Competency{ID: 8, ShortName: "ANALYSIS"}))

	strs := lang.MustLoad("en")
	svc := service.NewMappingService(store, store, store, service.Options{NoneLabel: strs.Get(lang.KeyNone)})

	a, err := auth.New(testSecret, "competencymap", "competencymap_session", time.Hour)
	require.NoError(t, err)

	h := NewMappingHandler(svc, a, strs, zap.NewNop())
	h.SetHealthCheck(store)

	mux := http.NewServeMux()
	h.Register(mux)

	return &testEnv{
		store:   store,
		svc:     svc,
		auth:    a,
		handler: Chain(mux, Session(a, zap.NewNop())),
	}
}

func (e *testEnv) token(t *testing.T, caps map[string][]string) string {
	t.Helper()
	tok, err := e.auth.Issue("user-1", caps)
	require.NoError(t, err)
	return tok
}

// editor can edit in context 15 only
func (e *testEnv) editor(t *testing.T) string {
	return e.token(t, map[string][]string{"15": {auth.CapEditAll}})
}

func (e *testEnv) sesskey(t *testing.T, token string) string {
	t.Helper()
	s, err := e.auth.Parse(token)
	require.NoError(t, err)
	return e.auth.SessKey(s)
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) withCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: e.auth.CookieName(), Value: token})
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (e *testEnv) mappedCompetency(t *testing.T, questionID int64) int64 {
	t.Helper()
	m, err := e.store.FindMapping(context.Background(), questionID)
	require.NoError(t, err)
	if m == nil {
		return domain.NoCompetency
	}
	return m.CompetencyID
}
