package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragctx/internal/domain"
	"github.com/kailas-cloud/ragctx/internal/domain/passage"
	"github.com/kailas-cloud/ragctx/internal/domain/search/request"
	"github.com/kailas-cloud/ragctx/internal/domain/search/result"
	"github.com/kailas-cloud/ragctx/internal/usecase/chat"
	"github.com/kailas-cloud/ragctx/internal/usecase/grounding"
	healthuc "github.com/kailas-cloud/ragctx/internal/usecase/health"
)

// --- Stubs ---

type stubSearcher struct {
	results []result.Scored
	err     error
	got     *request.Request
}

func (s *stubSearcher) Search(ctx context.Context, req *request.Request) ([]result.Scored, error) {
	s.got = req
	domain.UsageFromContext(ctx).AddTokens(7)
	return s.results, s.err
}

type stubContext struct {
	gc  grounding.Context
	got string
}

func (s *stubContext) Build(_ context.Context, query string) grounding.Context {
	s.got = query
	return s.gc
}

type stubResponder struct {
	reply chat.Reply
	err   error
	got   []domain.Message
}

func (s *stubResponder) Respond(_ context.Context, history []domain.Message) (chat.Reply, error) {
	s.got = history
	return s.reply, s.err
}

type stubCatalog struct {
	docs    []passage.DocumentSummary
	meta    map[string]passage.Metadata
	listErr error
}

func (s *stubCatalog) ListDocuments(context.Context) ([]passage.DocumentSummary, error) {
	return s.docs, s.listErr
}

func (s *stubCatalog) Metadata(_ context.Context, title string) (passage.Metadata, error) {
	if m, ok := s.meta[title]; ok {
		return m, nil
	}
	return passage.Metadata{}, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, title)
}

type stubHealth struct{ report healthuc.Report }

func (s stubHealth) Check(context.Context) healthuc.Report { return s.report }

type fixture struct {
	search  *stubSearcher
	context *stubContext
	chat    *stubResponder
	catalog *stubCatalog
	health  stubHealth
}

func newFixture() *fixture {
	return &fixture{
		search:  &stubSearcher{},
		context: &stubContext{},
		chat:    &stubResponder{},
		catalog: &stubCatalog{},
		health:  stubHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckOK}}},
	}
}

func (f *fixture) handler(apiKeys ...string) http.Handler {
	return NewRouter(NewServer(f.search, f.context, f.chat, f.catalog, f.health), apiKeys, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func scored(id, title string, sim, theme, gist float64) result.Scored {
	p := passage.New(id, "text of "+id, []float32{1}, passage.Metadata{Title: title, Themes: []string{"RLHF"}})
	return result.New(p, sim, theme, gist, 0.7*sim+0.2*theme+0.1*gist)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
	return e
}

// --- Search ---

func TestSearch_Success(t *testing.T) {
	f := newFixture()
	f.search.results = []result.Scored{scored("a", "Post A", 0.9, 1, 0.5)}

	rr := do(t, f.handler(), http.MethodPost, "/v1/search", `{"query":"rlhf basics","limit":3,"theme_filter":"rl"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Results, 1)
	item := resp.Results[0]
	assert.Equal(t, "a", item.ID)
	assert.Equal(t, "Post A", item.Metadata.Title)
	assert.InDelta(t, 0.9, item.Similarity, 1e-9)
	assert.InDelta(t, 1.0, item.ThemeScore, 1e-9)
	assert.InDelta(t, 0.5, item.GistScore, 1e-9)
	assert.InDelta(t, 0.88, item.CombinedScore, 1e-9)

	assert.Equal(t, 3, f.search.got.Limit())
	assert.Equal(t, "rl", f.search.got.ThemeFilter())
	assert.Equal(t, "7", rr.Header().Get("X-Embedding-Tokens"))
}

func TestSearch_EmptyResultsIsArray(t *testing.T) {
	f := newFixture()
	rr := do(t, f.handler(), http.MethodPost, "/v1/search", `{"query":"anything"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"results":[]}`, rr.Body.String())
}

func TestSearch_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code ErrorCode
	}{
		{"missing query", `{}`, CodeValidationFailed},
		{"blank query", `{"query":"   "}`, CodeValidationFailed},
		{"zero limit", `{"query":"q","limit":0}`, CodeValidationFailed},
		{"malformed json", `{"query":`, CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newFixture().handler(), http.MethodPost, "/v1/search", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.code, decodeError(t, rr).Code)
		})
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{fmt.Errorf("vectorize: %w", domain.ErrEmbeddingProviderError), http.StatusBadGateway, CodeEmbeddingProviderError},
		{fmt.Errorf("fetch: %w: timeout", domain.ErrStore), http.StatusServiceUnavailable, CodeStoreUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			f := newFixture()
			f.search.err = tt.err
			rr := do(t, f.handler(), http.MethodPost, "/v1/search", `{"query":"q"}`)
			require.Equal(t, tt.status, rr.Code)
			e := decodeError(t, rr)
			assert.Equal(t, tt.code, e.Code)
			assert.NotContains(t, e.Message, "timeout", "internals must not leak")
		})
	}
}

// --- Context ---

func TestContext_Success(t *testing.T) {
	f := newFixture()
	f.context.gc = grounding.Context{
		Block:    "Relevant context:\n\n[Source: Post A]\n",
		Passages: []result.Scored{scored("a", "Post A", 0.9, 0, 0)},
	}

	rr := do(t, f.handler(), http.MethodPost, "/v1/context", `{"query":"scaling"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ContextResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, f.context.gc.Block, resp.Context)
	assert.Len(t, resp.Passages, 1)
	assert.Equal(t, "scaling", f.context.got)
}

func TestContext_DegradedStill200(t *testing.T) {
	f := newFixture()
	f.context.gc = grounding.Context{Block: grounding.NoContextMarker, Degraded: true}

	rr := do(t, f.handler(), http.MethodPost, "/v1/context", `{"query":"scaling"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), grounding.NoContextMarker)
}

func TestContext_MissingQuery(t *testing.T) {
	rr := do(t, newFixture().handler(), http.MethodPost, "/v1/context", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- Chat ---

func TestChat_Success(t *testing.T) {
	f := newFixture()
	f.chat.reply = chat.Reply{Text: "answer", ContextUsed: true, Sources: []string{"Post A"}}

	rr := do(t, f.handler(), http.MethodPost, "/v1/chat",
		`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"},{"role":"user","content":"rlhf?"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"reply":"answer","context_used":true,"sources":["Post A"]}`, rr.Body.String())

	require.Len(t, f.chat.got, 3)
	assert.Equal(t, domain.RoleAssistant, f.chat.got[1].Role)
}

func TestChat_NoSourcesIsEmptyArray(t *testing.T) {
	f := newFixture()
	f.chat.reply = chat.Reply{Text: "general answer"}

	rr := do(t, f.handler(), http.MethodPost, "/v1/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reply":"general answer","context_used":false,"sources":[]}`, rr.Body.String())
}

func TestChat_Validation(t *testing.T) {
	for _, body := range []string{
		`{"messages":[]}`,
		`{"messages":[{"role":"tool","content":"x"}]}`,
	} {
		rr := do(t, newFixture().handler(), http.MethodPost, "/v1/chat", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestChat_GenerationError(t *testing.T) {
	f := newFixture()
	f.chat.err = fmt.Errorf("generate reply: %w", domain.ErrGenerationProviderError)

	rr := do(t, f.handler(), http.MethodPost, "/v1/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, CodeGenerationProviderError, decodeError(t, rr).Code)
}

func TestChat_NotConfigured(t *testing.T) {
	f := newFixture()
	h := NewRouter(NewServer(f.search, f.context, nil, f.catalog, f.health), nil, zap.NewNop())

	rr := do(t, h, http.MethodPost, "/v1/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}

// --- Documents ---

func TestDocuments_List(t *testing.T) {
	f := newFixture()
	f.catalog.docs = []passage.DocumentSummary{{Title: "A", Author: "Nat", URL: "https://a"}, {Title: "B"}}

	rr := do(t, f.handler(), http.MethodGet, "/v1/documents", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"documents":[{"title":"A","author":"Nat","url":"https://a"},{"title":"B"}]}`,
		rr.Body.String())
}

func TestDocuments_Metadata(t *testing.T) {
	f := newFixture()
	f.catalog.meta = map[string]passage.Metadata{
		"Deep Learning": {Title: "Deep Learning", Gist: "g", Themes: []string{"x"}},
	}
	h := f.handler()

	rr := do(t, h, http.MethodGet, "/v1/documents/metadata?title=Deep+Learning", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"title":"Deep Learning","gist":"g","themes":["x"]}`, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/v1/documents/metadata?title=Nope", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, CodeDocumentNotFound, decodeError(t, rr).Code)

	rr = do(t, h, http.MethodGet, "/v1/documents/metadata", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- Health, auth, plumbing ---

func TestHealth(t *testing.T) {
	f := newFixture()
	rr := do(t, f.handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"store":"ok"}}`, rr.Body.String())

	f.health.report = healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckError}}
	rr = do(t, f.handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_AuthExemptsHealth(t *testing.T) {
	h := newFixture().handler("secret")

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/v1/documents", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	rr := do(t, newFixture().handler(), http.MethodGet, "/health", "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	rr := do(t, newFixture().handler(), http.MethodGet, "/v2/nothing", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, CodeInternalError, decodeError(t, rr).Code)
}
