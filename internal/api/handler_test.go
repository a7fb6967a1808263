package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/windforest/querychat/internal/api/uistatic"
	"github.com/windforest/querychat/internal/auth"
	"github.com/windforest/querychat/internal/chat"
	"github.com/windforest/querychat/internal/config"
	"github.com/windforest/querychat/internal/nl2sql"
	"github.com/windforest/querychat/internal/query"
	"github.com/windforest/querychat/internal/session"
)

type stubTranslator struct {
	outcome nl2sql.Outcome
	err     error
}

func (s stubTranslator) Translate(context.Context, nl2sql.Request) (nl2sql.Outcome, error) {
	return s.outcome, s.err
}

type stubEngine struct {
	result query.Result
}

func (s stubEngine) Execute(context.Context, query.Request) (query.Result, error) {
	return s.result, nil
}

type brokenChat struct{}

func (brokenChat) Send(context.Context, string, string) (chat.Reply, error) {
	return chat.Reply{}, errors.New("store down")
}

func (brokenChat) History(context.Context, string) ([]session.Message, error) {
	return nil, errors.New("store down")
}

func (brokenChat) NewSession() string { return "fixed" }

func newChatService(translator nl2sql.Translator, engine query.Engine) *chat.Service {
	return &chat.Service{
		Sessions:   session.NewMemoryStore(),
		Translator: translator,
		Engine:     engine,
	}
}

func topCustomers() (nl2sql.Translator, query.Engine) {
	translator := stubTranslator{outcome: nl2sql.SQLInvocation{
		SQL:       "SELECT name, lifetime_value FROM customers ORDER BY lifetime_value DESC LIMIT 5",
		Rationale: "Customers ranked by lifetime value.",
	}}
	engine := stubEngine{result: query.Result{
		Columns: []string{"name", "lifetime_value"},
		Rows:    [][]any{{"Acme", 1200.5}, {"Birch", 900.0}},
	}}
	return translator, engine
}

func mustConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	cfg, err := config.Load("querychat-api", mapLookup(env))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	return cfg
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload)))
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Trace-Id") == "" {
		t.Fatal("expected trace id header")
	}
}

func TestReadyEndpointReturns503WhenDependencyFails(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{
		Readiness: func(context.Context) error {
			return errors.New("dependency down")
		},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	var envelope map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope["error_code"] != "NOT_READY" || envelope["retryable"] != true {
		t.Fatalf("envelope = %v", envelope)
	}
}

func TestChatRunsQueryAndRecordsHistory(t *testing.T) {
	translator, engine := topCustomers()
	h := NewHandler(mustConfig(t, nil), Dependencies{Chat: newChatService(translator, engine)})

	rr := postJSON(t, h, "/api/chat", map[string]string{"message": "Who are our top 5 customers?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var reply chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !session.ValidID(reply.SessionID) {
		t.Fatalf("session_id = %q", reply.SessionID)
	}
	if !strings.Contains(reply.Response, "```sql") || !strings.Contains(reply.Response, "| Acme |") {
		t.Fatalf("response = %q", reply.Response)
	}
	if len(reply.Sources) != 1 || !strings.HasPrefix(reply.Sources[0], "SELECT name") {
		t.Fatalf("sources = %v", reply.Sources)
	}

	history := httptest.NewRecorder()
	h.ServeHTTP(history, httptest.NewRequest(http.MethodGet, "/api/get-history?session_id="+reply.SessionID, nil))
	if history.Code != http.StatusOK {
		t.Fatalf("history status = %d", history.Code)
	}
	var pairs [][]any
	if err := json.Unmarshal(history.Body.Bytes(), &pairs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("history = %v", pairs)
	}
	if pairs[0][0] != "Who are our top 5 customers?" || pairs[0][1] != true {
		t.Fatalf("first entry = %v", pairs[0])
	}
	if pairs[1][0] != reply.Response || pairs[1][1] != false {
		t.Fatalf("second entry = %v", pairs[1])
	}
}

func TestChatKeepsClientSessionID(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{
		Chat: newChatService(stubTranslator{outcome: nl2sql.DirectAnswer{Text: "Hello!"}}, stubEngine{}),
	})

	rr := postJSON(t, h, "/api/chat", map[string]string{"message": "hi", "session_id": "browser-tab-1"})
	var reply chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.SessionID != "browser-tab-1" || reply.Response != "Hello!" {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.Sources == nil || len(reply.Sources) != 0 {
		t.Fatalf("sources = %#v, want empty list", reply.Sources)
	}
}

func TestChatAndHistoryAgreeOnPaddedSessionID(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{
		Chat: newChatService(stubTranslator{outcome: nl2sql.DirectAnswer{Text: "Hello!"}}, stubEngine{}),
	})

	rr := postJSON(t, h, "/api/chat", map[string]string{"message": "hi", "session_id": " abc "})
	var reply chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.SessionID != "abc" {
		t.Fatalf("session_id = %q, want abc", reply.SessionID)
	}

	history := httptest.NewRecorder()
	h.ServeHTTP(history, httptest.NewRequest(http.MethodGet, "/api/get-history?session_id=+abc", nil))
	var pairs [][2]any
	if err := json.Unmarshal(history.Body.Bytes(), &pairs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("history = %#v", pairs)
	}
}

func TestChatTranslationFailureIsAReply(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{
		Chat: newChatService(stubTranslator{err: nl2sql.ErrUnparseable}, stubEngine{}),
	})

	rr := postJSON(t, h, "/api/chat", map[string]string{"message": "asdf"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var reply chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Response == "" || len(reply.Sources) != 0 {
		t.Fatalf("reply = %+v", reply)
	}

	history := httptest.NewRecorder()
	h.ServeHTTP(history, httptest.NewRequest(http.MethodGet, "/api/get-history?session_id="+reply.SessionID, nil))
	var pairs [][]any
	if err := json.Unmarshal(history.Body.Bytes(), &pairs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(pairs) != 2 || pairs[1][1] != false {
		t.Fatalf("history = %v", pairs)
	}
}

func TestChatRejectsBadRequests(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{Chat: newChatService(stubTranslator{}, stubEngine{})})

	empty := postJSON(t, h, "/api/chat", map[string]string{"message": "   "})
	if empty.Code != http.StatusBadRequest || !strings.Contains(empty.Body.String(), "MESSAGE_REQUIRED") {
		t.Fatalf("empty message: status = %d body = %s", empty.Code, empty.Body.String())
	}

	malformed := httptest.NewRecorder()
	h.ServeHTTP(malformed, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json")))
	if malformed.Code != http.StatusBadRequest || !strings.Contains(malformed.Body.String(), "INVALID_JSON") {
		t.Fatalf("malformed: status = %d body = %s", malformed.Code, malformed.Body.String())
	}
}

func TestChatStoreFailureReturns500(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{Chat: brokenChat{}})

	rr := postJSON(t, h, "/api/chat", map[string]string{"message": "hello"})
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "CHAT_FAILED") {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}

	history := httptest.NewRecorder()
	h.ServeHTTP(history, httptest.NewRequest(http.MethodGet, "/api/get-history?session_id=abc", nil))
	if history.Code != http.StatusInternalServerError {
		t.Fatalf("history status = %d", history.Code)
	}
}

func TestHistoryOfUnknownSessionIsEmpty(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{Chat: newChatService(stubTranslator{}, stubEngine{})})

	for _, path := range []string{"/api/get-history", "/api/get-history?session_id=never-used", "/api/get-history?session_id=..%2Fetc"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
		if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
			t.Fatalf("%s body = %s", path, got)
		}
	}
}

func TestNewSessionEndpoint(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{Chat: newChatService(stubTranslator{}, stubEngine{})})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !session.ValidID(body["session_id"]) {
		t.Fatalf("session_id = %q", body["session_id"])
	}
}

func TestChatRoutesWithoutServiceReturn501(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{})
	rr := postJSON(t, h, "/api/chat", map[string]string{"message": "hello"})
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	cfg := mustConfig(t, map[string]string{"QUERYCHAT_AUTH_REQUIRED": "true"})
	validator, err := auth.NewStaticAPIKeyValidator("k1:chat,k2:metrics")
	if err != nil {
		t.Fatalf("validator setup failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{
		AuthMiddleware: auth.Middleware(nil, validator),
		Chat:           newChatService(stubTranslator{outcome: nl2sql.DirectAnswer{Text: "ok"}}, stubEngine{}),
	})

	unauthResp := httptest.NewRecorder()
	h.ServeHTTP(unauthResp, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	if unauthResp.Code != http.StatusUnauthorized {
		t.Fatalf("unauth status = %d", unauthResp.Code)
	}

	wrongRole := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	wrongRole.Header.Set("X-API-Key", "k2")
	wrongRoleResp := httptest.NewRecorder()
	h.ServeHTTP(wrongRoleResp, wrongRole)
	if wrongRoleResp.Code != http.StatusForbidden {
		t.Fatalf("wrong role status = %d", wrongRoleResp.Code)
	}

	authReq := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	authReq.Header.Set("X-API-Key", "k1")
	authResp := httptest.NewRecorder()
	h.ServeHTTP(authResp, authReq)
	if authResp.Code != http.StatusCreated {
		t.Fatalf("auth status = %d", authResp.Code)
	}

	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("health should stay public, status = %d", health.Code)
	}
}

func TestAuthRequiredWithoutMiddlewareFailsClosed(t *testing.T) {
	cfg := mustConfig(t, map[string]string{"QUERYCHAT_AUTH_REQUIRED": "true"})
	h := NewHandler(cfg, Dependencies{Chat: newChatService(stubTranslator{}, stubEngine{})})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCombineReadinessChecksStopsAtFirstFailure(t *testing.T) {
	var calls []string
	check := CombineReadinessChecks(
		func(context.Context) error { calls = append(calls, "store"); return nil },
		nil,
		func(context.Context) error { calls = append(calls, "engine"); return errors.New("engine down") },
		func(context.Context) error { calls = append(calls, "never"); return nil },
	)
	err := check(context.Background())
	if err == nil || err.Error() != "engine down" {
		t.Fatalf("err = %v", err)
	}
	if strings.Join(calls, ",") != "store,engine" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestUIHandlerServesClient(t *testing.T) {
	h := NewHandler(mustConfig(t, nil), Dependencies{
		UI: uistatic.FSHandler(fstest.MapFS{"index.html": {Data: []byte("<html>chat</html>")}}),
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "chat") {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
}

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
