package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ascendlabs/ascendancy/internal/auth"
	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/council"
	"github.com/ascendlabs/ascendancy/internal/credentials"
	"github.com/ascendlabs/ascendancy/internal/orchestrator"
	"github.com/ascendlabs/ascendancy/internal/storage"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	storage.Store
	secrets  map[string]map[string]string
	bindings *core.CouncilBindings
	debates  map[string]*core.DebateResult
	chats    []*core.ChatMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		secrets: map[string]map[string]string{},
		debates: map[string]*core.DebateResult{},
	}
}

func (f *fakeStore) GetSecrets(_ context.Context, userID string) ([]core.Secret, error) {
	var out []core.Secret
	for name, value := range f.secrets[userID] {
		out = append(out, core.Secret{UserID: userID, Name: name, Value: value})
	}
	return out, nil
}

func (f *fakeStore) PutSecret(_ context.Context, s *core.Secret) error {
	if f.secrets[s.UserID] == nil {
		f.secrets[s.UserID] = map[string]string{}
	}
	f.secrets[s.UserID][s.Name] = s.Value
	return nil
}

func (f *fakeStore) DeleteSecret(_ context.Context, userID, name string) error {
	delete(f.secrets[userID], name)
	return nil
}

func (f *fakeStore) GetCouncilConfig(_ context.Context, _ string) (*core.CouncilBindings, error) {
	return f.bindings, nil
}

func (f *fakeStore) PutCouncilConfig(_ context.Context, _ string, b *core.CouncilBindings) error {
	f.bindings = b
	return nil
}

func (f *fakeStore) AddChatMessage(_ context.Context, msg *core.ChatMessage) error {
	f.chats = append(f.chats, msg)
	return nil
}

func (f *fakeStore) ListChatMessages(_ context.Context, userID string, _, _ int) ([]*core.ChatMessage, error) {
	var out []*core.ChatMessage
	for _, m := range f.chats {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) AddDebateResult(_ context.Context, result *core.DebateResult) error {
	f.debates[result.ID] = result
	return nil
}

func (f *fakeStore) GetDebateResult(_ context.Context, id string) (*core.DebateResult, error) {
	return f.debates[id], nil
}

func (f *fakeStore) ListDebateResults(_ context.Context, userID string, _, _ int) ([]*core.DebateSummary, error) {
	var out []*core.DebateSummary
	for _, d := range f.debates {
		if d.UserID == userID {
			out = append(out, &core.DebateSummary{ID: d.ID, Topic: d.Topic, CreatedAt: d.CreatedAt})
		}
	}
	return out, nil
}

func (f *fakeStore) SearchLibrary(_ context.Context, _, _ string, _ int) ([]core.LibraryChunk, error) {
	return nil, nil
}

// scriptedGateway answers all model calls from a fixed script.
type scriptedGateway struct {
	replies []string
	calls   int
	err     error
}

func (s *scriptedGateway) Chat(_ context.Context, _ *credentials.Credential, _ core.ModelRef, _ []core.Message) (*core.ChatReply, error) {
	if s.err != nil {
		return nil, s.err
	}
	reply := s.replies[s.calls%len(s.replies)]
	s.calls++
	return &core.ChatReply{Content: reply}, nil
}

type allowAllResolver struct{}

func (allowAllResolver) Resolve(_ context.Context, ref core.ModelRef, _ []core.Secret) (*credentials.Credential, error) {
	return &credentials.Credential{Provider: ref.Provider, Token: "tok", Source: "server"}, nil
}

type denyResolver struct{}

func (denyResolver) Resolve(_ context.Context, ref core.ModelRef, _ []core.Secret) (*credentials.Credential, error) {
	return nil, &credentials.MissingCredentialError{Provider: ref.Provider}
}

type testEnv struct {
	server   *httptest.Server
	sessions *auth.Manager
	store    *fakeStore
}

func newTestEnv(t *testing.T, gw *scriptedGateway, resolver orchestrator.Resolver) *testEnv {
	t.Helper()

	store := newFakeStore()
	sessions, err := auth.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	loader := council.NewLoader(store)
	engine := orchestrator.NewEngine(gw, resolver, nil, loader, store, false)
	h := New(engine, store, sessions, nil, loader, nil)

	server := httptest.NewServer(h.Routes())
	t.Cleanup(server.Close)

	return &testEnv{server: server, sessions: sessions, store: store}
}

func (env *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, env.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func userToken(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	token, err := env.sessions.Issue(userID, "Test User")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestPing(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{replies: []string{"ok"}}, allowAllResolver{})

	resp := env.request(t, http.MethodGet, "/api/ping", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestChatRequiresPrompt(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{replies: []string{"ok"}}, allowAllResolver{})

	resp := env.request(t, http.MethodPost, "/api/chat", "", map[string]string{"prompt": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if !strings.Contains(body.Error.Message, "prompt") {
		t.Errorf("message = %q", body.Error.Message)
	}
}

func TestChatSolo(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{replies: []string{"solo answer"}}, allowAllResolver{})
	token := userToken(t, env, "user_1")

	resp := env.request(t, http.MethodPost, "/api/chat", token, map[string]string{
		"prompt": "hello",
		"model":  "gpt-4o",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body soloResponse
	decodeBody(t, resp, &body)
	if body.Content != "solo answer" || body.Model != "gpt-4o" {
		t.Errorf("body = %+v", body)
	}
	if body.Debug != nil {
		t.Error("debug info present without debug flag")
	}
}

func TestChatSoloDebug(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{replies: []string{"ok"}}, allowAllResolver{})
	token := userToken(t, env, "user_1")

	resp := env.request(t, http.MethodPost, "/api/chat", token, map[string]any{
		"prompt": "hello",
		"model":  "gpt-4o",
		"debug":  true,
	})
	var body soloResponse
	decodeBody(t, resp, &body)
	if body.Debug == nil {
		t.Fatal("debug info missing")
	}
	if body.Debug.Provider != "openai" || body.Debug.CredentialSource != "server" {
		t.Errorf("debug = %+v", body.Debug)
	}
	// The resolver's token must never appear anywhere in the response.
	raw, _ := json.Marshal(body)
	if strings.Contains(string(raw), "tok") {
		t.Errorf("response leaked credential material: %s", raw)
	}
}

func TestChatDebateWhenNoModel(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{replies: []string{"stage output"}}, allowAllResolver{})

	resp := env.request(t, http.MethodPost, "/api/chat", "", map[string]string{"prompt": "topic"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body debateResponse
	decodeBody(t, resp, &body)
	if body.Debate == nil {
		t.Fatal("debate payload missing")
	}
	if body.Debate.Moderator.Model != council.DefaultBindings().Moderator {
		t.Errorf("moderator model = %q", body.Debate.Moderator.Model)
	}
}

func TestChatMissingCredentialStatus(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{}, denyResolver{})

	// Guests get 401: signing in is the fix.
	resp := env.request(t, http.MethodPost, "/api/chat", "", map[string]string{"prompt": "hi", "model": "gpt-4o"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("guest status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	// Signed-in users get 400: adding the key is the fix.
	token := userToken(t, env, "user_1")
	resp = env.request(t, http.MethodPost, "/api/chat", token, map[string]string{"prompt": "hi", "model": "gpt-4o"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("user status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSecretsLifecycle(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{}, allowAllResolver{})
	token := userToken(t, env, "user_1")

	// Guests cannot touch secrets.
	resp := env.request(t, http.MethodPut, "/api/secrets/openai_api_key", "", map[string]string{"value": "sk-x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("guest put status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown names are rejected.
	resp = env.request(t, http.MethodPut, "/api/secrets/stripe_key", token, map[string]string{"value": "x"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown name status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request(t, http.MethodPut, "/api/secrets/openai_api_key", token, map[string]string{"value": "sk-secret-value"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	var putBody map[string]string
	decodeBody(t, resp, &putBody)
	if strings.Contains(fmt.Sprint(putBody), "sk-secret-value") {
		t.Error("put response echoed the secret value")
	}

	// List returns names only.
	resp = env.request(t, http.MethodGet, "/api/secrets", token, nil)
	var listBody struct {
		Names []string `json:"names"`
	}
	decodeBody(t, resp, &listBody)
	if len(listBody.Names) != 1 || listBody.Names[0] != "openai_api_key" {
		t.Errorf("names = %v", listBody.Names)
	}

	resp = env.request(t, http.MethodDelete, "/api/secrets/openai_api_key", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	if len(env.store.secrets["user_1"]) != 0 {
		t.Error("secret not deleted")
	}
}

func TestCouncilConfig(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{}, allowAllResolver{})
	token := userToken(t, env, "user_1")

	// Defaults before anything is stored.
	resp := env.request(t, http.MethodGet, "/api/council", token, nil)
	var got core.CouncilBindings
	decodeBody(t, resp, &got)
	if got != council.DefaultBindings() {
		t.Errorf("bindings = %+v, want defaults", got)
	}

	// Partial updates are rejected.
	resp = env.request(t, http.MethodPut, "/api/council", token, map[string]string{"moderator": "gpt-4o"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("partial put status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	want := core.CouncilBindings{Moderator: "gpt-4o", Skeptic: "gemini-1.5-pro", Visionary: "llama-3.3-70b"}
	resp = env.request(t, http.MethodPut, "/api/council", token, want)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/council", token, nil)
	decodeBody(t, resp, &got)
	if got != want {
		t.Errorf("bindings = %+v, want %+v", got, want)
	}
}

func TestDebateOwnership(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{}, allowAllResolver{})
	env.store.debates["d1"] = &core.DebateResult{ID: "d1", UserID: "user_1", Topic: "t", CreatedAt: time.Now()}

	owner := userToken(t, env, "user_1")
	other := userToken(t, env, "user_2")

	resp := env.request(t, http.MethodGet, "/api/debates/d1", owner, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("owner status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/debates/d1", other, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("other user status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDebateExport(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{}, allowAllResolver{})
	env.store.debates["d1"] = &core.DebateResult{
		ID: "d1", UserID: "user_1", Topic: "topic",
		Moderator: core.RoleOutput{Model: "m", Content: "a"},
		Skeptic:   core.RoleOutput{Model: "s", Content: "b"},
		Visionary: core.RoleOutput{Model: "v", Content: "c"},
		CreatedAt: time.Now(),
	}
	token := userToken(t, env, "user_1")

	resp := env.request(t, http.MethodGet, "/api/debates/d1/export/markdown", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/markdown" {
		t.Errorf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("disposition = %q", cd)
	}
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/debates/d1/export/docx", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad format status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAnonymousSession(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{}, allowAllResolver{})

	resp := env.request(t, http.MethodPost, "/api/auth/anonymous", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body sessionResponse
	decodeBody(t, resp, &body)
	if !body.Guest || body.Token == "" || !strings.HasPrefix(body.UserID, "guest_") {
		t.Errorf("body = %+v", body)
	}

	// The minted token round-trips through the session endpoint.
	resp = env.request(t, http.MethodGet, "/api/auth/session", body.Token, nil)
	var session sessionResponse
	decodeBody(t, resp, &session)
	if session.UserID != body.UserID || !session.Guest {
		t.Errorf("session = %+v", session)
	}
}

func TestSignupUnavailableWithoutIdentity(t *testing.T) {
	env := newTestEnv(t, &scriptedGateway{}, allowAllResolver{})

	resp := env.request(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "a@b.com", "password": "pw12345678",
	})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestClientKey(t *testing.T) {
	// Guests from one host share a bucket regardless of source port.
	first := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	first.RemoteAddr = "1.2.3.4:50001"
	second := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	second.RemoteAddr = "1.2.3.4:50002"
	if clientKey(first) != "1.2.3.4" || clientKey(second) != "1.2.3.4" {
		t.Errorf("keys = %q, %q, want both 1.2.3.4", clientKey(first), clientKey(second))
	}

	// Signed-in users are keyed by user id, not address.
	sessions, err := auth.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	token, err := sessions.Issue("user_9", "Test User")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var got string
	h := sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientKey(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.RemoteAddr = "1.2.3.4:50003"
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "user:user_9" {
		t.Errorf("key = %q, want user:user_9", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other clients are unaffected")
	}
}
