package sso

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/devportal/pkg/gate"
	"github.com/platinummonkey/devportal/pkg/sessionstore"
)

const testContext = "/devportal"

// fakeProvider redirects to a fixed authorization endpoint and maps codes to users
type fakeProvider struct {
	users map[string]*User
}

func (p *fakeProvider) AuthCodeURL(state string, passive bool) string {
	q := url.Values{"state": {state}}
	if passive {
		q.Set("prompt", "none")
	}
	return "https://idp.test/authorize?" + q.Encode()
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*User, error) {
	user, ok := p.users[code]
	if !ok {
		return nil, errors.New("invalid_grant")
	}
	return user, nil
}

// browser replays the session cookie across requests
type browser struct {
	t       *testing.T
	handler http.Handler
	store   sessionstore.Store
	cookie  *http.Cookie
}

func (b *browser) do(method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionstore.DefaultCookieName {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) session() *sessionstore.Session {
	require.NotNil(b.t, b.cookie, "no session cookie issued")
	return sessionstore.Scope(b.store, b.cookie.Value)
}

func setupHandlersTest(t *testing.T, provider Provider) *browser {
	t.Helper()

	store := sessionstore.NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })

	router := mux.NewRouter()
	NewHandlers(provider, store, testContext).RegisterRoutes(router)

	return &browser{
		t:       t,
		handler: sessionstore.Middleware(sessionstore.CookieConfig{})(router),
		store:   store,
	}
}

// startLogin performs the probe request and returns the state sent to the identity provider
func startLogin(t *testing.T, b *browser, referer string) string {
	t.Helper()

	header := http.Header{}
	if referer != "" {
		header.Set("Referer", referer)
	}
	w := b.do("GET", testContext+"/services/configs?loginPrompt=false", header)
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "none", loc.Query().Get("prompt"))
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestConfigs_WithoutProvider(t *testing.T) {
	b := setupHandlersTest(t, nil)

	w := b.do("GET", testContext+"/services/configs?loginPrompt=false", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp configsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.SSO)
	assert.False(t, resp.LoginPrompt)

	w = b.do("GET", testContext+"/services/configs", nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.LoginPrompt, "loginPrompt defaults to true")

	w = b.do("GET", testContext+"/services/configs?loginPrompt=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfigs_StoresPendingLogin(t *testing.T) {
	b := setupHandlersTest(t, &fakeProvider{})
	ctx := context.Background()

	state := startLogin(t, b, "http://portal.test/devportal/apis?tenant=wso2.com")

	raw, ok, err := b.session().Get(ctx, StateKey)
	require.NoError(t, err)
	require.True(t, ok)

	var pending pendingLogin
	require.NoError(t, json.Unmarshal([]byte(raw), &pending))
	assert.Equal(t, state, pending.State)
	assert.True(t, pending.Passive)
	assert.Equal(t, "/devportal/apis?tenant=wso2.com", pending.ReturnTo)

	w := b.do("GET", testContext+"/services/configs", nil)
	require.Equal(t, http.StatusFound, w.Code)
	loc, _ := url.Parse(w.Header().Get("Location"))
	assert.Empty(t, loc.Query().Get("prompt"), "interactive login does not send prompt=none")
}

func TestReturnTo(t *testing.T) {
	h := NewHandlers(nil, nil, testContext)

	tests := []struct {
		name     string
		param    string
		referer  string
		expected string
	}{
		{name: "return parameter", param: "/devportal/apis?tenant=acme.com", referer: "http://portal.test/devportal/home", expected: "/devportal/apis?tenant=acme.com"},
		{name: "absolute return parameter", param: "https://evil.test/devportal/apis", referer: "http://portal.test/devportal/home", expected: "/devportal/home"},
		{name: "protocol-relative return parameter", param: "//evil.test/devportal/apis", expected: "/devportal/"},
		{name: "return parameter outside context", param: "/publisher/apis", expected: "/devportal/"},
		{name: "no referer", referer: "", expected: "/devportal/"},
		{name: "portal page", referer: "http://portal.test/devportal/apis", expected: "/devportal/apis"},
		{name: "portal root", referer: "http://portal.test/devportal", expected: "/devportal"},
		{name: "keeps query", referer: "http://portal.test/devportal/?tenant=a.com", expected: "/devportal/?tenant=a.com"},
		{name: "other application", referer: "http://portal.test/publisher/apis", expected: "/devportal/"},
		{name: "prefix lookalike", referer: "http://portal.test/devportalx/apis", expected: "/devportal/"},
		{name: "services endpoint", referer: "http://portal.test/devportal/services/configs", expected: "/devportal/"},
		{name: "foreign host keeps only path", referer: "https://evil.test/devportal/apis", expected: "/devportal/apis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/devportal/services/configs"
			if tt.param != "" {
				target += "?" + url.Values{gate.ReturnToParam: {tt.param}}.Encode()
			}
			req := httptest.NewRequest("GET", target, nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			assert.Equal(t, tt.expected, h.returnTo(req))
		})
	}
}

func TestCallback_AccessDenied(t *testing.T) {
	b := setupHandlersTest(t, &fakeProvider{})
	ctx := context.Background()

	state := startLogin(t, b, "http://portal.test/devportal/apis")
	w := b.do("GET", testContext+"/services/auth/callback?error=access_denied&state="+state, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/devportal/apis", w.Header().Get("Location"))

	value, ok, err := b.session().Get(ctx, gate.NotEnoughPermissionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", value)

	has, err := b.session().Has(ctx, StateKey)
	require.NoError(t, err)
	assert.False(t, has, "pending login is consumed")
}

func TestCallback_LoginRequired(t *testing.T) {
	for _, code := range []string{ErrorLoginRequired, ErrorInteractionRequired, ErrorConsentRequired, ErrorAccountSelectionRequired, "server_error"} {
		t.Run(code, func(t *testing.T) {
			b := setupHandlersTest(t, &fakeProvider{})
			ctx := context.Background()

			state := startLogin(t, b, "")
			w := b.do("GET", testContext+"/services/auth/callback?error="+code+"&state="+state, nil)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/devportal/", w.Header().Get("Location"))

			has, err := b.session().Has(ctx, gate.NotEnoughPermissionKey)
			require.NoError(t, err)
			assert.False(t, has)
			has, err = b.session().Has(ctx, gate.UserKey)
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}

func TestCallback_SignsIn(t *testing.T) {
	user := &User{Subject: "user-1", Email: "dev@example.com", Name: "Dev"}
	b := setupHandlersTest(t, &fakeProvider{users: map[string]*User{"good": user}})
	ctx := context.Background()

	w := b.do("GET", testContext+"/services/user", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, DenyPermission(ctx, b.session()))

	state := startLogin(t, b, "http://portal.test/devportal/home")
	w = b.do("GET", testContext+"/services/auth/callback?code=good&state="+state, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/devportal/home", w.Header().Get("Location"))

	has, err := b.session().Has(ctx, gate.NotEnoughPermissionKey)
	require.NoError(t, err)
	assert.False(t, has, "signing in clears the permission denial")

	w = b.do("GET", testContext+"/services/user", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var got User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, *user, got)

	w = b.do("POST", testContext+"/services/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = b.do("GET", testContext+"/services/user", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallback_ExchangeFailure(t *testing.T) {
	b := setupHandlersTest(t, &fakeProvider{})

	state := startLogin(t, b, "")
	w := b.do("GET", testContext+"/services/auth/callback?code=bad&state="+state, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCallback_StateMismatch(t *testing.T) {
	b := setupHandlersTest(t, &fakeProvider{})

	w := b.do("GET", testContext+"/services/auth/callback?code=good&state=unknown", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no pending login")

	startLogin(t, b, "")
	w = b.do("GET", testContext+"/services/auth/callback?code=good&state=forged", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	has, err := b.session().Has(context.Background(), StateKey)
	require.NoError(t, err)
	assert.False(t, has, "a rejected callback still consumes the pending login")
}

func TestCallback_WithoutProvider(t *testing.T) {
	b := setupHandlersTest(t, nil)

	w := b.do("GET", testContext+"/services/auth/callback?code=good&state=x", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
