package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/session"
	"github.com/angelmondragon/storefront-backend/internal/snapshot"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type stubAccounts struct {
	loginErr  error
	created   []string
	lastPatch catalog.ProfileUpdate
	lastToken string
}

func (s *stubAccounts) Login(_ context.Context, email, _ string) (*catalog.AuthResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &catalog.AuthResponse{AccessToken: "remote-" + email, TokenType: "bearer"}, nil
}

func (s *stubAccounts) CreateUser(_ context.Context, email, _, name string) (*catalog.User, error) {
	s.created = append(s.created, name)
	return &catalog.User{ID: 11, Email: email, Name: name}, nil
}

func (s *stubAccounts) GetProfile(_ context.Context, token string) (*catalog.User, error) {
	return &catalog.User{ID: 11, Email: strings.TrimPrefix(token, "remote-"), Name: "Remote", Role: "customer"}, nil
}

func (s *stubAccounts) UpdateProfile(_ context.Context, token string, patch catalog.ProfileUpdate) (*catalog.User, error) {
	s.lastToken = token
	s.lastPatch = patch
	out := &catalog.User{}
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	return out, nil
}

type stubPreferences struct {
	token string
	prefs catalog.UserPreferences
}

func (s *stubPreferences) UpdatePreferences(_ context.Context, token string, prefs catalog.UserPreferences) (*catalog.UserPreferences, error) {
	s.token = token
	s.prefs = prefs
	return &prefs, nil
}

type stateEnvelope struct {
	Data struct {
		Authenticated bool          `json:"authenticated"`
		User          *catalog.User `json:"user"`
		IsAdmin       bool          `json:"is_admin"`
		Token         *string       `json:"token"`
	} `json:"data"`
}

func newTestSession(t *testing.T, accounts *stubAccounts) *session.Session {
	t.Helper()
	store := snapshot.NewMemoryStore()
	wl, err := wishlist.NewStore(context.Background(), wishlist.StoreParams{
		Persister: snapshot.NewJSON[wishlist.State](store, session.WishlistKey),
	})
	if err != nil {
		t.Fatalf("wishlist: %v", err)
	}
	reg, err := session.NewRegistry(session.RegistryParams{
		Snapshots: store,
		Wishlists: wl,
		Accounts:  accounts,
		Admin:     config.AdminConfig{Enabled: true, Email: "admin@gmail.com", Password: "admin1234"},
		CacheSize: 4,
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	sess, err := reg.Acquire(context.Background(), "sess-auth")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return sess
}

func serve(t *testing.T, h http.HandlerFunc, sess *session.Session, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/api/v1/auth", nil)
	} else {
		req = httptest.NewRequest(method, "/api/v1/auth", strings.NewReader(body))
	}
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeState(t *testing.T, resp *httptest.ResponseRecorder) stateEnvelope {
	t.Helper()
	var envelope stateEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func TestLoginAdminPair(t *testing.T) {
	sess := newTestSession(t, &stubAccounts{})
	resp := serve(t, Login(nil), sess, http.MethodPost, `{"email":"admin@gmail.com","password":"admin1234"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	envelope := decodeState(t, resp)
	if !envelope.Data.IsAdmin || envelope.Data.User == nil || envelope.Data.User.Name != "Admin" {
		t.Fatalf("expected admin login, got %+v", envelope.Data)
	}
	if envelope.Data.Token != nil {
		t.Fatal("token must not be exposed")
	}
}

func TestLoginRemote(t *testing.T) {
	sess := newTestSession(t, &stubAccounts{})
	resp := serve(t, Login(nil), sess, http.MethodPost, `{"email":"shopper@example.com","password":"pw"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	envelope := decodeState(t, resp)
	if envelope.Data.IsAdmin || envelope.Data.User.Email != "shopper@example.com" {
		t.Fatalf("unexpected state %+v", envelope.Data)
	}
	if !sess.Auth.Snapshot().Authenticated() {
		t.Fatal("session should be signed in")
	}
}

func TestLoginRemoteRejected(t *testing.T) {
	accounts := &stubAccounts{loginErr: &catalog.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}}
	sess := newTestSession(t, accounts)
	resp := serve(t, Login(nil), sess, http.MethodPost, `{"email":"shopper@example.com","password":"bad"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if sess.Auth.Snapshot().Authenticated() {
		t.Fatal("failed login must not sign in")
	}
}

func TestLoginValidatesBody(t *testing.T) {
	sess := newTestSession(t, &stubAccounts{})
	resp := serve(t, Login(nil), sess, http.MethodPost, `{"email":"not-an-email","password":"pw"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLoginRequiresSession(t *testing.T) {
	resp := serve(t, Login(nil), nil, http.MethodPost, `{"email":"a@b.co","password":"pw"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRegisterCreatesThenSignsIn(t *testing.T) {
	accounts := &stubAccounts{}
	sess := newTestSession(t, accounts)
	resp := serve(t, Register(nil), sess, http.MethodPost, `{"email":"new@example.com","password":"pw","name":"Newbie"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(accounts.created) != 1 || accounts.created[0] != "Newbie" {
		t.Fatalf("expected one account created, got %v", accounts.created)
	}
	if !decodeState(t, resp).Data.Authenticated {
		t.Fatal("expected signed in after register")
	}
}

func TestRegisterTrimsName(t *testing.T) {
	accounts := &stubAccounts{}
	sess := newTestSession(t, accounts)
	resp := serve(t, Register(nil), sess, http.MethodPost, `{"email":"new@example.com","password":"pw","name":"  Newbie  "}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if accounts.created[0] != "Newbie" {
		t.Fatalf("expected trimmed name, got %q", accounts.created[0])
	}

	resp = serve(t, Register(nil), newTestSession(t, &stubAccounts{}), http.MethodPost, `{"email":"new@example.com","password":"pw","name":"   "}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name got %d", resp.Code)
	}
}

func TestLogoutClearsState(t *testing.T) {
	sess := newTestSession(t, &stubAccounts{})
	serve(t, Login(nil), sess, http.MethodPost, `{"email":"admin@gmail.com","password":"admin1234"}`)

	resp := serve(t, Logout(nil), sess, http.MethodPost, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if decodeState(t, resp).Data.Authenticated {
		t.Fatal("expected signed out")
	}

	resp = serve(t, Me(nil), sess, http.MethodGet, "")
	if envelope := decodeState(t, resp); envelope.Data.User != nil {
		t.Fatalf("expected no user, got %+v", envelope.Data.User)
	}
}

func TestUpdateMeRequiresLogin(t *testing.T) {
	accounts := &stubAccounts{}
	sess := newTestSession(t, accounts)
	resp := serve(t, UpdateMe(nil), sess, http.MethodPatch, `{"name":"X"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if accounts.lastToken != "" {
		t.Fatal("no remote call expected")
	}
}

func TestUpdateMeMergesProfile(t *testing.T) {
	accounts := &stubAccounts{}
	sess := newTestSession(t, accounts)
	serve(t, Login(nil), sess, http.MethodPost, `{"email":"shopper@example.com","password":"pw"}`)

	resp := serve(t, UpdateMe(nil), sess, http.MethodPatch, `{"name":"Renamed"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	envelope := decodeState(t, resp)
	if envelope.Data.User.Name != "Renamed" || envelope.Data.User.Email != "shopper@example.com" {
		t.Fatalf("unexpected user %+v", envelope.Data.User)
	}
	if accounts.lastToken != "remote-shopper@example.com" {
		t.Fatalf("unexpected token %q", accounts.lastToken)
	}
}

func TestUpdatePreferencesUsesSessionToken(t *testing.T) {
	sess := newTestSession(t, &stubAccounts{})
	serve(t, Login(nil), sess, http.MethodPost, `{"email":"shopper@example.com","password":"pw"}`)

	prefs := &stubPreferences{}
	resp := serve(t, UpdatePreferences(prefs, nil), sess, http.MethodPatch, `{"theme":"dark","notifications":true}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if prefs.token != "remote-shopper@example.com" || prefs.prefs.Theme != "dark" || !prefs.prefs.Notifications {
		t.Fatalf("unexpected call %+v", prefs)
	}
}

func TestUpdatePreferencesRejectsUnknownTheme(t *testing.T) {
	sess := newTestSession(t, &stubAccounts{})
	serve(t, Login(nil), sess, http.MethodPost, `{"email":"shopper@example.com","password":"pw"}`)

	resp := serve(t, UpdatePreferences(&stubPreferences{}, nil), sess, http.MethodPatch, `{"theme":"neon"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
