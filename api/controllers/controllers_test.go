package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/session"
	"github.com/angelmondragon/storefront-backend/internal/snapshot"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "controllers-secret", Issuer: "storefront", AccessTTL: time.Minute, RefreshTTL: time.Hour}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubReader struct {
	products   []catalog.Product
	categories []catalog.Category
	err        error
	offset     int
	limit      int
}

func (s *stubReader) ListProducts(_ context.Context, offset, limit int) ([]catalog.Product, error) {
	s.offset, s.limit = offset, limit
	return s.products, s.err
}

func (s *stubReader) GetProduct(_ context.Context, id int) (*catalog.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &catalog.APIError{Status: http.StatusNotFound, Message: "Could not find any entity"}
}

func (s *stubReader) ListCategories(context.Context) ([]catalog.Category, error) {
	return s.categories, s.err
}

type stubAccounts struct{}

func (stubAccounts) Login(context.Context, string, string) (*catalog.AuthResponse, error) {
	return &catalog.AuthResponse{AccessToken: "remote"}, nil
}

func (stubAccounts) CreateUser(context.Context, string, string, string) (*catalog.User, error) {
	return &catalog.User{}, nil
}

func (stubAccounts) GetProfile(context.Context, string) (*catalog.User, error) {
	return &catalog.User{ID: 21, Email: "w@example.com"}, nil
}

func (stubAccounts) UpdateProfile(context.Context, string, catalog.ProfileUpdate) (*catalog.User, error) {
	return &catalog.User{}, nil
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	store := snapshot.NewMemoryStore()
	wl, err := wishlist.NewStore(context.Background(), wishlist.StoreParams{
		Persister: snapshot.NewJSON[wishlist.State](store, session.WishlistKey),
	})
	if err != nil {
		t.Fatalf("wishlist: %v", err)
	}
	reg, err := session.NewRegistry(session.RegistryParams{Snapshots: store, Wishlists: wl, Accounts: stubAccounts{}, CacheSize: 2})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	sess, err := reg.Acquire(context.Background(), "ctrl-sess")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return sess
}

func signIn(t *testing.T, sess *session.Session) {
	t.Helper()
	if _, err := sess.Auth.Login(context.Background(), auth.Credentials{Email: "w@example.com", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func withSession(sess *session.Session, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), sess)))
	})
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Storefront-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{}
	ok := HealthReady(cfg, map[string]Pinger{"redis": stubPinger{}, "database": nil}, nil)
	resp := httptest.NewRecorder()
	ok.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	down := HealthReady(cfg, map[string]Pinger{"redis": stubPinger{err: errors.New("connection refused")}}, nil)
	resp = httptest.NewRecorder()
	down.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "connection refused") {
		t.Fatalf("expected failing dependency in details, got %s", resp.Body.String())
	}
}

func TestListProductsPaging(t *testing.T) {
	reader := &stubReader{products: []catalog.Product{{ID: 1, Title: "Mug", Price: decimal.NewFromInt(3)}}}
	resp := httptest.NewRecorder()
	ListProducts(reader, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products?offset=20&limit=5", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if reader.offset != 20 || reader.limit != 5 {
		t.Fatalf("unexpected paging offset=%d limit=%d", reader.offset, reader.limit)
	}

	resp = httptest.NewRecorder()
	ListProducts(reader, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if reader.offset != 0 || reader.limit != defaultProductLimit {
		t.Fatalf("expected defaults, got offset=%d limit=%d", reader.offset, reader.limit)
	}

	resp = httptest.NewRecorder()
	ListProducts(reader, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=0", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetProductNotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products/{id}", GetProduct(&stubReader{}, nil))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/products/77", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestListCategoriesTransportFailure(t *testing.T) {
	resp := httptest.NewRecorder()
	ListCategories(&stubReader{err: errors.New("timeout")}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestListCategoryProductsFiltersByCategory(t *testing.T) {
	kitchen := catalog.Category{ID: 2, Name: "Kitchen"}
	reader := &stubReader{
		categories: []catalog.Category{{ID: 1, Name: "Garden"}, kitchen},
		products: []catalog.Product{
			{ID: 1, Title: "Mug", Price: decimal.NewFromInt(3), Category: kitchen},
			{ID: 2, Title: "Rake", Price: decimal.NewFromInt(9), Category: catalog.Category{ID: 1}},
			{ID: 3, Title: "Pan", Price: decimal.NewFromInt(15), Category: kitchen},
		},
	}
	r := chi.NewRouter()
	r.Get("/categories/{id}/products", ListCategoryProducts(reader, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/categories/2/products", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if reader.offset != 0 || reader.limit != categoryScanLimit {
		t.Fatalf("unexpected scan offset=%d limit=%d", reader.offset, reader.limit)
	}
	var body struct {
		Data categoryProducts `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Category.Name != "Kitchen" {
		t.Fatalf("unexpected category %+v", body.Data.Category)
	}
	if len(body.Data.Products) != 2 || body.Data.Products[0].ID != 1 || body.Data.Products[1].ID != 3 {
		t.Fatalf("unexpected products %+v", body.Data.Products)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/categories/9/products", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", resp.Code)
	}
}

func TestListCategoryProductsEmptyCategory(t *testing.T) {
	reader := &stubReader{categories: []catalog.Category{{ID: 4, Name: "Books"}}}
	r := chi.NewRouter()
	r.Get("/categories/{id}/products", ListCategoryProducts(reader, nil))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/categories/4/products", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"products":[]`) {
		t.Fatalf("expected empty product list, got %s", resp.Body.String())
	}
}

func TestCreateAndRefreshSession(t *testing.T) {
	resp := httptest.NewRecorder()
	CreateSession(testJWT, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var created struct {
		Data pkgauth.TokenPair `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.SessionID == "" || created.Data.AccessToken == "" || created.Data.RefreshToken == "" {
		t.Fatalf("incomplete token pair %+v", created.Data)
	}

	body := `{"refresh_token":"` + created.Data.RefreshToken + `"}`
	resp = httptest.NewRecorder()
	RefreshSession(testJWT, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/refresh", strings.NewReader(body)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var refreshed struct {
		Data pkgauth.TokenPair `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&refreshed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if refreshed.Data.SessionID != created.Data.SessionID {
		t.Fatalf("session changed: %q != %q", refreshed.Data.SessionID, created.Data.SessionID)
	}
	claims, err := pkgauth.ParseSessionToken(testJWT, refreshed.Data.AccessToken, pkgauth.TokenKindAccess)
	if err != nil || claims.SessionID != created.Data.SessionID {
		t.Fatalf("refreshed access token invalid: %v", err)
	}
}

func TestRefreshSessionRejectsAccessToken(t *testing.T) {
	access, _, err := pkgauth.MintSessionToken(testJWT, time.Now(), "sid", pkgauth.TokenKindAccess)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	resp := httptest.NewRecorder()
	RefreshSession(testJWT, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sessions/refresh", strings.NewReader(`{"refresh_token":"`+access+`"}`)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCSRFTokenSetsCookie(t *testing.T) {
	resp := httptest.NewRecorder()
	CSRFToken(&config.Config{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/csrf", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "csrf-token" {
		t.Fatalf("expected csrf cookie, got %v", cookies)
	}
	if !strings.Contains(resp.Body.String(), cookies[0].Value) {
		t.Fatal("expected token echoed in body")
	}
}

func wishlistRouter(sess *session.Session) http.Handler {
	r := chi.NewRouter()
	r.Get("/wishlist", WishlistList(nil))
	r.Get("/wishlist/{productId}", WishlistHas(nil))
	r.Put("/wishlist/{productId}", WishlistAdd(nil))
	r.Delete("/wishlist/{productId}", WishlistRemove(nil))
	return withSession(sess, r)
}

func TestWishlistSignedIn(t *testing.T) {
	sess := newTestSession(t)
	signIn(t, sess)
	router := wishlistRouter(sess)

	for _, id := range []string{"9", "3", "9"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/wishlist/"+id, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/wishlist", nil))
	if !strings.Contains(resp.Body.String(), `"product_ids":[3,9]`) {
		t.Fatalf("unexpected list %s", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/wishlist/3", nil))
	if !strings.Contains(resp.Body.String(), `"product_ids":[9]`) {
		t.Fatalf("unexpected list after remove %s", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/wishlist/9", nil))
	if !strings.Contains(resp.Body.String(), `"in_wishlist":true`) {
		t.Fatalf("expected product 9 present, got %s", resp.Body.String())
	}
}

func TestWishlistAnonymousIsNoop(t *testing.T) {
	router := wishlistRouter(newTestSession(t))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/wishlist/4", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"product_ids":[]`) {
		t.Fatalf("expected no-op, got %d %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/wishlist/4", nil))
	if !strings.Contains(resp.Body.String(), `"in_wishlist":false`) {
		t.Fatalf("expected absent, got %s", resp.Body.String())
	}
}

const validCheckoutForm = `{"name":"Ada","email":"ada@example.com","address":"1 Loop St","city":"Lisbon","country":"PT","postal_code":"1000-001","card_number":"4242424242424242","card_expiry":"12/30","card_cvc":"123"}`

func newCheckoutService(t *testing.T) *checkout.Service {
	t.Helper()
	svc, err := checkout.NewService(checkout.ServiceParams{})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return svc
}

func TestCheckoutPlaceClearsCart(t *testing.T) {
	sess := newTestSession(t)
	if _, err := sess.Cart.AddItem(context.Background(), catalog.Product{ID: 1, Price: decimal.NewFromInt(150)}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(validCheckoutForm))
	withSession(sess, CheckoutPlace(newCheckoutService(t), nil)).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data checkout.Confirmation `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Data.Total.Equal(decimal.NewFromInt(150)) || envelope.Data.ItemCount != 1 {
		t.Fatalf("unexpected confirmation %+v", envelope.Data)
	}
	if len(sess.Cart.Snapshot().Items) != 0 {
		t.Fatal("expected cart cleared")
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(validCheckoutForm))
	withSession(newTestSession(t), CheckoutPlace(newCheckoutService(t), nil)).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "cart is empty") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestCheckoutValidatesForm(t *testing.T) {
	sess := newTestSession(t)
	if _, err := sess.Cart.AddItem(context.Background(), catalog.Product{ID: 1, Price: decimal.NewFromInt(5)}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"name":"Ada"}`))
	withSession(sess, CheckoutPlace(newCheckoutService(t), nil)).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(sess.Cart.Snapshot().Items) != 1 {
		t.Fatal("cart must survive a rejected checkout")
	}
}
