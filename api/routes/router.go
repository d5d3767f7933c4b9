package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	admincontrollers "github.com/angelmondragon/storefront-backend/api/controllers/admin"
	authcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/auth"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/guard"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// RemoteAPI is the token-bearing part of the catalog client.
type RemoteAPI interface {
	admincontrollers.Client
	ordercontrollers.Lister
	authcontrollers.PreferencesClient
}

// Dependencies is everything the router hands to controllers.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions middleware.SessionResolver
	Catalog  catalog.Reader
	Remote   RemoteAPI
	Checkout *checkout.Service
	// Limiter is shared across instances; nil falls back to per-process
	// counters.
	Limiter  middleware.Limiter
	Pingers  map[string]controllers.Pinger
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.SecurityHeaders,
		middleware.CORS(cfg.Security.CORSOrigins),
		middleware.Metrics(deps.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Pingers, logg))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.Limit)
	sessionAuth := middleware.Session(cfg.JWT, deps.Sessions, logg)

	r.Route("/api", func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(middleware.RateLimit(apiPolicy, deps.Limiter, logg))
		} else {
			r.Use(middleware.LocalRateLimit(apiPolicy, logg))
		}
		r.Use(middleware.CSRF(cfg.Security.CSRFEnabled, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Get("/csrf", controllers.CSRFToken(cfg, logg))
			r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/products/{id}", controllers.GetProduct(deps.Catalog, logg))
			r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
			r.Get("/categories/{id}/products", controllers.ListCategoryProducts(deps.Catalog, logg))

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", controllers.CreateSession(cfg.JWT, logg))
				r.Post("/refresh", controllers.RefreshSession(cfg.JWT, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(sessionAuth)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartcontrollers.Fetch(logg))
					r.Delete("/", cartcontrollers.Clear(logg))
					r.Post("/items", cartcontrollers.AddItem(deps.Catalog, logg))
					r.Route("/items/{productId}", func(r chi.Router) {
						r.Delete("/", cartcontrollers.RemoveItem(logg))
						r.Patch("/", cartcontrollers.UpdateQuantity(logg))
						r.Post("/save", cartcontrollers.SaveForLater(logg))
						r.Post("/gift-wrap", cartcontrollers.ToggleGiftWrap(logg))
						r.Post("/select", cartcontrollers.ToggleSelection(logg))
					})
					r.Post("/saved/{productId}/move", cartcontrollers.MoveToCart(logg))
					r.Route("/selection", func(r chi.Router) {
						r.Delete("/", cartcontrollers.DeselectAll(logg))
						r.Post("/all", cartcontrollers.SelectAll(logg))
						r.Delete("/items", cartcontrollers.RemoveSelected(logg))
						r.Post("/wishlist", cartcontrollers.MoveSelectedToWishlist(logg))
					})
					r.Post("/discount", cartcontrollers.ApplyDiscount(logg))
					r.Delete("/discount", cartcontrollers.RemoveDiscount(logg))
				})

				r.Route("/auth", func(r chi.Router) {
					r.With(middleware.Guard(guard.GuestOnly, logg)).Post("/login", authcontrollers.Login(logg))
					r.With(middleware.Guard(guard.GuestOnly, logg)).Post("/register", authcontrollers.Register(logg))
					r.Post("/logout", authcontrollers.Logout(logg))
					r.Get("/me", authcontrollers.Me(logg))
					r.With(middleware.Guard(guard.Authenticated, logg)).Patch("/me", authcontrollers.UpdateMe(logg))
					r.With(middleware.Guard(guard.Authenticated, logg)).Patch("/me/preferences", authcontrollers.UpdatePreferences(deps.Remote, logg))
				})

				r.Route("/wishlist", func(r chi.Router) {
					r.Get("/", controllers.WishlistList(logg))
					r.Get("/{productId}", controllers.WishlistHas(logg))
					r.Put("/{productId}", controllers.WishlistAdd(logg))
					r.Delete("/{productId}", controllers.WishlistRemove(logg))
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.Guard(guard.Authenticated, logg))
					r.Post("/checkout", controllers.CheckoutPlace(deps.Checkout, logg))
					r.Get("/orders", ordercontrollers.List(deps.Remote, logg))
				})
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(sessionAuth)
			r.Use(middleware.Guard(guard.Admin, logg))

			r.Get("/stats", admincontrollers.Stats(deps.Remote, logg))
			r.Get("/inventory", admincontrollers.Inventory(deps.Remote, logg))
			r.Get("/forecasts", admincontrollers.Forecasts(deps.Remote, logg))
			r.Get("/customer-segments", admincontrollers.CustomerSegments(deps.Remote, logg))
			r.Patch("/products/batch", admincontrollers.BatchUpdateProducts(deps.Remote, logg))
			r.Post("/products/import", admincontrollers.ImportProducts(deps.Remote, logg))
			r.Get("/products/export", admincontrollers.ExportProducts(deps.Remote, logg))
			r.Patch("/products/{id}", admincontrollers.UpdateProduct(deps.Remote, logg))
			r.Patch("/orders/batch", admincontrollers.BatchUpdateOrders(deps.Remote, logg))
			r.Patch("/orders/{id}", admincontrollers.UpdateOrderStatus(deps.Remote, logg))
		})
	})

	return r
}
