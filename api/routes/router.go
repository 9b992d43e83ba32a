package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/retailpos-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/retailpos-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/retailpos-backend/api/controllers/orders"
	salescontrollers "github.com/angelmondragon/retailpos-backend/api/controllers/sales"
	webhookcontrollers "github.com/angelmondragon/retailpos-backend/api/controllers/webhooks"
	"github.com/angelmondragon/retailpos-backend/api/middleware"
	"github.com/angelmondragon/retailpos-backend/internal/cart/session"
	"github.com/angelmondragon/retailpos-backend/internal/catalog"
	"github.com/angelmondragon/retailpos-backend/internal/orders"
	"github.com/angelmondragon/retailpos-backend/internal/sales"
	stripewebhook "github.com/angelmondragon/retailpos-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/retailpos-backend/pkg/config"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/redis"
	"github.com/angelmondragon/retailpos-backend/pkg/stripe"
)

// Params collects the services the router mounts. Nil services render a
// dependency error on their routes instead of panicking.
type Params struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        *redis.Client
	Catalog      catalog.Service
	Orders       orders.Service
	Sales        sales.Service
	Carts        session.Service
	Stripe       *stripe.Client
	StripeEvents *stripewebhook.Service
	StripeGuard  *stripewebhook.IdempotencyGuard
	Gatherer     prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	var idemStore redis.IdempotencyStore
	readiness := map[string]controllers.Pinger{}
	if p.DB != nil {
		readiness["database"] = p.DB
	}
	if p.Redis != nil {
		idemStore = p.Redis
		readiness["redis"] = p.Redis
	}
	idempotency := middleware.Idempotency(idemStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog/products", func(r chi.Router) {
			r.Get("/", controllers.CatalogProducts(p.Catalog, logg))
			r.Get("/{productId}", controllers.CatalogProduct(p.Catalog, logg))
		})
		r.Post("/stock/lookup", controllers.StockLookup(p.Catalog, logg))
		r.With(idempotency).Post("/reservations", salescontrollers.Reserve(p.Sales, logg))
		r.Post("/webhooks/stripe", stripeWebhook(p, logg))

		r.Route("/pos", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.OperatorRoleCashier, enums.OperatorRoleAdmin))
			r.Use(idempotency)

			r.Post("/sales", salescontrollers.Submit(p.Sales, logg))
			r.Post("/tender/quote", salescontrollers.Quote(cfg.Sales.TaxRateDecimal(), logg))
			r.Route("/carts", func(r chi.Router) {
				r.Post("/", cartcontrollers.Create(p.Carts, logg))
				r.Route("/{cartId}", func(r chi.Router) {
					r.Get("/", cartcontrollers.Get(p.Carts, logg))
					r.Post("/lines", cartcontrollers.AddLine(p.Carts, logg))
					r.Delete("/lines", cartcontrollers.Clear(p.Carts, logg))
					r.Patch("/lines/{index}", cartcontrollers.SetQuantity(p.Carts, logg))
					r.Delete("/lines/{index}", cartcontrollers.RemoveLine(p.Carts, logg))
					r.Post("/checkout", cartcontrollers.Checkout(p.Carts, logg))
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(logg, enums.OperatorRoleAdmin))
			r.Use(idempotency)

			r.Post("/products", controllers.AdminCreateProduct(p.Catalog, logg))
			r.Post("/stock/adjustments", controllers.AdminAdjustStock(p.Catalog, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(p.Orders, logg))
				r.Get("/{code}", ordercontrollers.Get(p.Orders, logg))
				r.Post("/{code}/pickup", ordercontrollers.CompletePickup(p.Orders, logg))
			})
		})
	})

	return r
}

// stripeWebhook only hands non-nil collaborators to the controller so an
// unconfigured deployment answers 503.
func stripeWebhook(p Params, logg *logger.Logger) http.HandlerFunc {
	if p.StripeEvents == nil || p.Stripe == nil || p.StripeGuard == nil {
		return webhookcontrollers.StripeWebhook(nil, nil, nil, logg)
	}
	return webhookcontrollers.StripeWebhook(p.StripeEvents, p.Stripe, p.StripeGuard, logg)
}
