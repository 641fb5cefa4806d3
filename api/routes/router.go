package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threepillars/storefront-backend/api/controllers"
	"github.com/threepillars/storefront-backend/api/middleware"
	cartsvc "github.com/threepillars/storefront-backend/internal/cart"
	"github.com/threepillars/storefront-backend/internal/catalog"
	checkoutsvc "github.com/threepillars/storefront-backend/internal/checkout"
	"github.com/threepillars/storefront-backend/internal/notifications"
	ordersvc "github.com/threepillars/storefront-backend/internal/orders"
	"github.com/threepillars/storefront-backend/internal/payments/yoco"
	"github.com/threepillars/storefront-backend/internal/shipping/pudo"
	"github.com/threepillars/storefront-backend/internal/tenant"
	"github.com/threepillars/storefront-backend/pkg/config"
	"github.com/threepillars/storefront-backend/pkg/db"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/metrics"
	"github.com/threepillars/storefront-backend/pkg/redis"
)

// Deps collects everything the HTTP surface is wired from.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            *db.Client
	Redis         *redis.Client
	Registry      *prometheus.Registry
	HTTPMetrics   *metrics.HTTPMetrics
	Tenants       tenant.Resolver
	Catalog       catalog.Service
	Carts         cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
	Payments      yoco.Service
	Shipping      pudo.Service
	Notifications notifications.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	var dbPing, redisPing controllers.Pinger
	if d.DB != nil {
		dbPing = d.DB
	}
	if d.Redis != nil {
		redisPing = d.Redis
	}
	r.Get("/healthz", controllers.Healthz(cfg, dbPing, redisPing, logg))
	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	// Gateway callbacks carry their own HMAC authentication.
	r.Post("/api/v1/webhooks/yoco", controllers.YocoWebhook(d.Payments, logg))

	// Storefront: anonymous traffic allowed, tenant comes from the header.
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.OptionalAuth(cfg.JWT, logg),
			middleware.StorefrontTenant(d.Tenants, logg),
		)

		r.Get("/api/v1/products", controllers.ListProducts(d.Catalog, logg))
		r.Get("/api/v1/products/{productID}", controllers.GetProduct(d.Catalog, logg))

		r.Route("/api/v1/carts", func(r chi.Router) {
			r.Get("/me", controllers.GetCart(d.Carts, logg))
			r.Delete("/me", controllers.ClearCart(d.Carts, logg))
			r.Put("/me/shipping", controllers.SetCartShipping(d.Carts, logg))
			r.Post("/me/discount", controllers.ApplyCartDiscount(d.Carts, logg))
			r.Post("/me/claim", controllers.ClaimCart(d.Carts, logg))
			r.Post("/items", controllers.AddCartItem(d.Carts, logg))
			r.Put("/items/{productID}", controllers.UpdateCartItem(d.Carts, logg))
			r.Delete("/items/{productID}", controllers.RemoveCartItem(d.Carts, logg))
		})

		r.Post("/api/v1/orders/create-from-cart", controllers.CreateOrderFromCart(d.Checkout, logg))

		r.Get("/api/v1/pudo/locations", controllers.SearchPickupLocations(d.Shipping, logg))
		r.Get("/api/v1/pudo/locations/{locationID}", controllers.GetPickupLocation(d.Shipping, logg))
	})

	// Back office: bearer token required, tenant resolved from membership.
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.TenantResolver(d.Tenants, logg),
			middleware.RequireTenant(logg),
		)

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(d.Orders, logg))
			r.Post("/", controllers.RejectDirectOrderCreation(logg))
			r.Get("/number/{orderNumber}", controllers.GetOrderByNumber(d.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(d.Orders, logg))
			r.Put("/{orderID}/status", controllers.UpdateOrderStatus(d.Orders, logg))
			r.Put("/{orderID}/payment", controllers.UpdateOrderPayment(d.Orders, logg))
			r.Put("/{orderID}/tracking", controllers.UpdateOrderTracking(d.Orders, logg))
			r.Put("/{orderID}/cancel", controllers.CancelOrder(d.Orders, logg))
			r.Post("/{orderID}/checkout-session", controllers.CreateCheckoutSession(d.Payments, logg))
			r.Get("/{orderID}/payment-status", controllers.GetPaymentStatus(d.Payments, logg))
			r.Post("/{orderID}/shipment", controllers.CreateShipment(d.Shipping, logg))
		})

		r.Get("/api/v1/pudo/shipments/{waybill}/track", controllers.TrackShipment(d.Shipping, logg))

		r.Post("/api/v1/devices", controllers.RegisterDevice(d.Notifications, logg))
		r.Delete("/api/v1/devices/{token}", controllers.DeactivateDevice(d.Notifications, logg))
		r.Get("/api/v1/notification-preferences", controllers.GetNotificationPreference(d.Notifications, logg))
		r.Put("/api/v1/notification-preferences", controllers.UpdateNotificationPreference(d.Notifications, logg))
	})

	return r
}
