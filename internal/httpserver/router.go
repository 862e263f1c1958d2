package httpserver

import (
	"context"
	"log"
	"time"

	"commerce-engine/internal/domain"
	cartsvc "commerce-engine/internal/service/cart"
	ordersvc "commerce-engine/internal/service/order"
	zonesvc "commerce-engine/internal/service/zone"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ZoneService interface {
	Create(ctx context.Context, in zonesvc.Input) (*domain.DeliveryZone, error)
	Update(ctx context.Context, id string, in zonesvc.Input) (*domain.DeliveryZone, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.DeliveryZone, error)
	List(ctx context.Context) ([]domain.DeliveryZone, error)
	SetDefault(ctx context.Context, id string) error
}

type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertItem(ctx context.Context, userID string, in cartsvc.UpsertInput) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type OrderService interface {
	Create(ctx context.Context, userID, cartID, addressID string) (*domain.Order, error)
	Edit(ctx context.Context, userID, orderID string, in ordersvc.EditInput) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error)
	AdminUpdate(ctx context.Context, orderID string, in ordersvc.AdminUpdateInput) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	GetForUser(ctx context.Context, orderID, userID string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}

type ShippingQuoter interface {
	ByPincode(ctx context.Context, pincode string, weightGrams int64) (decimal.Decimal, *domain.ShippingDetails, error)
}

// Deps carries the wired services into the router.
type Deps struct {
	Zones       ZoneService
	Carts       CartService
	Orders      OrderService
	Shipping    ShippingQuoter
	JWTSecret   []byte
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(deps.CORSOrigins) == 0 || (len(deps.CORSOrigins) == 1 && deps.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = deps.CORSOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{
		zones:    deps.Zones,
		carts:    deps.Carts,
		orders:   deps.Orders,
		shipping: deps.Shipping,
		logger:   logger,
	}

	api := router.Group("/api")
	api.GET("/shipping/quote", h.shippingQuote)

	user := api.Group("", authRequired(deps.JWTSecret))
	{
		user.GET("/cart", h.getCart)
		user.POST("/cart/items", h.upsertCartItem)
		user.DELETE("/cart", h.clearCart)

		user.POST("/orders", h.createOrder)
		user.GET("/orders", h.listOrders)
		user.GET("/orders/:id", h.getOrder)
		user.PATCH("/orders/:id", h.editOrder)
	}

	admin := api.Group("/admin", authRequired(deps.JWTSecret), adminRequired())
	{
		admin.POST("/zones", h.createZone)
		admin.GET("/zones", h.listZones)
		admin.GET("/zones/:id", h.getZone)
		admin.PUT("/zones/:id", h.updateZone)
		admin.DELETE("/zones/:id", h.deleteZone)
		admin.POST("/zones/:id/default", h.setDefaultZone)

		admin.GET("/orders", h.adminListOrders)
		admin.GET("/orders/:id", h.adminGetOrder)
		admin.PATCH("/orders/:id", h.adminUpdateOrder)
		admin.PATCH("/orders/:id/status", h.updateOrderStatus)
	}

	return router
}

type handlers struct {
	zones    ZoneService
	carts    CartService
	orders   OrderService
	shipping ShippingQuoter
	logger   *log.Logger
}
