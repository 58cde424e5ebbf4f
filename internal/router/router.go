package router

import (
	"time"

	"hpmarcas/internal/config"
	"hpmarcas/internal/handler"
	"hpmarcas/internal/infra"
	"hpmarcas/internal/middleware"
	"hpmarcas/internal/repository"
	"hpmarcas/internal/service"
	"hpmarcas/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, gateway infra.PaymentGateway, gatewayCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	draftStore := repository.NewDraftStore(rdb, time.Duration(cfg.DraftTTLHours)*time.Hour)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	stockValidator := service.NewStockValidator(productRepo)
	orderSvc := service.NewOrderService(saleRepo, customerRepo, couponRepo,
		stockValidator, gateway, dispatcher, cfg.GatewayCollectorID)
	webhookSvc := service.NewWebhookService(saleRepo, productRepo, movementRepo, gateway, dispatcher)
	pdvSvc := service.NewPDVService(saleRepo, customerRepo, productRepo, couponRepo,
		movementRepo, stockValidator, draftStore, dispatcher)
	catalogSvc := service.NewCatalogService(productRepo, couponRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	ordersH := handler.NewOrdersHandler(orderSvc)
	webhookH := handler.NewWebhookHandler(webhookSvc, cfg.GatewayWebhookSecret)
	pdvH := handler.NewPDVHandler(pdvSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb, gatewayCB))

	// Webhooks stay outside the rate limiter: the gateway retries failed
	// deliveries in bursts from a handful of IPs.
	r.POST("/v1/webhooks/payment", webhookH.HandleEvent)
	r.GET("/v1/webhooks/payment", webhookH.Probe)

	v1 := r.Group("/v1", middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP
	{
		v1.POST("/orders", ordersH.CreateOrder)
		v1.GET("/orders/:id", ordersH.GetOrder)

		pdv := v1.Group("/pdv")
		{
			pdv.POST("/sales", pdvH.FinalizeSale)
			pdv.GET("/cart/:session", pdvH.LoadDraft)
			pdv.PUT("/cart/:session", pdvH.SaveDraft)
			pdv.DELETE("/cart/:session", pdvH.ClearDraft)
		}

		v1.GET("/products", catalogH.ListProducts)
		v1.GET("/products/:id", catalogH.GetProduct)
		v1.GET("/coupons/validate", catalogH.ValidateCoupon)
	}

	return r
}
