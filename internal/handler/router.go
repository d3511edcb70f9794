package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"example.com/gem-checkout/internal/middleware"
	"example.com/gem-checkout/pkg/metrics"
)

// ReadinessChecker — функция проверки готовности сервиса.
type ReadinessChecker func(ctx context.Context) error

// Router — HTTP роутер сервиса.
type Router struct {
	engine         *gin.Engine
	cart           *CartHandler
	deposit        *DepositHandler
	plan           *PlanHandler
	readinessCheck ReadinessChecker
}

// RouterConfig — параметры создания роутера.
type RouterConfig struct {
	Cart           *CartHandler
	Deposit        *DepositHandler
	Plan           *PlanHandler
	ReadinessCheck ReadinessChecker // опциональная проверка готовности для /readyz
	Debug          bool             // Режим отладки Gin
}

// NewRouter создаёт и настраивает HTTP роутер.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// OpenTelemetry tracing — создаёт spans для Jaeger
	engine.Use(otelgin.Middleware("gem-checkout"))

	// Prometheus метрики — requests_total, request_duration_seconds
	engine.Use(metrics.GinMetricsMiddleware("gem-checkout"))

	// trace_id / correlation_id в контексте и логах каждого запроса
	engine.Use(middleware.Tracing())

	r := &Router{
		engine:         engine,
		cart:           cfg.Cart,
		deposit:        cfg.Deposit,
		plan:           cfg.Plan,
		readinessCheck: cfg.ReadinessCheck,
	}

	r.setupRoutes()
	return r
}

// setupRoutes настраивает все маршруты API.
func (r *Router) setupRoutes() {
	// Health endpoints
	r.engine.GET("/healthz", r.livenessCheck)
	r.engine.GET("/readyz", r.readinessCheckHandler)

	v1 := r.engine.Group("/api/v1")

	// === Cart routes ===
	if r.cart != nil {
		cart := v1.Group("/cart")
		{
			cart.POST("/items", r.cart.AddItem)
			cart.GET("/:id", r.cart.GetCart)
			cart.DELETE("/:id/items/:variant_id", r.cart.RemoveItem)
		}
	}

	// === Deposit session routes ===
	if r.deposit != nil {
		sessions := v1.Group("/deposit-sessions")
		{
			sessions.POST("", r.deposit.CreateSession)
			sessions.GET("/:id", r.deposit.GetSession)
			sessions.POST("/:id/complete", r.deposit.CompleteSession)
		}
		v1.POST("/orders/:id/remaining-payment", r.deposit.CompleteRemaining)
	}

	// === Deposit plan routes ===
	if r.plan != nil {
		plans := v1.Group("/deposit-plans")
		{
			plans.GET("", r.plan.ListPlans)
			plans.GET("/:id", r.plan.GetPlan)
			plans.POST("", r.plan.CreatePlan)
		}
	}
}

// Engine возвращает Gin engine для запуска сервера.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// livenessCheck — liveness probe для Kubernetes.
func (r *Router) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// readinessCheckHandler — readiness probe для Kubernetes.
// Возвращает 200 OK, если все зависимости сервиса доступны.
func (r *Router) readinessCheckHandler(c *gin.Context) {
	if r.readinessCheck == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := r.readinessCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
