package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/promohub/internal/config"
	"github.com/geocoder89/promohub/internal/http/handlers"
	"github.com/geocoder89/promohub/internal/http/middlewares"
	"github.com/geocoder89/promohub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router wires. Prom, Gatherer and Limiter are
// optional.
type Deps struct {
	Log        *slog.Logger
	Config     config.Config
	Promotions handlers.PromotionService
	Users      handlers.UserService
	Ping       func(ctx context.Context) error
	Prom       *observability.Prom
	Gatherer   prometheus.Gatherer
	Limiter    *middlewares.RateLimiter
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	resp := handlers.Responder{Redact: d.Config.IsProduction()}

	r := gin.New()

	// middleware
	r.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		log.ErrorContext(ctx.Request.Context(), "panic recovered", "panic", recovered, "path", ctx.Request.URL.Path)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, handlers.Envelope{
			Success: false,
			Message: "Internal server error",
			Error:   "Something went wrong",
		})
	}))
	r.Use(middlewares.RequestID())
	if d.Config.OTelEnabled {
		r.Use(otelgin.Middleware(d.Config.ServiceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/", handlers.Banner)
	r.GET("/login", handlers.LoginPage)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	if d.Config.MaxBodyBytes > 0 {
		api.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	}
	api.Use(middlewares.RequireJSON())
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware(middlewares.KeyByIP))
	}

	promotions := handlers.NewPromotionsHandler(d.Promotions, resp, d.Config.StoreTimeout)
	users := handlers.NewUsersHandler(d.Users, resp, d.Config.StoreTimeout)

	// fixed paths before :id
	p := api.Group("/promotions")
	p.GET("", promotions.List)
	p.POST("", promotions.Create)
	p.GET("/active", promotions.Active)
	p.GET("/user/:userId", promotions.ListByUser)
	p.GET("/:id", promotions.Get)
	p.PUT("/:id", promotions.Update)
	p.DELETE("/:id", promotions.Delete)
	p.PATCH("/:id/status", promotions.UpdateStatus)

	u := api.Group("/users")
	u.GET("", users.List)
	u.POST("", users.Create)
	u.GET("/:id", users.Get)
	u.PUT("/:id", users.Update)
	u.DELETE("/:id", users.Delete)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, handlers.Envelope{
			Success: false,
			Message: "Route " + ctx.Request.URL.Path + " not found",
		})
	})

	return r
}
