package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/authcore/internal/config"
	"github.com/geocoder89/authcore/internal/http/handlers"
	"github.com/geocoder89/authcore/internal/http/middlewares"
	"github.com/geocoder89/authcore/internal/identity"
	"github.com/geocoder89/authcore/internal/observability"
	"github.com/geocoder89/authcore/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Log     *slog.Logger
	Cfg     config.Config
	Service *identity.Service
	Prom    *observability.Prom

	// Gatherer backs /metrics. Nil skips the endpoint.
	Gatherer prometheus.Gatherer
	// Limiter throttles login and registration. Nil uses an in-memory limiter.
	Limiter  ratelimit.Limiter

	Ping     func(ctx context.Context) error
	// Draining reports that shutdown has begun; /readyz fails from then on.
	Draining func() bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.Cfg.OTel.ServiceName))

	var onLimited func(string)
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		onLimited = d.Prom.ObserveRateLimited
	}

	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))

	limiter := d.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemory(d.Cfg.LoginRateLimit, d.Cfg.LoginRateWindow)
	}

	// health
	h := handlers.NewHealthHandler(d.Ping, d.Draining)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(d.Service, d.Cfg.RefreshTTL())
	usersHandler := handlers.NewUsersHandler(d.Service)
	adminHandler := handlers.NewAdminHandler(d.Service)

	a := r.Group("/auth")
	{
		a.POST("/register",
			middlewares.RateLimit(limiter, "register", middlewares.KeyByIP, d.Log, onLimited),
			middlewares.RequireJSON(),
			authHandler.Register,
		)
		a.POST("/login/",
			middlewares.RateLimit(limiter, "login", middlewares.KeyByIP, d.Log, onLimited),
			middlewares.RequireContentType(middlewares.ContentTypeForm),
			authHandler.Login,
		)
		a.POST("/refresh/", authHandler.Refresh)
		a.POST("/logout", authHandler.Logout)
	}

	authed := a.Group("", middlewares.RequireBearer())
	{
		authed.GET("/user/me/", usersHandler.Me)
		authed.PUT("/user/me/update_user/", middlewares.RequireJSON(), usersHandler.UpdateMe)
	}

	admin := authed.Group("/admin")
	{
		admin.GET("/users/", adminHandler.ListUsers)
		admin.POST("/roles/", middlewares.RequireJSON(), adminHandler.CreateRole)
		admin.DELETE("/roles/:id", adminHandler.DeleteRole)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
	}

	return r
}
