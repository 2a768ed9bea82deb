package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/commerce-api/internal/api/handler"
	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
	"github.com/storefront/commerce-api/internal/core/service"
	"github.com/storefront/commerce-api/internal/infrastructure/config"
	mongostore "github.com/storefront/commerce-api/internal/infrastructure/db/mongo"
	redisstore "github.com/storefront/commerce-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(client *mongo.Client, db *mongo.Database, rdb *redis.Client, mailer ports.Mailer, notifier ports.Notifier, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("storefront"))

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	itemRepo := mongostore.NewItemRepository(db)
	cartRepo := mongostore.NewCartRepository(db)
	orderRepo := mongostore.NewOrderRepository(client, db)

	identityService := service.NewIdentityService(userRepo, mailer, cfg.AppSecret, cfg.FrontendURL, log)
	itemService := service.NewItemService(itemRepo, userRepo, log)
	cartService := service.NewCartService(cartRepo, itemRepo, log)
	orderService := service.NewOrderService(orderRepo, cartRepo, itemRepo, userRepo, notifier, log)

	throttle := redisstore.NewSigninThrottle(rdb)

	authHandler := handler.NewAuthHandler(identityService, throttle)
	userHandler := handler.NewUserHandler(identityService, userRepo)
	itemHandler := handler.NewItemHandler(itemService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(orderService)

	authRequired := middleware.Auth(cfg.AppSecret)

	// --- Auth routes ---
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/signin", authHandler.Signin)
	e.POST("/auth/signout", authHandler.Signout)
	e.POST("/auth/request-reset", authHandler.RequestReset)
	e.POST("/auth/reset", authHandler.ResetPassword)

	// --- User management ---
	e.GET("/users", userHandler.List, authRequired,
		middleware.RequirePermission(userRepo, domain.PermissionAdmin, domain.PermissionPermissionUpdate))
	e.PUT("/users/:id/permissions", userHandler.UpdatePermissions, authRequired)

	// --- Catalog ---
	e.POST("/items", itemHandler.Create, authRequired)
	e.GET("/items/:id", itemHandler.Get)
	e.DELETE("/items/:id", itemHandler.Delete, authRequired)

	// --- Cart ---
	e.GET("/cart", cartHandler.List, authRequired)
	e.POST("/cart/:itemId", cartHandler.Add, authRequired)
	e.DELETE("/cart/:id", cartHandler.Remove, authRequired)

	// --- Orders ---
	e.POST("/orders", orderHandler.Create, authRequired)
	e.GET("/orders", orderHandler.List, authRequired)
	e.GET("/orders/:id", orderHandler.Get, authRequired)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
