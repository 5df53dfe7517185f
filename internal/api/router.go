package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/vitalmed/staff-registry/docs"
	"github.com/vitalmed/staff-registry/internal/api/handler"
	"github.com/vitalmed/staff-registry/internal/api/middleware"
	"github.com/vitalmed/staff-registry/internal/core/ports"
	"github.com/vitalmed/staff-registry/internal/core/service"
	mongodb "github.com/vitalmed/staff-registry/internal/infrastructure/db/mongo"
	redisdb "github.com/vitalmed/staff-registry/internal/infrastructure/db/redis"
)

// RouterConfig carries the settings the HTTP layer needs from the
// environment.
type RouterConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// NewRouter builds and returns the Echo instance with all routes registered.
// The audit trail may be nil, which disables activity recording.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg RouterConfig, audit ports.AuditTrail, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddleware("staff_registry"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	doctorRepo := mongodb.NewDoctorRepository(db)
	sessions := redisdb.NewSessionRegistry(rdb)
	throttle := redisdb.NewLoginThrottle(rdb)
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	authService := service.NewAuthService(userRepo, sessions, tokens, throttle, audit, log.With().Str("component", "auth").Logger())
	doctorService := service.NewDoctorService(doctorRepo, log.With().Str("component", "doctors").Logger())

	authHandler := handler.NewAuthHandler(authService)
	doctorHandler := handler.NewDoctorHandler(doctorService)

	authRequired := middleware.Auth(tokens, sessions)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/password-reset", authHandler.RequestPasswordReset)
	auth.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	auth.POST("/logout", authHandler.Logout, authRequired)
	auth.GET("/me", authHandler.Me, authRequired)
	auth.GET("/status", authHandler.Status, authRequired)
	auth.POST("/change-password", authHandler.ChangePassword, authRequired)

	auth.GET("/users", authHandler.ListUsers, authRequired, middleware.RequirePermission("user:read"))
	auth.GET("/users/role/:role", authHandler.ListUsersByRole, authRequired, middleware.RequirePermission("user:read"))
	auth.PUT("/users/:id/activate", authHandler.Activate, authRequired, middleware.RequirePermission("user:update"))
	auth.PUT("/users/:id/deactivate", authHandler.Deactivate, authRequired, middleware.RequirePermission("user:update"))

	// --- Doctor directory ---
	doctors := e.Group("/v1/doctors", authRequired)
	doctors.POST("", doctorHandler.Create, middleware.RequirePermission("doctor:create"))
	doctors.GET("", doctorHandler.List, middleware.RequirePermission("doctor:read"))
	doctors.GET("/counts", doctorHandler.Counts, middleware.RequirePermission("doctor:read"))
	doctors.GET("/license/:license", doctorHandler.GetByLicense, middleware.RequirePermission("doctor:read"))
	doctors.GET("/:id", doctorHandler.Get, middleware.RequirePermission("doctor:read"))
	doctors.PUT("/:id", doctorHandler.Update, middleware.RequirePermission("doctor:update"))
	doctors.DELETE("/:id", doctorHandler.Delete, middleware.RequirePermission("doctor:delete"))

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	healthHandler := handler.NewHealthHandler("staff-registry")
	readinessHandler := handler.NewReadinessHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	return e
}
