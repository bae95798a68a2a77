package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"excel_analytics/internal/config"
	"excel_analytics/internal/handler"
	"excel_analytics/internal/mailer"
	"excel_analytics/internal/middleware"
	"excel_analytics/internal/repository"
	"excel_analytics/internal/service"
	"excel_analytics/internal/session"
	"excel_analytics/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	uploadsDir := cfg.Server.UploadsDir
	// Ensure uploads directory exists
	if err := os.MkdirAll(uploadsDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create uploads directory %s: %w", uploadsDir, err)
	}
	slog.Info("Uploads will be stored in", "dir", uploadsDir)

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := config.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// --- Redis (optional) ---
	var (
		redisClient *redis.Client
		sessions    session.Store
		limiter     middleware.RateLimiter
	)
	if cfg.Redis.Enabled() {
		redisClient, err = config.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient)
		limiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		slog.Info("Using Redis for sessions and rate limiting", "addr", cfg.Redis.Addr)
	} else {
		sessions = session.NewMemoryStore()
		limiter = middleware.NewTokenBucketLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RequestsPerMinute)
		slog.Warn("REDIS_ADDR not set, using in-memory sessions and rate limiting")
	}

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	smtpMailer := mailer.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)

	var google service.GoogleVerifier
	requireGoogle := cfg.Server.Environment == "prod"
	switch {
	case cfg.Auth.GoogleEnabled():
		google = service.NewGoogleVerifier(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURL)
	case requireGoogle:
		slog.Warn("Google OAuth credentials not set, Google login is disabled")
	default:
		slog.Warn("Google OAuth credentials not set, trusting client-supplied Google profiles")
	}

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	uploadRepo := repository.NewUploadRepository(dbPool)
	otpRepo := repository.NewOTPRepository(dbPool)
	attendanceRepo := repository.NewAttendanceRepository(dbPool)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, otpRepo, jwtUtil, sessions, smtpMailer, service.AuthOptions{
		OTPTTL:                    cfg.Auth.OTPTTL,
		InitialAdminEmail:         cfg.Auth.InitialAdminEmail,
		Google:                    google,
		RequireGoogleVerification: requireGoogle,
	})
	uploadService := service.NewUploadService(uploadRepo, userRepo, uploadsDir, cfg.Upload.MaxBytes)
	adminService := service.NewAdminService(userRepo, uploadRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo)

	go service.RunOTPSweeper(ctx, authService, cfg.Auth.OTPSweepInterval)

	// --- Initialize Handlers ---
	if err := handler.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}
	authHandler := handler.NewAuthHandler(authService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	adminHandler := handler.NewAdminHandler(adminService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)

	// --- Setup Gin Router ---
	if cfg.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxBytes
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(slog.Default(), "/health", "/metrics"))
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	// --- Initialize Middlewares ---
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil, sessions)
	adminRoleMW := middleware.AdminMiddleware()
	userRoleMW := middleware.UserMiddleware()
	rateMW := middleware.RateLimit(limiter)

	// --- Register Routes ---
	apiGroup := router.Group("")
	authHandler.RegisterAuthRoutes(apiGroup, jwtAuthMW, rateMW)
	uploadHandler.RegisterUploadRoutes(apiGroup, jwtAuthMW, userRoleMW)
	adminHandler.RegisterAdminRoutes(apiGroup, jwtAuthMW, adminRoleMW)
	attendanceHandler.RegisterAttendanceRoutes(apiGroup, jwtAuthMW)

	router.Static("/uploads", uploadsDir)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", healthHandler(dbPool, redisClient))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running on port %s", cfg.Server.Port)
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      gzhttp.GzipHandler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting on port", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	}
	slog.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exiting")
	return nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.LegacyTokenHeader},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// credentials cannot be combined with a wildcard origin
		c.AllowCredentials = false
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}

func healthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "db": "healthy"}
		code := http.StatusOK
		if err := dbPool.Ping(ctx); err != nil {
			status["status"], status["db"] = "error", "unhealthy"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "healthy"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["status"], status["redis"] = "error", "unhealthy"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, status)
	}
}
