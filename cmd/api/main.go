package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tourindo/tourism_api/internal/cache"
	"github.com/tourindo/tourism_api/internal/config"
	"github.com/tourindo/tourism_api/internal/database"
	"github.com/tourindo/tourism_api/internal/handler"
	"github.com/tourindo/tourism_api/internal/middleware"
	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/repository"
	"github.com/tourindo/tourism_api/internal/service"
	"github.com/tourindo/tourism_api/internal/utils"
	"github.com/tourindo/tourism_api/internal/worker"
)

// main is the application entrypoint for the Tourindo admin API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting tourism api")

	// 3. Configure token signing
	utils.InitJWT(cfg.JWTSecret, cfg.Session.TokenTTL)

	// 4. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 4a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 4b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4c. Initialize session store
	sessionStore := cache.NewSessionStore(redisClient, cfg.Session.TokenTTL, cfg.Session.SnapshotTTL)

	// 5. Initialize repositories
	adminRepo := repository.NewAdminIdentityRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	// 6. Initialize services
	auditSvc := service.NewAuditService(activityRepo)

	avatarSvc, err := service.NewAvatarStorageService(&cfg.S3)
	if err != nil {
		log.Warn().Err(err).Msg("Avatar storage initialization failed - avatar upload will be disabled")
	}

	directorySvc := service.NewDirectoryService(adminRepo, auditSvc, avatarSvc)
	authSvc := service.NewAuthService(adminRepo, sessionStore, auditSvc)
	approvalSvc := service.NewApprovalService(adminRepo, auditSvc)
	hierarchySvc := service.NewHierarchyService(adminRepo, auditSvc, sessionStore)
	invitationSvc := service.NewInvitationService(adminRepo, auditSvc)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, redisClient),
		Auth:     handler.NewAuthHandler(authSvc, directorySvc, cfg.Session.HydrateTimeout),
		Admin:    handler.NewAdminHandler(directorySvc, approvalSvc, hierarchySvc, invitationSvc),
		Activity: handler.NewActivityHandler(auditSvc),
	}

	// 8. Initialize middleware
	authMw := middleware.NewAuthMiddleware(authSvc)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, authMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewSessionReaperWorker(adminRepo, sessionStore, cfg.Worker.SessionReapInterval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Admin    *handler.AdminHandler
	Activity *handler.ActivityHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, authMw *middleware.AuthMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public auth routes
	auth := router.Group("/v1/auth")
	auth.POST("/login", handlers.Auth.Login)
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/session/hydrate", handlers.Auth.HydrateSession)

	// Session-bound auth routes. A pending account may still log out and
	// read its own profile, so these do not require approval.
	authed := router.Group("/v1/auth")
	authed.Use(authMw.Handle())
	{
		authed.POST("/logout", handlers.Auth.Logout)
		authed.GET("/me", handlers.Auth.Me)
		authed.PUT("/me", handlers.Auth.UpdateProfile)
		authed.PUT("/me/password", handlers.Auth.ChangePassword)
		authed.POST("/me/avatar", handlers.Auth.UploadAvatar)
	}

	// Admin routes require an approved, non-rejected identity.
	admin := router.Group("/v1/admin")
	admin.Use(authMw.Handle(), authMw.RequireActive())
	{
		// Registration approval (super admin)
		registrations := admin.Group("/registrations")
		registrations.Use(authMw.RequireCapability(func(caps models.Capabilities) bool { return caps.CanApproveAdmins }))
		{
			registrations.GET("/pending", handlers.Admin.ListPending)
			registrations.POST("/:id/approve", handlers.Admin.Approve)
			registrations.POST("/:id/reject", handlers.Admin.Reject)
		}

		// Organization admin management (super admin)
		organizations := admin.Group("/organizations")
		organizations.Use(authMw.RequireCapability(func(caps models.Capabilities) bool { return caps.CanApproveAdmins }))
		{
			organizations.GET("", handlers.Admin.ListOrganizationAdmins)
			organizations.DELETE("/:id", handlers.Admin.DeleteOrganizationAdmin)
		}

		// Staff management. Ownership is enforced in the services so a
		// super admin can also inspect and delete.
		admin.GET("/staff", handlers.Admin.ListStaff)
		admin.DELETE("/staff/:id", handlers.Admin.DeleteStaff)
		admin.POST("/staff/invite",
			authMw.RequireCapability(func(caps models.Capabilities) bool { return caps.CanInviteStaff }),
			handlers.Admin.InviteStaff)

		// Audit trail
		admin.GET("/activity",
			authMw.RequireCapability(func(caps models.Capabilities) bool { return caps.CanViewAuditLog }),
			handlers.Activity.Recent)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
