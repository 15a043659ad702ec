package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/auth"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/background"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/config"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/database"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/handlers"
	middlewareCustom "github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/middleware"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/repositories"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/routes"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/services"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/store"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
	pkglogger "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := database.Migrate(migrateCtx, &cfg.Database, logger); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize TTL store
	ttlStore, err := store.New(store.Config{
		Addr:        cfg.Store.Addr,
		Password:    cfg.Store.Password,
		DB:          cfg.Store.DB,
		KeyPrefix:   cfg.Store.KeyPrefix,
		DialTimeout: cfg.Store.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to ttl store", slog.Any("error", err))
		os.Exit(1)
	}
	defer ttlStore.Close()

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	historyRepo := repositories.NewLoginHistoryRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(historyRepo, logger, cfg.Auth.CleanupInterval)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Timing delay for auth security
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Security.TimingDelayBaseMs,
		RandomDelayMs: cfg.Security.TimingDelayRandomMs,
	})

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.LinkBaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Ephemeral security managers
	lockoutTracker := services.NewLockoutTracker(ttlStore, services.LockoutConfig{
		ResetWindow: cfg.Security.FailedAttemptWindow,
	}, logger)

	signupOTP := services.NewOTPManager(ttlStore, services.OTPConfig{
		Namespace:         "signup",
		CodeLength:        cfg.Security.OTPCodeLength,
		Expiry:            cfg.Security.OTPExpiry,
		Cooldown:          cfg.Security.OTPCooldown,
		MaxResends:        cfg.Security.OTPMaxResends,
		ResendWindow:      cfg.Security.OTPResendWindow,
		MaxFailedAttempts: cfg.Security.OTPMaxFailedAttempts,
		LockoutDuration:   cfg.Security.OTPLockoutDuration,
	}, emailService, logger)

	loginOTP := services.NewOTPManager(ttlStore, services.OTPConfig{
		Namespace:         "login",
		CodeLength:        cfg.Security.OTPCodeLength,
		Expiry:            cfg.Security.OTPExpiry,
		Cooldown:          cfg.Security.OTPCooldown,
		MaxResends:        cfg.Security.OTPMaxResends,
		ResendWindow:      cfg.Security.OTPResendWindow,
		MaxFailedAttempts: cfg.Security.OTPMaxFailedAttempts,
		LockoutDuration:   cfg.Security.OTPLockoutDuration,
	}, emailService, logger)

	magicLink := services.NewMagicLinkManager(ttlStore, services.MagicLinkConfig{
		TokenBytes: cfg.Security.MagicLinkTokenBytes,
		Expiry:     cfg.Security.MagicLinkExpiry,
		Cooldown:   cfg.Security.MagicLinkCooldown,
	}, emailService, emailService.MagicLinkURL, logger)

	signupSession := services.NewSignupSessionManager(ttlStore, services.SignupSessionConfig{
		TokenBytes: cfg.Security.SignupSessionTokenBytes,
		Expiry:     cfg.Security.SignupSessionExpiry,
	}, logger)

	unlockManager := services.NewUnlockManager(ttlStore, lockoutTracker, accountRepo, emailService, services.UnlockConfig{
		Cooldown:           cfg.Security.UnlockCooldown,
		MaxPerWindow:       cfg.Security.UnlockMaxPerWindow,
		RateWindow:         cfg.Security.UnlockRateWindow,
		TempPasswordLength: cfg.Security.TempPasswordLength,
		TempPasswordTTL:    cfg.Security.TempPasswordTTL,
	}, logger)

	// Initialize services
	authService := services.NewAuthService(
		accountRepo, historyRepo, lockoutTracker, loginOTP, magicLink,
		tokenManager, timingDelay, logger, auditLogger,
	)
	signupService := services.NewSignupService(
		accountRepo, signupOTP, signupSession, authService, emailService, logger,
	)
	unlockService := services.NewUnlockService(unlockManager, authService, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	signupHandler := handlers.NewSignupHandler(signupService, ipConfig)
	unlockHandler := handlers.NewUnlockHandler(unlockService, ipConfig)
	accountHandler := handlers.NewAccountHandler(accountRepo, historyRepo)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.Env)
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, signupHandler, unlockHandler, accountHandler, tokenManager)

	// Health check with database and store
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		if err := ttlStore.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","store":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
