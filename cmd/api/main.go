package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pricewatch/backend/internal/bootstrap"
	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/handler"
	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/repository"
	"github.com/pricewatch/backend/internal/scheduler"
	"github.com/pricewatch/backend/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLog := logger.Logger()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := bootstrap.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}
	if cfg.SeedDemoData {
		if err := bootstrap.SeedDemoData(ctx, db, appLog); err != nil {
			appLog.Error("Demo data seeding failed", slog.String("error", err.Error()))
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	pushRepo := repository.NewPushRepository(db)

	// Initialize services. The product repository doubles as the
	// read-only catalog view the alert engine consumes.
	userService := service.NewUserService(userRepo)
	pushService := service.NewPushService(pushRepo, cfg)

	var dispatcher service.Dispatcher = service.LogDispatcher{}
	if pushService.IsConfigured() {
		dispatcher = service.NewPushDispatcher(pushRepo, cfg)
		appLog.Info("Web Push dispatch enabled")
	} else {
		appLog.Info("VAPID keys not set, alert notifications will only be logged")
	}

	notificationService := service.NewNotificationService(alertRepo, productRepo, dispatcher)
	historyService := service.NewHistoryService(historyRepo, productRepo, notificationService)
	catalogService := service.NewCatalogService(productRepo, alertRepo, historyService)
	alertService := service.NewAlertService(alertRepo, catalogService)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService)
	productHandler := handler.NewProductHandler(catalogService)
	alertHandler := handler.NewAlertHandler(alertService, historyService)
	pushHandler := handler.NewPushHandler(pushService)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	// CORS - allow frontend origin from env or default
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)

	// Push notifications (public - VAPID key needed before auth)
	r.Get("/api/notifications/vapid-public-key", pushHandler.GetVAPIDPublicKey)

	// Catalog browsing and price history (public - no auth required)
	r.Get("/api/products", productHandler.List)
	r.Get("/api/products/{id}", productHandler.Get)
	r.Get("/api/price-alerts/history/{productId}", alertHandler.History)
	r.Get("/api/price-alerts/drops", alertHandler.Drops)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(handler.AuthMiddleware)

		// Current user
		r.Get("/api/auth/me", authHandler.Me)

		// Price alerts
		r.Get("/api/price-alerts", alertHandler.List)
		r.Post("/api/price-alerts", alertHandler.Create)
		r.Delete("/api/price-alerts/{id}", alertHandler.Cancel)

		// Canonical price updates
		r.Put("/api/products/{id}/price", productHandler.UpdatePrice)

		// Push Notifications
		r.Post("/api/notifications/subscribe", pushHandler.Subscribe)
		r.Delete("/api/notifications/unsubscribe", pushHandler.Unsubscribe)
	})

	// Initialize and start scheduler for the periodic alert sweep
	var sweepScheduler *scheduler.Scheduler
	if cfg.SweepEnabled {
		schedCfg := scheduler.Config{
			Schedule: cfg.SweepSchedule,
			Timeout:  cfg.SweepTimeout,
			Enabled:  cfg.SweepEnabled,
		}
		sweepScheduler = scheduler.New(schedCfg, notificationService, appLog)
		if err := sweepScheduler.Start(); err != nil {
			appLog.Error("Failed to start sweep scheduler", slog.String("error", err.Error()))
		} else {
			appLog.Info("Sweep scheduler started",
				slog.String("schedule", cfg.SweepSchedule),
				slog.Duration("timeout", cfg.SweepTimeout),
			)
		}
	}

	// Create server
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		appLog.Info("Shutting down server...")

		// Stop scheduler first
		if sweepScheduler != nil {
			ctx := sweepScheduler.Stop()
			<-ctx.Done()
			appLog.Info("Scheduler stopped")
		}

		// Shutdown HTTP server
		if err := server.Shutdown(context.Background()); err != nil {
			appLog.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Server failed: %v", err)
	}
}
