package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/handler"
	"github.com/yourorg/campusbus/internal/infrastructure/logger"
	infmongo "github.com/yourorg/campusbus/internal/infrastructure/mongo"
	infredis "github.com/yourorg/campusbus/internal/infrastructure/redis"
	"github.com/yourorg/campusbus/internal/notifier"
	"github.com/yourorg/campusbus/internal/observability/metrics"
	"github.com/yourorg/campusbus/internal/observability/tracing"
	"github.com/yourorg/campusbus/internal/repository"
	"github.com/yourorg/campusbus/internal/security/audit"
	"github.com/yourorg/campusbus/internal/security/auth"
	"github.com/yourorg/campusbus/internal/security/middleware"
	"github.com/yourorg/campusbus/internal/security/ratelimit"
	"github.com/yourorg/campusbus/internal/service"
	"github.com/yourorg/campusbus/internal/worker"
	"github.com/yourorg/campusbus/pkg/config"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting CampusBus server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "campusbus", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to MongoDB. A failure here is a degradation, not a fatal
	// condition: the service runs on the local mirror until the remote store
	// comes back.
	var mongoClient *infmongo.Client
	var remote repository.RemoteStore
	if cfg.RemoteConfigured() {
		mongoClient, err = infmongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			log.Warn("remote store unreachable, running on local mirror only",
				slog.String("error", err.Error()),
			)
		} else {
			remote = repository.NewMongoRecordStore(mongoClient, log)
			log.Info("remote store connected", slog.String("database", cfg.MongoDatabase))
		}
	} else {
		log.Info("no remote store configured, running on local mirror only")
	}

	// 5. Connect to Redis for the cross-instance update relay (optional)
	var redisClient *infredis.Client
	if cfg.RedisConfigured() {
		redisClient, err = infredis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn("relay broker unreachable, updates stay in-process",
				slog.String("error", err.Error()),
			)
			redisClient = nil
		}
	}

	// 6. Initialize the local mirror and dual-written collections
	mirror := repository.NewLocalMirror(cfg.DataDir, log)
	buses := repository.NewCollection[domain.Bus](domain.CollectionBuses, mirror, remote, log)
	routes := repository.NewCollection[domain.Route](domain.CollectionRoutes, mirror, remote, log)
	bookings := repository.NewCollection[domain.Booking](domain.CollectionBookings, mirror, remote, log)
	activities := repository.NewCollection[domain.ActivityEntry](domain.CollectionActivities, mirror, remote, log)
	settings := repository.NewCollection[domain.SystemSettings](domain.CollectionSettings, mirror, remote, log)
	availability := repository.NewCollection[domain.SeatAvailability](domain.CollectionAvailability, mirror, remote, log)

	// 7. Initialize the broadcast hub and attach the relay
	hub := broadcast.NewHub(redisClient, log)
	hub.Initialize(ctx)

	// 8. Initialize services
	activityService := service.NewActivityService(activities, hub, log)
	settingsService := service.NewSettingsService(settings, activityService, hub, log)
	busService := service.NewBusService(buses, activityService, hub, log)
	routeService := service.NewRouteService(routes, activityService, hub, log)
	bookingService := service.NewBookingService(bookings, buses, availability, settingsService, activityService, hub, log)
	userService := service.NewUserService(mirror, remote, activityService, hub, log)

	otpStore := service.NewOTPStore(time.Duration(cfg.OTPTTLMinutes)*time.Minute, log)
	var mailer notifier.Notifier
	if cfg.SMTPConfigured() {
		mailer = notifier.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		log.Info("smtp notifier configured", slog.String("host", cfg.SMTPHost))
	} else {
		mailer = notifier.NewConsoleNotifier(log)
		log.Info("no smtp configured, reset codes go to the log")
	}
	resetService := service.NewPasswordResetService(userService, otpStore, mailer, log)

	// 9. Seed default fleet and routes into empty collections
	if err := busService.SeedDefaults(ctx); err != nil {
		log.Error("failed to seed buses", slog.String("error", err.Error()))
	}
	if err := routeService.SeedDefaults(ctx); err != nil {
		log.Error("failed to seed routes", slog.String("error", err.Error()))
	}

	// 10. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "campusbus")
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLog := audit.NewLogger(log)
	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour

	// 11. Initialize handlers
	authHandler := handler.NewAuthHandler(userService, resetService, tokenManager, rateLimiter, tokenTTL, log)
	busHandler := handler.NewBusHandler(busService, bookingService, log)
	routeHandler := handler.NewRouteHandler(routeService, log)
	bookingHandler := handler.NewBookingHandler(bookingService, log)
	userHandler := handler.NewUserHandler(userService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)
	updatesHandler := handler.NewUpdatesHandler(hub, log, cfg.CORSAllowedOrigins)
	healthHandler := handler.NewHealthHandler(mongoClient, redisClient, log)

	// 12. Setup HTTP routes
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireRole(h, string(domain.RoleAdmin))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/password-reset/request", authHandler.RequestReset)
	mux.HandleFunc("POST /api/auth/password-reset/confirm", authHandler.ConfirmReset)

	mux.HandleFunc("GET /api/buses", busHandler.List)
	mux.HandleFunc("POST /api/buses", admin(busHandler.Create))
	mux.HandleFunc("GET /api/buses/{id}", busHandler.Get)
	mux.HandleFunc("PATCH /api/buses/{id}", admin(busHandler.Update))
	mux.HandleFunc("DELETE /api/buses/{id}", admin(busHandler.Delete))
	mux.HandleFunc("GET /api/buses/{id}/availability", busHandler.Availability)
	mux.HandleFunc("GET /api/buses/{id}/bookings", busHandler.Bookings)
	mux.HandleFunc("GET /api/buses/{id}/summary", admin(busHandler.Summary))

	mux.HandleFunc("GET /api/routes", routeHandler.List)
	mux.HandleFunc("POST /api/routes", admin(routeHandler.Create))
	mux.HandleFunc("PATCH /api/routes/{id}", admin(routeHandler.Update))

	mux.HandleFunc("GET /api/bookings", bookingHandler.List)
	mux.HandleFunc("POST /api/bookings", bookingHandler.Create)
	mux.HandleFunc("POST /api/bookings/{id}/cancel", bookingHandler.Cancel)
	mux.HandleFunc("GET /api/bookings/summaries", admin(bookingHandler.Summaries))

	mux.HandleFunc("GET /api/users", admin(userHandler.List))
	mux.HandleFunc("PATCH /api/users/{id}", userHandler.Update)
	mux.HandleFunc("DELETE /api/users/{id}", admin(userHandler.Delete))

	mux.HandleFunc("GET /api/activities", admin(activityHandler.List))
	mux.HandleFunc("GET /api/settings", settingsHandler.Get)
	mux.HandleFunc("PUT /api/settings", admin(settingsHandler.Update))

	mux.Handle("GET /ws/updates", updatesHandler)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// Chain middleware: request ID -> CORS -> JWT -> rate limit -> audit -> metrics
	rootHandler := middleware.RequestIDMiddleware(
		middleware.CORSMiddleware(cfg.CORSAllowedOrigins)(
			middleware.JWTMiddleware(tokenManager, log)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.AuditMiddleware(auditLog)(
						metrics.HTTPMetricsMiddleware(mux),
					),
				),
			),
		),
	)
	tracedHandler := otelhttp.NewHandler(rootHandler, "campusbus")

	// 13. Start the mirror sync worker in background
	syncWorker := worker.NewSyncWorker(bookingService, log, time.Duration(cfg.SyncIntervalMinutes)*time.Minute)
	syncWorker.Register(domain.CollectionBuses, func(ctx context.Context) { buses.All(ctx) })
	syncWorker.Register(domain.CollectionRoutes, func(ctx context.Context) { routes.All(ctx) })
	syncWorker.Register(domain.CollectionBookings, func(ctx context.Context) { bookings.All(ctx) })
	syncWorker.Register(domain.CollectionActivities, func(ctx context.Context) { activities.All(ctx) })
	syncWorker.Register(domain.CollectionSettings, func(ctx context.Context) { settings.All(ctx) })
	if remote != nil {
		go syncWorker.Start(ctx)
	} else {
		log.Info("sync worker idle: no remote store to converge with")
	}

	// 14. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      tracedHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Bool("remote_store", remote != nil),
		slog.Bool("relay", redisClient != nil),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop sync worker and relay listener
	hub.Cleanup()
	otpStore.Stop()
	rateLimiter.Stop()
	if redisClient != nil {
		redisClient.Close()
	}
	if mongoClient != nil {
		if err := mongoClient.Close(shutdownCtx); err != nil {
			log.Error("mongo disconnect error", slog.String("error", err.Error()))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
