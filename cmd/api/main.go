package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-portal/config"
	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/email"
	"github.com/jwalitptl/clinic-portal/internal/handler"
	appointmentHandler "github.com/jwalitptl/clinic-portal/internal/handler/appointment"
	auditHandler "github.com/jwalitptl/clinic-portal/internal/handler/audit"
	authHandler "github.com/jwalitptl/clinic-portal/internal/handler/auth"
	blogHandler "github.com/jwalitptl/clinic-portal/internal/handler/blog"
	courseHandler "github.com/jwalitptl/clinic-portal/internal/handler/course"
	enrollmentHandler "github.com/jwalitptl/clinic-portal/internal/handler/enrollment"
	"github.com/jwalitptl/clinic-portal/internal/handler/health"
	"github.com/jwalitptl/clinic-portal/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-portal/internal/handler/waitingroom"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/repository/postgres"
	"github.com/jwalitptl/clinic-portal/internal/router"
	accessService "github.com/jwalitptl/clinic-portal/internal/service/access"
	appointmentService "github.com/jwalitptl/clinic-portal/internal/service/appointment"
	auditService "github.com/jwalitptl/clinic-portal/internal/service/audit"
	authService "github.com/jwalitptl/clinic-portal/internal/service/auth"
	billingService "github.com/jwalitptl/clinic-portal/internal/service/billing"
	blogService "github.com/jwalitptl/clinic-portal/internal/service/blog"
	"github.com/jwalitptl/clinic-portal/internal/service/checkout"
	courseService "github.com/jwalitptl/clinic-portal/internal/service/course"
	enrollmentService "github.com/jwalitptl/clinic-portal/internal/service/enrollment"
	progressService "github.com/jwalitptl/clinic-portal/internal/service/progress"
	waitingRoomService "github.com/jwalitptl/clinic-portal/internal/service/waitingroom"
	"github.com/jwalitptl/clinic-portal/internal/worker"
	"github.com/jwalitptl/clinic-portal/pkg/logger"
	"github.com/jwalitptl/clinic-portal/pkg/messaging"
	"github.com/jwalitptl/clinic-portal/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
	"github.com/jwalitptl/clinic-portal/pkg/query"
	"github.com/jwalitptl/clinic-portal/pkg/security"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

const metricsNamespace = "clinic_portal"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.NewLogger(&logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		lg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	// Metrics share one registry with the HTTP collectors
	promHandler := prometheus.New(metricsNamespace)
	appMetrics := metrics.New(metricsNamespace)
	appMetrics.MustRegister(promHandler.Registry())

	// Broker and session store: Redis when configured, in-process otherwise
	var (
		broker messaging.Broker
		store  auth.Store
	)
	if cfg.Redis.URL != "" {
		client, err := redis.NewClient(cfg.Redis.ToBrokerConfig())
		if err != nil {
			lg.Fatal(err, "failed to connect to Redis")
		}
		broker = redis.NewRedisBroker(client, lg.Zerolog())
		store = auth.NewRedisStore(client)
	} else {
		lg.Warn("redis.url not set; sessions and cache invalidations stay in this process")
		broker = messaging.NewMemoryBroker()
		store = auth.NewMemoryStore()
	}
	defer broker.Close()

	queries := query.NewClient(cfg.Query, query.WithBroker(broker), query.WithMetrics(appMetrics))
	if err := queries.Start(ctx); err != nil {
		lg.Fatal(err, "failed to subscribe to cache invalidations")
	}

	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry())
	sessions := auth.NewContext(store, tokens, auth.WithBroker(broker), auth.WithMetrics(appMetrics))
	sessions.OnChange(func(ev auth.Event) {
		if !ev.Removes() || ev.Session == nil {
			return
		}
		userID := ev.Session.UserID.String()
		n := queries.InvalidateWhere(func(k query.Key) bool { return k.Contains(userID) })
		log.Debug().Str("user_id", userID).Int("keys", n).Msg("dropped cached reads for signed-out user")
	})

	// Initialize repositories
	base := postgres.NewBaseRepository(db, appMetrics)
	courseRepo := postgres.NewCourseRepository(base)
	enrollmentRepo := postgres.NewEnrollmentRepository(base)
	progressRepo := postgres.NewProgressRepository(base)
	accessRepo := postgres.NewAccessRepository(base)
	clinicRepo := postgres.NewClinicRepository(base)
	billingRepo := postgres.NewBillingRepository(base)
	blogRepo := postgres.NewBlogRepository(base)
	logRepo := postgres.NewIntegrationLogRepository(base)
	userRepo := postgres.NewUserRepository(base)

	// Initialize services
	validate := validator.New()
	mailer := email.NewSMTPService(cfg.SMTP)
	auditSvc := auditService.NewService(logRepo, broker)
	accessSvc := accessService.NewService(accessRepo, queries, appMetrics)
	courseSvc := courseService.NewService(courseRepo, queries, validate)
	enrollmentSvc := enrollmentService.NewService(enrollmentRepo, queries)
	progressSvc := progressService.NewService(progressRepo, courseRepo, enrollmentRepo, queries)
	gateway := checkout.NewMockGateway(enrollmentSvc, auditSvc, cfg.Checkout)
	authSvc := authService.NewService(userRepo, sessions, tokens, security.NewBcryptHasher(0), validate, mailer, auditSvc)
	appointmentSvc := appointmentService.NewService(clinicRepo, queries, validate, mailer, auditSvc)
	waitingRoomSvc := waitingRoomService.NewService(clinicRepo, queries)
	billingSvc := billingService.NewService(billingRepo, queries)
	blogSvc := blogService.NewService(blogRepo, queries, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(sessions, accessSvc, 0)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
		go sweepRateLimiter(ctx, rateLimiter)
	}

	// Setup router
	handlers := []handler.Registrar{
		authHandler.NewHandler(authSvc, accessSvc),
		courseHandler.NewHandler(courseSvc),
		enrollmentHandler.NewHandler(enrollmentSvc, progressSvc, gateway),
		appointmentHandler.NewHandler(appointmentSvc),
		waitingroom.NewHandler(waitingRoomSvc, billingSvc),
		blogHandler.NewHandler(blogSvc),
		auditHandler.NewHandler(auditSvc),
	}
	r := router.NewRouter(
		authMiddleware,
		promHandler,
		health.NewHandler(db, sessions),
		router.RouterConfig{
			CORSConfig:     middleware.DefaultCORSConfig(cfg.Security.AllowedOrigins),
			RequestTimeout: cfg.Server.RequestTimeout,
			CatalogMaxAge:  cfg.Query.StaleTime,
			RateLimiter:    rateLimiter,
		},
		handlers...,
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Start server; requests resolve as loading until sessions are restored
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal(err, "failed to start server")
		}
	}()

	if err := sessions.Start(ctx); err != nil {
		lg.Fatal(err, "failed to start auth context")
	}
	defer sessions.Close()
	go sweepSessions(ctx, sessions)

	retention := worker.NewRetentionWorker(logRepo, cfg.Retention.IntegrationLogs, cfg.Retention.Interval, lg)
	go retention.Start(ctx)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	cancel()

	log.Info().Msg("server exited properly")
}

func sweepRateLimiter(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Cleanup(); n > 0 {
				log.Debug().Int("clients", n).Msg("evicted idle rate limiters")
			}
		}
	}
}

func sweepSessions(ctx context.Context, sessions *auth.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(ctx); n > 0 {
				log.Debug().Int("sessions", n).Msg("ended expired sessions")
			}
		}
	}
}
