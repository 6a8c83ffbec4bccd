package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zaikaapp/session-bfa-go/internal/config"
	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/handler"
	"github.com/zaikaapp/session-bfa-go/internal/infra/cache"
	"github.com/zaikaapp/session-bfa-go/internal/infra/client"
	"github.com/zaikaapp/session-bfa-go/internal/infra/geocode"
	"github.com/zaikaapp/session-bfa-go/internal/infra/observability"
	"github.com/zaikaapp/session-bfa-go/internal/infra/resilience"
	"github.com/zaikaapp/session-bfa-go/internal/infra/store"
	"github.com/zaikaapp/session-bfa-go/internal/port"
	"github.com/zaikaapp/session-bfa-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_api_url", cfg.BackendAPIURL),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.Bool("use_memory_store", cfg.UseMemoryStore),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("default_area", cfg.DefaultArea),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "zaika-session-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Session store ---
	var sessionStore port.SessionStore
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory session store; cross-tab signals limited to this process")
		sessionStore = store.NewMemory()
	} else {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		sessionStore = store.NewRedis(rdb, cfg.SessionNamespace, logger)
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	cb := resilience.NewCircuitBreaker("ordering-backend")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	areaCache := cache.New[[]domain.Area](cfg.CacheTTL)
	customerClient := client.NewCustomerClient(httpClient, cfg.BackendAPIURL, cb, resilienceCfg)
	areaClient := client.NewAreaClient(httpClient, cfg.BackendAPIURL, cb, resilienceCfg, areaCache, metrics)
	restaurantClient := client.NewRestaurantClient(httpClient, cfg.BackendAPIURL, cb, resilienceCfg)

	geocoder := geocode.NewNominatim(
		httpClient,
		cfg.GeocodeBaseURL,
		resilience.NewBulkhead(cfg.MaxGeocodeConcurrency),
		logger,
	)

	// --- Services ---
	ctrl := service.NewController(
		sessionStore,
		customerClient,
		customerClient,
		areaClient,
		cfg.DefaultArea,
		metrics,
		logger,
	)

	flow := service.NewLocationFlow(
		geocoder,
		domain.MapView{Center: domain.LatLng{Lat: cfg.MapLat, Lng: cfg.MapLng}, Zoom: cfg.MapZoom},
		nil,
		metrics,
		logger,
	)

	// --- Cross-tab notifier ---
	notifierCtx, stopNotifier := context.WithCancel(context.Background())
	defer stopNotifier()
	notifier := service.NewNotifier(sessionStore, ctrl, metrics, logger)
	if err := notifier.Start(notifierCtx); err != nil {
		logger.Fatal("failed to start cross-tab notifier", zap.Error(err))
	}
	defer notifier.Stop()

	// --- Initial reconciliation ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	ctrl.Initialize(initCtx)
	cancelInit()
	logger.Info("session initialized", zap.String("modal", string(ctrl.State().Modal)))

	// --- Router ---
	router := handler.NewRouter(ctrl, flow, restaurantClient, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
