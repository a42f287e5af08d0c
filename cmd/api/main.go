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

	"github.com/geocoder89/promohub/internal/cache"
	"github.com/geocoder89/promohub/internal/config"
	"github.com/geocoder89/promohub/internal/domain/promotion"
	httpx "github.com/geocoder89/promohub/internal/http"
	"github.com/geocoder89/promohub/internal/http/middlewares"
	"github.com/geocoder89/promohub/internal/observability"
	"github.com/geocoder89/promohub/internal/security"
	"github.com/geocoder89/promohub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// the API is useless without its store, so fail fast
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store connect failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	store = store.Instrumented(prom)

	limiter, closeCounter := newRateLimiter(cfg, log)

	var promoOpts []service.PromotionOption
	if cfg.ActiveCacheTTL > 0 {
		promoOpts = append(promoOpts, service.WithActiveCache(cache.New[[]promotion.Promotion](cfg.ActiveCacheTTL)))
	}

	promotions := service.NewPromotionService(store.Promotions, log, time.Now, promoOpts...)
	users := service.NewUserService(store.Users, security.BcryptHasher{Cost: cfg.BcryptCost}, log)

	router := httpx.NewRouter(httpx.Deps{
		Log:        log,
		Config:     cfg,
		Promotions: promotions,
		Users:      users,
		Ping:       store.Ping,
		Prom:       prom,
		Gatherer:   reg,
		Limiter:    limiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", store.Driver)

		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := store.Close(ctx); err != nil {
			log.Error("store close failed", "err", err)
		}
		if err := closeCounter(); err != nil {
			log.Error("rate limit backend close failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// newRateLimiter picks the counter backend. The returned func releases it.
func newRateLimiter(cfg config.Config, log *slog.Logger) (*middlewares.RateLimiter, func() error) {
	if cfg.RateLimitRequests <= 0 {
		return nil, func() error { return nil }
	}

	if cfg.RateLimitBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		counter := middlewares.NewRedisCounter(client, "promohub:ratelimit:")

		return middlewares.NewRateLimiter(counter, cfg.RateLimitRequests, cfg.RateLimitWindow, log), client.Close
	}

	return middlewares.NewRateLimiter(middlewares.NewMemoryCounter(), cfg.RateLimitRequests, cfg.RateLimitWindow, log), func() error { return nil }
}
