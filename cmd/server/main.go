package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forestbush/bushel/internal/api"
	"github.com/forestbush/bushel/internal/cache"
	"github.com/forestbush/bushel/internal/config"
	"github.com/forestbush/bushel/internal/service"
	"github.com/forestbush/bushel/internal/store"
	"github.com/forestbush/bushel/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil { log.Fatalf("config: %v", err) }
	if err := cfg.Validate(); err != nil { log.Fatalf("config: %v", err) }

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	telemetry.Init()

	ctx := context.Background()
	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil { log.Fatalf("store: %v", err) }
	defer st.Close()

	rc, err := cache.NewCache(cfg.CacheType, cache.RedisConfig{
		Address:  cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil { log.Fatalf("cache: %v", err) }
	defer rc.Close()

	ev := service.NewEvaluator(st, rc, cfg.RolloutSalt, service.EvaluatorOptions{
		TTL:    cfg.CacheTTL,
		Logger: logger,
	})
	mu := service.NewMutator(st, rc, service.MutatorOptions{Logger: logger})

	srvAPI := api.NewServer(ev, mu, st, rc, api.Options{
		AdminAPIKey:    cfg.AdminAPIKey,
		RateLimitPerIP: cfg.RateLimitPerIP,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Printf("metrics on %s", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Println("stopped")
}
