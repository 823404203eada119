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

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/db"
	httpx "github.com/geocoder89/todohub/internal/http"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/redisclient"
	"github.com/geocoder89/todohub/internal/repo/postgres"
	"github.com/geocoder89/todohub/internal/security"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTelEnabled, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, 10)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	checks := map[string]handlers.PingFunc{
		"postgres": func() error {
			pctx, cancel := config.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return pool.Ping(pctx)
		},
	}

	// todo list cache: redis when configured, in-process otherwise
	var (
		store cache.Store = cache.New(cfg.TodosCacheTTL)
		rdb   *redisclient.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pctx)
		cancel()
		if err != nil {
			// the cache is best-effort; keep serving from postgres
			log.Warn("redis unreachable at startup", "addr", rdb.Addr(), "err", err)
		}

		store = cache.NewRedisStore(rdb, cfg.TodosCacheTTL)
		checks["redis"] = func() error {
			pctx, cancel := config.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return rdb.Ping(pctx)
		}
	}

	hasher := security.NewHasher(security.Params{
		Time:      uint32(cfg.Argon2Time),
		MemoryKiB: uint32(cfg.Argon2MemoryKiB),
		Threads:   uint8(cfg.Argon2Threads),
	})

	// set up routers with the wired dependencies
	router := httpx.NewRouter(httpx.Dependencies{
		Config:   cfg,
		Users:    postgres.NewUsersRepo(pool, prom),
		Todos:    postgres.NewTodosRepo(pool, prom),
		Cache:    store,
		Hasher:   hasher,
		Tokens:   auth.NewManager(cfg.JWTSecret),
		Prom:     prom,
		Gatherer: prometheus.DefaultGatherer,
		Checks:   checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "redis", rdb != nil)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		pool.Close()

		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", "err", err)
			}
		}

		if err := shutdownTracer(sctx); err != nil {
			log.Warn("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
