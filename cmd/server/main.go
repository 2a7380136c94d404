// Command server runs the forum HTTP API.
//
//	@title						Forum API
//	@version					1.0
//	@description				Discussion forum backend: categories, threads, replies, reactions, profiles and sessions.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token as "Bearer <token>".
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-forum-backend/internal/auth"
	"github.com/tbourn/go-forum-backend/internal/cache"
	"github.com/tbourn/go-forum-backend/internal/config"
	httpapi "github.com/tbourn/go-forum-backend/internal/http"
	"github.com/tbourn/go-forum-backend/internal/idgen"
	"github.com/tbourn/go-forum-backend/internal/observability"
	"github.com/tbourn/go-forum-backend/internal/repo"
	"github.com/tbourn/go-forum-backend/internal/search"
	"github.com/tbourn/go-forum-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = 10 * time.Minute
	warmIndexLimit  = 5000
)

func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.ServiceInfo{
		Version:     version,
		Environment: cfg.GinMode,
		NodeID:      cfg.SnowflakeNode,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	if err := idgen.Init(cfg.SnowflakeNode); err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var rdb *redis.Client
	if cfg.Cache.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The shared tier degrades to L1 on errors; keep serving.
			log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unreachable")
		}
	}
	categoryCache, err := cache.New(ctx, cache.Options{
		Prefix:  "forum:",
		TTL:     cfg.Cache.TTL,
		L1MaxMB: cfg.Cache.L1MaxMB,
		Redis:   rdb,
	})
	if err != nil {
		return err
	}
	defer categoryCache.Close()
	if err := cache.RegisterMetrics(prometheus.DefaultRegisterer, categoryCache); err != nil {
		return err
	}

	broker := auth.NewBroker(64)
	events, unsubscribe := broker.Subscribe()
	defer unsubscribe()
	go auditSessions(events)

	r := gin.New()
	svcs := httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:     db,
		Index:  search.NewThreadIndex(),
		Cache:  categoryCache,
		Broker: broker,
	}, cfg)

	seeded, err := svcs.Categories.Seed(ctx)
	if err != nil {
		return err
	}
	if seeded > 0 {
		log.Info().Int64("categories", seeded).Msg("seeded default categories")
	}

	n, err := svcs.Threads.WarmIndex(ctx, warmIndexLimit)
	if err != nil {
		log.Warn().Err(err).Msg("search index warm-up failed")
	} else {
		log.Info().Int("threads", n).Msg("search index ready")
	}

	go purgeIdempotency(ctx, db)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Str("db", cfg.DB.Driver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown signal received")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}

// openDB connects to and migrates the configured database.
func openDB(cfg config.Config) (*gorm.DB, error) {
	target := cfg.DB.Path
	if cfg.DB.Driver == repo.DriverPostgres {
		target = cfg.DB.URL
	}
	db, err := repo.Open(cfg.DB.Driver, target)
	if err != nil {
		return nil, err
	}
	if err := repo.EnableTracing(db); err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// auditSessions logs session transitions until the subscription closes.
func auditSessions(events <-chan auth.SessionEvent) {
	for ev := range events {
		log.Info().
			Str("event", string(ev.Kind)).
			Str("user_id", ev.UserID).
			Time("at", ev.At).
			Msg("session")
	}
}

func purgeIdempotency(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("purged idempotency keys")
			}
		}
	}
}
