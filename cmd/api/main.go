package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ipstamp/internal/audit"
	"ipstamp/internal/auth"
	"ipstamp/internal/config"
	"ipstamp/internal/httpapi"
	"ipstamp/internal/ipstamp"
	"ipstamp/internal/record"
	"ipstamp/internal/requestip"
	"ipstamp/pkg/logger"
	"ipstamp/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	schema, err := record.ParseSchema(cfg.Store.Tables)
	if err != nil {
		log.Error("record schema invalid", "err", err)
		os.Exit(1)
	}

	store, auditRepo, closeStore, err := openStores(rootCtx, cfg)
	if err != nil {
		log.Error("store init failed", "backend", cfg.Store.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	metrics, err := ipstamp.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Error("metrics init failed", "err", err)
		os.Exit(1)
	}
	ipBehavior, err := ipstamp.New(ipstamp.Config{
		IPAttribute: cfg.IP.Attribute,
		Value:       cfg.IP.Value,
		Disabled:    cfg.IP.Disabled,
	}, ipstamp.WithMetrics(metrics))
	if err != nil {
		log.Error("ip behavior init failed", "err", err)
		os.Exit(1)
	}

	h := httpapi.Handlers{
		Auth:    authManager,
		Records: record.NewService(store, schema, ipBehavior),
		Audit:   audit.NewService(auditRepo),
	}

	// Gin router
	r := gin.New()
	if err := requestip.Configure(r, cfg.IP.TrustedProxies, cfg.IP.RemoteIPHeaders); err != nil {
		log.Error("client ip init failed", "err", err)
		os.Exit(1)
	}
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(requestip.Middleware())

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"store", cfg.Store.Backend,
			"ip_attribute", ipBehavior.IPAttribute(),
			"ip_recording", !cfg.IP.Disabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// openStores connects the configured record backend. Audit events go to Postgres when
// it is the backend and to memory otherwise.
func openStores(ctx context.Context, cfg config.Config) (record.Store, audit.Repository, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return nil, nil, nil, err
		}
		return record.NewPostgresStore(db), audit.NewPostgresRepo(db), func() { _ = db.Close() }, nil
	case "redis":
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Warn("audit events are kept in memory with the redis backend")
		return record.NewRedisStore(rdb, cfg.Redis.KeyPrefix), audit.NewMemoryRepo(), func() { _ = rdb.Close() }, nil
	case "memory":
		return record.NewMemoryStore(), audit.NewMemoryRepo(), func() {}, nil
	default:
		return nil, nil, nil, errors.New("unknown store backend " + cfg.Store.Backend)
	}
}
