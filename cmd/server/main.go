package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linkyoself/linkyoself/config"
	"github.com/linkyoself/linkyoself/internal/app/password"
	"github.com/linkyoself/linkyoself/internal/app/repository"
	appserver "github.com/linkyoself/linkyoself/internal/app/server"
	"github.com/linkyoself/linkyoself/internal/app/service"
	"github.com/linkyoself/linkyoself/internal/app/token"
	"github.com/linkyoself/linkyoself/internal/http/middleware"
	"github.com/linkyoself/linkyoself/internal/infra/logger"
	infraNATS "github.com/linkyoself/linkyoself/internal/infra/nats"
	infraPostgres "github.com/linkyoself/linkyoself/internal/infra/postgres"
	infraPrometheus "github.com/linkyoself/linkyoself/internal/infra/prometheus"
	infraRedis "github.com/linkyoself/linkyoself/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot, _ := logger.New(logger.Options{Development: true})
		if boot == nil {
			os.Exit(1)
		}
		boot.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(logger.FromConfig(cfg.App))
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Configuration loaded successfully",
		zap.String("environment", cfg.App.Environment),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := infraPostgres.Migrate(ctx, gormDB); err != nil {
		return err
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	metrics := infraPrometheus.NewMetrics()

	users := repository.NewUserRepository(gormDB)
	tokens := repository.NewRefreshTokenRepository(gormDB)
	links := repository.NewLinkRepository(gormDB)
	clicks := repository.NewClickEventRepository(gormDB)

	signer, err := token.NewSigner([]byte(cfg.Auth.SecretKey), cfg.Auth.Algorithm, cfg.Auth.Issuer, cfg.Auth.AccessTTL())
	if err != nil {
		return err
	}

	usernames := service.NewUsernameIndex(0, 0)
	if err := usernames.Load(ctx, users); err != nil {
		log.Warn("Username index unavailable, availability checks hit the database", zap.Error(err))
	}
	refresher := service.NewUsernameIndexRefresher(log.Named("usernames"), usernames, users, cfg.Auth.UsernameIndexRefresh)
	refresher.Start()
	defer refresher.Stop()

	linkDeps := service.LinkDependencies{
		Links:   links,
		Users:   users,
		Clicks:  clicks,
		Metrics: metrics,
		Logger:  log.Named("links"),
	}

	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS, log.Named("nats"))
		if err != nil {
			return err
		}
		defer natsConn.Drain()

		consumer := service.NewClickConsumer(js, log.Named("clicks"), clicks)
		if err := consumer.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := consumer.Stop(stopCtx); err != nil {
				log.Warn("Click consumer did not stop in time", zap.Error(err))
			}
		}()
		linkDeps.Publisher = service.NewClickPublisher(js)
		log.Info("Click stream enabled", zap.String("url", infraNATS.URL(cfg.NATS)))
	}

	auth := service.NewAuthService(service.AuthDependencies{
		Users:      users,
		Tokens:     tokens,
		Signer:     signer,
		Hasher:     password.NewHasher(cfg.Auth.BcryptCost),
		RefreshTTL: cfg.Auth.RefreshTTL(),
		Usernames:  usernames,
		Metrics:    metrics,
	})

	deps := appserver.Dependencies{
		Logger:   log,
		Config:   cfg,
		Auth:     auth,
		Links:    service.NewLinkService(linkDeps),
		Users:    service.NewUserService(users, usernames),
		Database: pool,
		Observer: metrics,
	}

	if cfg.RateLimit.Enabled {
		redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		deps.RateCounter = middleware.NewRedisCounter(redisClient)
		log.Info("Connected to Redis successfully")
	}

	reaper := service.NewTokenReaper(log.Named("reaper"), tokens, cfg.Auth.ReapInterval, cfg.Auth.ReapGrace)
	reaper.Start()
	defer reaper.Stop()

	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, metrics)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	}

	server := appserver.New(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.HTTP.Addr))
		errCh <- server.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
