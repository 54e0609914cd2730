package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/config"
	"github.com/oksasatya/go-event-api/internal/container"
	"github.com/oksasatya/go-event-api/internal/infrastructure/lock"
	"github.com/oksasatya/go-event-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-event-api/internal/infrastructure/postgres"
	"github.com/oksasatya/go-event-api/internal/infrastructure/search"
	"github.com/oksasatya/go-event-api/internal/interface/middleware"
	"github.com/oksasatya/go-event-api/internal/metrics"
	"github.com/oksasatya/go-event-api/internal/router"
	"github.com/oksasatya/go-event-api/pkg/helpers"
	"github.com/oksasatya/go-event-api/pkg/mailer"
	"github.com/oksasatya/go-event-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)
	validation.Init()
	metrics.Init()

	ctx := context.Background()
	container.SetConfig(cfg)
	container.SetLogger(logger)

	closers := wireInfra(ctx, cfg, logger)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	jwtManager, err := helpers.NewJWTManager([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		logger.WithError(err).Fatal("jwt init failed")
	}
	container.SetJWT(jwtManager)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP(cfg.TrustProxyHeaders))
	r.Use(metrics.GinMiddleware())
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	if err := router.InitModules(reg); err != nil {
		logger.WithError(err).Fatal("module init failed")
	}
	reg.RegisterAll()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server exited properly")
}

// wireInfra connects the configured backends and fills the container.
// It returns close funcs in open order.
func wireInfra(ctx context.Context, cfg *config.Config, logger *logrus.Logger) []func() {
	var closers []func()

	// Accounts and verification codes
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to postgres")
		}
		closers = append(closers, pool.Close)
		if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			logger.WithError(err).Fatal("migration failed")
		}
		container.SetPGPool(pool)
		container.SetAccounts(pginfra.NewAccountRepository(pool))
		container.SetCodes(pginfra.NewVerificationCodeRepository(pool))
	default:
		logger.Warn("STORE_BACKEND=memory; accounts are lost on restart")
		container.SetAccounts(memory.NewAccountRepository())
		container.SetCodes(memory.NewVerificationCodeRepository())
	}

	// Redis backs the registration lock and the rate limiters
	if cfg.LockBackend == "redis" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		closers = append(closers, func() { _ = rdb.Close() })
		container.SetRedis(rdb)
		container.SetLocker(lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait))
	} else {
		logger.Warn("LOCK_BACKEND=local; registration is only serialized within this process")
		container.SetLocker(lock.NewLocalLocker())
	}

	// Mail transport
	switch {
	case !cfg.MailSendEnabled || cfg.MailTransport == "log":
		logger.Warn("mail transport is log-only; no real emails will be sent")
		container.SetMailer(mailer.NewLogMailer(logger))
	case cfg.MailTransport == "mailgun":
		mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
		container.SetMailgun(mg)
		container.SetMailer(mailer.NewMailgunMailer(mg))
	default:
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to rabbitmq")
		}
		closers = append(closers, pub.Close)
		container.SetRabbitPub(pub)
		container.SetMailer(mailer.NewQueueMailer(pub))
	}

	// Optional: profile images on GCS
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Fatal("failed to init GCS client")
		}
		closers = append(closers, func() { _ = gcsClient.Close() })
		container.SetGCS(gcsClient)
		container.SetUploader(helpers.NewGCSUploader(gcsClient, cfg.GCSBucket))
	}

	// Optional: account search on Elasticsearch
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Fatal("failed to init elasticsearch client")
		}
		container.SetES(es)
		container.SetAccountIndex(search.NewAccountIndex(es, cfg.ESAccountsIndex, logger))
	}

	return closers
}
