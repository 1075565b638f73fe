package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/greenloop/config"
	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/container"
	"github.com/oksasatya/greenloop/internal/infrastructure/ai"
	pginfra "github.com/oksasatya/greenloop/internal/infrastructure/postgres"
	"github.com/oksasatya/greenloop/internal/infrastructure/tasks"
	"github.com/oksasatya/greenloop/internal/interface/middleware"
	"github.com/oksasatya/greenloop/internal/observability"
	"github.com/oksasatya/greenloop/internal/router"
	"github.com/oksasatya/greenloop/internal/vectorbridge"
	"github.com/oksasatya/greenloop/pkg/helpers"
	"github.com/oksasatya/greenloop/pkg/tokenutil"
	"github.com/oksasatya/greenloop/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.AppName, cfg.OTLPEndpoint, logger)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	// Run migrations using database/sql with pgx stdlib
	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}

	// Redis: sessions, rate limits, product cache
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	// GCS for action photos; uploads are disabled without a bucket
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		container.SetGCS(gcsClient)
	}

	// Elasticsearch user index (optional)
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = helpers.PingES(pingCtx, es)
			cancel()
		}
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; user search disabled")
		} else {
			container.SetES(es)
		}
	}

	// RabbitMQ email queue (optional)
	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; emails disabled")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	metrics := observability.DefaultMetrics()

	// AI provider; chat and product search answer 502 without one
	provider, err := ai.NewProvider(ctx, cfg)
	if err != nil {
		logger.WithError(err).Warn("ai provider not available")
	} else {
		container.SetAI(provider)
		var embedder application.Embedder = provider
		if cached, cErr := ai.NewCachedEmbedder(provider, cfg.EmbedCacheSize); cErr == nil {
			embedder = cached
		}
		container.SetEmbedder(embedder)
	}

	vectors := newVectorClient(cfg, logger, metrics)
	var store application.VectorStore
	if vectors != nil {
		container.SetVectors(vectors)
		store = vectors
	}

	// Detached side effects: memory embedding and email publishing
	writer := application.NewMemoryWriter(container.GetEmbedder(), store, logger)
	local := tasks.NewLocal(writer.Write, cfg.MemoryJobTimeout, logger, metrics)
	var dispatcher application.Dispatcher = local
	if cfg.MemoryDispatch == "queue" {
		memPub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQMemoryQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; memory jobs run in-process")
		} else {
			defer memPub.Close()
			dispatcher = tasks.NewQueue(memPub, local)
		}
	}

	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetJWT(jwtManager)
	container.SetMetrics(metrics)
	container.SetRunner(local, dispatcher)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware(cfg.AppName))
	}
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	// Chat context bounds use the cl100k encoding once it has loaded
	warmCtx, warmCancel := context.WithTimeout(ctx, cfg.TokenizerWarmTimeout)
	if !tokenutil.Warm(warmCtx) {
		logger.Warn("tokenizer not ready; context bounds use estimates until it loads")
	}
	warmCancel()

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
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
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	if err := local.Close(ctxShutdown); err != nil {
		logger.WithError(err).Warn("background jobs still running at exit")
	}
	shutdownTracer(ctxShutdown)
	logger.Info("server exited properly")
}

// newVectorClient picks the bridge transport from VECTOR_BRIDGE_MODE.
func newVectorClient(cfg *config.Config, logger *logrus.Logger, m *observability.Metrics) *vectorbridge.Client {
	var t vectorbridge.Transport
	switch cfg.VectorBridgeMode {
	case "off", "":
		logger.Info("vector bridge disabled; chat runs without memories")
		return nil
	case "exec":
		t = vectorbridge.NewExecTransport(cfg.VectorBridgeBin)
	default:
		t = vectorbridge.NewHTTPTransport(cfg.VectorBridgeURL)
	}
	return vectorbridge.NewClient(t, cfg.VectorBridgeTimeout, logger, m)
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
