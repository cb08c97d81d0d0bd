package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "bizdash/api" // swagger docs
	"bizdash/cfg"
	"bizdash/internal/adapter"
	"bizdash/internal/auth"
	"bizdash/internal/dashboard"
	"bizdash/internal/httpx"
	"bizdash/internal/integration"
	"bizdash/pkg/cache"
	"bizdash/pkg/crypto"
	"bizdash/pkg/db"
	"bizdash/pkg/idgen"
	"bizdash/pkg/logger"
	"bizdash/pkg/oauth2"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
)

const docsPage = `<!DOCTYPE html>
<html>
<head>
    <title>bizdash API</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <script id="api-reference" data-url="/swagger/doc.json"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`

// @title                      bizdash API
// @version                    1.0
// @description                Integration and widget backend for the business dashboard.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============
	// config
	// ============
	config, err := cfg.Load()
	if err != nil {
		log.Fatal(err)
	}

	// ============
	// logger
	// ============
	zlogger := logger.NewZeroLog(config.AppEnv)

	// ============
	// Otel
	// ============
	shutdownOtel, err := initOtel(ctx, &config.Observability, zlogger)
	if err != nil {
		log.Fatalf("failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(ctx); err != nil {
			zlogger.Error("failed to shutdown OpenTelemetry", logger.Err(err))
		}
	}()

	ids, err := idgen.NewSnowflakeGenerator(config.NodeID)
	if err != nil {
		log.Fatal(err)
	}

	// ============
	// DB + cache
	// ============
	var (
		store     integration.Store
		cacheImpl cache.Cache
	)
	if config.Local() {
		zlogger.Warn("APP_ENV=local: integrations and widgets are kept in memory")
		store = integration.NewMemoryStore(ids)
		cacheImpl = cache.NewMemoryCache()
	} else {
		if err := db.Migrate(config.MigrationsPath, config.Postgres.DSN()); err != nil {
			log.Fatal(err)
		}
		sqlClient, err := db.NewSQLClient(ctx, db.DriverPgx, config.Postgres.DSN(), db.DefaultPool)
		if err != nil {
			log.Fatal(err)
		}
		defer sqlClient.Close()

		sealer, err := crypto.NewSealer([]byte(config.EncryptionKey))
		if err != nil {
			log.Fatal(err)
		}
		store = integration.NewRepository(sqlClient, sealer, ids)

		cacheImpl = cache.NewRedisCache(config.Redis.Addr(), config.Redis.Password)
		if err := cache.Ping(ctx, cacheImpl); err != nil {
			log.Fatalf("failed to reach redis: %v", err)
		}
	}

	// ============
	// Integrations
	// ============
	httpClient := &http.Client{Timeout: config.HTTPTimeout}
	registry := oauth2.NewRegistry(oauth2.DefaultProviders(), nil)
	manager := oauth2.NewManager(registry, config.RedirectURI(), httpClient)

	integrationSvc := integration.NewService(manager, store, cacheImpl, zlogger)
	integrationHandler := integration.NewHandler(integrationSvc, zlogger)

	// ============
	// Dashboard
	// ============
	adapters := dashboard.Adapters{
		Gmail:     adapter.NewGmail(httpClient, adapter.DefaultGmailEndpoint),
		Analytics: adapter.NewAnalytics(httpClient, adapter.DefaultAnalyticsEndpoint),
		Calendar:  adapter.NewCalendar(httpClient, adapter.DefaultCalendarEndpoint),
		GitHub:    adapter.NewGitHub(httpClient, adapter.DefaultGitHubEndpoint),
		Slack:     adapter.NewSlack(httpClient, adapter.DefaultSlackEndpoint),
		Stripe:    adapter.NewStripe(httpClient, adapter.DefaultStripeEndpoint),
		Shopify:   adapter.NewShopify(httpClient, adapter.DefaultShopifyEndpoint),
	}
	dashboardSvc, err := dashboard.NewService(integrationSvc, adapters, cacheImpl, config.CacheTTL, zlogger, otel.Meter("bizdash/dashboard"))
	if err != nil {
		log.Fatal(err)
	}
	integrationSvc.OnDisconnect(dashboardSvc)
	dashboardHandler := dashboard.NewHandler(dashboardSvc, zlogger)

	// ============
	// Auth
	// ============
	verifier, err := auth.NewOIDCVerifier(ctx, config.Auth.IssuerURL, config.Auth.ClientID)
	if err != nil {
		log.Fatal(err)
	}
	authMiddleware := auth.Middleware(verifier, zlogger)

	// ============
	// HTTP
	// ============
	if config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(config.Observability.ServiceName))
	r.Use(httpx.RequestLogger(zlogger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
	})

	integrationHandler.RegisterRoutes(r, authMiddleware)
	dashboardHandler.RegisterRoutes(r, authMiddleware)

	srv := &http.Server{
		Addr:              ":" + config.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlogger.Info("http server listening", logger.Field{Key: "addr", Value: srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlogger.Error("http server stopped", logger.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlogger.Error("http server shutdown failed", logger.Err(err))
	}
}
