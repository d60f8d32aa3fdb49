package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	alertinghandler "github.com/meridianiot/meridian/domains/alerting/be/handler"
	alertingservice "github.com/meridianiot/meridian/domains/alerting/be/service"
	tenantshandler "github.com/meridianiot/meridian/domains/tenants/be/handler"
	tenantsrepo "github.com/meridianiot/meridian/domains/tenants/be/repo"
	tenantsservice "github.com/meridianiot/meridian/domains/tenants/be/service"
	"github.com/meridianiot/meridian/platform/go/azure"
	"github.com/meridianiot/meridian/platform/go/configsvc"
	"github.com/meridianiot/meridian/platform/go/identity"
	platformlogging "github.com/meridianiot/meridian/platform/go/logging"
	platformmiddleware "github.com/meridianiot/meridian/platform/go/middleware"
	"github.com/meridianiot/meridian/platform/go/persistence"
	"github.com/meridianiot/meridian/platform/go/runbook"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	RecordStoreBackend string `env:"RECORD_STORE_BACKEND" envDefault:"tables"` // tables | postgres
	StorageConnString  string `env:"STORAGE_CONNECTION_STRING,required"`       // table + blob storage account
	TenantTableName    string `env:"TENANT_TABLE_NAME" envDefault:"tenant"`
	DatabaseURL        string `env:"DATABASE_URL"` // required when RECORD_STORE_BACKEND=postgres

	CosmosConnString    string `env:"COSMOS_CONNECTION_STRING,required"`
	AppConfigConnString string `env:"APP_CONFIG_CONNECTION_STRING,required"`

	SubscriptionID string `env:"AZURE_SUBSCRIPTION_ID,required"`
	ResourceGroup  string `env:"AZURE_RESOURCE_GROUP,required"`

	IdentityGatewayURL string `env:"IDENTITY_GATEWAY_URL,required"`
	ConfigServiceURL   string `env:"CONFIG_SERVICE_URL,required"`

	CreateIoTHubWebhook   string `env:"CREATE_IOTHUB_WEBHOOK,required"`
	DeleteIoTHubWebhook   string `env:"DELETE_IOTHUB_WEBHOOK,required"`
	CreateAlertingWebhook string `env:"CREATE_ALERTING_WEBHOOK,required"`
	DeleteAlertingWebhook string `env:"DELETE_ALERTING_WEBHOOK,required"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "tenant-api",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var tenantRepo tenantsservice.Repository
	switch cfg.RecordStoreBackend {
	case "tables":
		repo, err := tenantsrepo.NewTableRepositoryFromConnectionString(cfg.StorageConnString, cfg.TenantTableName)
		if err != nil {
			logger.Fatal("init table record store", zap.Error(err))
		}
		tenantRepo = repo
	case "postgres":
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL required when RECORD_STORE_BACKEND=postgres")
		}
		pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
		if err != nil {
			logger.Fatal("init postgres pool", zap.Error(err))
		}
		defer persistence.ClosePool(pool)
		repo, err := tenantsrepo.NewPostgresRepository(ctx, pool)
		if err != nil {
			logger.Fatal("init postgres record store", zap.Error(err))
		}
		tenantRepo = repo
	default:
		logger.Fatal("invalid RECORD_STORE_BACKEND (use tables or postgres)", zap.String("backend", cfg.RecordStoreBackend))
	}

	appConfig, err := azure.NewAppConfigStore(cfg.AppConfigConnString)
	if err != nil {
		logger.Fatal("init app configuration store", zap.Error(err))
	}

	cosmos, err := azure.NewCosmosStore(cfg.CosmosConnString)
	if err != nil {
		logger.Fatal("init cosmos store", zap.Error(err))
	}

	blobs, err := azure.NewBlobStore(cfg.StorageConnString)
	if err != nil {
		logger.Fatal("init blob store", zap.Error(err))
	}

	streamAnalytics, err := azure.NewStreamAnalyticsClient(cfg.SubscriptionID, cfg.ResourceGroup)
	if err != nil {
		logger.Fatal("init stream analytics client", zap.Error(err))
	}

	identityGateway := identity.New(cfg.IdentityGatewayURL)
	configService := configsvc.New(cfg.ConfigServiceURL)
	runbooks := runbook.New(runbook.Webhooks{
		CreateIoTHub:   cfg.CreateIoTHubWebhook,
		DeleteIoTHub:   cfg.DeleteIoTHubWebhook,
		CreateAlerting: cfg.CreateAlertingWebhook,
		DeleteAlerting: cfg.DeleteAlertingWebhook,
	})

	tenantService := tenantsservice.New(tenantRepo, tenantsservice.Collaborators{
		Identity:     identityGateway,
		Runbooks:     runbooks,
		Config:       appConfig,
		Collections:  cosmos,
		Blobs:        blobs,
		DeviceGroups: configService,
	}, logger)
	tenantHTTPHandler := tenantshandler.New(tenantService, logger)

	alertingService := alertingservice.New(alertingservice.Dependencies{
		Tenants:     tenantService,
		SA:          streamAnalytics,
		Config:      appConfig,
		Collections: cosmos,
		Runbooks:    runbooks,
	}, logger)
	alertingHTTPHandler := alertinghandler.New(alertingService, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()
	apiRouter.Group(tenantHTTPHandler.Routes)
	apiRouter.Group(alertingHTTPHandler.Routes)
	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting tenant api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
