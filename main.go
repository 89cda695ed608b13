package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/cache"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/clients/oembed"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/clients/scraper"
	youtubeclient "github.com/kvn3toj/beforenostr-sub004/infrastructure/clients/youtube"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/configuration"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/filecsv"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/persistence"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/pubsub"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/realtime"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/servicebus"
	httpHandler "github.com/kvn3toj/beforenostr-sub004/interfaces/http"
	"github.com/kvn3toj/beforenostr-sub004/server"
	"github.com/kvn3toj/beforenostr-sub004/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	if n := configuration.LoadEnvFromFile("config.env", ".env"); n > 0 {
		configuration.Reload()
	}

	app := configuration.C.App
	durationCfg := configuration.C.Duration

	videoContentRepository, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Video content store not available - batch recalculation disabled")
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without recalculation audit")
		mongoDb = nil
	} else if err := persistence.PingMongo(ctx, mongoDb); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without recalculation audit")
		mongoDb = nil
	} else {
		logger.GetLogger().Info("MongoDB connected successfully")
	}
	auditRepository := persistence.NewRecalculationAuditRepository(mongoDb, configuration.C.Database.Mongo.Name)

	brokerPublisher, closePublisher := InitiatePublisher(ctx)
	defer closePublisher()
	durationHub := realtime.NewDurationHub()
	eventPublisher := repository.NewFanoutPublisher(brokerPublisher, durationHub)

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - resolving durations without cache")
		redisClient = nil
	} else {
		logger.GetLogger().Info("Redis client initialized successfully.")
	}
	durationCache := cache.NewDurationCache(redisClient)

	// Duration sources
	youtubeConfig, err := configuration.GetYouTubeConfig()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("YouTube configuration not found - API strategy disabled")
	}
	var apiSource repository.IDurationSource
	if youtubeConfig.HasCredential() {
		youtubeClient, err := youtubeclient.NewYouTubeClient(ctx, &youtubeclient.Config{
			ClientID:     youtubeConfig.ClientID,
			ClientSecret: youtubeConfig.ClientSecret,
			RedirectURL:  youtubeConfig.RedirectURL,
			AccessToken:  youtubeConfig.AccessToken,
			RefreshToken: youtubeConfig.RefreshToken,
			APIKey:       youtubeConfig.APIKey,
			Endpoint:     youtubeConfig.Endpoint,
			Timeout:      youtubeConfig.Timeout,
		})
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to initialize YouTube client - API strategy disabled")
		} else {
			apiSource = youtubeClient
		}
	} else {
		logger.GetLogger().Info("YouTube API credentials not configured - API strategy disabled")
	}

	var scrapeSource repository.IDurationSource
	if configuration.C.Scraper.Enabled {
		scrapeSource = scraper.NewPageScraperFromConfig(configuration.C.Scraper)
	}

	var lightMetadata repository.ILightMetadata
	var existenceProbe repository.IExistenceProbe
	if configuration.C.OEmbed.Enabled {
		oembedClient := oembed.NewClientFromConfig(configuration.C.OEmbed)
		lightMetadata = oembedClient
		existenceProbe = oembedClient
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"api":           apiSource != nil,
		"scrape":        scrapeSource != nil,
		"lightMetadata": lightMetadata != nil,
		"cache":         redisClient != nil,
		"overrides":     len(durationCfg.KnownOverrides),
	}).Info("Duration resolution chain configured")

	estimator := usecase.NewHeuristicEstimator(usecase.HeuristicConfig{
		Bands:          usecase.DefaultDurationBands(),
		DefaultSeconds: durationCfg.DefaultSeconds,
		HashMinSeconds: durationCfg.HashMinSeconds,
		HashMaxSeconds: durationCfg.HashMaxSeconds,
	})
	extractor := usecase.NewMetadataExtractor()
	resolver := usecase.NewDurationResolver(
		usecase.ResolverConfig{
			CachePrefix:    durationCfg.CachePrefix,
			LongTTL:        durationCfg.LongTTL,
			ShortTTL:       durationCfg.ShortTTL,
			KnownOverrides: knownOverrides(durationCfg.KnownOverrides, durationCfg.OverridesFile),
		},
		extractor,
		durationCache,
		usecase.NewDefaultStrategies(apiSource, scrapeSource, lightMetadata, existenceProbe, estimator),
	)

	fallbackValues := durationCfg.FallbackValues
	if len(fallbackValues) == 0 {
		fallbackValues = estimator.FallbackValues()
	}
	policy := usecase.NewProtectionPolicy(usecase.ProtectionConfig{
		ToleranceSeconds:  durationCfg.ToleranceSeconds,
		MaxRelativeChange: durationCfg.MaxRelativeChange,
		FallbackValues:    fallbackValues,
		ProtectedIDs:      durationCfg.ProtectedIDs,
	})

	var batch usecase.IBatchRecalculator
	if videoContentRepository != nil {
		batch = usecase.NewBatchRecalculator(
			usecase.BatchConfig{Workers: configuration.C.Batch.Workers, Pacing: configuration.C.Batch.Pacing},
			videoContentRepository,
			resolver,
			extractor,
			policy,
			eventPublisher,
			auditRepository,
		)
	}

	videoDurationHandler := httpHandler.NewVideoDurationHandler(extractor, resolver, batch, auditRepository, durationCache)
	router := server.InitiateRouter(videoDurationHandler, durationHub, app.SecretKey)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if mongoDb != nil {
		_ = mongoDb.Disconnect(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase picks the content store: MSSQL in production or when
// DB_VENDOR=mssql, MySQL through gorm for DB_VENDOR=mysql, PostgreSQL otherwise.
func InitiateDatabase() (repository.IVideoContent, error) {
	env := os.Getenv("ENV")
	vendor := os.Getenv("DB_VENDOR")

	switch {
	case vendor == "mssql" || env == "production" || env == "prod":
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, err
		}
		if err := persistence.EnsureVideoContentSchemaMSSQL(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring video content schema (mssql)")
		}
		return persistence.NewVideoContentRepositoryMSSQL(db), nil
	case vendor == "mysql":
		db, err := persistence.NewRepositories()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MySQL")
			return nil, err
		}
		if err := db.AutoMigrate(&model.VideoContent{}); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed migrating video content schema (mysql)")
		}
		return persistence.NewVideoContentRepositoryGorm(db), nil
	default:
		db, err := persistence.NewPostgreSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to the local database")
			return nil, err
		}
		if err := persistence.EnsureVideoContentSchema(db); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring video content schema")
		}
		return persistence.NewVideoContentRepository(db), nil
	}
}

// InitiatePublisher prefers Pub/Sub and falls back to Service Bus. Without
// either, duration changes are only logged.
func InitiatePublisher(ctx context.Context) (repository.IDurationEventPublisher, func()) {
	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err == nil {
		publisher := pubsub.NewDurationEventPublisher(pubSubClient, configuration.C.Pubsub.Topic)
		logger.GetLogger().WithField("topic", configuration.C.Pubsub.Topic).Info("Publishing duration changes to Pub/Sub")
		return publisher, func() {
			publisher.Stop()
			_ = pubSubClient.Close()
		}
	}
	logger.GetLogger().WithField("error", err).Warn("PubSub not available")

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err == nil {
		publisher := servicebus.NewDurationEventPublisher(azServiceBusClient, configuration.C.ServiceBus.Queue)
		logger.GetLogger().WithField("queue", configuration.C.ServiceBus.Queue).Info("Publishing duration changes to Service Bus")
		return publisher, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			publisher.Close(closeCtx)
			_ = azServiceBusClient.Close(closeCtx)
		}
	}
	logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without duration change events")
	return nil, func() {}
}

// knownOverrides merges configured overrides with the optional CSV file.
// File entries come last and win on duplicate IDs.
func knownOverrides(configured []configuration.KnownOverride, file string) []model.KnownOverride {
	overrides := make([]model.KnownOverride, 0, len(configured))
	for _, o := range configured {
		overrides = append(overrides, model.KnownOverride{VideoID: o.VideoID, Seconds: o.Seconds})
	}
	if file == "" {
		return overrides
	}
	fromFile, err := filecsv.LoadKnownOverrides(file)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Known overrides file not loaded - using configured overrides only")
		return overrides
	}
	return append(overrides, fromFile...)
}
