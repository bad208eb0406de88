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

	"github.com/zatekoja/postnatalcare/backend/internal/adapters/cache"
	"github.com/zatekoja/postnatalcare/backend/internal/adapters/database"
	"github.com/zatekoja/postnatalcare/backend/internal/adapters/events"
	"github.com/zatekoja/postnatalcare/backend/internal/adapters/providers/insights"
	"github.com/zatekoja/postnatalcare/backend/internal/api/handlers"
	"github.com/zatekoja/postnatalcare/backend/internal/api/routes"
	"github.com/zatekoja/postnatalcare/backend/internal/application/recovery"
	"github.com/zatekoja/postnatalcare/backend/internal/application/services"
	"github.com/zatekoja/postnatalcare/backend/internal/application/triage"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/openai"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/notifications"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	"github.com/zatekoja/postnatalcare/backend/pkg/config"
	"github.com/zatekoja/postnatalcare/backend/pkg/secrets"
)

func main() {
	// Vault runs before config.Load so credentials land in the environment first.
	vaultCtx, vaultCancel := context.WithTimeout(context.Background(), 15*time.Second)
	vaultResult, vaultErr := secrets.ApplyVaultSecrets(vaultCtx, secrets.LoadVaultConfigFromEnv())
	vaultCancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	if vaultErr != nil {
		logger.Warn().Err(vaultErr).Str("path", vaultResult.Path).Msg("failed to load secrets from Vault")
	} else if vaultResult.Enabled {
		logger.Info().Strs("loaded", vaultResult.Loaded).Strs("skipped", vaultResult.Skipped).Msg("secrets loaded from Vault")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Engines are pure and load their tables once at startup.
	rules, err := triage.LoadRules(cfg.Engine.TriageRulesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load triage rules")
	}
	timeline, err := recovery.LoadTimeline(cfg.Engine.RecoveryTimelinePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load recovery timeline")
	}
	thresholds := recovery.DefaultThresholds()
	thresholds.FastMaxPercent = cfg.Engine.FastMaxPercent
	thresholds.FastMinEnergy = cfg.Engine.FastMinEnergy

	triageEngine := triage.NewEngine(rules, nil)
	recoveryEngine := recovery.NewEngine(timeline, thresholds)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	pgClient.WithMetrics(metrics)

	schemaCtx, schemaCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := pgClient.EnsureSchema(schemaCtx); err != nil {
		schemaCancel()
		logger.Fatal().Err(err).Msg("failed to apply database schema")
	}
	schemaCancel()

	pingers := map[string]handlers.Pinger{"postgres": pgClient}

	// Redis is optional: without it the cache, event bus and insight
	// enrichment are disabled and rate limiting falls back to memory.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable; running without cache and event bus")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient, cfg.Redis.KeyPrefix)
		eventBus = events.NewRedisEventBus(redisClient)
		pingers["redis"] = redisClient
	}

	profileAdapter := database.NewProfileAdapter(pgClient)
	checkInAdapter := database.NewCheckInAdapter(pgClient)
	sampleAdapter := database.NewMetricSampleAdapter(pgClient)
	contactAdapter := database.NewEmergencyContactAdapter(pgClient)

	var sender providers.MessageSender
	if cfg.WhatsApp.WhatsAppEnabled() {
		waSender, err := notifications.NewWhatsAppCloudSender(&cfg.WhatsApp)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize WhatsApp sender; replies will not be delivered")
		} else {
			sender = waSender
		}
	} else {
		logger.Warn().Msg("WhatsApp credentials not set; replies will not be delivered")
	}

	var insightProvider providers.InsightProvider = insights.NewMockInsightProvider()
	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize OpenAI client; using mock insights")
		} else {
			defer openaiClient.Close()
			insightProvider = openaiClient
		}
	}

	notifier := services.NewEmergencyNotificationService(contactAdapter, sender, triageEngine, cfg.WhatsApp.AlertTemplate)

	triageService := services.NewTriageService(services.TriageServiceDeps{
		Engine:            triageEngine,
		Profiles:          profileAdapter,
		CheckIns:          checkInAdapter,
		Notifier:          notifier,
		EventBus:          eventBus,
		Cache:             cacheProvider,
		Metrics:           metrics,
		DefaultLanguage:   entities.NormalizeLanguage(cfg.Engine.DefaultLanguage),
		SideEffectTimeout: cfg.Engine.SideEffectTimeout,
	})
	recoveryService := services.NewRecoveryService(services.RecoveryServiceDeps{
		Engine:            recoveryEngine,
		Profiles:          profileAdapter,
		Samples:           sampleAdapter,
		Cache:             cacheProvider,
		EventBus:          eventBus,
		Metrics:           metrics,
		SideEffectTimeout: cfg.Engine.SideEffectTimeout,
	})
	profileService := services.NewProfileService(profileAdapter, contactAdapter).WithCache(cacheProvider)

	var enrichmentService *services.InsightEnrichmentService
	if cacheProvider != nil && eventBus != nil {
		enrichmentService = services.NewInsightEnrichmentService(insightProvider, cacheProvider, eventBus, metrics, cfg.Insights.CacheTTL)
		if err := enrichmentService.Start(); err != nil {
			logger.Warn().Err(err).Msg("failed to start insight enrichment")
			enrichmentService = nil
		}
	}

	router := routes.NewRouter(
		handlers.NewWhatsAppWebhookHandler(triageService, sender, cacheProvider, cfg.WhatsApp.VerifyToken, cfg.WhatsApp.AppSecret),
		handlers.NewTriageHandler(triageService, cacheProvider),
		handlers.NewRecoveryHandler(recoveryService),
		handlers.NewProfileHandler(profileService),
		handlers.NewHealthHandler(pingers),
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	// Let in-flight check-ins and alerts finish before closing their stores.
	if err := triageService.Drain(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("triage side effects did not finish")
	}
	if err := recoveryService.Drain(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("recovery side effects did not finish")
	}

	if enrichmentService != nil {
		enrichmentService.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	}

	logger.Info().Msg("server stopped")
}
