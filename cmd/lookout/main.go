package main

import (
	"strings"
	"time"

	"lookout/internal/analytics"
	"lookout/internal/auth"
	"lookout/internal/config"
	"lookout/internal/database"
	"lookout/internal/events"
	"lookout/internal/handlers"
	"lookout/internal/logging"
	"lookout/internal/metrics"
	"lookout/internal/middleware"
	"lookout/internal/models"
	"lookout/internal/monitoring"
	"lookout/internal/profiles"
	"lookout/internal/recommend"
	"lookout/internal/review"
	"lookout/internal/scheduler"
	"lookout/internal/server"
	"lookout/internal/store"
	"lookout/internal/version"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("lookout")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Lookout (Content Review API)")

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = config.GetEnv("DATABASE_URL", "")
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	if err := database.ApplySchema(db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to apply database schema")
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("lookout", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("lookout", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": config.GetEnv("DATABASE_URL", ""),
		"JWT_SECRET":   config.GetEnv("JWT_SECRET", ""),
	}))

	// Create review service metrics
	serviceMetrics := &metrics.Metrics{
		FeedbackEvents:           metricsCollector.NewCounter("feedback_events_total", "Feedback events recorded", []string{"feedback_type"}),
		SuggestionsIngested:      metricsCollector.NewCounter("suggestions_ingested_total", "Suggestions ingested from generators", []string{"platform", "content_type"}),
		BatchActions:             metricsCollector.NewCounter("batch_actions_total", "Batch review actions applied", []string{"action"}),
		RecommendationRuns:       metricsCollector.NewCounter("recommendation_runs_total", "Recommendation engine runs", []string{"status"}),
		RecommendationsProposed:  metricsCollector.NewCounter("recommendations_proposed_total", "Recommendations proposed or refreshed", nil),
		RecommendationRunSeconds: metricsCollector.NewHistogram("recommendation_run_duration_seconds", "Recommendation engine run duration", nil, nil),
	}

	// Optional Kafka publisher for committed feedback events
	var sink review.EventSink
	if brokersEnv := config.GetEnv("KAFKA_BROKERS", ""); brokersEnv != "" {
		publisher, err := events.NewPublisher(strings.Split(brokersEnv, ","), logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka publisher")
		}
		defer publisher.Close()
		sink = publisher
		healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(publisher.Client()))
	}

	// Stores and services
	suggestionStore := store.NewSuggestionStore(db)
	feedbackLedger := store.NewFeedbackLedger(db)
	recommendationStore := store.NewRecommendationStore(db)
	aggregator := analytics.NewAggregator(db, feedbackLedger)

	reviewService := review.NewService(db, logger, sink)
	reviewService.OnTransition(func(feedbackType models.FeedbackType) {
		serviceMetrics.FeedbackEvents.WithLabelValues(string(feedbackType)).Inc()
	})

	profileProvider := profiles.NewCachedProvider(
		profiles.NewSQLProvider(db),
		config.GetEnvDuration("PROFILE_CACHE_TTL", 5*time.Minute),
	)

	engineConfig := recommend.DefaultConfig()
	engineConfig.MinTrainingSamples = config.GetEnvInt("REC_MIN_TRAINING_SAMPLES", engineConfig.MinTrainingSamples)
	engineConfig.DeviationMargin = config.GetEnvFloat("REC_DEVIATION_MARGIN", engineConfig.DeviationMargin)
	engineConfig.Lookback = config.GetEnvDuration("REC_LOOKBACK", engineConfig.Lookback)
	engine := recommend.NewEngine(feedbackLedger, recommendationStore, profileProvider, logger, engineConfig)
	engine.OnRun(func(created int, duration time.Duration, err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		serviceMetrics.RecommendationRuns.WithLabelValues(status).Inc()
		serviceMetrics.RecommendationsProposed.With(prometheus.Labels{}).Add(float64(created))
		serviceMetrics.RecommendationRunSeconds.With(prometheus.Labels{}).Observe(duration.Seconds())
	})

	// Periodic engine runs for tenants with fresh feedback
	recScheduler := scheduler.NewScheduler(feedbackLedger, engine,
		config.GetEnvDuration("REC_RUN_INTERVAL", 15*time.Minute), logger)
	recScheduler.Start()
	defer recScheduler.Stop()

	h := handlers.New(logger, suggestionStore, feedbackLedger, recommendationStore,
		reviewService, aggregator, engine, serviceMetrics)

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "lookout", healthChecker, metricsCollector)

	jwtSecret := []byte(config.GetEnv("JWT_SECRET", "default-jwt-secret"))
	requestTimeout := config.GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second)

	// Ingest route (requires service token authentication)
	ingest := router.Group("/api")
	ingest.Use(auth.ServiceAuthMiddleware(config.GetEnv("SERVICE_TOKEN", "default-service-token")))
	{
		ingest.POST("/content/suggestions", h.CreateSuggestion)
	}

	// Tenant routes (require JWT authentication)
	api := router.Group("/api/content")
	api.Use(auth.JWTAuthMiddleware(jwtSecret))
	api.Use(middleware.TimeoutMiddleware(requestTimeout))
	{
		api.GET("/suggestions", h.ListSuggestions)
		api.GET("/suggestions/:id", h.GetSuggestion)
		api.GET("/suggestions/:id/feedback", h.ListFeedback)
		api.POST("/suggestions/:id/feedback", h.SubmitFeedback)
		api.POST("/suggestions/batch-action", h.BatchAction)

		api.GET("/analytics/summary", h.AnalyticsSummary)

		api.GET("/recommendations", h.ListRecommendations)
		api.POST("/recommendations/:id/status", h.UpdateRecommendationStatus)
		api.POST("/recommendations/run", h.RunRecommendations)
	}

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("lookout", "18010")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
