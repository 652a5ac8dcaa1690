// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"feedranker/internal/config"
	"feedranker/internal/creator"
	"feedranker/internal/engagement"
	"feedranker/internal/events"
	"feedranker/internal/feed"
	"feedranker/internal/handlers"
	"feedranker/internal/interest"
	"feedranker/internal/jobs"
	"feedranker/internal/middleware"
	"feedranker/internal/postmetrics"
	"feedranker/internal/poststore"
	"feedranker/internal/profilestore"
	"feedranker/internal/routes"
	"feedranker/internal/session"
	"feedranker/internal/sessionstore"
	"feedranker/internal/utils"
	"feedranker/migrations"

	"github.com/go-redis/redis/v8"
)

func main() {
	if err := godotenv.Load(); err != nil {
		zerolog.New(os.Stdout).Info().Msg("no .env file found, using environment variables")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", utils.AppName).Logger()

	cfg := config.MustLoad()
	cfg.PrintConfig()

	logger.Info().Msg("initializing MongoDB connection")
	config.InitDB()
	defer config.Disconnect()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migrations.RunAllMigrations(migrateCtx, config.DB); err != nil {
		migrateCancel()
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	migrateCancel()

	redisOpts, err := redisOptions(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid redis configuration")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis ping failed, continuing (fast-store ops will error until it recovers)")
	}
	pingCancel()

	gin.SetMode(cfg.Server.Mode)

	profiles := profilestore.New(config.DB)
	posts := poststore.New(config.DB)
	sessions := sessionstore.New(redisClient)
	metricsEngine := postmetrics.New(posts, profiles)
	interestService := interest.NewService(profiles)
	creatorService := creator.NewService()

	wmLogger := watermill.NewStdLogger(false, false)
	producer, err := events.NewProducer(events.ProducerConfig{
		URL:           cfg.NATS.URL,
		MaxReconnects: cfg.NATS.MaxReconnects,
		ReconnectWait: cfg.NATS.ReconnectWaitSec,
	}, wmLogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize event producer")
	}
	defer producer.Close()

	controller := engagement.NewController(posts, metricsEngine, interestService, creatorService, profiles, sessions, producer)
	assembler := feed.NewAssembler(profiles, sessions, posts, profiles)
	sessionManager := session.NewManager(profiles, sessions)

	jwtService := utils.NewJWTService()
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	sessionMiddleware := middleware.NewSessionMiddleware(sessionManager)

	engagementHandler := handlers.NewEngagementHandler(controller)
	feedHandler := handlers.NewFeedHandler(assembler)
	followHandler := handlers.NewFollowHandler(controller)

	apiRouter := routes.NewAPIRouter(engagementHandler, feedHandler, followHandler, authMiddleware, sessionMiddleware)

	router := gin.New()
	router.Use(gin.Recovery())
	routes.SetupRoutes(router, apiRouter, logger)

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	startBackgroundWork(workerCtx, cfg, logger, profiles, posts, sessions, sessionManager, metricsEngine)

	go func() {
		logger.Info().Str("addr", cfg.GetServerAddr()).Msg("feed ranker listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	} else {
		logger.Info().Msg("server shutdown complete")
	}
}

// startBackgroundWork launches the expiry sweep, the event consumer groups,
// and the cron-scheduled rising-decay/evergreen jobs. All of it stops when
// ctx is cancelled at shutdown.
func startBackgroundWork(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	profiles *profilestore.Store,
	posts *poststore.Store,
	sessions *sessionstore.Store,
	sessionManager *session.Manager,
	metricsEngine *postmetrics.Engine,
) {
	expiryWorker := session.NewExpiryWorker(sessionManager, sessions, logger)
	go expiryWorker.Run(ctx)

	wmLogger := watermill.NewStdLogger(false, false)

	engagementSub, err := events.NewSubscriber(events.SubscriberConfig{
		URL:           cfg.NATS.URL,
		QueueGroup:    events.ConsumerGroupEngagementStats,
		DurableName:   events.ConsumerGroupEngagementStats,
		MaxDeliver:    cfg.NATS.MaxDeliver,
		MaxAckPending: cfg.NATS.MaxAckPending,
	}, wmLogger)
	if err != nil {
		logger.Error().Err(err).Msg("engagement-stats subscriber init failed, consumer disabled")
	} else {
		counters := &events.Counters{Posts: posts, Profiles: profiles}
		consumer := events.NewEngagementStatsConsumer(counters, logger)
		go func() {
			if err := engagementSub.Run(ctx, events.TopicEngagementEvents, consumer.HandleMessage); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("engagement-stats consumer stopped")
			}
		}()
		go func() { <-ctx.Done(); engagementSub.Close() }()
	}

	scoreSub, err := events.NewSubscriber(events.SubscriberConfig{
		URL:           cfg.NATS.URL,
		QueueGroup:    events.ConsumerGroupHourlyAggregator,
		DurableName:   events.ConsumerGroupHourlyAggregator,
		MaxDeliver:    cfg.NATS.MaxDeliver,
		MaxAckPending: cfg.NATS.MaxAckPending,
	}, wmLogger)
	if err != nil {
		logger.Error().Err(err).Msg("hourly-aggregator subscriber init failed, consumer disabled")
	} else {
		mirror := &events.Metrics{Posts: posts, Engine: metricsEngine}
		aggregator := events.NewHourlyAggregator(sessions, mirror, mirror, logger)

		hydrateCtx, hydrateCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := aggregator.Hydrate(hydrateCtx); err != nil {
			logger.Warn().Err(err).Msg("hourly aggregator: buffer hydrate failed")
		}
		hydrateCancel()

		go func() {
			if err := scoreSub.Run(ctx, events.TopicPostScoreEvents, aggregator.HandleMessage); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("hourly-aggregator consumer stopped")
			}
		}()
		go func() { <-ctx.Done(); scoreSub.Close() }()

		ticker := time.NewTicker(time.Hour)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					flushCtx, flushCancel := context.WithTimeout(context.Background(), 30*time.Second)
					aggregator.Flush(flushCtx)
					flushCancel()
				}
			}
		}()
	}

	scheduler := cron.New()
	risingDecay := jobs.NewRisingDecayJob(profiles, logger)
	evergreen := jobs.NewEvergreenJob(posts, logger)

	if _, err := scheduler.AddFunc("0 3 * * *", func() {
		jobCtx, jobCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer jobCancel()
		risingDecay.Run(jobCtx)
	}); err != nil {
		logger.Error().Err(err).Msg("failed to schedule rising-decay job")
	}

	if _, err := scheduler.AddFunc("0 */2 * * *", func() {
		jobCtx, jobCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer jobCancel()
		evergreen.Run(jobCtx)
	}); err != nil {
		logger.Error().Err(err).Msg("failed to schedule evergreen-recompute job")
	}

	scheduler.Start()
	go func() { <-ctx.Done(); scheduler.Stop() }()
}

func redisOptions(cfg *config.Config) (*redis.Options, error) {
	if cfg.Redis.URL != "" {
		return redis.ParseURL(cfg.Redis.URL)
	}
	return &redis.Options{
		Addr:         cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, nil
}
