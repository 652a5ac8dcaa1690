// cmd/worker/main.go
//
// A second deployable alongside cmd/server: runs only the background
// work (session expiry sweep, event consumer groups, the rising-decay and
// evergreen-recompute cron jobs) so it can be scaled and restarted
// independently of the HTTP edge.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"feedranker/internal/config"
	"feedranker/internal/events"
	"feedranker/internal/jobs"
	"feedranker/internal/postmetrics"
	"feedranker/internal/poststore"
	"feedranker/internal/profilestore"
	"feedranker/internal/session"
	"feedranker/internal/sessionstore"
	"feedranker/internal/utils"

	"github.com/go-redis/redis/v8"
)

func main() {
	if err := godotenv.Load(); err != nil {
		zerolog.New(os.Stdout).Info().Msg("no .env file found, using environment variables")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", utils.AppName+"-worker").Logger()

	cfg := config.MustLoad()

	logger.Info().Msg("initializing MongoDB connection")
	config.InitDB()
	defer config.Disconnect()

	redisOpts, err := redisOptions(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid redis configuration")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	profiles := profilestore.New(config.DB)
	posts := poststore.New(config.DB)
	sessions := sessionstore.New(redisClient)
	metricsEngine := postmetrics.New(posts, profiles)
	sessionManager := session.NewManager(profiles, sessions)

	ctx, stop := context.WithCancel(context.Background())

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
		logger.Fatal().Err(err).Msg("engagement-stats subscriber init failed")
	}
	counters := &events.Counters{Posts: posts, Profiles: profiles}
	engagementConsumer := events.NewEngagementStatsConsumer(counters, logger)
	go func() {
		if err := engagementSub.Run(ctx, events.TopicEngagementEvents, engagementConsumer.HandleMessage); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("engagement-stats consumer stopped")
		}
	}()

	scoreSub, err := events.NewSubscriber(events.SubscriberConfig{
		URL:           cfg.NATS.URL,
		QueueGroup:    events.ConsumerGroupHourlyAggregator,
		DurableName:   events.ConsumerGroupHourlyAggregator,
		MaxDeliver:    cfg.NATS.MaxDeliver,
		MaxAckPending: cfg.NATS.MaxAckPending,
	}, wmLogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("hourly-aggregator subscriber init failed")
	}
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

	logger.Info().Msg("worker started: expiry sweep, event consumers, scheduled jobs")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("shutting down worker")

	scheduler.Stop()
	stop()
	engagementSub.Close()
	scoreSub.Close()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 30*time.Second)
	aggregator.FlushAll(flushCtx)
	flushCancel()
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
