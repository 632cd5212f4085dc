package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/HanTheDev/lead-signal-pipeline/internal/alerts"
	"github.com/HanTheDev/lead-signal-pipeline/internal/api"
	"github.com/HanTheDev/lead-signal-pipeline/internal/cache"
	"github.com/HanTheDev/lead-signal-pipeline/internal/config"
	"github.com/HanTheDev/lead-signal-pipeline/internal/db"
	"github.com/HanTheDev/lead-signal-pipeline/internal/memstore"
	"github.com/HanTheDev/lead-signal-pipeline/internal/notify"
	"github.com/HanTheDev/lead-signal-pipeline/internal/processor"
	"github.com/HanTheDev/lead-signal-pipeline/internal/ratelimit"
	"github.com/HanTheDev/lead-signal-pipeline/internal/recorder"
	"github.com/HanTheDev/lead-signal-pipeline/internal/reports"
	"github.com/HanTheDev/lead-signal-pipeline/internal/rules"
	"github.com/HanTheDev/lead-signal-pipeline/internal/scoring"
	"github.com/HanTheDev/lead-signal-pipeline/internal/signals"
	"github.com/HanTheDev/lead-signal-pipeline/internal/summary"
	"github.com/HanTheDev/lead-signal-pipeline/internal/throttle"
	"github.com/redis/go-redis/v9"
)

// store is everything the pipeline persists. Both db.DB and memstore.Store
// satisfy it.
type store interface {
	recorder.EventStore
	summary.Store
	alerts.ConfigProvider
	alerts.AlertLog
	reports.Store
	api.TenantStore
}

type transport interface {
	alerts.Transport
	Close() error
}

type pipeline struct {
	store     store
	processor *processor.Processor
	reports   *reports.Service
	limiter   *ratelimit.RateLimiter

	closers []func()
}

// buildPipeline wires the stores, caches and transports named by cfg.
// Without DATABASE_URL events live in memory; without a reachable Redis the
// throttle falls back to process-local state and reads skip the cache.
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	p := &pipeline{}

	table, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		database, err := db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		p.store = database
		p.closers = append(p.closers, database.Close)
	} else {
		log.Println("⚠️ DATABASE_URL not set, using in-memory store")
		p.store = memstore.New()
	}

	var (
		throttleStore throttle.Store = throttle.NewMemoryStore()
		summaryCache  cache.SummaryCache
	)

	client, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("⚠️ Redis unavailable (%v), throttling in-process without summary cache", err)
	} else {
		throttleStore = throttle.NewRedisStore(client)
		summaryCache = cache.NewSummaryCache(client, cache.DefaultSummaryTTL)
		p.limiter = ratelimit.NewRateLimiter(client)
		p.closers = append(p.closers, func() { client.Close() })
	}

	sender, err := newTransport(cfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.closers = append(p.closers, func() { sender.Close() })

	aggregator := summary.NewAggregator(p.store, summaryCache)
	rec := recorder.New(p.store, aggregator)
	dispatcher := alerts.NewDispatcher(p.store, sender, throttleStore,
		alerts.WithHistory(p.store),
		alerts.WithWindow(cfg.ThrottleWindow),
		alerts.WithDefaultLocation(cfg.DefaultTimezone),
	)

	p.processor = processor.New(signals.NewExtractor(table), scoring.NewScorer(table), rec, dispatcher)
	p.reports = reports.NewService(p.store, summaryCache)

	return p, nil
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

func newTransport(cfg *config.Config) (transport, error) {
	if cfg.AlertTransport == config.TransportKafka {
		t, err := notify.NewKafkaTransport(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to create alert transport: %w", err)
		}
		log.Printf("📤 Alerts published to Kafka topic %s", cfg.KafkaAlertTopic)
		return t, nil
	}

	log.Println("📤 Alerts written to the log")
	return notify.NewLogTransport(), nil
}

// Close releases resources in reverse order of acquisition.
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}
