// Package app wires the storefront client's dependencies from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/activity"
	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/commerce"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/internal/session/kv"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/tracing"
)

// ServiceName identifies the client in traces and events.
const ServiceName = "storefront"

// App holds the wired storefront components.
type App struct {
	Session *session.Store
	Catalog *catalog.Service
	Cart    *cart.Engine
	Health  *health.Registry

	cfg            *config.Config
	logger         *slog.Logger
	backend        kv.Store
	producer       *pkgkafka.Producer
	breaker        *httpclient.CircuitBreakerClient
	tracerShutdown func(context.Context) error
}

// New builds every component from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tcfg := tracing.DefaultConfig(ServiceName)
	tcfg.Environment = cfg.Environment
	tcfg.Enabled = cfg.OTelEnabled
	tcfg.OTLPEndpoint = cfg.OTelEndpoint
	tcfg.SampleRate = cfg.OTelSampleRate
	tracerShutdown, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// HTTP client with pacing and a breaker in front of the commerce API.
	hcfg := httpclient.DefaultConfig()
	hcfg.Timeout = cfg.HTTPTimeout
	hcfg.RequestsPerSecond = cfg.RequestsPerSecond
	hcfg.Burst = cfg.RequestBurst
	bcfg := httpclient.DefaultCircuitBreakerConfig("commerce-api")
	bcfg.Timeout = cfg.BreakerTimeout
	bcfg.MinRequests = cfg.BreakerMinReqs
	breaker := httpclient.NewCircuitBreakerClient(httpclient.New(hcfg), bcfg, logger)
	api := commerce.NewClient(cfg.StoreAPIURL, breaker, logger)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}
	logger.Debug("session backend ready", slog.String("backend", cfg.SessionBackend))

	var (
		events   activity.Publisher = activity.Nop{}
		producer *pkgkafka.Producer
	)
	if cfg.ActivityEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = activity.NewKafkaPublisher(producer, logger)
		logger.Debug("activity publishing enabled", slog.Any("brokers", cfg.KafkaBrokers))
	}

	sessCfg := session.Config{
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		ProfileTTL: cfg.AccessTTL,
	}
	store := session.NewStore(backend, api, sessCfg, logger)

	registry := health.NewRegistry(5 * time.Second)
	registry.Register("commerce-api", api.Ping)
	registry.Register("session-"+cfg.SessionBackend, backend.Ping)
	if producer != nil {
		registry.Register("kafka", producer.Ping)
	}

	return &App{
		Session:        store,
		Catalog:        catalog.NewService(api, store, events, logger),
		Cart:           cart.NewEngine(api, store, events, logger),
		Health:         registry,
		cfg:            cfg,
		logger:         logger,
		backend:        backend,
		producer:       producer,
		breaker:        breaker,
		tracerShutdown: tracerShutdown,
	}, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return kv.NewMemory(nil), nil
	case config.BackendRedis:
		client, err := kv.NewRedisClient(ctx, kv.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return kv.NewRedis(client, cfg.SessionNamespace), nil
	default:
		path := cfg.SessionFile
		if path == "" {
			var err error
			if path, err = kv.DefaultFilePath(); err != nil {
				return nil, err
			}
		}
		return kv.NewFile(path, cfg.SessionNamespace, nil), nil
	}
}

// Breaker reports the commerce API breaker state and counts.
func (a *App) Breaker() httpclient.BreakerStatus {
	return a.breaker.Status()
}

// Close flushes pending events and spans and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}
	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session backend: %w", err))
	}
	if err := a.tracerShutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
