package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"mailbridge/internal/config"
	"mailbridge/internal/constants"
	"mailbridge/internal/ledger"
	"mailbridge/internal/logger"
	"mailbridge/internal/pipeline"
	"mailbridge/internal/rules"
	"mailbridge/internal/sink"
	"mailbridge/internal/source"
	"mailbridge/pkg/health"
	"mailbridge/pkg/metrics"
	"mailbridge/pkg/models"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger

	redis    *redis.Client
	ledger   ledger.Ledger
	sink     sink.Sink
	source   source.Source
	pipeline *pipeline.Pipeline
	loop     *pipeline.Loop
	server   *http.Server

	sampleSource bool
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugared, ok := log.(*logger.SugaredLogger); ok {
		sugared.SetComponent("bridge")
	}
	return &App{cfg: cfg, logger: log}
}

// UseSampleSource swaps the configured source for the built-in sample
// feed. Only the check command uses this.
func (a *App) UseSampleSource(enabled bool) {
	a.sampleSource = enabled
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.RegisterBridgeMetrics()
	if a.cfg.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initLedger(ctx); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	a.initSink()

	if err := a.initSource(); err != nil {
		return fmt.Errorf("failed to initialize source: %w", err)
	}

	ruleEngine, err := a.initRules()
	if err != nil {
		return fmt.Errorf("failed to initialize filter rules: %w", err)
	}

	a.pipeline = pipeline.New(
		a.cfg.Forwarding,
		a.sink,
		a.ledger,
		ruleEngine,
		a.cfg.Ledger.OnError,
		a.logger,
	)
	a.loop = pipeline.NewLoop(
		a.pipeline,
		a.source,
		a.cfg.Forwarding.CheckInterval(),
		a.cfg.Forwarding.MaxMessagesPerCheck,
		a.logger,
	)

	a.initHTTPServer()
	return nil
}

func (a *App) initLedger(ctx context.Context) error {
	switch a.cfg.Ledger.Type {
	case constants.LedgerTypeRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(a.cfg.Ledger.Redis.Host, strconv.Itoa(a.cfg.Ledger.Redis.Port)),
			Password: a.cfg.Ledger.Redis.Password,
			DB:       a.cfg.Ledger.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		a.redis = rdb

		ttl := time.Duration(a.cfg.Ledger.TTLSeconds) * time.Second
		base := ledger.NewRedisLedger(rdb, ttl)
		if a.cfg.CircuitBreaker.Enabled {
			a.logger.Infow("Circuit breaker enabled for ledger")
			a.ledger = ledger.NewCircuitBreakerLedger(base, a.cfg.CircuitBreaker)
		} else {
			a.ledger = base
		}
	default:
		a.ledger = ledger.NewMemoryLedger()
	}

	return nil
}

func (a *App) initSink() {
	if a.cfg.Forwarding.TestMode {
		a.sink = sink.NewSimulatedSink(a.logger)
	} else {
		a.sink = sink.NewSMTPSink(a.cfg.SMTP, a.logger)
	}

	if a.cfg.Forwarding.SendRatePerSecond > 0 {
		a.sink = sink.NewRateLimitedSink(a.sink, a.cfg.Forwarding.SendRatePerSecond, a.cfg.Forwarding.SendBurst)
	}
}

func (a *App) initSource() error {
	if a.sampleSource {
		a.source = source.NewStaticSource(source.SampleRecords(time.Now())...)
		return nil
	}

	switch a.cfg.Source.Type {
	case constants.SourceTypeKafka:
		a.source = source.NewKafkaSource(a.cfg.Source.Kafka, a.logger)
	case constants.SourceTypeStatic:
		a.source = source.NewStaticSource()
	default:
		return fmt.Errorf("unknown source type: %s", a.cfg.Source.Type)
	}

	return nil
}

func (a *App) initRules() (*rules.Engine, error) {
	if len(a.cfg.Rules.Expressions) == 0 {
		return nil, nil
	}
	return rules.NewEngine(a.cfg.Rules, a.logger)
}

func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}
	if !a.cfg.Forwarding.TestMode && a.cfg.SMTP.Host != "" {
		addr := net.JoinHostPort(a.cfg.SMTP.Host, strconv.Itoa(a.cfg.SMTP.Port))
		healthRegistry.Register(health.NewDialChecker("smtp", addr, constants.SMTPDialTimeout))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: mux,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "HTTP server starting", "port", a.cfg.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.loop.Run(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

// CheckOnce performs a single fetch-and-process pass without starting the
// loop or the HTTP server.
func (a *App) CheckOnce(ctx context.Context) (models.BatchSummary, error) {
	defer a.close()
	return a.loop.RunOnce(ctx)
}

func (a *App) close() {
	if closer, ok := a.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warnw("Source close error", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warnw("Redis close error", "error", err)
		}
	}
}
