package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	aliasmetrics "linkpulse/internal/alias/metrics"
	aliasstore "linkpulse/internal/alias/store"
	analyticshandler "linkpulse/internal/analytics/handler"
	analyticsmetrics "linkpulse/internal/analytics/metrics"
	analyticsservice "linkpulse/internal/analytics/service"
	"linkpulse/internal/platform/config"
	"linkpulse/internal/platform/httpserver"
	"linkpulse/internal/platform/kafka"
	"linkpulse/internal/platform/logger"
	"linkpulse/internal/platform/metrics"
	"linkpulse/internal/platform/middleware"
	"linkpulse/internal/platform/postgres"
	"linkpulse/internal/platform/redis"
	redirecthandler "linkpulse/internal/redirect/handler"
	redirectmetrics "linkpulse/internal/redirect/metrics"
	redirectservice "linkpulse/internal/redirect/service"
	"linkpulse/internal/visit/fingerprint"
	"linkpulse/internal/visit/publisher"
	visitstore "linkpulse/internal/visit/store"
	"linkpulse/pkg/platform/circuit"
	"linkpulse/pkg/platform/httputil"
	"linkpulse/pkg/platform/middleware/metadata"
	"linkpulse/pkg/platform/middleware/requesttime"
)

// dependency is anything /healthz reports on.
type dependency interface {
	Health(ctx context.Context) error
	Name() string
}

// stores pairs the registry and ledger of one backend. cached is the registry the
// resolver reads through; registry is the backing store analytics reads from.
type stores struct {
	registry aliasstore.Registry
	cached   aliasstore.Registry
	ledger   visitstore.Ledger
	deps     []dependency
	closers  []func() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "linkpulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range st.closers {
			if err := c(); err != nil {
				log.Warn("close dependency", "error", err)
			}
		}
	}()

	if cfg.SeedFile != "" {
		n, err := aliasstore.LoadSeed(ctx, cfg.SeedFile, st.registry, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		log.Info("seed loaded", "file", cfg.SeedFile, "aliases", n)
	}

	events, producer, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	if producer != nil {
		st.deps = append(st.deps, producer)
	}

	resolver, err := redirectservice.New(st.cached, st.ledger, fingerprint.New([]byte(cfg.FingerprintKey)),
		redirectservice.WithLogger(log),
		redirectservice.WithMetrics(redirectmetrics.New()),
		redirectservice.WithPublisher(events),
		redirectservice.WithRecordTimeout(cfg.RecordTimeout),
	)
	if err != nil {
		return fmt.Errorf("redirect service: %w", err)
	}
	analytics, err := analyticsservice.New(st.registry, st.ledger,
		analyticsservice.WithLogger(log),
		analyticsservice.WithMetrics(analyticsmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("analytics service: %w", err)
	}

	r := newRouter(log, cfg.Server.RequestTimeout, metrics.New(), st.deps,
		redirecthandler.New(resolver, log),
		analyticshandler.New(analytics, log),
	)

	srv := httpserver.New(cfg.Server.Addr, r, cfg.Server.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting linkpulse", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if producer != nil {
			err = errors.Join(err, producer.Shutdown(shutdownCtx))
		}
		return err
	})
	return g.Wait()
}

func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{}
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		if cfg.Store.AutoMigrate {
			if err := postgres.Migrate(cfg.Store.DatabaseURL, log); err != nil {
				return nil, err
			}
		}
		db, err := postgres.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		st.registry = aliasstore.NewPostgres(db.DB, aliasstore.WithQueryTimeout(cfg.Store.Timeout))
		st.ledger = visitstore.NewPostgres(db.DB, visitstore.WithQueryTimeout(cfg.Store.Timeout))
		st.deps = append(st.deps, db)
		st.closers = append(st.closers, db.Close)
	default:
		mem := aliasstore.NewInMemory()
		st.registry = mem
		st.ledger = visitstore.NewInMemory()
		st.deps = append(st.deps, mem)
	}
	st.cached = st.registry

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		cacheMetrics := aliasmetrics.New()
		st.cached = aliasstore.NewCached(st.registry, rdb.Client, cfg.Redis.TTL,
			aliasstore.WithCacheMetrics(cacheMetrics),
			aliasstore.WithCacheLogger(log),
			aliasstore.WithBreaker(circuit.New("redis")),
			aliasstore.WithLookupTimeout(cfg.Store.Timeout),
		)
		st.deps = append(st.deps, rdb)
		st.closers = append(st.closers, rdb.Close)
		log.Info("alias cache enabled", "ttl", cfg.Redis.TTL)
	}
	return st, nil
}

func buildPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) (redirectservice.EventPublisher, *kafka.Client, error) {
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if producer == nil {
		return publisher.Noop{}, nil, nil
	}
	if cfg.Kafka.EnsureTopic {
		if err := kafka.EnsureTopic(ctx, producer.Client, cfg.Kafka.Topic, cfg.Kafka.Partitions); err != nil {
			producer.Close()
			return nil, nil, err
		}
	}
	log.Info("visit events enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return publisher.NewKafka(producer, publisher.WithLogger(log), publisher.WithMetrics(publisher.NewMetrics())), producer, nil
}

// routes is implemented by the feature handlers.
type routes interface {
	Register(r chi.Router)
}

func newRouter(log *slog.Logger, requestTimeout time.Duration, m *metrics.Metrics, deps []dependency, handlers ...routes) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Latency(m))

	for _, h := range handlers {
		h.Register(r)
	}
	r.Get("/healthz", healthHandler(deps))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func healthHandler(deps []dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(deps))
		for _, d := range deps {
			if err := d.Health(ctx); err != nil {
				report[d.Name()] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			report[d.Name()] = "ok"
		}
		httputil.WriteJSON(w, status, report)
	}
}
