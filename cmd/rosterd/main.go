package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/roster/pkg/api"
	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/config"
	"github.com/platinummonkey/roster/pkg/kvstore"
	"github.com/platinummonkey/roster/pkg/membership"
	"github.com/platinummonkey/roster/pkg/observability"
	"github.com/platinummonkey/roster/pkg/repository"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	seedFile := flag.String("seed", "", "YAML snapshot to import at startup (overrides ROSTER_SEED_FILE)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *seedFile != "" {
		cfg.Membership.SeedFile = *seedFile
	}

	log := setupLogger(cfg.Observability.LogLevel)
	log.WithField("version", version).Info("Starting roster")

	if err := run(cfg, log); err != nil {
		log.Fatalf("roster exited: %v", err)
	}
}

func setupLogger(level observability.LogLevel) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level.String())
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx := context.Background()
	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).WithField("service", "roster")
	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}
	shutdown.RegisterShutdownFunc("otel", providers.Shutdown)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	connectTimeout := cfg.Store.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = kvstore.DefaultConfig().ConnectTimeout
	}
	openCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	store, err := kvstore.Open(openCtx, cfg.Store, metrics)
	cancel()
	if err != nil {
		return err
	}
	shutdown.RegisterShutdownFunc("store", func(context.Context) error { return kvstore.Close(store) })
	log.WithField("backend", cfg.Store.Type).Info("Key-value store opened")

	auditStore, auditLogger, err := openAudit(cfg, store, shutdown)
	if err != nil {
		return err
	}

	svc := membership.NewService(
		repository.New(store, cfg.Membership.KeyPrefix),
		membership.Config{
			VerifyInvariants:   cfg.Membership.VerifyInvariants,
			DefaultChannelName: cfg.Membership.DefaultChannelName,
		},
		membership.WithLogger(logger),
		membership.WithMetrics(metrics),
		membership.WithAuditLogger(auditLogger),
	)

	if cfg.Membership.SeedFile != "" {
		if err := svc.ImportSeedFile(ctx, cfg.Membership.SeedFile); err != nil {
			return err
		}
		log.WithField("file", cfg.Membership.SeedFile).Info("Seed snapshot imported")
	}

	if auditStore != nil && cfg.Audit.RetentionDays > 0 && cfg.Audit.CleanupSchedule != "" {
		scheduler, err := scheduleRetention(cfg.Audit, auditStore, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		shutdown.RegisterShutdownFunc("cron", func(ctx context.Context) error {
			select {
			case <-scheduler.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	opts := []api.Option{api.WithLogger(logger), api.WithMetrics(metrics)}
	if auditStore != nil {
		opts = append(opts, api.WithAuditStore(auditStore))
	}
	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      otelhttp.NewHandler(api.NewServer(svc, opts...), "roster-api"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	checker := observability.NewHealthChecker(version)
	checker.AddDependency("store", observability.PingFunc(func(ctx context.Context) error {
		return kvstore.Ping(ctx, store)
	}), true)
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, checker)
	healthMux.Handle("/metrics", observability.MetricsHandler(registry))
	healthServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown.AddServer(apiServer)
	shutdown.AddServer(healthServer)

	serveErr := make(chan error, 2)
	for _, srv := range []*http.Server{apiServer, healthServer} {
		go func(srv *http.Server) {
			log.WithField("addr", srv.Addr).Info("Listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}(srv)
	}

	waitCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		if err := <-serveErr; err != nil {
			log.WithError(err).Error("Server failed")
			stop()
		}
	}()

	return shutdown.WaitForShutdown(waitCtx)
}

// openAudit builds the audit sinks. The key-value log backs the /audit
// routes; a file sink is added alongside it when configured.
func openAudit(cfg *config.Config, store kvstore.Store, shutdown *observability.ShutdownManager) (audit.Store, audit.Logger, error) {
	if !cfg.Audit.Enabled {
		return nil, audit.NoopLogger(), nil
	}

	kvLog := audit.NewKVLogger(store, cfg.Membership.KeyPrefix+"audit", cfg.Audit.MaxEvents)
	if cfg.Audit.FilePath == "" {
		return kvLog, kvLog, nil
	}

	fileCfg := audit.DefaultFileLoggerConfig()
	fileCfg.BasePath = cfg.Audit.FilePath
	if cfg.Audit.MaxFileSize > 0 {
		fileCfg.MaxSize = cfg.Audit.MaxFileSize
	}
	fileLog, err := audit.NewFileLogger(fileCfg)
	if err != nil {
		return nil, nil, err
	}

	multi := audit.NewMultiLogger(kvLog, fileLog)
	shutdown.RegisterShutdownFunc("audit", func(context.Context) error { return multi.Close() })
	return kvLog, multi, nil
}

// scheduleRetention runs audit Cleanup on cfg.CleanupSchedule
func scheduleRetention(cfg config.AuditConfig, store audit.Store, logger *observability.Logger) (*cron.Cron, error) {
	c := cron.New()
	policy := audit.RetentionPolicy{RetentionDays: cfg.RetentionDays}

	_, err := c.AddFunc(cfg.CleanupSchedule, func() {
		defer observability.RecoverPanic(logger, "audit retention")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := store.Cleanup(ctx, policy)
		if err != nil {
			logger.WithError(err).Error("Audit retention failed")
			return
		}
		logger.WithField("removed", removed).Info("Audit retention complete")
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
