// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health checks and graceful shutdown.
//
// # Structured Logging
//
// Logger writes JSON lines through log/slog:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("operation", "CreateGroup").Info("operation committed")
//
// Request-scoped fields travel on the context:
//
//	ctx = observability.WithRequestID(ctx, id)
//	observability.FromContext(ctx).WithError(err).Error("request failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordOperation("JoinChannel", "Banned", time.Since(start))
//	http.Handle("/metrics", observability.MetricsHandler(registry))
//
// A nil *Metrics is valid for the Record helpers and records nothing.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddDependency("store", observability.PingFunc(pingStore), true)
//	observability.RegisterHealthRoutes(mux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "roster",
//	}, logger)
//	defer providers.Shutdown(ctx)
//
// # Shutdown
//
//	sm := observability.NewShutdownManager(logger, 30*time.Second)
//	sm.AddServer(apiServer)
//	sm.RegisterShutdownFunc("store", closeStore)
//	err := sm.WaitForShutdown(ctx)
package observability
