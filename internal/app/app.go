// Package app собирает сервис printshop: хранилища, оформление заказов, HTTP API,
// gRPC health, метрики и фоновые воркеры.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/printshop/internal/catalog"
	healthcheck "github.com/vladislavdragonenkov/printshop/internal/health"
	"github.com/vladislavdragonenkov/printshop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/printshop/internal/metrics"
	"github.com/vladislavdragonenkov/printshop/internal/service/cart"
	"github.com/vladislavdragonenkov/printshop/internal/service/fulfillment"
	"github.com/vladislavdragonenkov/printshop/internal/service/idempotency"
	"github.com/vladislavdragonenkov/printshop/internal/service/outbox"
	"github.com/vladislavdragonenkov/printshop/internal/service/pricing"
	"github.com/vladislavdragonenkov/printshop/internal/service/shipping"
	"github.com/vladislavdragonenkov/printshop/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/printshop/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает сервис и блокируется до отмены ctx или падения одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return err
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger.WithField("component", "storage"))
	if err != nil {
		return err
	}
	defer deps.close(logger)

	collabs, err := buildCollaborators(cfg, logger)
	if err != nil {
		return err
	}

	calc := pricing.NewCalculator(
		pricing.WithLogger(logger.WithField("component", "pricing")),
		pricing.WithMetrics(metrics.NewPricingMetrics()),
	)
	estimator := shipping.NewEstimator(cat)
	carts := cart.NewService(cat, calc, estimator, deps.cartRepo, logger.WithField("component", "cart"))

	orders, err := fulfillment.NewService(fulfillment.Dependencies{
		Orders:      deps.repo,
		Idempotency: deps.idempotencyRepo,
		Timeline:    deps.timelineRepo,
		Outbox:      deps.outboxRepo,
		Catalog:     cat,
		Totals:      carts,
		Courier:     collabs.courier,
		Invoicer:    collabs.invoicer,
		Notifier:    collabs.notifier,
	},
		fulfillment.WithLogger(logger.WithField("component", "fulfillment")),
		fulfillment.WithMetrics(metrics.NewCheckoutMetrics()),
		fulfillment.WithIdempotencyTTL(cfg.IdempotencyTTL),
		fulfillment.WithStageTimeout(cfg.StageTimeout),
	)
	if err != nil {
		return err
	}

	// Без брокера producer == nil: события копятся в outbox, backlog виден в /healthz.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, cfg.KafkaClientID, logger)
	defer closeKafka(kafkaProducer, logger)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	defer func() {
		stopWorkers()
		workers.Wait()
	}()
	startWorkers(workerCtx, &workers, cfg, deps, kafkaProducer, logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	for name, checker := range deps.checkers {
		healthHandler.RegisterChecker(name, checker)
	}

	apiHandler := httpapi.NewRouter(httpapi.Deps{
		Catalog:        cat,
		Pricer:         calc,
		Carts:          carts,
		Orders:         orders,
		Shipping:       estimator,
		Authenticator:  httpapi.NewTokenAuthenticator(cfg.AdminToken),
		AllowedOrigins: splitList(cfg.CORSOrigins),
		Logger:         logger.WithField("component", "http-api"),
	})
	if cfg.AdminToken == "" {
		logger.Warn("admin token is not configured, admin endpoints reject every request")
	}

	apiLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = apiLis.Close()
		return fmt.Errorf("listen grpc: %w", err)
	}

	apiSrv := &http.Server{
		Handler:           apiHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer, healthServer := newGRPCServer(logger)
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("HTTP API слушает %s", apiLis.Addr())
		if err := apiSrv.Serve(apiLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http api: %w", err)
		}
	}()
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		runErr = ctx.Err()
	case err := <-errCh:
		runErr = err
	}

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownHTTP(apiSrv, logger)
	stopGRPC(grpcServer, logger)
	shutdownHTTP(metricsSrv, logger)
	return runErr
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// startWorkers запускает outbox publisher (при наличии Kafka) и очистку ключей идемпотентности.
func startWorkers(ctx context.Context, wg *sync.WaitGroup, cfg Config, deps *runtimeDependencies, producer *kafka.Producer, logger *log.Entry) {
	if producer != nil {
		worker := outbox.NewWorker(
			deps.outboxRepo,
			kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic)),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithMetrics(metrics.NewOutboxMetrics()),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	} else {
		logger.Warn("kafka is not configured, outbox publishing is disabled")
	}

	cleanup := idempotency.NewCleanupWorker(
		deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup-worker")),
		idempotency.WithMetrics(metrics.NewCleanupMetrics()),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanup.Run(ctx)
	}()
}

// newGRPCServer создаёт gRPC-сервер со служебными сервисами: health и reflection.
func newGRPCServer(logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)
	return grpcServer, healthServer
}

func stopGRPC(srv *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics и health-пробы.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
