package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/agriflow/marketplace/internal/adapter/handler"
	"github.com/agriflow/marketplace/internal/adapter/messaging"
	"github.com/agriflow/marketplace/internal/adapter/predictor"
	"github.com/agriflow/marketplace/internal/adapter/storage"
	"github.com/agriflow/marketplace/internal/config"
	"github.com/agriflow/marketplace/internal/core/service"
	"github.com/agriflow/marketplace/internal/port"
	"github.com/agriflow/marketplace/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Environment, cfg.ServiceName, cfg.LogLevel)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, closeDB, err := openDatabase(ctx, cfg, log, registry)
	if err != nil {
		return err
	}
	defer closeDB()

	cache, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	publisher = messaging.NewInstrumentedPublisher(publisher, cfg.EventBroker, registry)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	dispatcher := service.NewDispatcher(publisher, cfg.QueueSize, log)
	dispatcher.Start(cfg.WorkerCount)
	defer dispatcher.Close()

	inventory := service.NewInventoryProcessor(db, dispatcher, log)
	svc := handler.Services{
		Listings:  service.NewListingService(db, dispatcher, log),
		Offers:    service.NewOfferService(db, cache, inventory, dispatcher, log),
		Orders:    service.NewOrderService(db, dispatcher, log),
		Cart:      service.NewCartService(db, cache, dispatcher, log),
		Ratings:   service.NewRatingService(db, log),
		Forecasts: service.NewForecastService(
			predictor.NewExecPredictor(cfg.PredictorCommand, cfg.PredictorTimeout, log),
			cache, cfg.ForecastCacheTTL, log,
		),
		Addresses: service.NewAddressService(db, log),
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.LoggingInterceptor(log)))
	handler.RegisterMarketplaceServer(grpcServer, handler.NewGRPCHandler(svc.Offers, svc.Orders, log))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(svc, log, registry).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gRPC server listening", zap.String("address", grpcListener.Addr().String()))
		return grpcServer.Serve(grpcListener)
	})
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("address", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP shutdown incomplete", zap.Error(err))
		}
		log.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		log.Info("gRPC server stopped")
		return nil
	})

	return g.Wait()
}

func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger, registry prometheus.Registerer) (port.DatabaseRepository, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return storage.NewMemoryAdapter(), func() {}, nil
	}

	dsn, err := mysql.ParseDSN(cfg.MySQLDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid MYSQL_DSN: %w", err)
	}
	dsn.ParseTime = true
	dsn.Loc = time.UTC

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQLMaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping mysql: %w", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	registry.MustRegister(collectors.NewDBStatsCollector(db, dsn.DBName))
	log.Info("connected to mysql", zap.String("database", dsn.DBName))

	return storage.NewMySQLAdapter(db), func() { db.Close() }, nil
}

func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.CacheRepository, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-process cache")
		return storage.NewMemoryCache(cfg.IdempotencyTTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	log.Info("connected to redis", zap.String("address", cfg.RedisAddr))

	return storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL), func() { rdb.Close() }, nil
}

func openPublisher(cfg *config.Config, log *zap.Logger) (port.EventPublisher, error) {
	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		return messaging.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.ServiceName, log)
	case config.BrokerKafka:
		log.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return messaging.NewLogPublisher(log), nil
	}
}
