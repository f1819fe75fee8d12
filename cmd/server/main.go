package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fekuna/omnipos-stock-ledger/config"
	"github.com/fekuna/omnipos-stock-ledger/internal/customer"
	"github.com/fekuna/omnipos-stock-ledger/internal/database"
	"github.com/fekuna/omnipos-stock-ledger/internal/inventory"
	"github.com/fekuna/omnipos-stock-ledger/internal/ledger"
	"github.com/fekuna/omnipos-stock-ledger/internal/lock"
	"github.com/fekuna/omnipos-stock-ledger/internal/logger"
	"github.com/fekuna/omnipos-stock-ledger/internal/memstore"
	"github.com/fekuna/omnipos-stock-ledger/internal/metrics"
	"github.com/fekuna/omnipos-stock-ledger/internal/product"
	"github.com/fekuna/omnipos-stock-ledger/internal/reconcile"
	"github.com/fekuna/omnipos-stock-ledger/internal/server"

	custH "github.com/fekuna/omnipos-stock-ledger/internal/customer/handler"
	custRepoPkg "github.com/fekuna/omnipos-stock-ledger/internal/customer/repository"
	custUCPkg "github.com/fekuna/omnipos-stock-ledger/internal/customer/usecase"

	invH "github.com/fekuna/omnipos-stock-ledger/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-stock-ledger/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-stock-ledger/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-stock-ledger/internal/inventory/usecase"

	ledgerRepoPkg "github.com/fekuna/omnipos-stock-ledger/internal/ledger/repository"

	prodH "github.com/fekuna/omnipos-stock-ledger/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-stock-ledger/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-stock-ledger/internal/product/usecase"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type repositories struct {
	products  product.Repository
	customers customer.Repository
	ledger    ledger.Repository
	stock     inventory.Repository
	db        *sqlx.DB
}

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Storage
	repos, err := openStorage(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Could not initialise storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	// 4. Stock locks
	locker, closeLocker, err := openLocker(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Could not initialise stock locks", zap.String("driver", cfg.Lock.Driver), zap.Error(err))
	}
	defer closeLocker()

	// 5. Initialize UseCases
	reg := metrics.NewRegistry()
	prodUC := prodUCPkg.NewProductUseCase(repos.products, appLogger)
	custUC := custUCPkg.NewCustomerUseCase(repos.customers, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(
		repos.products, repos.customers, repos.ledger, repos.stock,
		locker, reg, appLogger, cfg.Stock.ApplyRetries,
	)

	// 6. Background workers
	if cfg.Kafka.Enabled {
		reader := invListenerPkg.NewKafkaReader(cfg.Kafka)
		invListener := invListenerPkg.NewStockListener(reader, invUC, appLogger)
		go invListener.Start(ctx)
		appLogger.Info("Kafka stock listener enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Reconcile.Schedule != "" {
		job := reconcile.NewJob(invUC, appLogger)
		if err := job.Schedule(cfg.Reconcile.Schedule); err != nil {
			appLogger.Fatal("Invalid reconcile schedule", zap.String("spec", cfg.Reconcile.Schedule), zap.Error(err))
		}
		defer job.Stop()
	}

	// 7. HTTP gateway
	router := server.NewRouter(server.Handlers{
		Products:  prodH.NewProductHandler(prodUC, appLogger),
		Customers: custH.NewCustomerHandler(custUC, appLogger),
		Inventory: invH.NewInventoryHandler(invUC, appLogger),
	}, reg, appLogger)

	httpServer := &http.Server{
		Addr:    withColon(cfg.Server.HTTPPort),
		Handler: router,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 8. gRPC health
	lis, err := net.Listen("tcp", withColon(cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC health server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config, log logger.ZapLogger) (*repositories, error) {
	switch cfg.Storage.Driver {
	case "memory":
		store := memstore.New()
		log.Info("Using in-memory storage")
		return &repositories{
			products:  store.Products(),
			customers: store.Customers(),
			ledger:    store.Ledger(),
			stock:     store.Inventory(),
		}, nil
	case "postgres":
		db, err := database.NewPostgres(ctx, &cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
		return &repositories{
			products:  prodRepoPkg.NewPGRepository(db),
			customers: custRepoPkg.NewPGRepository(db),
			ledger:    ledgerRepoPkg.NewPGRepository(db),
			stock:     invRepoPkg.NewPGRepository(db),
			db:        db,
		}, nil
	default:
		return nil, errors.New("unknown storage driver " + cfg.Storage.Driver)
	}
}

func openLocker(ctx context.Context, cfg *config.Config, log logger.ZapLogger) (lock.Locker, func(), error) {
	switch cfg.Lock.Driver {
	case "local":
		return lock.NewKeyedMutex(cfg.Lock.WaitTimeout), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		locker := lock.NewRedisLocker(client, lock.RedisConfig{
			TTL:        cfg.Lock.TTL,
			Retries:    cfg.Lock.Retries,
			RetryDelay: cfg.Lock.RetryDelay,
		}, log)
		return locker, func() { client.Close() }, nil
	default:
		return nil, nil, errors.New("unknown lock driver " + cfg.Lock.Driver)
	}
}

func withColon(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
