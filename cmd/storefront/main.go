package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/consumer"
	opsgrpc "github.com/fjod/go_cart/storefront/internal/grpc"
	storehttp "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "shopping cart and checkout service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API, the ops gRPC server and the background workers",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "migrate",
						Usage: "apply migrations before serving",
					},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply Postgres and SQLite migrations and create Mongo indexes",
				Action: migrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func migrate(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	return runMigrations(c.Context, cfg, logger)
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := repository.OpenPostgres(cfg.PostgresCredentials())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.RunPostgresMigrations(db); err != nil {
		return err
	}
	logger.Info("postgres migrations applied")

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer repository.DisconnectMongoDB(mongoDB)
	if err := repository.NewMongoRepository(mongoDB).CreateIndexes(ctx); err != nil {
		return err
	}
	logger.Info("mongo indexes created")

	// opening the catalog applies its migrations
	catalog, err := repository.NewProductRepository(cfg.CatalogPath)
	if err != nil {
		return err
	}
	logger.Info("catalog migrations applied", zap.String("path", cfg.CatalogPath))
	return catalog.Close()
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Bool("migrate") {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	// Storage
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer repository.DisconnectMongoDB(mongoDB)
	logger.Info("connected to mongo", zap.String("db", cfg.MongoDBName))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}

	pg, err := repository.OpenPostgres(cfg.PostgresCredentials())
	if err != nil {
		return err
	}
	defer pg.Close()

	catalog, err := repository.NewProductRepository(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer catalog.Close()

	directory := repository.NewDirectoryRepository(pg)
	orderRepo := repository.NewOrderRepository(pg)

	// Services
	carts := service.NewCartService(repository.NewMongoRepository(mongoDB), cache.NewRedisCache(redisClient), catalog, logger)
	carts.SetFlushInterval(cfg.FlushInterval)

	orderService := orders.NewService(orderRepo, directory, payment.NewCardAuthorizer(), cfg.BreakerConfig(), logger)

	checkoutService := checkout.NewService(
		carts,
		checkout.NewDirectoryHandler(directory, cfg.DirectoryTimeout),
		checkout.NewOrderHandler(orderService, cfg.SubmissionTimeout),
		logger,
	)
	defer checkoutService.Close()

	poller := publisher.NewOutboxPoller(orderRepo, logger, cfg.KafkaBrokers...)
	defer poller.Close()

	saleConsumer := consumer.NewConsumer(catalog, cfg.KafkaGroupID, logger, cfg.KafkaBrokers...)
	defer saleConsumer.Close()

	// Servers
	router := storehttp.NewRouter(storehttp.Handlers{
		Cart:      storehttp.NewCartHandler(carts, cfg.RequestTimeout),
		Products:  storehttp.NewProductHandler(catalog, cfg.RequestTimeout),
		Directory: storehttp.NewDirectoryHandler(directory, cfg.RequestTimeout),
		Checkout:  storehttp.NewCheckoutHandler(checkoutService, cfg.RequestTimeout+cfg.SubmissionTimeout),
		Orders:    storehttp.NewOrdersHandler(orderService, cfg.RequestTimeout),
	}, cfg.RequestTimeout+cfg.SubmissionTimeout)

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ops := opsgrpc.NewOpsServer(logger)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	// The cart writer outlives the HTTP server so mutations made by draining
	// requests are still flushed.
	persistCtx, stopPersist := context.WithCancel(context.Background())
	defer stopPersist()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		carts.Run(persistCtx)
		return nil
	})
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		saleConsumer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return ops.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("storefront listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down storefront")
		ops.SetServing(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)

		stopPersist()
		ops.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("storefront stopped with error", zap.Error(err))
		return err
	}
	logger.Info("storefront stopped")
	return nil
}
