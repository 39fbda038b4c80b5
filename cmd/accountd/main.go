// Command accountd serves the customer-account HTTP API backed by a document
// store, a query-result cache and the CustomerId sequence.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/hanlinkhaing/accountd/account"
	"github.com/hanlinkhaing/accountd/cache"
	"github.com/hanlinkhaing/accountd/httpapi"
	"github.com/hanlinkhaing/accountd/log/zaplog"
	"github.com/hanlinkhaing/accountd/pkg/di"
	"github.com/hanlinkhaing/accountd/sequence"
	"github.com/hanlinkhaing/accountd/store"
	memorystore "github.com/hanlinkhaing/accountd/store/memory"
	mongostore "github.com/hanlinkhaing/accountd/store/mongo"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("accountd exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	customers, configs, sequences, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	queryCache, err := buildCache(ctx, cfg, logger)
	if err != nil {
		return err
	}

	container, err := di.NewContainer(di.Options{
		QueryCache: queryCache,
		Logger:     zaplog.New(logger),
	})
	if err != nil {
		return err
	}

	tokens, err := account.NewTokenIssuer(account.TokenOptions{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	svc := di.NewAccountService(container, customers, configs, sequences, tokens)

	if err := seed(ctx, configs, sequences, logger); err != nil {
		return err
	}

	handler := httpapi.New(svc, tokens, logger)
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// buildStore connects to MongoDB when configured, otherwise falls back to the
// in-process store.
func buildStore(ctx context.Context, cfg config, logger *zap.Logger) (
	store.Collection[account.Customer],
	store.Collection[account.Config],
	sequence.Store,
	func(),
	error,
) {
	if cfg.MongoURL == "" {
		logger.Warn("MONGO_URL not set, using in-process store")
		s := memorystore.NewStore()
		return memorystore.Collection[account.Customer](s, account.CustomersCollection),
			memorystore.Collection[account.Config](s, account.ConfigsCollection),
			memorystore.NewSequences(),
			func() {},
			nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, mongoopts.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, nil, nil, nil, err
	}
	logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))

	s := mongostore.NewStore(client.Database(cfg.MongoDatabase))
	if err := s.EnsureIndexes(connectCtx, mongostore.UniqueIndex{
		Collection: account.CustomersCollection,
		Field:      "user",
	}); err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Warn("mongodb disconnect", zap.Error(err))
		}
	}
	return mongostore.Collection[account.Customer](s, account.CustomersCollection),
		mongostore.Collection[account.Config](s, account.ConfigsCollection),
		mongostore.NewSequences(s),
		cleanup,
		nil
}

// buildCache connects to Redis when configured, otherwise uses the
// in-process backend.
func buildCache(ctx context.Context, cfg config, logger *zap.Logger) (cache.QueryCache, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, using in-process cache")
		return cache.NewMemoryQueryCache(cache.DefaultConfig())
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	return cache.NewRedisQueryCache(client)
}

// seed bootstraps the CustomerId sequence and the config rows. Idempotent.
func seed(ctx context.Context, configs store.Collection[account.Config], sequences sequence.Store, logger *zap.Logger) error {
	allocator := sequence.NewAllocator(sequences)
	if err := allocator.Seed(ctx, account.EntityCustomerID); err != nil {
		return err
	}
	if err := account.SeedConfigs(ctx, configs); err != nil {
		return err
	}
	logger.Info("seeds applied")
	return nil
}
