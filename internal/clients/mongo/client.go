package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"placement-portal/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrNotInitialized is returned by Shutdown when Init never produced a client.
	ErrNotInitialized = errors.New("mongo client not initialized")
	// ErrShutdown is returned by Shutdown after the first call.
	ErrShutdown = errors.New("mongo client already shut down")
)

var (
	drv driver = mongoDriver{}

	client  *mongo.Client
	db      *mongo.Database
	initErr error
	mu      sync.RWMutex

	initOnce     sync.Once
	shutdownOnce sync.Once
)

// Init connects to MongoDB once per process. Later calls return the result of
// the first attempt, including its error.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	initOnce.Do(func() {
		opts := options.Client().
			ApplyURI(cfg.MongoURI).
			SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
			SetConnectTimeout(10 * time.Second).
			SetAppName("placement-portal")

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cli, err := drv.Connect(ctx, opts)
		if err != nil {
			log.Error("mongo connect failed", "error", err)
			setState(nil, nil, err)
			return
		}

		if err := drv.Ping(ctx, cli); err != nil {
			log.Error("mongo ping failed", "error", err)
			_ = drv.Disconnect(context.Background(), cli)
			setState(nil, nil, err)
			return
		}

		setState(cli, cli.Database(cfg.MongoDBName), nil)
		log.Info("connected to mongo", "db", cfg.MongoDBName)
	})

	mu.RLock()
	defer mu.RUnlock()
	return client, db, initErr
}

func setState(c *mongo.Client, d *mongo.Database, err error) {
	mu.Lock()
	defer mu.Unlock()
	client, db, initErr = c, d, err
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.RLock()
	defer mu.RUnlock()
	return db
}

// Ping checks the live connection; used by the health endpoint.
func Ping(ctx context.Context) error {
	cli := Client()
	if cli == nil {
		return ErrNotInitialized
	}
	ctx, cancel := WithRepoTimeout(ctx, 2*time.Second)
	defer cancel()
	return drv.Ping(ctx, cli)
}

// Shutdown disconnects the client. Only the first call does any work.
func Shutdown(ctx context.Context) error {
	err := ErrShutdown
	shutdownOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		if client == nil {
			err = ErrNotInitialized
			return
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err = drv.Disconnect(ctx, client)
		client = nil
		db = nil
	})
	return err
}
