package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"traveler/internal/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	// ErrNotInitialized is returned by Shutdown when Init never succeeded.
	ErrNotInitialized = errors.New("mongo client was never initialized")
	// ErrShutdown is returned by Shutdown after the first call.
	ErrShutdown = errors.New("mongo client already shut down")
)

var (
	client  *mongo.Client
	db      *mongo.Database
	initErr error
	mu      sync.Mutex

	// drv is swappable in tests
	drv driver = mongoDriver{}

	initOnce     sync.Once
	shutdownOnce sync.Once
	txnProbeOnce sync.Once
)

// Init initializes the MongoDB connection (first call wins, thread-safe).
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	initOnce.Do(func() {
		opts := options.Client().
			ApplyURI(cfg.MongoURI).
			SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
			SetConnectTimeout(10 * time.Second).
			SetAppName("traveler")

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cli, err := drv.Connect(ctx, opts)
		if err != nil {
			log.Error("failed to connect to mongo", "err", err)
			setState(nil, nil, err)
			return
		}

		if err := drv.Ping(ctx, cli); err != nil {
			log.Error("failed to ping mongo", "err", err)
			_ = drv.Disconnect(ctx, cli)
			setState(nil, nil, err)
			return
		}

		setState(cli, cli.Database(cfg.MongoDBName), nil)
		probeReplicaSet(ctx, cli, log)
		log.Info("successfully connected to mongo", "db", cfg.MongoDBName)
	})

	mu.Lock()
	defer mu.Unlock()
	return client, db, initErr
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.Lock()
	defer mu.Unlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.Lock()
	defer mu.Unlock()
	return db
}

// Shutdown gracefully shuts down the MongoDB connection.
// The first call wins; later calls report ErrShutdown.
func Shutdown(ctx context.Context) error {
	err := ErrShutdown
	shutdownOnce.Do(func() {
		mu.Lock()
		cli := client
		mu.Unlock()

		if cli == nil {
			err = ErrNotInitialized
			return
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err = drv.Disconnect(ctx, cli)
		setState(nil, nil, nil)
	})
	return err
}

func setState(cli *mongo.Client, database *mongo.Database, err error) {
	mu.Lock()
	client = cli
	db = database
	initErr = err
	mu.Unlock()
}

// probeReplicaSet records whether the deployment is a replica set. The
// result is a cached hint, never re-probed for the process lifetime.
func probeReplicaSet(ctx context.Context, cli *mongo.Client, log *slog.Logger) {
	txnProbeOnce.Do(func() {
		var result bson.M
		err := cli.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&result)
		if err != nil {
			log.Debug("replica set probe failed", "err", err)
			return
		}
		_, ok := result["setName"]
		isReplicaSet.Store(ok)
	})
}
