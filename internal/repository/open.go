package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Options selects and configures a cart storage driver.
type Options struct {
	Driver string
	TTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SQLitePath  string
	PostgresDSN string

	MongoURI    string
	MongoDBName string
}

// Open connects the configured driver and prepares its schema.
func Open(ctx context.Context, opts Options) (CartRepository, error) {
	switch opts.Driver {
	case DriverRedis, "":
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return NewRedisRepository(client, opts.TTL), nil

	case DriverSQLite:
		repo, err := NewSQLiteRepository(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil

	case DriverPostgres:
		repo, err := NewPostgresRepository(opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil

	case DriverMongo:
		db, err := ConnectMongoDB(ctx, opts.MongoURI, opts.MongoDBName)
		if err != nil {
			return nil, err
		}
		repo := NewMongoRepository(db, opts.TTL)
		if err := repo.CreateIndexes(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil

	case DriverMemory:
		return NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("unknown cart store driver %q", opts.Driver)
}
