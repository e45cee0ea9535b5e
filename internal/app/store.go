package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bluescreen10/voxara/gormstore"
	"github.com/bluescreen10/voxara/internal/config"
	"github.com/bluescreen10/voxara/memstore"
	"github.com/bluescreen10/voxara/mysqlstore"
	"github.com/bluescreen10/voxara/pgxstore"
	"github.com/bluescreen10/voxara/redisstore"
	"github.com/bluescreen10/voxara/session"
	"github.com/bluescreen10/voxara/sqlitestore"
)

// cleaner is implemented by stores that need expired records swept.
type cleaner interface {
	PeriodicCleanUp(interval time.Duration, stop <-chan struct{})
}

// sessionStore is an opened backend plus the hook that releases it.
type sessionStore struct {
	session.Store
	close func() error
}

// openStore connects the session backend named by cfg.Store.
func openStore(ctx context.Context, cfg config.SessionConfig, logger *slog.Logger) (*sessionStore, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreMemory:
		return &sessionStore{Store: memstore.New(), close: noop}, nil

	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return &sessionStore{Store: redisstore.New(rdb, redisstore.WithPrefix(cfg.RedisPrefix)), close: rdb.Close}, nil

	case config.StoreMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		s, err := mysqlstore.New(db, mysqlstore.WithLogger(logger))
		if err != nil {
			db.Close()
			return nil, err
		}
		return &sessionStore{Store: s, close: db.Close}, nil

	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		s, err := pgxstore.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &sessionStore{Store: s, close: func() error { pool.Close(); return nil }}, nil

	case config.StoreSQLite:
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &sessionStore{Store: s, close: s.Close}, nil

	case config.StoreGorm:
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
			Logger: gormlogger.Discard,
		})
		if err != nil {
			return nil, fmt.Errorf("open gorm: %w", err)
		}
		s, err := gormstore.New(db)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &sessionStore{Store: s, close: sqlDB.Close}, nil
	}

	logger.Error("unknown session store", "store", cfg.Store)
	return nil, fmt.Errorf("unknown session store %q", cfg.Store)
}

// startCleanup sweeps expired sessions every interval until stop is closed.
// Stores with native expiry are left alone.
func startCleanup(store session.Store, interval time.Duration, stop <-chan struct{}) bool {
	c, ok := store.(cleaner)
	if !ok || interval <= 0 {
		return false
	}
	go c.PeriodicCleanUp(interval, stop)
	return true
}
