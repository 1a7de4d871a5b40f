package kv

import (
	"context"
	"fmt"

	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver     string
	Postgres   db.PostgresConfig
	SQLitePath string
}

// 設定どおりのKVSを開く。開けなければメモリ版に切り替えて続行する。
// 返り値のboolはフォールバックしたかどうか。
func Open(ctx context.Context, opts Options, log *zap.Logger) (repo.KeyValueStore, bool) {
	store, err := open(ctx, opts)
	if err != nil {
		log.Warn("storage unavailable, falling back to in-memory cart storage",
			zap.String("driver", opts.Driver),
			zap.Error(err))
		return NewMemoryStore(), true
	}
	log.Info("storage ready", zap.String("driver", opts.Driver))
	return store, false
}

func open(ctx context.Context, opts Options) (repo.KeyValueStore, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverPostgres:
		gormDB, err := db.Connect(ctx, opts.Postgres)
		if err != nil {
			return nil, err
		}
		store, err := NewGormStore(gormDB)
		if err != nil {
			if sqlDB, dbErr := gormDB.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, fmt.Errorf("migrate kv_entries: %w", err)
		}
		return store, nil
	case DriverSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
