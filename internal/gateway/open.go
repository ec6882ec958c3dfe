package gateway

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"kowaiquest/internal/config"
	"kowaiquest/internal/database"
	"kowaiquest/internal/logger"
	"kowaiquest/migrations"
)

// Store is a gateway that owns a connection
type Store interface {
	Gateway
	io.Closer
}

// Open builds the gateway selected by DATABASE_TYPE. SQL backends are
// migrated before they are returned.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	switch strings.ToLower(cfg.DatabaseType) {
	case "memory":
		log.Warn("using in-memory gateway, progress is lost on exit")
		return NewMemoryGateway(), nil
	case "redis":
		rdb, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("connected to redis gateway", "addr", cfg.RedisAddr, "prefix", cfg.RedisKeyPrefix)
		return NewRedisGateway(rdb, cfg.RedisKeyPrefix), nil
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, err
	}

	var migrationsFS fs.FS = migrations.FS
	if cfg.MigrationsPath != "" {
		migrationsFS = os.DirFS(cfg.MigrationsPath)
	}
	applied, err := db.RunMigrations(ctx, migrationsFS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, name := range applied {
		log.Info("migration completed", "file", name)
	}

	return NewSQLGateway(db), nil
}
