package session

import (
	"fmt"

	"github.com/erp/books/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewStore opens the credential store selected by configuration
func NewStore(cfg config.SessionConfig, zapLogger *zap.Logger) (Store, error) {
	switch cfg.Store {
	case "sqlite", "":
		return OpenSQLite(cfg.DSN, zapLogger)
	case "postgres":
		return OpenPostgres(cfg.DSN, zapLogger)
	case "redis":
		return NewRedisStore(RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
