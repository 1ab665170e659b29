package storage

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/safedata/safedata/pkg/errors"
)

// FactoryConfig selects and configures a session storage backend
type FactoryConfig struct {
	Backend    string        `json:"backend" yaml:"backend"` // memory, redis
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl"`
	Redis      *RedisConfig  `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// NewSessionStore creates a session store for the configured backend
func NewSessionStore(config *FactoryConfig, logger *logrus.Logger) (SessionStore, error) {
	if config == nil {
		return nil, errors.NewStorageError(errors.CodeConnectionFailed, "storage config cannot be nil")
	}

	switch config.Backend {
	case "", "memory":
		return NewMemoryStore(config.SessionTTL, logger), nil
	case "redis":
		redisCfg := config.Redis
		if redisCfg == nil {
			return nil, errors.NewStorageError(errors.CodeConnectionFailed, "redis backend selected but no redis config given")
		}
		if redisCfg.TTL <= 0 {
			redisCfg.TTL = config.SessionTTL
		}
		return NewRedisStore(redisCfg, logger)
	default:
		return nil, errors.NewStorageError(errors.CodeConnectionFailed,
			fmt.Sprintf("unknown session backend %q", config.Backend))
	}
}
