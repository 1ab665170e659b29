package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/safedata/safedata/pkg/constants"
	"github.com/safedata/safedata/pkg/errors"
)

// RedisConfig holds configuration for the Redis session backend
type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	TTL          time.Duration `json:"ttl" yaml:"ttl"`
	KeyPrefix    string        `json:"key_prefix" yaml:"key_prefix"`
}

// RedisStore implements SessionStore on Redis, for deployments where more
// than one server instance has to see the same sessions. Sessions are stored
// as JSON values with a TTL; Redis handles expiry.
type RedisStore struct {
	config *RedisConfig
	client *redis.Client
	logger *logrus.Logger
	mu     sync.RWMutex
	closed bool
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(config *RedisConfig, logger *logrus.Logger) (*RedisStore, error) {
	if config == nil {
		return nil, errors.NewStorageError(errors.CodeConnectionFailed, "Redis config cannot be nil")
	}
	if config.Addr == "" {
		return nil, errors.NewStorageError(errors.CodeConnectionFailed, "Redis address is required")
	}
	if config.TTL <= 0 {
		config.TTL = constants.DefaultSessionTTL
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "safedata:session:"
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &RedisStore{
		config: config,
		logger: logger,
	}, nil
}

// Connect establishes the Redis connection and verifies it with a ping
func (r *RedisStore) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return nil // already connected
	}

	client := redis.NewClient(&redis.Options{
		Addr:         r.config.Addr,
		Password:     r.config.Password,
		DB:           r.config.DB,
		DialTimeout:  r.config.DialTimeout,
		ReadTimeout:  r.config.ReadTimeout,
		WriteTimeout: r.config.WriteTimeout,
		PoolSize:     r.config.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed,
			fmt.Sprintf("failed to connect to Redis at %s", r.config.Addr))
	}

	r.client = client
	r.logger.WithFields(logrus.Fields{
		"addr": r.config.Addr,
		"db":   r.config.DB,
	}).Info("Connected to Redis session store")

	return nil
}

// Put stores or replaces a session and resets its TTL
func (r *RedisStore) Put(ctx context.Context, session *Session) error {
	client, err := r.conn()
	if err != nil {
		return err
	}

	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to encode session")
	}

	if err := client.Set(ctx, r.key(session.ID), payload, r.config.TTL).Err(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to write session")
	}
	return nil
}

// Get retrieves a session by id
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	client, err := r.conn()
	if err != nil {
		return nil, err
	}

	payload, err := client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.NewStorageError(errors.CodeSessionNotFound, "session not found").
			WithContext("session_id", id)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to read session")
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to decode session")
	}
	return &session, nil
}

// Delete removes a session
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	client, err := r.conn()
	if err != nil {
		return err
	}

	removed, err := client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to delete session")
	}
	if removed == 0 {
		return errors.NewStorageError(errors.CodeSessionNotFound, "session not found").
			WithContext("session_id", id)
	}
	return nil
}

// Count returns the number of live sessions under the key prefix
func (r *RedisStore) Count(ctx context.Context) (int64, error) {
	client, err := r.conn()
	if err != nil {
		return 0, err
	}

	var count int64
	iter := client.Scan(ctx, 0, r.config.KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to scan sessions")
	}
	return count, nil
}

// Health pings the backend
func (r *RedisStore) Health(ctx context.Context) error {
	client, err := r.conn()
	if err != nil {
		return err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeConnectionFailed, "Redis ping failed")
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.client != nil {
		err := r.client.Close()
		r.client = nil
		return err
	}
	return nil
}

func (r *RedisStore) conn() (*redis.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errors.NewStorageError(errors.CodeStoreClosed, "session store is closed")
	}
	if r.client == nil {
		return nil, errors.NewStorageError(errors.CodeConnectionFailed, "not connected to Redis")
	}
	return r.client, nil
}

func (r *RedisStore) key(id string) string {
	return r.config.KeyPrefix + id
}
