package adminstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

// keyPrefix is the keyspace for authorization records. The full key is
// "admins:" + admin.DeriveKey(email).
const keyPrefix = "admins:"

// RedisConfig holds connection settings for the document store.
type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// RedisStore implements Store on the managed Redis document store.
// Records are stored as JSON blobs at their derived-key path.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies connectivity.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB >= 0 {
		opts.DB = cfg.DB
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests and
// when the client is shared with other stores.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the record for an email, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, email string) (*admin.Record, error) {
	key := keyPrefix + admin.DeriveKey(email)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, markUnavailable(err)
	}

	var record admin.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("corrupt authorization record at %s: %w", key, err)
	}

	return &record, nil
}

// Put replaces the full record. Writes are rare, idempotent, full-record
// replacements; no locking is needed.
func (s *RedisStore) Put(ctx context.Context, record *admin.Record) error {
	if record.Email == "" {
		return fmt.Errorf("record email is required")
	}
	record.Key = admin.DeriveKey(record.Email)
	if record.Permissions == nil {
		record.Permissions = make(map[string]bool)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+record.Key, data, 0).Err(); err != nil {
		return markUnavailable(err)
	}
	return nil
}

// SetActive toggles the soft-disable switch on an existing record.
func (s *RedisStore) SetActive(ctx context.Context, email string, active bool) error {
	record, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	record.Active = active
	return s.Put(ctx, record)
}

// SetPermission grants or revokes one permission on an existing record.
func (s *RedisStore) SetPermission(ctx context.Context, email, permission string, granted bool) error {
	record, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	if record.Permissions == nil {
		record.Permissions = make(map[string]bool)
	}
	record.Permissions[permission] = granted
	return s.Put(ctx, record)
}

// List returns all records in the admins keyspace.
func (s *RedisStore) List(ctx context.Context) ([]*admin.Record, error) {
	var records []*admin.Record

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return nil, markUnavailable(err)
		}

		var record admin.Record
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("corrupt authorization record at %s: %w", iter.Val(), err)
		}
		records = append(records, &record)
	}
	if err := iter.Err(); err != nil {
		return nil, markUnavailable(err)
	}

	return records, nil
}

// Ping checks Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return markUnavailable(err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client for health checks.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}
