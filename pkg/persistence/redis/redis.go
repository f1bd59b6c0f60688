package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/persistence"
)

const (
	keyAddresses         = "ramp:addresses"
	keySchemaVersion     = "ramp:metadata:schema_version"
	currentSchemaVersion = "v1"

	operationTimeout = 5 * time.Second
	maxTxRetries     = 5
)

// RedisAddressStore keeps the address book as a JSON array under a single
// key. Updates run in WATCH/MULTI transactions so several CLI processes can
// share one book.
type RedisAddressStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IAddressStore = (*RedisAddressStore)(nil)

type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address  string
	Password string
	DB       int
	// KeyPrefix is prepended to every key, e.g. "alice:" gives "alice:ramp:addresses"
	KeyPrefix string
}

func NewRedisAddressStore(cfg *RedisConfig, logger *zap.Logger) (*RedisAddressStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisAddressStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}
	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis address store initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	return rs, nil
}

func (r *RedisAddressStore) prefixKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisAddressStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existing, err := r.client.Get(ctx, schemaKey).Result()
	if errors.Is(err, redis.Nil) {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if existing != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existing, currentSchemaVersion)
	}
	return nil
}

func (r *RedisAddressStore) AddAddresses(addresses []string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrStoreClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	key := r.prefixKey(keyAddresses)
	update := func(tx *redis.Tx) error {
		existing, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}
		data, err := persistence.MarshalAddresses(persistence.MergeAddresses(existing, addresses))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, update, key)
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Sugar().Debugw("Address book changed concurrently, retrying", "attempt", i+1)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to add addresses: %w", err)
		}
		r.logger.Sugar().Debugw("Added addresses", "count", len(addresses))
		return nil
	}
	return fmt.Errorf("failed to add addresses: too much contention on %s", key)
}

func (r *RedisAddressStore) ListAddresses() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrStoreClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	return r.load(ctx, r.client, r.prefixKey(keyAddresses))
}

func (r *RedisAddressStore) load(ctx context.Context, c redis.Cmdable, key string) ([]string, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read addresses: %w", err)
	}
	return persistence.UnmarshalAddresses(data)
}

func (r *RedisAddressStore) ClearAddresses() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrStoreClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.prefixKey(keyAddresses)).Err(); err != nil {
		return fmt.Errorf("failed to clear addresses: %w", err)
	}
	return nil
}

func (r *RedisAddressStore) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	r.logger.Sugar().Info("Redis address store closed")
	return nil
}

func (r *RedisAddressStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrStoreClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}
