// Package store provides key-value subscription store backends. Records are
// JSON blobs held under "sub:<endpoint>" keys, matching the layout the
// registry used on its original edge runtime.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	apperrors "ramadantracker.app/errors"
	"ramadantracker.app/models"
)

const keyPrefix = "sub:"

// Key returns the storage key for an endpoint.
func Key(endpoint string) string {
	return keyPrefix + endpoint
}

// RedisStore is a redis-backed subscription store.
type RedisStore struct {
	client *redis.Client
}

// RedisStoreConfig holds redis connection settings.
type RedisStoreConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(config *RedisStoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, apperrors.NewDatabaseError("redis connection failed", err)
	}

	slog.Info("Redis subscription store connected", "addr", config.Addr)
	return &RedisStore{client: client}, nil
}

// Put stores the JSON-serialized record under the endpoint's key, replacing
// any prior record in full.
func (r *RedisStore) Put(ctx context.Context, sub *models.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return apperrors.NewDatabaseError("marshal subscription", err)
	}
	if err := r.client.Set(ctx, Key(sub.Endpoint), data, 0).Err(); err != nil {
		slog.Error("Redis set error", "error", err, "endpoint", sub.Endpoint)
		return apperrors.NewDatabaseError("failed to store subscription", err)
	}
	return nil
}

// Get retrieves a subscription by endpoint. A missing key yields (nil, nil);
// an unparseable record yields a corrupt-record error so the caller can
// self-heal by deletion.
func (r *RedisStore) Get(ctx context.Context, endpoint string) (*models.Subscription, error) {
	val, err := r.client.Get(ctx, Key(endpoint)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		slog.Error("Redis get error", "error", err, "endpoint", endpoint)
		return nil, apperrors.NewDatabaseError("failed to load subscription", err)
	}

	var sub models.Subscription
	if err := json.Unmarshal([]byte(val), &sub); err != nil {
		return nil, apperrors.NewCorruptRecordError("unparseable subscription record", err)
	}
	return &sub, nil
}

// Delete removes a subscription by endpoint. Deleting a missing key is a no-op.
func (r *RedisStore) Delete(ctx context.Context, endpoint string) error {
	if err := r.client.Del(ctx, Key(endpoint)).Err(); err != nil {
		slog.Error("Redis delete error", "error", err, "endpoint", endpoint)
		return apperrors.NewDatabaseError("failed to delete subscription", err)
	}
	return nil
}

// List scans subscription keys starting from cursor (a redis SCAN cursor;
// empty means start) and returns the endpoints found plus the next cursor.
// SCAN treats the count as a hint, so pages may be smaller or larger than
// limit; an empty next cursor means the scan is complete.
func (r *RedisStore) List(ctx context.Context, cursor string, limit int) ([]string, string, error) {
	var start uint64
	if cursor != "" {
		parsed, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, "", apperrors.NewDatabaseError("invalid list cursor", err)
		}
		start = parsed
	}

	keys, next, err := r.client.Scan(ctx, start, keyPrefix+"*", int64(limit)).Result()
	if err != nil {
		slog.Error("Redis scan error", "error", err)
		return nil, "", apperrors.NewDatabaseError("failed to scan subscriptions", err)
	}

	endpoints := make([]string, 0, len(keys))
	for _, k := range keys {
		endpoints = append(endpoints, strings.TrimPrefix(k, keyPrefix))
	}

	nextCursor := ""
	if next != 0 {
		nextCursor = strconv.FormatUint(next, 10)
	}
	return endpoints, nextCursor, nil
}

// Close releases the redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
