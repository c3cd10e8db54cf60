package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"fmt"           // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// AccountsKey caches a user's account list
func AccountsKey(userID uint) string {
	return fmt.Sprintf("accounts:user:%d", userID)
}

// TransactionsKey caches the transaction list of one account
func TransactionsKey(userID uint, accountID string) string {
	return fmt.Sprintf("txs:user:%d:account:%s", userID, accountID)
}

// AnalyticsKey caches an analytics summary of one account
func AnalyticsKey(userID uint, accountID, timeframe string) string {
	return fmt.Sprintf("analytics:user:%d:account:%s:tf:%s", userID, accountID, timeframe)
}

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCachePattern deletes every key matching a glob pattern
func DeleteCachePattern(ctx context.Context, rdb *redis.Client, pattern string) error {
	var keys []string                                 // Keys to delete
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator() // Walk the keyspace in batches
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err // Return error if the scan fails
	}
	return DeleteCache(ctx, rdb, keys...)
}

// AdminKeyPattern matches every cached admin listing; they span all users
const AdminKeyPattern = "admin:*"

// InvalidateUser drops every cached read a write by the user makes stale: the
// user's account list, per-account transaction lists and analytics, and the
// admin listings that embed them
func InvalidateUser(ctx context.Context, rdb *redis.Client, userID uint) error {
	if err := DeleteCache(ctx, rdb, AccountsKey(userID)); err != nil {
		return err
	}
	for _, pattern := range []string{
		fmt.Sprintf("txs:user:%d:*", userID),
		fmt.Sprintf("analytics:user:%d:*", userID),
		AdminKeyPattern,
	} {
		if err := DeleteCachePattern(ctx, rdb, pattern); err != nil {
			return err
		}
	}
	return nil
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}
