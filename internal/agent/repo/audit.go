package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/support-triage-poc/server/internal/agent/model"
	errx "github.com/support-triage-poc/server/internal/core/error"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

// RedisAuditRepository keeps the audit log as a JSON-encoded Redis list.
type RedisAuditRepository struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

func NewRedisAuditRepository(rdb redis.Cmdable, cfg model.AuditConfig) *RedisAuditRepository {
	key := cfg.Key
	if key == "" {
		key = "triage:audit"
	}
	return &RedisAuditRepository{rdb: rdb, key: key, ttl: cfg.TTL}
}

func (r *RedisAuditRepository) Append(ctx context.Context, entry model.AuditEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		logx.Error().Err(err).Str("ticket_id", entry.ID).Msg("failed to marshal audit entry")
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	if err := r.rdb.RPush(ctx, r.key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", r.key).Msg("failed to push audit entry to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, r.key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", r.key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", r.key).Dur("ttl", r.ttl).Msg("failed to set TTL on audit key")
		}
	}
	return nil
}

func (r *RedisAuditRepository) List(ctx context.Context) ([]model.AuditEntry, error) {
	rows, err := r.rdb.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.AuditEntry{}, nil
		}
		logx.Error().Err(err).Str("key", r.key).Msg("failed to load audit log from redis")
		return nil, errx.WrapRedis(err)
	}

	entries := make([]model.AuditEntry, 0, len(rows))
	for i, s := range rows {
		var e model.AuditEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			logx.Error().Err(err).Str("key", r.key).Int("index", i).Msg("failed to unmarshal audit entry")
			return nil, fmt.Errorf("unmarshal audit entry at index %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

var _ model.AuditRepository = (*RedisAuditRepository)(nil)
