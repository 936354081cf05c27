package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursemarket-client/internal/domain"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

const DefaultRedisKey = "coursemarket:session"

// RedisStore keeps the session under one key so several shells on the same
// machine share a login.
type RedisStore struct {
	rdb *goredis.Client
	key string
	ttl time.Duration
	log *logger.Logger
}

func NewRedisStore(rdb *goredis.Client, key string, ttl time.Duration, log *logger.Logger) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key, ttl: ttl, log: log.With("store", "RedisSessionStore")}, nil
}

// OpenRedisStore dials addr and verifies the connection.
func OpenRedisStore(ctx context.Context, addr, key string, log *logger.Logger) (*RedisStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(rdb, key, 0, log)
}

func (r *RedisStore) Load(ctx context.Context) (domain.Session, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		r.log.Warn("discarding unreadable stored session", "error", err)
		return domain.Session{}, false, nil
	}
	return rec.session(), true, nil
}

func (r *RedisStore) Save(ctx context.Context, s domain.Session) error {
	raw, err := json.Marshal(toRecord(s))
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, raw, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}

func (r *RedisStore) Close() error { return r.rdb.Close() }
