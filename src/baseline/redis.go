package baseline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trade-streamer/src/interfaces"
	"trade-streamer/src/logger"
	"trade-streamer/src/models"

	"github.com/redis/go-redis/v9"
)

// -----------------------------------------------------------------------------

// RedisStore keeps baselines in Redis as a value key plus a companion
// day-stamp key per symbol:
//
//	baseline:<namespace>:<symbol>      -> value
//	baseline:<namespace>:<symbol>:day  -> day stamp
//
// An optional TTL is hygiene only; the day stamp stays the source of
// truth for validity.
type RedisStore struct {
	Config *models.MConfig
	Logger *logger.Logger
	client *redis.Client
	ttl    time.Duration
}

var _ interfaces.IBaselineStore = (*RedisStore)(nil)

// -----------------------------------------------------------------------------

func NewRedisStore(cfg *models.MConfig, log *logger.Logger) (*RedisStore, error) {
	return &RedisStore{
		Config: cfg,
		Logger: log,
		ttl:    time.Duration(cfg.Storage.Redis.TTLSeconds) * time.Second,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Initialize() error {
	rc := s.Config.Storage.Redis

	s.client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", rc.Host, rc.Port),
		Password: rc.Password,
		DB:       rc.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return err
	}

	s.Logger.Info("RedisStore connected to %s (db %d)", rc.Host, rc.DB)
	return nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Put(ctx context.Context, entry models.MBaselineEntry) error {
	valueKey := baselineKey(entry.Namespace, entry.Symbol)

	if err := s.client.Set(ctx, valueKey, entry.Value, s.ttl).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, valueKey+":day", entry.DayStamp, s.ttl).Err()
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Get(ctx context.Context, namespace, symbol string) (models.MBaselineEntry, bool, error) {
	valueKey := baselineKey(namespace, symbol)

	val, err := s.client.Get(ctx, valueKey).Result()
	if err == redis.Nil {
		return models.MBaselineEntry{}, false, nil
	}
	if err != nil {
		return models.MBaselineEntry{}, false, err
	}

	value, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return models.MBaselineEntry{}, false, fmt.Errorf("corrupt baseline value for %s: %w", symbol, err)
	}

	// A missing stamp key leaves DayStamp empty, which callers treat as
	// stale, so the pair gets cleaned up through the normal purge path.
	stamp, err := s.client.Get(ctx, valueKey+":day").Result()
	if err != nil && err != redis.Nil {
		return models.MBaselineEntry{}, false, err
	}

	return models.MBaselineEntry{
		Namespace: namespace,
		Symbol:    symbol,
		Value:     value,
		DayStamp:  stamp,
	}, true, nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Delete(ctx context.Context, namespace, symbol string) error {
	valueKey := baselineKey(namespace, symbol)
	return s.client.Del(ctx, valueKey, valueKey+":day").Err()
}

// -----------------------------------------------------------------------------

func (s *RedisStore) PurgeStale(ctx context.Context, namespace, dayStamp string) (int, error) {
	pattern := baselineKey(namespace, "*") + ":day"

	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, stampKey := range keys {
		stamp, err := s.client.Get(ctx, stampKey).Result()
		if err != nil {
			continue
		}
		if stamp == dayStamp {
			continue
		}

		valueKey := strings.TrimSuffix(stampKey, ":day")
		if err := s.client.Del(ctx, valueKey, stampKey).Err(); err != nil {
			s.Logger.Warning("Failed to purge %s: %v", valueKey, err)
			continue
		}
		removed++
	}

	return removed, nil
}

// -----------------------------------------------------------------------------

func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func baselineKey(namespace, symbol string) string {
	return fmt.Sprintf("baseline:%s:%s", namespace, symbol)
}
