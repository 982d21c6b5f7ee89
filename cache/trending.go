package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"soundvault/db"
	"soundvault/logger"
	"soundvault/model"

	"github.com/redis/go-redis/v9"
)

const (
	trendingKey = "trending:tracks"
	trendingTTL = 60 * time.Second
)

// GetTrendingTracks returns the cached trending list, or (nil, nil) on
// a miss. Redis failures are logged and treated as a miss so the
// database stays the source of truth.
func GetTrendingTracks(ctx context.Context) ([]*model.Track, error) {
	if db.RedisClient == nil {
		return nil, nil
	}

	data, err := db.RedisClient.Get(ctx, trendingKey).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("trending cache read failed", logger.ErrorField(err))
		}
		return nil, nil
	}

	var tracks []*model.Track
	if err := json.Unmarshal([]byte(data), &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode cached trending tracks: %w", err)
	}
	return tracks, nil
}

// SetTrendingTracks stores the trending list with a short TTL. Failures
// are logged, never surfaced to the caller.
func SetTrendingTracks(ctx context.Context, tracks []*model.Track) {
	if db.RedisClient == nil {
		return
	}

	data, err := json.Marshal(tracks)
	if err != nil {
		logger.Warn("failed to encode trending tracks for cache", logger.ErrorField(err))
		return
	}

	if err := db.RedisClient.Set(ctx, trendingKey, data, trendingTTL).Err(); err != nil {
		logger.Warn("trending cache write failed", logger.ErrorField(err))
	}
}

// InvalidateTrending drops the cached list. Called after play-count
// increments so rank changes show up promptly.
func InvalidateTrending(ctx context.Context) {
	if db.RedisClient == nil {
		return
	}
	if err := db.RedisClient.Del(ctx, trendingKey).Err(); err != nil {
		logger.Warn("trending cache invalidation failed", logger.ErrorField(err))
	}
}
