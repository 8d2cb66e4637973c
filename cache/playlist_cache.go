package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"melodex/logger"
	"melodex/model"
)

// playlistCacheTTL bounds staleness if an invalidation is ever missed.
const playlistCacheTTL = 10 * time.Minute

// PlaylistCache is a read-through cache of playlist-with-musics payloads.
// Every failure degrades to a miss; the database stays authoritative.
type PlaylistCache struct {
	client *redis.Client
}

// NewPlaylistCache creates a PlaylistCache over the given client. A nil
// client yields a cache that always misses.
func NewPlaylistCache(client *redis.Client) *PlaylistCache {
	return &PlaylistCache{client: client}
}

func playlistKey(playlistID int64) string {
	return fmt.Sprintf("playlist:musics:%d", playlistID)
}

// Get returns the cached payload for the playlist, or nil on a miss.
func (c *PlaylistCache) Get(ctx context.Context, playlistID int64) (*model.PlaylistWithMusics, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, playlistKey(playlistID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist %d from cache: %w", playlistID, err)
	}

	payload := &model.PlaylistWithMusics{}
	if err := json.Unmarshal(data, payload); err != nil {
		// Treat a corrupt entry as a miss and drop it.
		logger.Warn("Dropping corrupt playlist cache entry",
			logger.Int64("playlistId", playlistID),
			logger.ErrorField(err))
		c.client.Del(ctx, playlistKey(playlistID))
		return nil, nil
	}
	return payload, nil
}

// Set stores the payload for the playlist.
func (c *PlaylistCache) Set(ctx context.Context, payload *model.PlaylistWithMusics) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal playlist %d for cache: %w", payload.ID, err)
	}

	if err := c.client.Set(ctx, playlistKey(payload.ID), data, playlistCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache playlist %d: %w", payload.ID, err)
	}
	return nil
}

// Invalidate drops the cached payloads for the given playlists. Called after
// any mutation that changes a playlist or its membership.
func (c *PlaylistCache) Invalidate(ctx context.Context, playlistIDs ...int64) {
	if c == nil || c.client == nil || len(playlistIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(playlistIDs))
	for _, id := range playlistIDs {
		keys = append(keys, playlistKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		// Stale entries expire by TTL; log and move on.
		logger.Warn("Failed to invalidate playlist cache", logger.ErrorField(err))
	}
}
