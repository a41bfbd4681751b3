package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// CacheRepository defines the interface for caching operations.
// The data layer provides the Redis implementation.
type CacheRepository interface {
	// Set stores a value with the given TTL. A TTL of 0 never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete returns true if the key was deleted.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// SetIfNotExists atomically sets a key only if it doesn't already exist.
	// Returns true if the key was set. Used for leases and deduplication.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// TitleHistoryConfig holds configuration for title deduplication.
type TitleHistoryConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// DefaultTitleHistoryConfig remembers titles for 30 days.
func DefaultTitleHistoryConfig() TitleHistoryConfig {
	return TitleHistoryConfig{TTL: 30 * 24 * time.Hour, KeyPrefix: "pressqueue:title:"}
}

// TitleHistory remembers recently generated titles per campaign so suggestions do not repeat.
type TitleHistory struct {
	cache CacheRepository
	cfg   TitleHistoryConfig
}

// NewTitleHistory constructs a TitleHistory. A nil cache disables deduplication.
func NewTitleHistory(cache CacheRepository, cfg TitleHistoryConfig) *TitleHistory {
	def := DefaultTitleHistoryConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}
	return &TitleHistory{cache: cache, cfg: cfg}
}

// Claim records the title for the campaign and reports whether it was new.
func (h *TitleHistory) Claim(ctx context.Context, campaignID, title string) (bool, error) {
	if h == nil || h.cache == nil {
		return true, nil
	}
	return h.cache.SetIfNotExists(ctx, h.key(campaignID, title), []byte(title), h.cfg.TTL)
}

func (h *TitleHistory) key(campaignID, title string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return h.cfg.KeyPrefix + campaignID + ":" + hex.EncodeToString(sum[:8])
}
