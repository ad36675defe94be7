package store

import (
	"context"
	"log"
	"time"

	"go-storefront/models"
	"go-storefront/utils"
)

const settingsCacheKey = "settings"

// CachedSettings serves settings reads from a cache. The maintenance gate reads
// settings on every request, so this keeps it off the database.
type CachedSettings struct {
	next  SettingsStore
	cache utils.Cache
	ttl   time.Duration
}

func NewCachedSettings(next SettingsStore, cache utils.Cache, ttl time.Duration) *CachedSettings {
	return &CachedSettings{next: next, cache: cache, ttl: ttl}
}

func (s *CachedSettings) Get(ctx context.Context) (*models.Settings, error) {
	var cached models.Settings
	hit, err := s.cache.Get(ctx, settingsCacheKey, &cached)
	if err != nil {
		log.Printf("Settings cache read failed: %v", err)
	}
	if hit {
		return &cached, nil
	}

	settings, err := s.next.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, settingsCacheKey, settings, s.ttl); err != nil {
		log.Printf("Settings cache write failed: %v", err)
	}
	return settings, nil
}

func (s *CachedSettings) Update(ctx context.Context, settings *models.Settings) error {
	if err := s.next.Update(ctx, settings); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
		log.Printf("Settings cache invalidation failed: %v", err)
	}
	return nil
}
