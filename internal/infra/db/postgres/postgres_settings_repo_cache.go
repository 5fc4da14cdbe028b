package postgres

import (
	"context"
	"encoding/json"
	"time"

	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/infra/metrics"
	red "telegram-group-subscription/internal/infra/redis"
)

var _ repository.SettingsRepository = (*settingsRepoCacheDecorator)(nil)

const settingsCacheKey = "settings:system"

// settingsRepoCacheDecorator caches the settings singleton in Redis so the
// per-message manual-mode check does not hit Postgres.
type settingsRepoCacheDecorator struct {
	inner repository.SettingsRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewSettingsRepoCacheDecorator(inner repository.SettingsRepository, cache red.RedisClient) repository.SettingsRepository {
	return &settingsRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   5 * time.Minute,
	}
}

func (d *settingsRepoCacheDecorator) Get(ctx context.Context, tx repository.Tx) (*model.SystemSettings, error) {
	val, err := d.cache.Get(ctx, settingsCacheKey)
	if err == nil {
		metrics.IncCacheRequest("settings", "hit")
		var s model.SystemSettings
		if json.Unmarshal([]byte(val), &s) == nil {
			return &s, nil
		}
	}

	metrics.IncCacheRequest("settings", "miss")
	s, err := d.inner.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(s); err == nil {
		d.cache.Set(ctx, settingsCacheKey, bytes, d.ttl)
	}
	return s, nil
}

func (d *settingsRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, s *model.SystemSettings) error {
	d.cache.Del(ctx, settingsCacheKey)
	return d.inner.Save(ctx, tx, s)
}
