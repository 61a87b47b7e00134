// Package profiles exposes read-only tenant business context. The profile
// table is owned by another system; lookout only reads it to frame
// recommendation copy.
package profiles

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lookout/internal/cache"
	"lookout/internal/models"
	"lookout/internal/store"
)

// Provider returns the business profile for a tenant. Implementations must
// return store.ErrNotFound when no profile exists.
type Provider interface {
	GetProfile(ctx context.Context, tenantID string) (models.BusinessProfile, error)
}

// SQLProvider reads profiles straight from Postgres.
type SQLProvider struct {
	db *sql.DB
}

func NewSQLProvider(db *sql.DB) *SQLProvider {
	return &SQLProvider{db: db}
}

func (p *SQLProvider) GetProfile(ctx context.Context, tenantID string) (models.BusinessProfile, error) {
	var profile models.BusinessProfile
	err := p.db.QueryRowContext(ctx, `
		SELECT tenant_id, business_name, industry, target_audience, brand_voice
		FROM lookout.business_profiles
		WHERE tenant_id = $1`, tenantID).Scan(
		&profile.TenantID, &profile.BusinessName, &profile.Industry,
		&profile.TargetAudience, &profile.BrandVoice)
	if err == sql.ErrNoRows {
		return models.BusinessProfile{}, store.ErrNotFound
	}
	if err != nil {
		return models.BusinessProfile{}, fmt.Errorf("failed to get business profile: %w", err)
	}
	return profile, nil
}

// CachedProvider wraps another provider with a short TTL cache. Profiles
// change rarely relative to how often the engine and handlers read them.
type CachedProvider struct {
	inner Provider
	cache *cache.Cache
}

func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache.New(cache.Options{
			TTL:                  ttl,
			StaleWhileRevalidate: ttl / 2,
			NegativeTTL:          30 * time.Second,
			MaxEntries:           4096,
		}, cache.MetricsHooks{}),
	}
}

func (p *CachedProvider) GetProfile(ctx context.Context, tenantID string) (models.BusinessProfile, error) {
	val, ok, err := p.cache.Get(ctx, tenantID, func(ctx context.Context, key string) (interface{}, bool, error) {
		profile, err := p.inner.GetProfile(ctx, key)
		if err == store.ErrNotFound {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return profile, true, nil
	})
	if err != nil {
		return models.BusinessProfile{}, err
	}
	if !ok {
		return models.BusinessProfile{}, store.ErrNotFound
	}
	return val.(models.BusinessProfile), nil
}
