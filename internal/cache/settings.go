package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
)

const (
	versionKey      = "settings:version"
	pricingPrefix   = "settings:pricing"
	membershipKey   = "settings:membership"
	invalidationMsg = "settings.bump"
)

// SettingsCache keeps store-sourced pricing and membership settings in Redis. Keys embed a
// global version so a single Bump invalidates every entry.
type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSettingsCache(client *redis.Client, ttl time.Duration) *SettingsCache {
	return &SettingsCache{client: client, ttl: ttl}
}

// Enabled reports whether a Redis client is configured. A nil cache is valid and always misses.
func (c *SettingsCache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *SettingsCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
	}
	return ver, nil
}

func (c *SettingsCache) key(ctx context.Context, parts ...string) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", strings.Join(parts, ":"), ver), nil
}

func (c *SettingsCache) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *SettingsCache) setJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func pricingParts(warehouseID int32, bookingType domain.BookingType) []string {
	return []string{pricingPrefix, fmt.Sprint(warehouseID), string(bookingType)}
}

// GetPricingRule returns (nil, false, nil) on a miss.
func (c *SettingsCache) GetPricingRule(ctx context.Context, warehouseID int32, bookingType domain.BookingType) (*domain.PricingRule, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	key, err := c.key(ctx, pricingParts(warehouseID, bookingType)...)
	if err != nil {
		return nil, false, err
	}
	var rule domain.PricingRule
	found, err := c.getJSON(ctx, key, &rule)
	if err != nil || !found {
		return nil, false, err
	}
	logger.Debug("Pricing rule cache hit", "key", key)
	return &rule, true, nil
}

func (c *SettingsCache) SetPricingRule(ctx context.Context, rule *domain.PricingRule) error {
	if !c.Enabled() {
		return nil
	}
	key, err := c.key(ctx, pricingParts(rule.WarehouseID, rule.BookingType)...)
	if err != nil {
		return err
	}
	return c.setJSON(ctx, key, rule)
}

func (c *SettingsCache) GetMembershipTiers(ctx context.Context) ([]domain.MembershipTierSetting, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	key, err := c.key(ctx, membershipKey)
	if err != nil {
		return nil, false, err
	}
	var tiers []domain.MembershipTierSetting
	found, err := c.getJSON(ctx, key, &tiers)
	if err != nil || !found {
		return nil, false, err
	}
	return tiers, true, nil
}

func (c *SettingsCache) SetMembershipTiers(ctx context.Context, tiers []domain.MembershipTierSetting) error {
	if !c.Enabled() {
		return nil
	}
	key, err := c.key(ctx, membershipKey)
	if err != nil {
		return err
	}
	return c.setJSON(ctx, key, tiers)
}

// Bump invalidates every cached setting and tells other instances about it.
func (c *SettingsCache) Bump(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, invalidationMsg, fmt.Sprint(ver)).Err()
}

// Ping is used by health checks.
func (c *SettingsCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
