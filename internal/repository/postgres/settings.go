package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetPricingRule(ctx context.Context, warehouseID int32, bookingType domain.BookingType) (*domain.PricingRule, error) {
	rule := &domain.PricingRule{}
	var tiers []byte
	query := `SELECT warehouse_id, booking_type, base_price, unit, min_quantity, max_quantity, volume_discounts
	          FROM pricing_rules WHERE warehouse_id = $1 AND booking_type = $2`
	logger.DatabaseCall("SELECT", "pricing_rules", "warehouseID", warehouseID, "type", bookingType)
	err := r.db.QueryRowContext(ctx, query, warehouseID, bookingType).Scan(&rule.WarehouseID, &rule.BookingType, &rule.BasePrice, &rule.Unit, &rule.MinQuantity, &rule.MaxQuantity, &tiers)
	if err != nil {
		return nil, translate(err, "pricing rule for warehouse", warehouseID)
	}
	if len(tiers) > 0 {
		if err := json.Unmarshal(tiers, &rule.VolumeDiscounts); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

func (r *settingsRepository) UpsertPricingRule(ctx context.Context, rule *domain.PricingRule) error {
	tiers, err := json.Marshal(rule.VolumeDiscounts)
	if err != nil {
		return err
	}
	query := `INSERT INTO pricing_rules (warehouse_id, booking_type, base_price, unit, min_quantity, max_quantity, volume_discounts, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (warehouse_id, booking_type) DO UPDATE SET
	              base_price = EXCLUDED.base_price, unit = EXCLUDED.unit, min_quantity = EXCLUDED.min_quantity,
	              max_quantity = EXCLUDED.max_quantity, volume_discounts = EXCLUDED.volume_discounts, updated_at = EXCLUDED.updated_at`
	_, err = r.db.ExecContext(ctx, query, rule.WarehouseID, rule.BookingType, rule.BasePrice, rule.Unit, rule.MinQuantity, rule.MaxQuantity, tiers, time.Now())
	return err
}

func (r *settingsRepository) ListMembershipTiers(ctx context.Context) ([]domain.MembershipTierSetting, error) {
	query := `SELECT tier, min_spend, discount_percent FROM membership_tiers ORDER BY min_spend ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.MembershipTierSetting
	for rows.Next() {
		var t domain.MembershipTierSetting
		if err := rows.Scan(&t.Tier, &t.MinSpend, &t.DiscountPercent); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *settingsRepository) ReplaceMembershipTiers(ctx context.Context, tiers []domain.MembershipTierSetting) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM membership_tiers`); err != nil {
		return err
	}
	for _, t := range tiers {
		_, err := tx.ExecContext(ctx, `INSERT INTO membership_tiers (tier, min_spend, discount_percent) VALUES ($1, $2, $3)`,
			t.Tier, t.MinSpend, t.DiscountPercent)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
