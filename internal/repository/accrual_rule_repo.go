package repository

import (
	"context"
	"errors"
	"fmt"

	"month-end-close-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccrualRuleRepository struct {
	db *gorm.DB
}

func NewAccrualRuleRepository(db *gorm.DB) *AccrualRuleRepository {
	return &AccrualRuleRepository{db: db}
}

// Get returns nil, nil when the org has no stored rule.
func (r *AccrualRuleRepository) Get(ctx context.Context, orgID string) (*models.AccrualRule, error) {
	var rule models.AccrualRule
	err := r.db.WithContext(ctx).First(&rule, "org_id = ?", orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load accrual rule: %w", err)
	}
	return &rule, nil
}

func (r *AccrualRuleRepository) Upsert(ctx context.Context, rule *models.AccrualRule) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "org_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"lookback_months",
			"min_amount",
			"confidence_threshold",
			"min_recurrence_count",
			"excluded_accounts",
			"excluded_vendors",
			"include_accounts",
			"updated_at",
		}),
	}).Create(rule).Error
	if err != nil {
		return fmt.Errorf("failed to upsert accrual rule: %w", err)
	}
	return nil
}
