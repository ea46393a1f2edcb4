package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"month-end-close-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CandidateFilter struct {
	OrgID      string
	PeriodFrom *time.Time
	PeriodTo   *time.Time
	Status     string
}

type AccrualCandidateRepository struct {
	db *gorm.DB
}

func NewAccrualCandidateRepository(db *gorm.DB) *AccrualCandidateRepository {
	return &AccrualCandidateRepository{db: db}
}

// CreateIfAbsent inserts the candidate unless one already exists for the same org, period,
// account and vendor, and returns whichever row is stored.
func (r *AccrualCandidateRepository) CreateIfAbsent(ctx context.Context, c *models.AccrualCandidate) (*models.AccrualCandidate, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(c).Error; err != nil {
		return nil, fmt.Errorf("failed to insert accrual candidate: %w", err)
	}

	var stored models.AccrualCandidate
	err := db.Where(
		"org_id = ? AND period_from_date = ? AND period_to_date = ? AND account_id = ? AND vendor_key = ?",
		c.OrgID, c.PeriodFromDate, c.PeriodToDate, c.AccountID, c.VendorKey,
	).First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read back accrual candidate: %w", err)
	}
	return &stored, nil
}

func (r *AccrualCandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AccrualCandidate, error) {
	var c models.AccrualCandidate
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("accrual candidate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load accrual candidate: %w", err)
	}
	return &c, nil
}

// List returns candidates for an org, highest confidence first.
func (r *AccrualCandidateRepository) List(ctx context.Context, f CandidateFilter) ([]models.AccrualCandidate, error) {
	q := r.db.WithContext(ctx).Model(&models.AccrualCandidate{}).Where("org_id = ?", f.OrgID)
	if f.PeriodFrom != nil {
		q = q.Where("period_from_date >= ?", *f.PeriodFrom)
	}
	if f.PeriodTo != nil {
		q = q.Where("period_to_date <= ?", *f.PeriodTo)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	candidates := []models.AccrualCandidate{}
	if err := q.Order("confidence_score DESC").Order("account_name").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to list accrual candidates: %w", err)
	}
	return candidates, nil
}

func (r *AccrualCandidateRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&models.AccrualCandidate{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update accrual candidate status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("accrual candidate %s: %w", id, ErrNotFound)
	}
	return nil
}
