package repository

import (
	"context"
	"errors"
	"fmt"

	"month-end-close-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostingRecordRepository struct {
	db *gorm.DB
}

func NewPostingRecordRepository(db *gorm.DB) *PostingRecordRepository {
	return &PostingRecordRepository{db: db}
}

// Get returns nil, nil when the candidate was never posted.
func (r *PostingRecordRepository) Get(ctx context.Context, candidateID uuid.UUID) (*models.PostingRecord, error) {
	var rec models.PostingRecord
	err := r.db.WithContext(ctx).First(&rec, "candidate_id = ?", candidateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load posting record: %w", err)
	}
	return &rec, nil
}

// Upsert writes the latest attempt. A stored success is never overwritten by an error.
func (r *PostingRecordRepository) Upsert(ctx context.Context, rec *models.PostingRecord) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"journal_entry_id",
			"posting_status",
			"error_message",
			"posted_at",
			"updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "posting_records", Name: "posting_status"}, Value: models.PostingStatusSuccess},
		}},
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert posting record: %w", err)
	}
	return nil
}
