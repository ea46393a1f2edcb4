package repository

import (
	"context"
	"errors"
	"fmt"

	"month-end-close-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerConnectionRepository struct {
	db *gorm.DB
}

func NewLedgerConnectionRepository(db *gorm.DB) *LedgerConnectionRepository {
	return &LedgerConnectionRepository{db: db}
}

func (r *LedgerConnectionRepository) Get(ctx context.Context, orgID string) (*models.LedgerConnection, error) {
	var conn models.LedgerConnection
	err := r.db.WithContext(ctx).First(&conn, "org_id = ?", orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger connection: %w", err)
	}
	return &conn, nil
}

func (r *LedgerConnectionRepository) Save(ctx context.Context, conn *models.LedgerConnection) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"realm_id", "access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(conn).Error
	if err != nil {
		return fmt.Errorf("failed to save ledger connection: %w", err)
	}
	return nil
}
