package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultLookbackMonths      = 6
	DefaultMinAmount           = 50.0
	DefaultConfidenceThreshold = 0.7
	DefaultMinRecurrenceCount  = 3
)

// AccrualRule holds the per-organization detection parameters. One row per org.
type AccrualRule struct {
	OrgID               string                      `gorm:"primaryKey;size:64" json:"org_id"`
	LookbackMonths      int                         `gorm:"not null" json:"lookback_months" validate:"min=1"`
	MinAmount           float64                     `gorm:"not null" json:"min_amount" validate:"gte=0"`
	ConfidenceThreshold float64                     `gorm:"not null" json:"confidence_threshold" validate:"gte=0,lte=1"`
	MinRecurrenceCount  int                         `gorm:"not null" json:"min_recurrence_count" validate:"min=1"`
	ExcludedAccounts    datatypes.JSONSlice[string] `json:"excluded_accounts"`
	ExcludedVendors     datatypes.JSONSlice[string] `json:"excluded_vendors"`
	IncludeAccounts     datatypes.JSONSlice[string] `json:"include_accounts"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// DefaultAccrualRule returns an unsaved rule carrying the default parameters.
func DefaultAccrualRule(orgID string) AccrualRule {
	return AccrualRule{
		OrgID:               orgID,
		LookbackMonths:      DefaultLookbackMonths,
		MinAmount:           DefaultMinAmount,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MinRecurrenceCount:  DefaultMinRecurrenceCount,
		ExcludedAccounts:    datatypes.JSONSlice[string]{},
		ExcludedVendors:     datatypes.JSONSlice[string]{},
		IncludeAccounts:     datatypes.JSONSlice[string]{},
	}
}
