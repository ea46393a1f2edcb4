package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CandidateStatusPending  = "pending"
	CandidateStatusApproved = "approved"
	CandidateStatusRejected = "rejected"
)

type CandidateExplanation struct {
	Reason           string     `json:"reason"`
	HistoricalMonths int        `json:"historical_months"`
	AverageAmount    float64    `json:"average_amount"`
	LastSeenDate     *time.Time `json:"last_seen_date"`
	Pattern          string     `json:"pattern"`
}

// AccrualCandidate is a recurring expense missing from the reviewed period.
// VendorKey mirrors VendorName so the uniqueness index also covers candidates without a vendor.
type AccrualCandidate struct {
	ID              uuid.UUID                                `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID           string                                   `gorm:"size:64;not null;uniqueIndex:uniq_accrual_candidate" json:"org_id"`
	PeriodFromDate  time.Time                                `gorm:"type:date;not null;uniqueIndex:uniq_accrual_candidate" json:"period_from_date"`
	PeriodToDate    time.Time                                `gorm:"type:date;not null;uniqueIndex:uniq_accrual_candidate" json:"period_to_date"`
	AccountID       string                                   `gorm:"size:64;not null;uniqueIndex:uniq_accrual_candidate" json:"account_id"`
	VendorKey       string                                   `gorm:"size:255;not null;default:'';uniqueIndex:uniq_accrual_candidate" json:"-"`
	VendorName      *string                                  `gorm:"size:255" json:"vendor_name"`
	AccountName     string                                   `json:"account_name"`
	ExpectedAmount  float64                                  `json:"expected_amount"`
	ConfidenceScore float64                                  `json:"confidence_score"`
	Explanation     datatypes.JSONType[CandidateExplanation] `json:"explanation"`
	Status          string                                   `gorm:"size:20;not null;index" json:"status"`
	CreatedAt       time.Time                                `json:"created_at"`
	UpdatedAt       time.Time                                `json:"updated_at"`
}

func (c *AccrualCandidate) BeforeSave(tx *gorm.DB) error {
	c.VendorKey = ""
	if c.VendorName != nil {
		c.VendorKey = *c.VendorName
	}
	return nil
}
