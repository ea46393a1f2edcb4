package testutil

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"month-end-close-backend/internal/models"
)

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateTestCandidate returns an unsaved pending candidate for June 2024.
func CreateTestCandidate(orgID, accountID string, vendor *string) *models.AccrualCandidate {
	return &models.AccrualCandidate{
		ID:              uuid.New(),
		OrgID:           orgID,
		PeriodFromDate:  Date(2024, 6, 1),
		PeriodToDate:    Date(2024, 6, 30),
		AccountID:       accountID,
		AccountName:     "Office Rent",
		VendorName:      vendor,
		ExpectedAmount:  2000,
		ConfidenceScore: 0.8,
		Explanation: datatypes.NewJSONType(models.CandidateExplanation{
			Reason:           "Office Rent appeared in 6 of the last 6 months",
			HistoricalMonths: 6,
			AverageAmount:    2000,
			Pattern:          "monthly",
		}),
		Status: models.CandidateStatusPending,
	}
}

func StringPtr(s string) *string { return &s }
