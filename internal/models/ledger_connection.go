package models

import "time"

// LedgerConnection stores the bearer credential for an org's ledger company.
type LedgerConnection struct {
	OrgID        string `gorm:"primaryKey;size:64"`
	RealmID      string `gorm:"size:64;not null"`
	AccessToken  string `gorm:"type:text;not null"`
	RefreshToken string `gorm:"type:text"`
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
