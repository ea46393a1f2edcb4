package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PostingStatusSuccess = "success"
	PostingStatusError   = "error"
)

// PostingRecord is the idempotency ledger for journal postings, keyed by candidate.
// A success row with a JournalEntryID is terminal.
type PostingRecord struct {
	CandidateID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"candidate_id"`
	OrgID          string    `gorm:"size:64;not null;index" json:"org_id"`
	JournalEntryID *string   `gorm:"size:64" json:"journal_entry_id"`
	PostingStatus  string    `gorm:"size:20;not null;index" json:"posting_status"`
	ErrorMessage   *string   `gorm:"type:text" json:"error_message"`
	PostedAt       time.Time `json:"posted_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *PostingRecord) Succeeded() bool {
	return p != nil && p.PostingStatus == PostingStatusSuccess && p.JournalEntryID != nil && *p.JournalEntryID != ""
}
