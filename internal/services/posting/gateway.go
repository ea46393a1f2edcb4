package posting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"month-end-close-backend/internal/config"
	"month-end-close-backend/internal/ledger"
	"month-end-close-backend/internal/models"
)

const (
	moduleName = "posting"

	AccruedLiabilitiesAccount = "Accrued Liabilities"

	MsgNoLiabilityAccount = "No Accrued Liabilities or Accounts Payable account found in the ledger. Create one before posting accruals."
)

var ErrUnbalancedEntry = errors.New("journal entry debits and credits do not balance")

// Ledger is the subset of the ledger client the gateway writes through.
type Ledger interface {
	FindAccount(ctx context.Context, cred ledger.Credential, accountType, name string) (*ledger.Account, error)
	CreateJournalEntry(ctx context.Context, cred ledger.Credential, entry ledger.JournalEntry) (string, error)
}

// RecordRepository is the idempotency ledger. Get returns nil, nil when no record exists.
type RecordRepository interface {
	Get(ctx context.Context, candidateID uuid.UUID) (*models.PostingRecord, error)
	Upsert(ctx context.Context, record *models.PostingRecord) error
}

type Result struct {
	Success        bool    `json:"success"`
	JournalEntryID *string `json:"journal_entry_id,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type Gateway struct {
	ledger  Ledger
	creds   ledger.CredentialProvider
	records RecordRepository
	locker  Locker
	logger  logrus.FieldLogger
	now     func() time.Time
}

func NewGateway(l Ledger, creds ledger.CredentialProvider, records RecordRepository, locker Locker, logger logrus.FieldLogger) *Gateway {
	if locker == nil {
		locker = NoopLocker{}
	}
	return &Gateway{
		ledger:  l,
		creds:   creds,
		records: records,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
	}
}

// Post writes the candidate to the ledger as a balanced accrual entry, at most once.
// Ledger failures come back as an unsuccessful Result; the error return is reserved for
// failures reading or writing the posting record.
func (g *Gateway) Post(ctx context.Context, orgID string, candidate *models.AccrualCandidate) (Result, error) {
	existing, err := g.records.Get(ctx, candidate.ID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load posting record for candidate %s: %w", candidate.ID, err)
	}
	if existing.Succeeded() {
		return Result{Success: true, JournalEntryID: existing.JournalEntryID}, nil
	}

	release, err := g.locker.Acquire(ctx, candidate.ID)
	if errors.Is(err, ErrLockNotObtained) {
		return Result{Success: false, Error: err.Error()}, nil
	} else if err != nil {
		config.LogError(g.logger, moduleName, "Post", "obtain posting lock", candidate.ID, err)
		return Result{Success: false, Error: err.Error()}, nil
	}
	defer release()

	// Another instance may have finished while we waited on the lock.
	existing, err = g.records.Get(ctx, candidate.ID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load posting record for candidate %s: %w", candidate.ID, err)
	}
	if existing.Succeeded() {
		return Result{Success: true, JournalEntryID: existing.JournalEntryID}, nil
	}

	record := &models.PostingRecord{
		CandidateID: candidate.ID,
		OrgID:       orgID,
		PostedAt:    g.now().UTC(),
	}
	entryID, postErr := g.submit(ctx, orgID, candidate)
	if postErr != nil {
		msg := postErr.Error()
		record.PostingStatus = models.PostingStatusError
		record.ErrorMessage = &msg
		config.LogError(g.logger, moduleName, "Post", "submit journal entry", candidate.ID, postErr)
	} else {
		record.PostingStatus = models.PostingStatusSuccess
		record.JournalEntryID = &entryID
	}

	if err := g.records.Upsert(ctx, record); err != nil {
		return Result{}, fmt.Errorf("failed to store posting record for candidate %s: %w", candidate.ID, err)
	}

	if postErr != nil {
		return Result{Success: false, Error: *record.ErrorMessage}, nil
	}
	g.logger.WithFields(logrus.Fields{
		"module":           moduleName,
		"org_id":           orgID,
		"candidate_id":     candidate.ID,
		"journal_entry_id": entryID,
	}).Info("accrual posted")
	return Result{Success: true, JournalEntryID: record.JournalEntryID}, nil
}

func (g *Gateway) submit(ctx context.Context, orgID string, candidate *models.AccrualCandidate) (string, error) {
	cred, err := g.creds.GetValidCredential(ctx, orgID)
	if err != nil {
		return "", err
	}
	liability, err := g.resolveLiabilityAccount(ctx, cred)
	if err != nil {
		return "", err
	}
	entry, err := BuildJournalEntry(candidate, liability)
	if err != nil {
		return "", err
	}
	if err := validateEntry(entry); err != nil {
		return "", err
	}
	return g.ledger.CreateJournalEntry(ctx, cred, entry)
}

// validateEntry rejects entries the ledger would refuse to book.
func validateEntry(entry ledger.JournalEntry) error {
	if !entry.Balanced() {
		return ErrUnbalancedEntry
	}
	return nil
}

// resolveLiabilityAccount prefers an Accrued Liabilities account and falls back to any
// accounts payable account. Transport failures are not treated as "not found".
func (g *Gateway) resolveLiabilityAccount(ctx context.Context, cred ledger.Credential) (*ledger.Account, error) {
	acct, err := g.ledger.FindAccount(ctx, cred, ledger.AccountTypeOtherCurrentLiability, AccruedLiabilitiesAccount)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, err
	}

	acct, err = g.ledger.FindAccount(ctx, cred, ledger.AccountTypeAccountsPayable, "")
	if err == nil {
		return acct, nil
	}
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, errors.New(MsgNoLiabilityAccount)
	}
	return nil, err
}

// BuildJournalEntry debits the candidate's expense account and credits the liability
// account for the expected amount, dated at the end of the reviewed period.
func BuildJournalEntry(candidate *models.AccrualCandidate, liability *ledger.Account) (ledger.JournalEntry, error) {
	amount := decimal.NewFromFloat(candidate.ExpectedAmount).Abs().Round(2)
	if !amount.IsPositive() {
		return ledger.JournalEntry{}, fmt.Errorf("accrual amount must be positive, got %s", amount.StringFixed(2))
	}
	memo := Memo(candidate)
	return ledger.JournalEntry{
		TxnDate:     candidate.PeriodToDate.Format("2006-01-02"),
		PrivateNote: memo,
		Line: []ledger.JournalLine{
			{
				Description: memo,
				Amount:      amount,
				DetailType:  "JournalEntryLineDetail",
				JournalEntryLineDetail: ledger.JournalEntryLineDetail{
					PostingType: ledger.PostingTypeDebit,
					AccountRef:  ledger.Ref{Value: candidate.AccountID, Name: candidate.AccountName},
				},
			},
			{
				Description: memo,
				Amount:      amount,
				DetailType:  "JournalEntryLineDetail",
				JournalEntryLineDetail: ledger.JournalEntryLineDetail{
					PostingType: ledger.PostingTypeCredit,
					AccountRef:  ledger.Ref{Value: liability.ID, Name: liability.Name},
				},
			},
		},
	}, nil
}

func Memo(candidate *models.AccrualCandidate) string {
	var b strings.Builder
	b.WriteString("Accrual: ")
	b.WriteString(candidate.AccountName)
	if candidate.VendorName != nil && *candidate.VendorName != "" {
		b.WriteString(" (vendor: ")
		b.WriteString(*candidate.VendorName)
		b.WriteString(")")
	}
	if reason := candidate.Explanation.Data().Reason; reason != "" {
		b.WriteString(". ")
		b.WriteString(reason)
	}
	return b.String()
}
