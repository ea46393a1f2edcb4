package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound   = errors.New("ledger account not found")
	ErrNoConnection      = errors.New("no ledger connection for organization")
	ErrCredentialExpired = errors.New("ledger credential expired")
)

const (
	AccountTypeOtherCurrentLiability = "Other Current Liability"
	AccountTypeAccountsPayable       = "Accounts Payable"

	PostingTypeDebit  = "Debit"
	PostingTypeCredit = "Credit"
)

// Credential is a bearer token scoped to one ledger company (realm).
type Credential struct {
	AccessToken string
	RealmID     string
}

// APIError is a non-2xx or malformed response from the ledger API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger api error %d: %s", e.StatusCode, e.Message)
}

// ReportParams selects the report window. SummarizeColumnBy is e.g. "Month".
type ReportParams struct {
	StartDate         time.Time
	EndDate           time.Time
	SummarizeColumnBy string
}

type Account struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	AccountType    string `json:"AccountType"`
	AccountSubType string `json:"AccountSubType,omitempty"`
	Active         bool   `json:"Active"`
}

type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type JournalEntry struct {
	TxnDate     string        `json:"TxnDate"`
	PrivateNote string        `json:"PrivateNote,omitempty"`
	Line        []JournalLine `json:"Line"`
}

type JournalLine struct {
	Description            string                 `json:"Description,omitempty"`
	Amount                 decimal.Decimal        `json:"Amount"`
	DetailType             string                 `json:"DetailType"`
	JournalEntryLineDetail JournalEntryLineDetail `json:"JournalEntryLineDetail"`
}

type JournalEntryLineDetail struct {
	PostingType string `json:"PostingType"`
	AccountRef  Ref    `json:"AccountRef"`
}

// MarshalJSON writes Amount as a JSON number with two decimals.
func (l JournalLine) MarshalJSON() ([]byte, error) {
	type alias JournalLine
	return json.Marshal(struct {
		alias
		Amount json.RawMessage `json:"Amount"`
	}{alias(l), json.RawMessage(l.Amount.StringFixed(2))})
}

// Balanced reports whether debits equal credits.
func (e JournalEntry) Balanced() bool {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range e.Line {
		switch l.JournalEntryLineDetail.PostingType {
		case PostingTypeDebit:
			debit = debit.Add(l.Amount)
		case PostingTypeCredit:
			credit = credit.Add(l.Amount)
		}
	}
	return len(e.Line) > 0 && debit.Equal(credit)
}
