package posting

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"month-end-close-backend/internal/ledger"
	"month-end-close-backend/internal/models"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) FindAccount(ctx context.Context, cred ledger.Credential, accountType, name string) (*ledger.Account, error) {
	args := m.Called(ctx, cred, accountType, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockLedger) CreateJournalEntry(ctx context.Context, cred ledger.Credential, entry ledger.JournalEntry) (string, error) {
	args := m.Called(ctx, cred, entry)
	return args.String(0), args.Error(1)
}

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Get(ctx context.Context, candidateID uuid.UUID) (*models.PostingRecord, error) {
	args := m.Called(ctx, candidateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PostingRecord), args.Error(1)
}

func (m *MockRecordRepository) Upsert(ctx context.Context, record *models.PostingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) GetValidCredential(ctx context.Context, orgID string) (ledger.Credential, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(ledger.Credential), args.Error(1)
}

type lockerFunc func(ctx context.Context, id uuid.UUID) (func(), error)

func (f lockerFunc) Acquire(ctx context.Context, id uuid.UUID) (func(), error) { return f(ctx, id) }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
