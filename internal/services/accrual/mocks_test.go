package accrual

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"month-end-close-backend/internal/models"
	"month-end-close-backend/internal/repository"
	"month-end-close-backend/internal/services/posting"
)

type MockRuleSource struct {
	mock.Mock
}

func (m *MockRuleSource) Get(ctx context.Context, orgID string) (*models.AccrualRule, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualRule), args.Error(1)
}

type MockCandidateRepository struct {
	mock.Mock
}

func (m *MockCandidateRepository) CreateIfAbsent(ctx context.Context, c *models.AccrualCandidate) (*models.AccrualCandidate, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualCandidate), args.Error(1)
}

func (m *MockCandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AccrualCandidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccrualCandidate), args.Error(1)
}

func (m *MockCandidateRepository) List(ctx context.Context, f repository.CandidateFilter) ([]models.AccrualCandidate, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccrualCandidate), args.Error(1)
}

func (m *MockCandidateRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockPoster struct {
	mock.Mock
}

func (m *MockPoster) Post(ctx context.Context, orgID string, candidate *models.AccrualCandidate) (posting.Result, error) {
	args := m.Called(ctx, orgID, candidate)
	return args.Get(0).(posting.Result), args.Error(1)
}
