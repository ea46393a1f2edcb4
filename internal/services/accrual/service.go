package accrual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"month-end-close-backend/internal/config"
	"month-end-close-backend/internal/models"
	"month-end-close-backend/internal/repository"
	"month-end-close-backend/internal/services/posting"
)

var ErrInvalidTransition = errors.New("invalid candidate status transition")

type RuleSource interface {
	Get(ctx context.Context, orgID string) (*models.AccrualRule, error)
}

type CandidateRepository interface {
	CreateIfAbsent(ctx context.Context, c *models.AccrualCandidate) (*models.AccrualCandidate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.AccrualCandidate, error)
	List(ctx context.Context, f repository.CandidateFilter) ([]models.AccrualCandidate, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type Poster interface {
	Post(ctx context.Context, orgID string, candidate *models.AccrualCandidate) (posting.Result, error)
}

// Approval is the candidate after approval and the outcome of posting it.
type Approval struct {
	Candidate *models.AccrualCandidate `json:"candidate"`
	Posting   posting.Result           `json:"posting"`
}

type Service struct {
	rules      RuleSource
	detector   *Detector
	candidates CandidateRepository
	poster     Poster
	logger     logrus.FieldLogger
}

func NewService(rules RuleSource, detector *Detector, candidates CandidateRepository, poster Poster, logger logrus.FieldLogger) *Service {
	return &Service{
		rules:      rules,
		detector:   detector,
		candidates: candidates,
		poster:     poster,
		logger:     logger,
	}
}

// RunDetection detects candidates with the org's effective rule and stores them. Candidates
// already stored for the same org, period, account and vendor are returned as stored.
func (s *Service) RunDetection(ctx context.Context, orgID string, from, to time.Time, debug bool) (*Result, error) {
	rule, err := s.rules.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accrual rule: %w", err)
	}
	res, err := s.detector.Detect(ctx, orgID, from, to, rule, debug)
	if err != nil {
		config.LogError(s.logger, "accrual", "RunDetection", "detect", orgID, err)
		return nil, err
	}
	for i := range res.Candidates {
		stored, err := s.candidates.CreateIfAbsent(ctx, &res.Candidates[i])
		if err != nil {
			return nil, fmt.Errorf("failed to store accrual candidate: %w", err)
		}
		res.Candidates[i] = *stored
	}
	return res, nil
}

func (s *Service) List(ctx context.Context, f repository.CandidateFilter) ([]models.AccrualCandidate, error) {
	if f.OrgID == "" {
		return nil, fmt.Errorf("%w: org id is required", ErrInvalidPeriod)
	}
	return s.candidates.List(ctx, f)
}

// Approve moves a pending candidate to approved and posts it. Approving an approved
// candidate posts again, which is a no-op once a posting succeeded.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Approval, error) {
	c, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case models.CandidateStatusRejected:
		return nil, fmt.Errorf("%w: candidate %s is rejected", ErrInvalidTransition, id)
	case models.CandidateStatusPending:
		if err := s.candidates.UpdateStatus(ctx, id, models.CandidateStatusApproved); err != nil {
			return nil, err
		}
		c.Status = models.CandidateStatusApproved
	}

	result, err := s.poster.Post(ctx, c.OrgID, c)
	if err != nil {
		return nil, err
	}
	return &Approval{Candidate: c, Posting: result}, nil
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*models.AccrualCandidate, error) {
	c, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case models.CandidateStatusRejected:
		return c, nil
	case models.CandidateStatusApproved:
		return nil, fmt.Errorf("%w: candidate %s is already approved", ErrInvalidTransition, id)
	}
	if err := s.candidates.UpdateStatus(ctx, id, models.CandidateStatusRejected); err != nil {
		return nil, err
	}
	c.Status = models.CandidateStatusRejected
	return c, nil
}

// Post retries posting for an approved candidate.
func (s *Service) Post(ctx context.Context, id uuid.UUID) (posting.Result, error) {
	c, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		return posting.Result{}, err
	}
	if c.Status != models.CandidateStatusApproved {
		return posting.Result{}, fmt.Errorf("%w: candidate %s is %s", ErrInvalidTransition, id, c.Status)
	}
	return s.poster.Post(ctx, c.OrgID, c)
}
