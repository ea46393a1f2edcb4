package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"month-end-close-backend/internal/models"
)

var ErrInvalidRule = errors.New("invalid accrual rule")

// Repository persists one AccrualRule per organization.
type Repository interface {
	// Get returns nil, nil when the org has no stored rule
	Get(ctx context.Context, orgID string) (*models.AccrualRule, error)

	// Upsert inserts or fully replaces the row keyed by OrgID
	Upsert(ctx context.Context, rule *models.AccrualRule) error
}

// Update is a partial rule. Nil fields keep the previous value; non-nil lists
// replace the previous list wholesale.
type Update struct {
	LookbackMonths      *int     `json:"lookback_months"`
	MinAmount           *float64 `json:"min_amount"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	MinRecurrenceCount  *int     `json:"min_recurrence_count"`
	ExcludedAccounts    []string `json:"excluded_accounts"`
	ExcludedVendors     []string `json:"excluded_vendors"`
	IncludeAccounts     []string `json:"include_accounts"`
}

// DefaultUpdate sets every field to its default.
func DefaultUpdate() Update {
	d := models.DefaultAccrualRule("")
	return Update{
		LookbackMonths:      &d.LookbackMonths,
		MinAmount:           &d.MinAmount,
		ConfidenceThreshold: &d.ConfidenceThreshold,
		MinRecurrenceCount:  &d.MinRecurrenceCount,
		ExcludedAccounts:    []string{},
		ExcludedVendors:     []string{},
		IncludeAccounts:     []string{},
	}
}

type Store struct {
	repo     Repository
	validate *validator.Validate
	logger   logrus.FieldLogger
}

func NewStore(repo Repository, logger logrus.FieldLogger) *Store {
	return &Store{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
	}
}

// Get returns the stored rule, or an unsaved default rule when none exists.
func (s *Store) Get(ctx context.Context, orgID string) (*models.AccrualRule, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: org id is required", ErrInvalidRule)
	}
	rule, err := s.repo.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accrual rule for org %s: %w", orgID, err)
	}
	if rule == nil {
		d := models.DefaultAccrualRule(orgID)
		return &d, nil
	}
	return rule, nil
}

// Save merges update onto the effective rule, upserts it and returns the stored row.
func (s *Store) Save(ctx context.Context, orgID string, update Update) (*models.AccrualRule, error) {
	current, err := s.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}

	merged := merge(*current, update)
	if err := s.validate.Struct(merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	if err := s.repo.Upsert(ctx, &merged); err != nil {
		return nil, fmt.Errorf("failed to save accrual rule for org %s: %w", orgID, err)
	}

	saved, err := s.repo.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload accrual rule for org %s: %w", orgID, err)
	}
	if saved == nil {
		return nil, fmt.Errorf("accrual rule for org %s missing after save", orgID)
	}

	s.logger.WithFields(logrus.Fields{
		"module":          "rules",
		"org_id":          orgID,
		"lookback_months": saved.LookbackMonths,
		"min_amount":      saved.MinAmount,
	}).Info("accrual rule saved")
	return saved, nil
}

func (s *Store) ResetToDefaults(ctx context.Context, orgID string) (*models.AccrualRule, error) {
	return s.Save(ctx, orgID, DefaultUpdate())
}

func merge(rule models.AccrualRule, u Update) models.AccrualRule {
	if u.LookbackMonths != nil {
		rule.LookbackMonths = *u.LookbackMonths
	}
	if u.MinAmount != nil {
		rule.MinAmount = *u.MinAmount
	}
	if u.ConfidenceThreshold != nil {
		rule.ConfidenceThreshold = *u.ConfidenceThreshold
	}
	if u.MinRecurrenceCount != nil {
		rule.MinRecurrenceCount = *u.MinRecurrenceCount
	}
	if u.ExcludedAccounts != nil {
		rule.ExcludedAccounts = normalizeList(u.ExcludedAccounts)
	}
	if u.ExcludedVendors != nil {
		rule.ExcludedVendors = normalizeList(u.ExcludedVendors)
	}
	if u.IncludeAccounts != nil {
		rule.IncludeAccounts = normalizeList(u.IncludeAccounts)
	}
	return rule
}

// normalizeList trims entries and drops blanks and repeats, keeping order.
func normalizeList(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
