package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"month-end-close-backend/internal/ledger"
	"month-end-close-backend/internal/models"
	"month-end-close-backend/internal/services/report"
)

var ErrInvalidPeriod = errors.New("invalid review period")

const (
	FindingNetIncomeIndeterminate = "net_income_indeterminate"
	FindingNetLoss                = "net_loss"
	FindingExpenseIncrease        = "expense_increase"

	SeverityWarning = "warning"
	SeverityInfo    = "info"

	increaseRatio = 1.5
)

type ReportSource interface {
	FetchReport(ctx context.Context, orgID, name string, params ledger.ReportParams) (*report.Report, error)
}

type RuleSource interface {
	Get(ctx context.Context, orgID string) (*models.AccrualRule, error)
}

type Finding struct {
	Code          string   `json:"code"`
	Severity      string   `json:"severity"`
	Message       string   `json:"message"`
	AccountID     string   `json:"account_id,omitempty"`
	AccountName   string   `json:"account_name,omitempty"`
	CurrentAmount *float64 `json:"current_amount,omitempty"`
	PriorAmount   *float64 `json:"prior_amount,omitempty"`
}

// Summary is nil-valued where a total could not be located; nil is never zero.
type Summary struct {
	OrgID         string    `json:"org_id"`
	PeriodFrom    string    `json:"period_from"`
	PeriodTo      string    `json:"period_to"`
	PriorFrom     string    `json:"prior_from"`
	PriorTo       string    `json:"prior_to"`
	NetIncome     *float64  `json:"net_income"`
	Indeterminate bool      `json:"indeterminate"`
	TotalIncome   *float64  `json:"total_income"`
	TotalExpenses *float64  `json:"total_expenses"`
	Findings      []Finding `json:"findings"`
}

type Service struct {
	source ReportSource
	rules  RuleSource
	logger logrus.FieldLogger
}

func NewService(source ReportSource, rules RuleSource, logger logrus.FieldLogger) *Service {
	return &Service{source: source, rules: rules, logger: logger}
}

// Summarize reviews the period's profit and loss against the preceding period of equal length.
func (s *Service) Summarize(ctx context.Context, orgID string, from, to time.Time) (*Summary, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: org id is required", ErrInvalidPeriod)
	}
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: period_from and period_to are required", ErrInvalidPeriod)
	}
	from, to = calendarDate(from), calendarDate(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period_to is before period_from", ErrInvalidPeriod)
	}
	priorFrom, priorTo := PriorPeriod(from, to)

	rule, err := s.rules.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accrual rule: %w", err)
	}

	var current, prior *report.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.source.FetchReport(gctx, orgID, "ProfitAndLoss", ledger.ReportParams{StartDate: from, EndDate: to})
		if err != nil {
			return fmt.Errorf("failed to fetch current period report: %w", err)
		}
		current = r
		return nil
	})
	g.Go(func() error {
		r, err := s.source.FetchReport(gctx, orgID, "ProfitAndLoss", ledger.ReportParams{StartDate: priorFrom, EndDate: priorTo})
		if err != nil {
			return fmt.Errorf("failed to fetch prior period report: %w", err)
		}
		prior = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{
		OrgID:         orgID,
		PeriodFrom:    from.Format(time.DateOnly),
		PeriodTo:      to.Format(time.DateOnly),
		PriorFrom:     priorFrom.Format(time.DateOnly),
		PriorTo:       priorTo.Format(time.DateOnly),
		NetIncome:     report.NetIncome(current),
		TotalIncome:   report.TotalIncome(current),
		TotalExpenses: report.TotalExpenses(current),
		Findings:      []Finding{},
	}

	switch {
	case sum.NetIncome == nil:
		sum.Indeterminate = true
		sum.Findings = append(sum.Findings, Finding{
			Code:     FindingNetIncomeIndeterminate,
			Severity: SeverityWarning,
			Message:  "Net income could not be located in the report",
		})
	case *sum.NetIncome < 0:
		sum.Findings = append(sum.Findings, Finding{
			Code:          FindingNetLoss,
			Severity:      SeverityWarning,
			Message:       fmt.Sprintf("Net loss of %.2f for the period", math.Abs(*sum.NetIncome)),
			CurrentAmount: sum.NetIncome,
		})
	}
	sum.Findings = append(sum.Findings, expenseIncreases(report.Flatten(current), report.Flatten(prior), rule.MinAmount)...)

	s.logger.WithFields(logrus.Fields{
		"module":        "review",
		"org_id":        orgID,
		"period_from":   sum.PeriodFrom,
		"period_to":     sum.PeriodTo,
		"indeterminate": sum.Indeterminate,
		"findings":      len(sum.Findings),
	}).Info("close review summarized")
	return sum, nil
}

// expenseIncreases flags accounts whose spend grew by more than half and by more than
// minAmount. Accounts with no prior spend are not flagged.
func expenseIncreases(current, prior []report.ReportLine, minAmount float64) []Finding {
	currentByAccount := expensesByAccount(current)
	priorByAccount := expensesByAccount(prior)
	var findings []Finding
	seen := make(map[string]bool)
	for _, line := range current {
		if line.Source != report.SourceData || line.Value >= 0 {
			continue
		}
		key := accountKey(line)
		if seen[key] {
			continue
		}
		seen[key] = true

		cur := math.Abs(currentByAccount[key])
		before, ok := priorByAccount[key]
		before = math.Abs(before)
		if !ok || before == 0 {
			continue
		}
		if cur > before*increaseRatio && cur-before > minAmount {
			c, p := cur, before
			findings = append(findings, Finding{
				Code:          FindingExpenseIncrease,
				Severity:      SeverityInfo,
				Message:       fmt.Sprintf("%s increased from %.2f to %.2f", line.Name, p, c),
				AccountID:     key,
				AccountName:   line.Name,
				CurrentAmount: &c,
				PriorAmount:   &p,
			})
		}
	}
	return findings
}

func expensesByAccount(lines []report.ReportLine) map[string]float64 {
	out := make(map[string]float64)
	for _, line := range lines {
		if line.Source != report.SourceData || line.Value >= 0 {
			continue
		}
		out[accountKey(line)] += line.Value
	}
	return out
}

func accountKey(line report.ReportLine) string {
	if line.AccountID != "" {
		return line.AccountID
	}
	return line.Name
}

// PriorPeriod returns the period of the same number of days ending the day before from.
func PriorPeriod(from, to time.Time) (time.Time, time.Time) {
	days := int(to.Sub(from).Hours()/24) + 1
	priorTo := from.AddDate(0, 0, -1)
	return priorTo.AddDate(0, 0, -(days - 1)), priorTo
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
