package accrual

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"month-end-close-backend/internal/ledger"
	"month-end-close-backend/internal/models"
	"month-end-close-backend/internal/services/report"
)

var ErrInvalidPeriod = errors.New("invalid detection period")

const (
	ProfitAndLossReport = "ProfitAndLoss"

	PatternMonthly   = "monthly"
	PatternRecurring = "recurring"
	PatternSingle    = "single"
)

// ReportSource fetches a normalized ledger report for an org.
type ReportSource interface {
	FetchReport(ctx context.Context, orgID, name string, params ledger.ReportParams) (*report.Report, error)
}

type Options struct {
	// Relative distance from the historical average under which the expense counts as present
	PresentTolerance float64
	// Expense observations at or below this magnitude are ignored
	NoiseFloor float64
	// Max pre-threshold survivors recorded in the debug trace
	DebugExampleLimit int
	ReportName        string
}

func DefaultOptions() Options {
	return Options{
		PresentTolerance:  0.10,
		NoiseFloor:        10,
		DebugExampleLimit: 5,
		ReportName:        ProfitAndLossReport,
	}
}

// ExpenseAggregate is one expense account summed over the historical window.
type ExpenseAggregate struct {
	AccountID     string     `json:"account_id"`
	AccountName   string     `json:"account_name"`
	VendorName    *string    `json:"vendor_name"`
	TotalAmount   float64    `json:"total_amount"`
	AverageAmount float64    `json:"average_amount"`
	MonthCount    int        `json:"month_count"`
	LastSeenDate  *time.Time `json:"last_seen_date"`
	Pattern       string     `json:"pattern"`
}

type Timings struct {
	HistoricalFetchMs int64 `json:"historical_fetch_ms"`
	CurrentFetchMs    int64 `json:"current_fetch_ms"`
	ProcessingMs      int64 `json:"processing_ms"`
	TotalMs           int64 `json:"total_ms"`
}

type DebugExample struct {
	AccountID     string  `json:"account_id"`
	AccountName   string  `json:"account_name"`
	VendorName    *string `json:"vendor_name"`
	AverageAmount float64 `json:"average_amount"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
}

// Debug is recorded on every run; Examples only when requested.
type Debug struct {
	PeriodFrom     string `json:"period_from"`
	PeriodTo       string `json:"period_to"`
	HistoricalFrom string `json:"historical_from"`
	HistoricalTo   string `json:"historical_to"`

	HistoricalRowCount int `json:"historical_row_count"`
	CurrentRowCount    int `json:"current_row_count"`
	// Historical expense aggregates evaluated against the filters
	RowsReadCount int `json:"rows_read_count"`

	ExcludedByAccountFilter               int `json:"excluded_by_account_filter"`
	ExcludedByVendorFilter                int `json:"excluded_by_vendor_filter"`
	ExcludedBecausePresentInCurrentPeriod int `json:"excluded_because_present_in_current_period"`
	ExcludedByMinAmount                   int `json:"excluded_by_min_amount"`
	ExcludedByMissingRecurrence           int `json:"excluded_by_missing_recurrence"`
	ExcludedByConfidence                  int `json:"excluded_by_confidence"`
	CandidatesCount                       int `json:"candidates_count"`

	Timings  Timings        `json:"timings"`
	Examples []DebugExample `json:"examples,omitempty"`
}

type Result struct {
	Candidates []models.AccrualCandidate `json:"candidates"`
	Debug      Debug                     `json:"debug"`
}

type Detector struct {
	source ReportSource
	opts   Options
	logger logrus.FieldLogger
	now    func() time.Time
	newID  func() uuid.UUID
}

func NewDetector(source ReportSource, opts Options, logger logrus.FieldLogger) *Detector {
	if opts.ReportName == "" {
		opts.ReportName = ProfitAndLossReport
	}
	return &Detector{
		source: source,
		opts:   opts,
		logger: logger,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// Detect finds recurring expenses from the lookback window that are missing from
// [periodFrom, periodTo]. Either report fetch failing fails the whole run.
func (d *Detector) Detect(ctx context.Context, orgID string, periodFrom, periodTo time.Time, rule *models.AccrualRule, debug bool) (*Result, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: org id is required", ErrInvalidPeriod)
	}
	if rule == nil {
		return nil, fmt.Errorf("%w: accrual rule is required", ErrInvalidPeriod)
	}
	if periodFrom.IsZero() || periodTo.IsZero() {
		return nil, fmt.Errorf("%w: period_from and period_to are required", ErrInvalidPeriod)
	}
	periodFrom, periodTo = calendarDate(periodFrom), calendarDate(periodTo)
	if periodTo.Before(periodFrom) {
		return nil, fmt.Errorf("%w: period_to is before period_from", ErrInvalidPeriod)
	}

	lookback := rule.LookbackMonths
	if lookback < 1 {
		lookback = models.DefaultLookbackMonths
	}
	historicalFrom := monthsAgo(periodFrom, lookback)
	historicalTo := periodFrom.AddDate(0, 0, -1)

	started := d.now()
	res := &Result{Debug: Debug{
		PeriodFrom:     periodFrom.Format(dateLayout),
		PeriodTo:       periodTo.Format(dateLayout),
		HistoricalFrom: historicalFrom.Format(dateLayout),
		HistoricalTo:   historicalTo.Format(dateLayout),
	}}

	var historical, current *report.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.Now()
		r, err := d.source.FetchReport(gctx, orgID, d.opts.ReportName, ledger.ReportParams{
			StartDate:         historicalFrom,
			EndDate:           historicalTo,
			SummarizeColumnBy: "Month",
		})
		res.Debug.Timings.HistoricalFetchMs = time.Since(t).Milliseconds()
		if err != nil {
			return fmt.Errorf("failed to fetch historical report: %w", err)
		}
		historical = r
		return nil
	})
	g.Go(func() error {
		t := time.Now()
		r, err := d.source.FetchReport(gctx, orgID, d.opts.ReportName, ledger.ReportParams{
			StartDate: periodFrom,
			EndDate:   periodTo,
		})
		res.Debug.Timings.CurrentFetchMs = time.Since(t).Milliseconds()
		if err != nil {
			return fmt.Errorf("failed to fetch current period report: %w", err)
		}
		current = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	processing := time.Now()
	historicalLines := report.Flatten(historical)
	currentLines := report.Flatten(current)
	res.Debug.HistoricalRowCount = len(historicalLines)
	res.Debug.CurrentRowCount = len(currentLines)

	aggregates := d.aggregate(historicalLines, historical.PeriodCount(), historicalTo)
	currentAmounts := currentByAccount(currentLines)
	res.Debug.RowsReadCount = len(aggregates)

	included := toSet(rule.IncludeAccounts, false)
	excludedAccounts := toSet(rule.ExcludedAccounts, false)
	excludedVendors := toSet(rule.ExcludedVendors, true)

	res.Candidates = []models.AccrualCandidate{}
	for _, agg := range aggregates {
		if included.len() > 0 && !included.has(agg.AccountID) {
			res.Debug.ExcludedByAccountFilter++
			continue
		}
		if excludedAccounts.has(agg.AccountID) {
			res.Debug.ExcludedByAccountFilter++
			continue
		}
		if agg.VendorName != nil && excludedVendors.has(*agg.VendorName) {
			res.Debug.ExcludedByVendorFilter++
			continue
		}
		currentAmount := currentAmounts[agg.AccountID]
		if math.Abs(currentAmount-agg.AverageAmount)/math.Max(math.Abs(agg.AverageAmount), 1) < d.opts.PresentTolerance {
			res.Debug.ExcludedBecausePresentInCurrentPeriod++
			continue
		}
		if math.Abs(agg.AverageAmount) < rule.MinAmount {
			res.Debug.ExcludedByMinAmount++
			continue
		}
		if agg.MonthCount < rule.MinRecurrenceCount {
			res.Debug.ExcludedByMissingRecurrence++
			continue
		}

		confidence := Confidence(agg)
		reason := explain(agg, currentAmount, lookback)
		if debug && len(res.Debug.Examples) < d.opts.DebugExampleLimit {
			res.Debug.Examples = append(res.Debug.Examples, DebugExample{
				AccountID:     agg.AccountID,
				AccountName:   agg.AccountName,
				VendorName:    agg.VendorName,
				AverageAmount: agg.AverageAmount,
				Confidence:    confidence,
				Reason:        reason,
			})
		}
		if confidence < rule.ConfidenceThreshold {
			res.Debug.ExcludedByConfidence++
			continue
		}

		res.Candidates = append(res.Candidates, d.candidate(orgID, periodFrom, periodTo, agg, confidence, reason))
	}
	res.Debug.CandidatesCount = len(res.Candidates)

	res.Debug.Timings.ProcessingMs = time.Since(processing).Milliseconds()
	res.Debug.Timings.TotalMs = d.now().Sub(started).Milliseconds()

	d.logger.WithFields(logrus.Fields{
		"module":          "accrual",
		"org_id":          orgID,
		"period_from":     res.Debug.PeriodFrom,
		"period_to":       res.Debug.PeriodTo,
		"rows_read_count": res.Debug.RowsReadCount,
		"candidates":      res.Debug.CandidatesCount,
		"total_ms":        res.Debug.Timings.TotalMs,
	}).Info("accrual detection finished")

	return res, nil
}

// aggregate sums qualifying expense observations per account, in first-seen order.
func (d *Detector) aggregate(lines []report.ReportLine, periodCount int, historicalTo time.Time) []ExpenseAggregate {
	index := make(map[string]int)
	var out []ExpenseAggregate
	for _, line := range lines {
		if line.Source != report.SourceData {
			continue
		}
		key := accountKey(line)
		observations := line.Periods
		if len(observations) == 0 {
			observations = []report.PeriodValue{{EndDate: historicalTo, Value: line.Value}}
		}
		for _, obs := range observations {
			if obs.Value >= 0 || math.Abs(obs.Value) <= d.opts.NoiseFloor {
				continue
			}
			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				out = append(out, ExpenseAggregate{
					AccountID:   key,
					AccountName: line.Name,
					VendorName:  ExtractVendor(line.Name),
				})
			}
			agg := &out[i]
			agg.TotalAmount += obs.Value
			agg.MonthCount++
			seen := obs.EndDate
			if seen.IsZero() {
				seen = obs.StartDate
			}
			if seen.IsZero() {
				seen = historicalTo
			}
			if agg.LastSeenDate == nil || seen.After(*agg.LastSeenDate) {
				agg.LastSeenDate = &seen
			}
		}
	}

	for i := range out {
		agg := &out[i]
		agg.AverageAmount = round(agg.TotalAmount/float64(agg.MonthCount), 2)
		agg.TotalAmount = round(agg.TotalAmount, 2)
		switch {
		case agg.MonthCount == 1:
			agg.Pattern = PatternSingle
		case periodCount > 0 && agg.MonthCount >= periodCount:
			agg.Pattern = PatternMonthly
		default:
			agg.Pattern = PatternRecurring
		}
	}
	return out
}

func (d *Detector) candidate(orgID string, from, to time.Time, agg ExpenseAggregate, confidence float64, reason string) models.AccrualCandidate {
	avg := math.Abs(agg.AverageAmount)
	return models.AccrualCandidate{
		ID:              d.newID(),
		OrgID:           orgID,
		PeriodFromDate:  from,
		PeriodToDate:    to,
		VendorName:      agg.VendorName,
		AccountID:       agg.AccountID,
		AccountName:     agg.AccountName,
		ExpectedAmount:  avg,
		ConfidenceScore: confidence,
		Explanation: datatypes.NewJSONType(models.CandidateExplanation{
			Reason:           reason,
			HistoricalMonths: agg.MonthCount,
			AverageAmount:    avg,
			LastSeenDate:     agg.LastSeenDate,
			Pattern:          agg.Pattern,
		}),
		Status: models.CandidateStatusPending,
	}
}

func explain(agg ExpenseAggregate, currentAmount float64, lookback int) string {
	avg := math.Abs(agg.AverageAmount)
	if currentAmount == 0 {
		return fmt.Sprintf("%s appeared in %d of the last %d months averaging %.2f but has no activity this period",
			agg.AccountName, agg.MonthCount, lookback, avg)
	}
	return fmt.Sprintf("%s appeared in %d of the last %d months averaging %.2f but only %.2f was recorded this period",
		agg.AccountName, agg.MonthCount, lookback, avg, math.Abs(currentAmount))
}

func currentByAccount(lines []report.ReportLine) map[string]float64 {
	amounts := make(map[string]float64)
	for _, line := range lines {
		if line.Source != report.SourceData {
			continue
		}
		amounts[accountKey(line)] += line.Value
	}
	return amounts
}

func accountKey(line report.ReportLine) string {
	if line.AccountID != "" {
		return line.AccountID
	}
	return line.Name
}

type stringSet struct {
	values map[string]struct{}
	fold   bool
}

func toSet(values []string, fold bool) stringSet {
	set := stringSet{values: make(map[string]struct{}, len(values)), fold: fold}
	for _, v := range values {
		if v = set.key(v); v != "" {
			set.values[v] = struct{}{}
		}
	}
	return set
}

func (s stringSet) key(v string) string {
	v = strings.TrimSpace(v)
	if s.fold {
		return strings.ToLower(v)
	}
	return v
}

func (s stringSet) len() int { return len(s.values) }

func (s stringSet) has(v string) bool {
	_, ok := s.values[s.key(v)]
	return ok
}

const dateLayout = "2006-01-02"

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthsAgo steps back n calendar months, clamping to the last day of the target month.
func monthsAgo(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
