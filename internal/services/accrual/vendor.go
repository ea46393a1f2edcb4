package accrual

import (
	"math"
	"regexp"
	"strings"
)

var (
	corporateSuffix = regexp.MustCompile(`(?i)^(.+?)[\s,]+(services|inc|llc|corp|ltd|company)\.?$`)
	dashSeparator   = regexp.MustCompile(`^(.+?)\s+-\s+\S.*$`)
)

// ExtractVendor guesses a vendor from an account label such as "Acme Services" or
// "AWS - Hosting". It is a heuristic; nil means no vendor could be read from the label.
func ExtractVendor(accountName string) *string {
	name := strings.TrimSpace(accountName)
	for _, re := range []*regexp.Regexp{corporateSuffix, dashSeparator} {
		if m := re.FindStringSubmatch(name); m != nil {
			if vendor := strings.TrimSpace(m[1]); vendor != "" {
				return &vendor
			}
		}
	}
	return nil
}

// Confidence scores a surviving aggregate in [0, 1].
func Confidence(agg ExpenseAggregate) float64 {
	score := 0.5
	switch {
	case agg.MonthCount >= 6:
		score += 0.2
	case agg.MonthCount >= 3:
		score += 0.1
	}
	if math.Abs(agg.AverageAmount) > 1000 {
		score += 0.1
	}
	if agg.VendorName != nil {
		score += 0.1
	}
	return round(math.Max(0, math.Min(1, score)), 4)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
