package report

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceData    Source = "data"
	SourceSummary Source = "summary"
)

const sectionSeparator = " > "

// ReportLine is one flattened, typed line of a report.
type ReportLine struct {
	Name      string        `json:"name"`
	AccountID string        `json:"account_id,omitempty"`
	Value     float64       `json:"value"`
	Source    Source        `json:"source"`
	Section   string        `json:"section,omitempty"`
	Group     string        `json:"group,omitempty"`
	Periods   []PeriodValue `json:"periods,omitempty"`
}

// PeriodValue is the value of a line in one non-total column, e.g. a month.
type PeriodValue struct {
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Value     float64   `json:"value"`
}

// Zero-valued lines with these labels are real zeros, not missing data.
var protectedZeroLabels = []string{
	"net income",
	"net operating income",
	"gross profit",
	"total income",
	"total expenses",
}

// Flatten turns the report tree into de-duplicated lines, one per (section, source, name).
func Flatten(r *Report) []ReportLine {
	if r == nil {
		return nil
	}
	var lines []ReportLine
	Walk(r.Nodes, func(n Node, path []string) {
		section := strings.Join(path, sectionSeparator)
		switch v := n.(type) {
		case *GroupNode:
			if v.Summary != nil {
				sub := strings.Join(append(append([]string(nil), path...), v.Label), sectionSeparator)
				lines = r.appendLine(lines, v.Summary.Cells, SourceSummary, sub, v.Group)
			}
		case *DataRow:
			lines = r.appendLine(lines, v.Cells, SourceData, section, v.Group)
			if v.Summary != nil {
				lines = r.appendLine(lines, v.Summary.Cells, SourceSummary, section, v.Group)
			}
		case *SummaryRow:
			lines = r.appendLine(lines, v.Cells, SourceSummary, section, v.Group)
		}
	})
	return dedupe(lines)
}

func (r *Report) appendLine(lines []ReportLine, cells []Cell, source Source, section, group string) []ReportLine {
	if len(cells) == 0 {
		return lines
	}
	name := strings.TrimSpace(cells[0].Value)
	lower := strings.ToLower(name)
	if lower == "total" {
		return lines
	}
	value, ok := r.lineValue(cells)
	if !ok {
		return lines
	}
	if value == 0 && !isProtectedZero(lower) {
		return lines
	}
	line := ReportLine{
		Name:      name,
		AccountID: strings.TrimSpace(cells[0].ID),
		Value:     value,
		Source:    source,
		Section:   section,
		Group:     group,
	}
	if source == SourceData {
		line.Periods = r.periodValues(cells)
	}
	return append(lines, line)
}

// lineValue picks the total column, then the rightmost numeric cell, then column 1.
func (r *Report) lineValue(cells []Cell) (float64, bool) {
	if idx := r.totalColumn(); idx > 0 && idx < len(cells) {
		if v, ok := ParseAmount(cells[idx].Value); ok {
			return v, true
		}
	}
	for i := len(cells) - 1; i > 1; i-- {
		if v, ok := ParseAmount(cells[i].Value); ok {
			return v, true
		}
	}
	if len(cells) > 1 {
		return ParseAmount(cells[1].Value)
	}
	return 0, false
}

func (r *Report) periodValues(cells []Cell) []PeriodValue {
	total := r.totalColumn()
	var periods []PeriodValue
	for i := 1; i < len(cells) && i < len(r.Columns); i++ {
		if i == total {
			continue
		}
		col := r.Columns[i]
		if col.StartDate.IsZero() && col.EndDate.IsZero() {
			continue
		}
		v, ok := ParseAmount(cells[i].Value)
		if !ok {
			continue
		}
		periods = append(periods, PeriodValue{
			Title:     col.Title,
			StartDate: col.StartDate,
			EndDate:   col.EndDate,
			Value:     v,
		})
	}
	return periods
}

func isProtectedZero(lowerName string) bool {
	for _, label := range protectedZeroLabels {
		if strings.Contains(lowerName, label) {
			return true
		}
	}
	return false
}

type lineKey struct {
	section string
	source  Source
	name    string
}

// dedupe keeps the largest-magnitude line per key, in first-seen key order.
func dedupe(lines []ReportLine) []ReportLine {
	index := make(map[lineKey]int, len(lines))
	out := make([]ReportLine, 0, len(lines))
	for _, l := range lines {
		k := lineKey{section: l.Section, source: l.Source, name: l.Name}
		if i, ok := index[k]; ok {
			if math.Abs(l.Value) > math.Abs(out[i].Value) {
				out[i] = l
			}
			continue
		}
		index[k] = len(out)
		out = append(out, l)
	}
	return out
}

// ParseAmount parses report cell text such as "1,234.50", "-20" or "(75.00)".
// Empty and NaN cells have no value.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, true
}
