package report

import "strings"

const (
	GroupNetIncome     = "NetIncome"
	GroupIncome        = "Income"
	GroupExpenses      = "Expenses"
	labelNetIncome     = "net income"
	labelTotalIncome   = "total income"
	labelTotalExpenses = "total expenses"
)

// NetIncome returns the report's net income, or nil when the report does not state one.
// A nil result is indeterminate and must not be read as zero.
func NetIncome(r *Report) *float64 {
	return LocateTotal(r, GroupNetIncome, labelNetIncome)
}

func TotalIncome(r *Report) *float64 {
	return LocateTotal(r, GroupIncome, labelTotalIncome)
}

func TotalExpenses(r *Report) *float64 {
	return LocateTotal(r, GroupExpenses, labelTotalExpenses)
}

// LocateTotal finds the aggregate tagged with group, or whose cleaned label equals or
// contains label. Subtotals win over plain cells on the same row and later matches
// override earlier ones.
func LocateTotal(r *Report, group, label string) *float64 {
	if r == nil {
		return nil
	}
	m := totalMatcher{group: group, label: label}
	var found *float64
	Walk(r.Nodes, func(n Node, _ []string) {
		var cells []Cell
		switch v := n.(type) {
		case *GroupNode:
			if v.Summary == nil {
				return
			}
			if !m.match(v.Group, v.Label) && !m.match("", firstValue(v.Summary.Cells)) {
				return
			}
			cells = v.Summary.Cells
		case *DataRow:
			if !m.match(v.Group, firstValue(v.Cells)) &&
				(v.Summary == nil || !m.match("", firstValue(v.Summary.Cells))) {
				return
			}
			cells = v.Cells
			if v.Summary != nil {
				cells = v.Summary.Cells
			}
		case *SummaryRow:
			if !m.match(v.Group, firstValue(v.Cells)) {
				return
			}
			cells = v.Cells
		}
		if value, ok := r.lineValue(cells); ok {
			found = &value
		}
	})
	return found
}

type totalMatcher struct {
	group string
	label string
}

func (m totalMatcher) match(group, label string) bool {
	if m.group != "" && group == m.group {
		return true
	}
	clean := cleanLabel(label)
	return clean != "" && strings.Contains(clean, m.label)
}

func cleanLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

func firstValue(cells []Cell) string {
	if len(cells) == 0 {
		return ""
	}
	return cells[0].Value
}
