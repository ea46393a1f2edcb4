package report

import (
	"strings"
	"time"
)

// Node is one of *GroupNode, *DataRow or *SummaryRow.
type Node interface {
	isNode()
}

// GroupNode is a section header with nested rows and an optional subtotal.
type GroupNode struct {
	Label    string
	Group    string
	Children []Node
	Summary  *SummaryRow
}

// DataRow is a leaf line. Summary is set when the same raw row also carried a subtotal.
type DataRow struct {
	Group   string
	Cells   []Cell
	Summary *SummaryRow
}

type SummaryRow struct {
	Group string
	Cells []Cell
}

func (*GroupNode) isNode()  {}
func (*DataRow) isNode()    {}
func (*SummaryRow) isNode() {}

type Cell struct {
	Value string
	ID    string
}

type Column struct {
	Title     string
	Type      string
	Key       string
	IsTotal   bool
	StartDate time.Time
	EndDate   time.Time
}

// Report is the normalized form of Raw.
type Report struct {
	Name        string
	StartPeriod string
	EndPeriod   string
	Columns     []Column
	Nodes       []Node
}

func (r *Report) totalColumn() int {
	for i, c := range r.Columns {
		if c.IsTotal {
			return i
		}
	}
	for i, c := range r.Columns {
		if strings.EqualFold(strings.TrimSpace(c.Title), "total") {
			return i
		}
	}
	return -1
}

// Normalize converts the loosely shaped raw rows into the closed Node variant.
func Normalize(raw *Raw) *Report {
	r := &Report{
		Name:        raw.Header.ReportName,
		StartPeriod: raw.Header.StartPeriod,
		EndPeriod:   raw.Header.EndPeriod,
	}
	for _, rc := range raw.Columns.Column {
		col := Column{Title: rc.ColTitle, Type: rc.ColType}
		for _, m := range rc.MetaData {
			switch strings.ToLower(m.Name) {
			case "colkey":
				col.Key = m.Value
				if strings.EqualFold(m.Value, "total") {
					col.IsTotal = true
				}
			case "startdate":
				col.StartDate, _ = time.Parse(dateLayout, m.Value)
			case "enddate":
				col.EndDate, _ = time.Parse(dateLayout, m.Value)
			}
		}
		r.Columns = append(r.Columns, col)
	}
	r.Nodes = normalizeRows(raw.Rows.Row)
	return r
}

const dateLayout = "2006-01-02"

func normalizeRows(rows []RawRow) []Node {
	var nodes []Node
	for _, row := range rows {
		var summary *SummaryRow
		if row.Summary != nil && len(row.Summary.ColData) > 0 {
			summary = &SummaryRow{Group: row.Group, Cells: toCells(row.Summary.ColData)}
		}

		switch {
		case row.Header != nil:
			g := &GroupNode{Group: row.Group, Summary: summary}
			if len(row.Header.ColData) > 0 {
				g.Label = strings.TrimSpace(row.Header.ColData[0].Value)
			}
			if row.Rows != nil {
				g.Children = normalizeRows(row.Rows.Row)
			}
			nodes = append(nodes, g)
		case len(row.ColData) > 0:
			nodes = append(nodes, &DataRow{Group: row.Group, Cells: toCells(row.ColData), Summary: summary})
		case summary != nil:
			if row.Rows != nil {
				nodes = append(nodes, normalizeRows(row.Rows.Row)...)
			}
			nodes = append(nodes, summary)
		case row.Rows != nil:
			nodes = append(nodes, normalizeRows(row.Rows.Row)...)
		}
	}
	return nodes
}

func toCells(raw []RawCell) []Cell {
	cells := make([]Cell, len(raw))
	for i, c := range raw {
		cells[i] = Cell{Value: c.Value, ID: c.ID}
	}
	return cells
}

// Walk visits every node depth-first. path holds the group labels above n.
func Walk(nodes []Node, visit func(n Node, path []string)) {
	walk(nodes, nil, visit)
}

func walk(nodes []Node, path []string, visit func(n Node, path []string)) {
	for _, n := range nodes {
		visit(n, path)
		if g, ok := n.(*GroupNode); ok && len(g.Children) > 0 {
			child := append(append([]string(nil), path...), g.Label)
			walk(g.Children, child, visit)
		}
	}
}

// PeriodCount is the number of dated, non-total columns (e.g. months).
func (r *Report) PeriodCount() int {
	if r == nil {
		return 0
	}
	total := r.totalColumn()
	n := 0
	for i, c := range r.Columns {
		if i == total || (c.StartDate.IsZero() && c.EndDate.IsZero()) {
			continue
		}
		n++
	}
	return n
}
