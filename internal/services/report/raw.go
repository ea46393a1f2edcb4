package report

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Raw is the report document as returned by the ledger reports endpoint.
type Raw struct {
	Header  RawHeader  `json:"Header"`
	Columns RawColumns `json:"Columns"`
	Rows    RawRows    `json:"Rows"`
}

type RawHeader struct {
	ReportName  string `json:"ReportName"`
	StartPeriod string `json:"StartPeriod"`
	EndPeriod   string `json:"EndPeriod"`
	Currency    string `json:"Currency"`
}

type RawColumns struct {
	Column []RawColumn `json:"Column"`
}

type RawColumn struct {
	ColTitle string    `json:"ColTitle"`
	ColType  string    `json:"ColType"`
	MetaData []RawMeta `json:"MetaData"`
}

type RawMeta struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// RawRows accepts `{"Row": [...]}`, `{"Row": {...}}` and a bare `[...]`.
type RawRows struct {
	Row []RawRow `json:"Row"`
}

func (r *RawRows) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		r.Row = nil
		return json.Unmarshal(trimmed, &r.Row)
	}
	var wrapper struct {
		Row json.RawMessage `json:"Row"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	r.Row = nil
	trimmed := bytes.TrimSpace(wrapper.Row)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '{' {
		var single RawRow
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		r.Row = []RawRow{single}
		return nil
	}
	return json.Unmarshal(trimmed, &r.Row)
}

type RawRow struct {
	Header  *RawColData `json:"Header,omitempty"`
	Rows    *RawRows    `json:"Rows,omitempty"`
	ColData []RawCell   `json:"ColData,omitempty"`
	Summary *RawColData `json:"Summary,omitempty"`
	Type    string      `json:"type,omitempty"`
	Group   string      `json:"group,omitempty"`
}

type RawColData struct {
	ColData []RawCell `json:"ColData"`
}

// RawCell tolerates numeric values where the API usually sends strings.
type RawCell struct {
	Value string `json:"value"`
	ID    string `json:"id,omitempty"`
}

func (c *RawCell) UnmarshalJSON(data []byte) error {
	var fields struct {
		Value json.RawMessage `json:"value"`
		ID    json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	c.Value = scalarString(fields.Value)
	c.ID = scalarString(fields.ID)
	return nil
}

func scalarString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
		return ""
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

// Decode parses a raw report document and normalizes it.
func Decode(data []byte) (*Report, error) {
	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return Normalize(&raw), nil
}
