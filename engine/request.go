package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// REQUEST PARSER — Decodes a JSON summarize request
// ============================================================================
//
//	{
//	  "filter":  {"terms": ["Fall"], "years": {"range": [2019, 2022]}, "departments": []},
//	  "groupBy": ["year", "term"],
//	  "metrics": ["applications:sum", {"field": "retention_rate", "op": "mean"}]
//	}
//
// "years" is either {"range": [lo, hi]} or {"set": [...]}, never both.
// Decoding checks shape only; FilterSpec and metric validity are checked by
// Apply and Aggregate.
// ============================================================================

// Request is a filter plus an aggregation.
type Request struct {
	Filter  FilterSpec `json:"filter"`
	GroupBy []string   `json:"groupBy"`
	Metrics []Metric   `json:"metrics"`
}

// ParseRequest decodes a JSON request.
func ParseRequest(data []byte) (*Request, error) {
	data = bytes.TrimSpace(data)
	data = bytes.TrimPrefix(data, []byte("```json"))
	data = bytes.TrimPrefix(data, []byte("```"))
	data = bytes.TrimSuffix(data, []byte("```"))

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	for i, d := range req.GroupBy {
		req.GroupBy[i] = strings.ToLower(strings.TrimSpace(d))
	}
	return &req, nil
}

// ParseMetric parses "field:op". A bare field means sum.
func ParseMetric(s string) (Metric, error) {
	field, op, found := strings.Cut(strings.TrimSpace(s), ":")
	field = strings.ToLower(strings.TrimSpace(field))
	if field == "" {
		return Metric{}, fmt.Errorf("metric %q: missing field", s)
	}
	if !found {
		return Sum(field), nil
	}
	op = strings.ToLower(strings.TrimSpace(op))
	if op == "avg" || op == "average" {
		op = string(OpMean)
	}
	return Metric{Field: field, Op: Op(op)}, nil
}

// ParseMetrics parses a list of "field:op" strings.
func ParseMetrics(items []string) ([]Metric, error) {
	metrics := make([]Metric, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			continue
		}
		m, err := ParseMetric(it)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// UnmarshalJSON accepts "field:op" or {"field": ..., "op": ...}.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseMetric(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	type plain Metric
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("metric: expected \"field:op\" or {\"field\",\"op\"}: %w", err)
	}
	if p.Op == "" {
		p.Op = OpSum
	}
	*m = Metric(p)
	return nil
}

// yearFilterJSON is the wire form of YearFilter.
type yearFilterJSON struct {
	Range []int `json:"range,omitempty"`
	Set   []int `json:"set,omitempty"`
}

// MarshalJSON writes {"range":[lo,hi]}, {"set":[...]} or null.
func (y YearFilter) MarshalJSON() ([]byte, error) {
	switch y.mode {
	case yearsRange:
		return json.Marshal(yearFilterJSON{Range: []int{y.lo, y.hi}})
	case yearsSet:
		return json.Marshal(yearFilterJSON{Set: y.set})
	}
	return []byte("null"), nil
}

// UnmarshalJSON reads the forms written by MarshalJSON.
func (y *YearFilter) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*y = AllYears()
		return nil
	}
	var w yearFilterJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("years: %w", err)
	}
	switch {
	case w.Range != nil && w.Set != nil:
		return fmt.Errorf("years: range and set are mutually exclusive")
	case w.Range != nil:
		if len(w.Range) != 2 {
			return fmt.Errorf("years: range needs exactly 2 bounds, got %d", len(w.Range))
		}
		*y = YearRange(w.Range[0], w.Range[1])
	default:
		*y = YearSet(w.Set...)
	}
	return nil
}

// ============================================================================
// FLAG-STYLE INPUT — "2019-2022", "2019,2021", "Fall,Spring"
// ============================================================================

// ParseYearFilter builds a YearFilter from a "lo-hi" range or a
// comma-separated set. At most one may be non-empty.
func ParseYearFilter(rangeStr, setStr string) (YearFilter, error) {
	rangeStr, setStr = strings.TrimSpace(rangeStr), strings.TrimSpace(setStr)
	switch {
	case rangeStr != "" && setStr != "":
		return AllYears(), fmt.Errorf("years: range and set are mutually exclusive")
	case rangeStr != "":
		lo, hi, found := strings.Cut(rangeStr, "-")
		if !found {
			return AllYears(), fmt.Errorf("years: range %q must look like 2019-2022", rangeStr)
		}
		l, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return AllYears(), fmt.Errorf("years: bad lower bound %q", lo)
		}
		h, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return AllYears(), fmt.Errorf("years: bad upper bound %q", hi)
		}
		return YearRange(l, h), nil
	case setStr != "":
		var years []int
		for _, item := range SplitList(setStr) {
			y, err := strconv.Atoi(item)
			if err != nil {
				return AllYears(), fmt.Errorf("years: bad year %q", item)
			}
			years = append(years, y)
		}
		return YearSet(years...), nil
	}
	return AllYears(), nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
