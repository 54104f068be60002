package engine

import (
	"fmt"

	"github.com/spektr-org/admissions/schema"
)

// ============================================================================
// KPI BUILDER — Headline numbers for the current view
// ============================================================================

// KPIs is the headline block shown above the dashboard panels.
type KPIs struct {
	Records       int   `json:"records"`
	Applications  int   `json:"applications"`
	Admitted      int   `json:"admitted"`
	Enrolled      int   `json:"enrolled"`
	AdmissionRate Value `json:"admissionRate"` // admitted / applications, percent
	YieldRate     Value `json:"yieldRate"`     // enrolled / admitted, percent
	Retention     Value `json:"retention"`     // mean retention_rate
	Satisfaction  Value `json:"satisfaction"`  // mean satisfaction_score, 0–100
}

// KPIItem is a formatted label/value pair.
type KPIItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// BuildKPIs totals the view. Rates and means are no data on an empty view.
func BuildKPIs(view View) *KPIs {
	k := &KPIs{Records: view.Len()}

	var retSum, satSum float64
	var retN, satN int
	for i := 0; i < view.Len(); i++ {
		r := view.At(i)
		k.Applications += r.Applications
		k.Admitted += r.Admitted
		k.Enrolled += r.Enrolled
		if v, ok := r.Value(string(schema.FieldRetentionRate)); ok {
			retSum += v
			retN++
		}
		if v, ok := r.Value(string(schema.FieldSatisfactionScore)); ok {
			satSum += v
			satN++
		}
	}

	k.AdmissionRate = percent(k.Admitted, k.Applications)
	k.YieldRate = percent(k.Enrolled, k.Admitted)
	if retN > 0 {
		k.Retention = Num(retSum / float64(retN))
	}
	if satN > 0 {
		k.Satisfaction = Num(satSum / float64(satN))
	}
	return k
}

// Items returns the KPIs formatted for display, in dashboard order.
func (k *KPIs) Items() []KPIItem {
	return []KPIItem{
		{Label: "Records", Value: FormatInt(k.Records)},
		{Label: "Applications", Value: FormatInt(k.Applications)},
		{Label: "Admitted", Value: FormatInt(k.Admitted)},
		{Label: "Enrolled", Value: FormatInt(k.Enrolled)},
		{Label: "Admission Rate", Value: formatPercent(k.AdmissionRate)},
		{Label: "Yield Rate", Value: formatPercent(k.YieldRate)},
		{Label: "Avg Retention", Value: formatPercent(k.Retention)},
		{Label: "Avg Satisfaction", Value: formatPercent(k.Satisfaction)},
	}
}

func percent(num, den int) Value {
	if den == 0 {
		return NoData
	}
	return Num(float64(num) / float64(den) * 100)
}

func formatPercent(v Value) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v.Number)
}
