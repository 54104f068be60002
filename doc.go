// Package admissions filters and aggregates university admissions data.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/admissions/engine"
//	    "github.com/spektr-org/admissions/helpers"
//	    "github.com/spektr-org/admissions/schema"
//	)
//
//	ds, err := helpers.Load(ctx, "admissions.csv", "", schema.DefaultConfig())
//	session := engine.NewSession(ds.Store)
//	_ = session.SetFilter(engine.FilterSpec{Terms: []string{"Fall"}, Years: engine.YearRange(2019, 2022)})
//	summary, err := session.Summarize([]string{"year"}, []engine.Metric{engine.Sum("enrolled")})
//
// The schema package maps raw headers onto canonical fields, helpers loads
// CSV files, URLs and SQLite tables, and engine filters, aggregates and
// builds render-ready tables and charts. All computation is local; the
// mcpserver package and cmd/admissions are thin front ends.
package admissions
