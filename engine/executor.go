package engine

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/spektr-org/admissions/schema"
)

// ============================================================================
// EXECUTOR — Session state + dashboard recomputation
// ============================================================================
// Entry point: NewSession(store, opts...)
//
// Each interaction is one synchronous recomputation:
//   1. Apply the FilterSpec → FilteredView
//   2. Build the KPI block
//   3. Aggregate every panel
//   4. Build table + chart per panel
//
// The session only remembers the current filter and view. A rejected
// filter leaves both untouched.
// ============================================================================

// Panel is one dashboard visual: an aggregation plus how to draw it.
type Panel struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	GroupBy []string `json:"groupBy"`
	Metrics []Metric `json:"metrics"`
	Chart   string   `json:"chart"` // "bar", "line", "grouped_bar"
}

// DefaultPanels returns the standard admissions dashboard.
func DefaultPanels() []Panel {
	var (
		apps     = string(schema.FieldApplications)
		admitted = string(schema.FieldAdmitted)
		enrolled = string(schema.FieldEnrolled)
		retain   = string(schema.FieldRetentionRate)
		satisfy  = string(schema.FieldSatisfactionScore)
		term     = string(schema.FieldTerm)
		year     = string(schema.FieldYear)
		dept     = string(schema.FieldDepartment)
	)
	return []Panel{
		{
			Name:    "kpis_by_term",
			Title:   "Applications, Admissions and Enrollments by Term",
			GroupBy: []string{term},
			Metrics: []Metric{Sum(apps), Sum(admitted), Sum(enrolled)},
			Chart:   "grouped_bar",
		},
		{
			Name:    "retention_trend",
			Title:   "Retention Rate Trends",
			GroupBy: []string{year, term},
			Metrics: []Metric{Mean(retain)},
			Chart:   "line",
		},
		{
			Name:    "satisfaction_trend",
			Title:   "Student Satisfaction Trends",
			GroupBy: []string{year, term},
			Metrics: []Metric{Mean(satisfy)},
			Chart:   "line",
		},
		{
			Name:    "enrollment_by_department",
			Title:   "Enrollment by Department",
			GroupBy: []string{year, dept},
			Metrics: []Metric{Sum(enrolled)},
			Chart:   "line",
		},
		{
			Name:    "spring_vs_fall",
			Title:   "Spring vs Fall Comparison",
			GroupBy: []string{year, term},
			Metrics: []Metric{Sum(apps), Sum(admitted), Sum(enrolled)},
			Chart:   "grouped_bar",
		},
		{
			Name:    "retention_vs_satisfaction",
			Title:   "Retention Rate vs Student Satisfaction",
			GroupBy: []string{year},
			Metrics: []Metric{Mean(retain), Mean(satisfy)},
			Chart:   "line",
		},
	}
}

// PanelResult is one computed panel. Err is set instead of the outputs when
// the panel's aggregation was rejected for this dataset.
type PanelResult struct {
	Panel   Panel        `json:"panel"`
	Summary *Summary     `json:"summary,omitempty"`
	Table   *TableData   `json:"table,omitempty"`
	Chart   *ChartConfig `json:"chart,omitempty"`
	Err     string       `json:"error,omitempty"`
}

// DashboardResult is the output of one full recomputation.
type DashboardResult struct {
	Session string        `json:"session"`
	Filter  FilterSpec    `json:"filter"`
	Records int           `json:"records"`
	KPIs    *KPIs         `json:"kpis"`
	Panels  []PanelResult `json:"panels"`
}

// ============================================================================
// SESSION
// ============================================================================

// Session holds the current filter and view over one store. It is not safe
// for concurrent use.
type Session struct {
	id    string
	store *Store
	spec  FilterSpec
	view  *FilteredView
	cfg   *config
	log   *slog.Logger
}

// NewSession starts a session with an empty filter (the whole store).
func NewSession(store *Store, opts ...Option) *Session {
	cfg := applyOptions(opts)
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		id:    id,
		store: store,
		cfg:   cfg,
		log:   cfg.Logger.With("session", id),
	}
	// an empty spec always validates
	s.view, _ = Apply(store, FilterSpec{})
	return s
}

func (s *Session) ID() string          { return s.id }
func (s *Session) Store() *Store       { return s.store }
func (s *Session) Filter() FilterSpec  { return s.spec }
func (s *Session) View() *FilteredView { return s.view }

// SetFilter recomputes the view. On error the previous filter and view are
// kept.
func (s *Session) SetFilter(spec FilterSpec) error {
	view, err := Apply(s.store, spec)
	if err != nil {
		s.log.Warn("filter rejected, keeping previous view", "error", err)
		return err
	}
	s.spec, s.view = spec, view
	s.log.Debug("filter applied",
		"terms", spec.Terms,
		"years", spec.Years.String(),
		"departments", spec.Departments,
		"records", view.Len(),
		"of", s.store.Len())
	return nil
}

// Summarize aggregates the current view.
func (s *Session) Summarize(groupBy []string, metrics []Metric) (*Summary, error) {
	summary, err := Aggregate(s.view, groupBy, metrics)
	if err != nil {
		return nil, err
	}
	s.log.Debug("summarized", "groupBy", groupBy, "metrics", len(metrics), "groups", len(summary.Rows))
	return summary, nil
}

// Dashboard applies spec and recomputes every panel against the new view.
// A nil panels slice uses the session's configured panels. A filter error
// is returned as is; a panel that cannot be computed for this dataset is
// reported on its PanelResult and the rest still run.
func (s *Session) Dashboard(spec FilterSpec, panels []Panel) (*DashboardResult, error) {
	if err := s.SetFilter(spec); err != nil {
		return nil, err
	}
	if panels == nil {
		panels = s.cfg.Panels
	}

	result := &DashboardResult{
		Session: s.id,
		Filter:  s.spec,
		Records: s.view.Len(),
		KPIs:    BuildKPIs(s.view),
		Panels:  make([]PanelResult, 0, len(panels)),
	}

	for _, p := range panels {
		pr := PanelResult{Panel: p}
		summary, err := Aggregate(s.view, p.GroupBy, p.Metrics)
		if err != nil {
			s.log.Warn("panel skipped", "panel", p.Name, "error", err)
			pr.Err = err.Error()
			result.Panels = append(result.Panels, pr)
			continue
		}
		pr.Summary = summary
		pr.Table = BuildTable(summary, p.Title)
		pr.Chart = BuildChart(summary, p.Chart, p.Title)
		result.Panels = append(result.Panels, pr)
	}

	s.log.Debug("dashboard recomputed", "records", result.Records, "panels", len(result.Panels))
	return result, nil
}
