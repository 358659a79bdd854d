package pipeline

import (
	"fmt"

	"registration-analytics/internal/model"
)

// Table names
const (
	TableCohortDiscovery     = "cohort_discovery"
	TableCohortPaidByCourse  = "cohort_paid_by_course"
	TableCohortRegistrations = "cohort_registrations"
	TableOriginCounts        = "origin_counts"
	TableStatusByCourse      = "status_by_course"
	TablePaidByCourse        = "paid_by_course"
	TableDiscoveryCounts     = "discovery_counts"
)

// TableNames lists every dashboard table in display order
var TableNames = []string{
	TableCohortDiscovery,
	TableCohortPaidByCourse,
	TableCohortRegistrations,
	TableOriginCounts,
	TableStatusByCourse,
	TablePaidByCourse,
	TableDiscoveryCounts,
}

type tableDef struct {
	name    string
	title   string
	cohort  bool // computed over the selected cohort only
	byCount bool // ordered by descending count
	build   func([]model.DerivedRecord) (model.Table, error)
}

var tableDefs = []tableDef{
	{
		name:   TableCohortDiscovery,
		title:  "Source of Discovery",
		cohort: true,
		build: func(r []model.DerivedRecord) (model.Table, error) {
			return GroupAndCount(r, model.FieldCourse, model.FieldSourceOfDiscovery)
		},
	},
	{
		name:   TableCohortPaidByCourse,
		title:  "Total Paid by Course",
		cohort: true,
		build: func(r []model.DerivedRecord) (model.Table, error) {
			return GroupAndSum(r, model.FieldCourse, model.FieldPaidInReferenceCurrency, model.FieldPaidInOtherCurrency)
		},
	},
	{
		name:   TableCohortRegistrations,
		title:  "Course Applications by Cohort",
		cohort: true,
		build: func(r []model.DerivedRecord) (model.Table, error) {
			return GroupAndCount(r, model.FieldCohort, model.FieldCourse)
		},
	},
	{
		name:    TableOriginCounts,
		title:   "Registrations by Origin",
		byCount: true,
		build: func(r []model.DerivedRecord) (model.Table, error) {
			return GroupAndCount(r, model.FieldUserIP)
		},
	},
	{
		name:  TableStatusByCourse,
		title: "Course Registration Status",
		build: func(r []model.DerivedRecord) (model.Table, error) {
			return GroupAndCount(r, model.FieldCourse, model.FieldStatus)
		},
	},
	{
		name:  TablePaidByCourse,
		title: "Total Paid in Reference Currency by Course",
		build: func(r []model.DerivedRecord) (model.Table, error) {
			return GroupAndSum(r, model.FieldCourse, model.FieldPaidInReferenceCurrency)
		},
	},
	{
		name:    TableDiscoveryCounts,
		title:   "Source of Discovery, All Cohorts",
		byCount: true,
		build: func(r []model.DerivedRecord) (model.Table, error) {
			return GroupAndCount(r, model.FieldSourceOfDiscovery)
		},
	},
}

// BuildDashboard computes every dashboard table from records. Cohort tables
// use only the records of cohort; an unknown cohort yields empty tables.
func BuildDashboard(records []model.DerivedRecord, cohort string) (model.Dashboard, error) {
	selected := FilterByCohort(records, cohort)

	dash := model.Dashboard{
		Cohort:  cohort,
		Cohorts: Distinct(records, model.FieldCohort),
		Tables:  make([]model.Table, 0, len(tableDefs)),
	}
	for _, def := range tableDefs {
		t, err := buildTable(def, records, selected)
		if err != nil {
			return model.Dashboard{}, err
		}
		dash.Tables = append(dash.Tables, t)
	}
	return dash, nil
}

// BuildTable computes a single dashboard table by name
func BuildTable(records []model.DerivedRecord, cohort, name string) (model.Table, error) {
	for _, def := range tableDefs {
		if def.name == name {
			return buildTable(def, records, FilterByCohort(records, cohort))
		}
	}
	return model.Table{}, fmt.Errorf("%w: no table named %s", ErrUnknownField, name)
}

func buildTable(def tableDef, all, selected []model.DerivedRecord) (model.Table, error) {
	input := all
	if def.cohort {
		input = selected
	}

	t, err := def.build(input)
	if err != nil {
		return model.Table{}, fmt.Errorf("table %s: %w", def.name, err)
	}
	t.Name = def.name
	t.Title = def.title

	if def.byCount {
		if t, err = SortTable(t, model.ColumnCount, false); err != nil {
			return model.Table{}, err
		}
	}
	return t, nil
}
