package model

import "time"

// ColumnCount is the column added by count aggregations
const ColumnCount = "count"

// Row maps a column name to a scalar value
type Row map[string]interface{}

// Table is an aggregate result ready for a tabular or chart renderer
type Table struct {
	Name    string   `json:"name"`
	Title   string   `json:"title,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows
func (t Table) Len() int { return len(t.Rows) }

// Dashboard holds every table shown for one cohort selection
type Dashboard struct {
	Cohort  string   `json:"cohort"`
	Cohorts []string `json:"cohorts"`
	Tables  []Table  `json:"tables"`
}

// Table looks up a table by name
func (d Dashboard) Table(name string) (Table, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Size        int64     `json:"size"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
