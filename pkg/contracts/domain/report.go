package domain

// Table is a named, ephemeral report table: a header plus pre-formatted rows.
// Table names are a stable contract with downstream consumers (spreadsheet
// tabs, report files) and must not be renamed without a consumer update.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// KPI is one headline metric as a (label, value) pair. KPIs keep their
// insertion order when published.
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ReportSet is the full output of one aggregation run: the named tables in
// publish order plus the KPI record.
type ReportSet struct {
	Tables []Table `json:"tables"`
	KPIs   []KPI   `json:"kpis"`
}

// Table returns the table with the given name, or false when absent.
func (s ReportSet) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Stable table names for the fixed portion of the report set. Data-dependent
// tables (per-category daily series, leaderboards) derive their names from
// the category value, e.g. "Horse Racing Daily" or "Top Horse Racing Tracks".
const (
	TableByDay      = "By Day"
	TableByWeek     = "By Week"
	TableByMonth    = "By Month"
	TableByCategory = "By Category"
	TableByRegion   = "By Region"
	TableWorstDays  = "Worst Days"
	TableRolling    = "Rolling"
	TableKPIs       = "KPIs"
)
