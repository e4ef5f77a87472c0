package domain

import "time"

// RunSummary records the outcome of one batch run. Batch- and row-level
// problems are counted here rather than failing the run; a reporting failure
// after a successful ledger write is recorded without rolling the merge back.
type RunSummary struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	FilesProcessed  int       `json:"files_processed"`
	BatchesRejected int       `json:"batches_rejected"`
	RowsDropped     int       `json:"rows_dropped"`
	RowsInserted    int       `json:"rows_inserted"`
	LedgerRows      int       `json:"ledger_rows"`
	MergeCompleted  bool      `json:"merge_completed"`
	ReportError     string    `json:"report_error,omitempty"`
}

// Status returns a short human-readable outcome for the run summary log line.
func (s RunSummary) Status() string {
	switch {
	case !s.MergeCompleted:
		return "merge failed"
	case s.ReportError != "":
		return "merge succeeded, reporting failed"
	default:
		return "completed"
	}
}
