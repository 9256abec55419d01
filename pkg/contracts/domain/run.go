package domain

import "time"

// Pass names recorded in the run ledger.
const (
	PassRemarks = "remarks"
	PassScores  = "scores"
	PassMatch   = "match"
	PassConvert = "convert"
)

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunRecord describes one execution of a pass over an input workbook.
// InputRows minus OutputRows is the number of rows the pass dropped.
type RunRecord struct {
	ID         string     `json:"id" db:"id" validate:"required,uuid"`
	Pass       string     `json:"pass" db:"pass" validate:"required,oneof=remarks scores match convert"`
	InputFile  string     `json:"input_file" db:"input_file"`
	InputRows  int        `json:"input_rows" db:"input_rows" validate:"min=0"`
	OutputRows int        `json:"output_rows" db:"output_rows" validate:"min=0"`
	Issues     int        `json:"issues" db:"issues" validate:"min=0"`
	Status     string     `json:"status" db:"status" validate:"required,oneof=running completed failed"`
	Error      string     `json:"error,omitempty" db:"error"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// Dropped returns how many input rows did not reach the output.
func (r RunRecord) Dropped() int {
	if r.OutputRows >= r.InputRows {
		return 0
	}
	return r.InputRows - r.OutputRows
}
