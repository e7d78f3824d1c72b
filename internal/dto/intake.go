package dto

// Row outcome statuses.
const (
	RowStatusInserted  = "inserted"
	RowStatusDuplicate = "duplicate"
	RowStatusError     = "error"
)

// RowOutcome describes the fate of one CSV data row. Row numbers are
// 1-indexed against the header row, so the first data row is row 2.
type RowOutcome struct {
	Row           int    `json:"row"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	Email         string `json:"email,omitempty"`
	ScholarshipID int64  `json:"scholarship_id,omitempty"`
}

// BatchSummary aggregates the outcomes of a whole upload.
type BatchSummary struct {
	Inserted   int          `json:"inserted"`
	Duplicates int          `json:"duplicates"`
	Errors     int          `json:"errors"`
	Rows       []RowOutcome `json:"rows"`
}

// Total returns the number of rows accounted for.
func (s *BatchSummary) Total() int {
	return s.Inserted + s.Duplicates + s.Errors
}

// BreakdownItem is one scored criterion of a suitability evaluation.
type BreakdownItem struct {
	Key    string `json:"key"`
	Points int    `json:"points"`
}

// SubmitResult is returned for an interactive single submission.
type SubmitResult struct {
	ID                   string          `json:"id"`
	SuitabilityPercent   int             `json:"suitability_percent"`
	SuitabilityBreakdown []BreakdownItem `json:"suitability_breakdown"`
}
