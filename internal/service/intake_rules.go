package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/scholarship-intake-api/internal/models"
)

// Row-scoped failure codes. Every code is terminal for its row and fatal to
// nothing else; the batch always runs to completion.
const (
	RowErrMissingField          = "MISSING_FIELD"
	RowErrInvalidScholarshipID  = "INVALID_SCHOLARSHIP_ID"
	RowErrInvalidDate           = "INVALID_DATE"
	RowErrScholarshipNotFound   = "SCHOLARSHIP_NOT_FOUND"
	RowErrScholarshipInactive   = "SCHOLARSHIP_INACTIVE"
	RowErrDeadlinePassed        = "DEADLINE_PASSED"
	RowErrAcademicLevelMismatch = "ACADEMIC_LEVEL_MISMATCH"
	RowErrGpaBelowMinimum       = "GPA_BELOW_MINIMUM"
	RowErrCapacityReached       = "CAPACITY_REACHED"
	RowErrDuplicateInBatch      = "DUPLICATE_IN_BATCH"
	RowErrDuplicateInDb         = "DUPLICATE_IN_DB"
	RowErrDbInsertFailure       = "DB_INSERT_FAILURE"
)

// RowError carries a row failure code and a human message. It is data, not a
// transport error: rows that fail become outcomes, never HTTP errors.
type RowError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return e.Message
}

// IsDuplicate reports whether the failure should be counted as a duplicate
// rather than an error.
func (e *RowError) IsDuplicate() bool {
	return e.Code == RowErrDuplicateInBatch || e.Code == RowErrDuplicateInDb
}

func rowError(code, format string, args ...interface{}) *RowError {
	return &RowError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// BatchState carries the mutable, request-scoped accumulation for one upload:
// the scholarship rule cache, pre-existing persisted counts, rows admitted so
// far and the duplicate keys already seen. It is created per request and
// discarded with it; rows must be processed sequentially against it.
type BatchState struct {
	scholarships map[int64]*models.Scholarship
	missing      map[int64]bool
	persisted    map[int64]int
	inserted     map[int64]int
	seen         map[string]struct{}
}

// NewBatchState returns an empty batch accumulator.
func NewBatchState() *BatchState {
	return &BatchState{
		scholarships: make(map[int64]*models.Scholarship),
		missing:      make(map[int64]bool),
		persisted:    make(map[int64]int),
		inserted:     make(map[int64]int),
		seen:         make(map[string]struct{}),
	}
}

// Scholarship returns the cached rule for id. The second result is false when
// the id has not been looked up yet; a cached negative lookup returns
// (nil, true) so storage is hit at most once per id.
func (b *BatchState) Scholarship(id int64) (*models.Scholarship, bool) {
	if sch, ok := b.scholarships[id]; ok {
		return sch, true
	}
	if b.missing[id] {
		return nil, true
	}
	return nil, false
}

// CacheScholarship records a lookup result, nil meaning not found.
func (b *BatchState) CacheScholarship(id int64, sch *models.Scholarship) {
	if sch == nil {
		b.missing[id] = true
		return
	}
	b.scholarships[id] = sch
}

// SetPersistedCount stores the number of applications already in storage for
// the scholarship before this batch began.
func (b *BatchState) SetPersistedCount(id int64, count int) {
	b.persisted[id] = count
}

// HasPersistedCount reports whether the persisted count was already loaded.
func (b *BatchState) HasPersistedCount(id int64) bool {
	_, ok := b.persisted[id]
	return ok
}

// UsedSlots returns persisted plus batch-admitted applications for id.
func (b *BatchState) UsedSlots(id int64) int {
	return b.persisted[id] + b.inserted[id]
}

// RecordInsert counts an admitted row against the scholarship's capacity.
func (b *BatchState) RecordInsert(id int64) {
	b.inserted[id]++
}

// Seen reports whether the duplicate key was already admitted in this batch.
func (b *BatchState) Seen(key string) bool {
	_, ok := b.seen[key]
	return ok
}

// MarkSeen registers a duplicate key at admission time, so a third occurrence
// of the same pair within one batch is also rejected.
func (b *BatchState) MarkSeen(key string) {
	b.seen[key] = struct{}{}
}

// DuplicateKey builds the batch-scoped dedup key for a scholarship/email
// pair. Email comparison is case and surrounding-whitespace insensitive.
func DuplicateKey(scholarshipID int64, email string) string {
	return strconv.FormatInt(scholarshipID, 10) + "|" + strings.ToLower(strings.TrimSpace(email))
}

// ParseScholarshipID parses the raw cell into a positive integer id.
func ParseScholarshipID(raw string) (int64, *RowError) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, rowError(RowErrInvalidScholarshipID, "invalid scholarship id %q", raw)
	}
	return id, nil
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006", time.RFC3339}

// NormalizeDate parses a date of birth in any accepted layout and returns it
// as YYYY-MM-DD.
func NormalizeDate(raw string) (string, *RowError) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", rowError(RowErrInvalidDate, "invalid date of birth %q", raw)
}

var gpaPattern = regexp.MustCompile(`[0-9]+(\.[0-9]+)?`)

// ExtractGPA pulls the first numeric substring out of a free-text GPA field.
// It returns nil when no number is present, so callers can distinguish an
// unknown GPA from a zero one.
func ExtractGPA(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	match := gpaPattern.FindString(*raw)
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &value
}

// CheckRequired verifies the four mandatory application fields.
func CheckRequired(app *models.Application) *RowError {
	switch {
	case strings.TrimSpace(app.FullName) == "":
		return rowError(RowErrMissingField, "full_name is required")
	case strings.TrimSpace(app.EmailAddress) == "":
		return rowError(RowErrMissingField, "email_address is required")
	case app.ScholarshipID <= 0:
		return rowError(RowErrMissingField, "scholarship_id is required")
	case strings.TrimSpace(app.DateOfBirth) == "":
		return rowError(RowErrMissingField, "date_of_birth is required")
	}
	return nil
}

// CheckEligibility validates an application against its scholarship rule.
// Pure: same inputs always produce the same verdict. The rule's "other"
// academic level acts as a wildcard, and GPA enforcement is a hard cutoff,
// deliberately stricter than the tolerance tiers used for scoring.
func CheckEligibility(app *models.Application, rule *models.Scholarship, today time.Time) *RowError {
	if rule == nil {
		return rowError(RowErrScholarshipNotFound, "scholarship %d not found", app.ScholarshipID)
	}
	if rule.Status != models.ScholarshipStatusActive {
		return rowError(RowErrScholarshipInactive, "scholarship %d is not accepting applications", rule.ID)
	}
	if rule.ApplicationDeadline != nil {
		deadline := rule.ApplicationDeadline.Truncate(24 * time.Hour)
		if deadline.Before(today.Truncate(24 * time.Hour)) {
			return rowError(RowErrDeadlinePassed, "application deadline for scholarship %d has passed", rule.ID)
		}
	}
	if app.AcademicLevel != nil && strings.TrimSpace(*app.AcademicLevel) != "" && rule.AcademicLevel != "" &&
		!strings.EqualFold(rule.AcademicLevel, models.AcademicLevelAny) &&
		!strings.EqualFold(*app.AcademicLevel, rule.AcademicLevel) {
		return rowError(RowErrAcademicLevelMismatch, "academic level %q does not match required %q", *app.AcademicLevel, rule.AcademicLevel)
	}
	if rule.MinGPA != nil {
		gpa := ExtractGPA(app.GPA)
		if gpa == nil || *gpa < *rule.MinGPA {
			return rowError(RowErrGpaBelowMinimum, "GPA below required minimum %.2f", *rule.MinGPA)
		}
	}
	return nil
}

// CheckCapacity is the in-process admission pre-check. The authoritative
// guard is the repository's conditional slot reservation; this keeps one
// batch honest against its own inserts without a round trip per row.
func CheckCapacity(rule *models.Scholarship, state *BatchState) *RowError {
	if rule.Unlimited() {
		return nil
	}
	if state.UsedSlots(rule.ID) >= *rule.NumberOfAwards {
		return rowError(RowErrCapacityReached, "scholarship %d has no remaining award slots", rule.ID)
	}
	return nil
}
