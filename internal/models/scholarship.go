package models

import "time"

// Scholarship status values.
const (
	ScholarshipStatusActive   = "active"
	ScholarshipStatusInactive = "inactive"
)

// AcademicLevelAny is the wildcard level matching every applicant.
const AcademicLevelAny = "other"

// Scholarship is the eligibility-rule snapshot an application is checked
// against. NumberOfAwards nil or zero means unlimited capacity.
type Scholarship struct {
	ID                  int64      `db:"id" json:"id"`
	Title               string     `db:"title" json:"title"`
	Status              string     `db:"status" json:"status"`
	AcademicLevel       string     `db:"academic_level" json:"academic_level"`
	FieldOfStudy        string     `db:"field_of_study" json:"field_of_study"`
	SponsorCountry      string     `db:"sponsor_country" json:"sponsor_country"`
	MinGPA              *float64   `db:"min_gpa" json:"min_gpa,omitempty"`
	NumberOfAwards      *int       `db:"number_of_awards" json:"number_of_awards,omitempty"`
	AwardedCount        int        `db:"awarded_count" json:"awarded_count"`
	ApplicationDeadline *time.Time `db:"application_deadline" json:"application_deadline,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Unlimited reports whether the scholarship has no award cap.
func (s *Scholarship) Unlimited() bool {
	return s.NumberOfAwards == nil || *s.NumberOfAwards <= 0
}
