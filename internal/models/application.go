package models

import "time"

// Application is a scholarship application record. Before admission it holds
// the normalized row as produced by the intake pipeline; after a successful
// insert it is the durable record owned by storage. Required fields are
// FullName, EmailAddress, ScholarshipID and DateOfBirth; everything else is
// optional applicant-supplied context.
type Application struct {
	ID            string `db:"id" json:"id"`
	ScholarshipID int64  `db:"scholarship_id" json:"scholarship_id"`
	FullName      string `db:"full_name" json:"full_name"`
	EmailAddress  string `db:"email_address" json:"email_address"`
	// DateOfBirth is normalized to YYYY-MM-DD during validation.
	DateOfBirth string `db:"date_of_birth" json:"date_of_birth"`

	Gender              *string `db:"gender" json:"gender,omitempty"`
	Phone               *string `db:"phone" json:"phone,omitempty"`
	Address             *string `db:"address" json:"address,omitempty"`
	AcademicLevel       *string `db:"academic_level" json:"academic_level,omitempty"`
	IntendedMajor       *string `db:"intended_major" json:"intended_major,omitempty"`
	Country             *string `db:"country" json:"country,omitempty"`
	GPA                 *string `db:"gpa" json:"gpa,omitempty"`
	Extracurricular     *string `db:"extracurricular" json:"extracurricular,omitempty"`
	ParentGuardianName  *string `db:"parent_guardian_name" json:"parent_guardian_name,omitempty"`
	ParentGuardianPhone *string `db:"parent_guardian_phone" json:"parent_guardian_phone,omitempty"`
	FinancialNeed       *string `db:"financial_need_statement" json:"financial_need_statement,omitempty"`
	Motivation          *string `db:"motivation_statement" json:"motivation_statement,omitempty"`
	DocumentPath        *string `db:"document_path" json:"document_path,omitempty"`
	TermsAgreed         bool    `db:"terms_agreed" json:"terms_agreed"`

	SuitabilityScore *int      `db:"suitability_score" json:"suitability_score,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
