package service

import (
	"regexp"
	"strings"

	"github.com/noah-isme/scholarship-intake-api/internal/models"
)

// Canonical CSV column names for bulk uploads.
const (
	colFullName        = "full_name"
	colEmail           = "email_address"
	colDateOfBirth     = "date_of_birth"
	colScholarshipID   = "scholarship_id"
	colGender          = "gender"
	colPhone           = "phone"
	colAddress         = "address"
	colAcademicLevel   = "academic_level"
	colIntendedMajor   = "intended_major"
	colGPA             = "gpa"
	colCountry         = "country"
	colExtracurricular = "extracurricular"
	colParentName      = "parent_guardian_name"
	colParentPhone     = "parent_guardian_phone"
	colFinancialNeed   = "financial_need_statement"
	colMotivation      = "motivation_statement"
	colTermsAgreed     = "terms_agreed"
)

// TemplateHeaders is the canonical column order for the bulk upload template.
var TemplateHeaders = []string{
	colFullName, colEmail, colDateOfBirth, colScholarshipID,
	colGender, colPhone, colAddress, colAcademicLevel, colIntendedMajor,
	colGPA, colCountry, colExtracurricular, colParentName, colParentPhone,
	colFinancialNeed, colMotivation, colTermsAgreed,
}

// headerIndex maps lowercased header names to their column position.
type headerIndex map[string]int

func newHeaderIndex(headers []string) headerIndex {
	idx := make(headerIndex, len(headers))
	for i, name := range headers {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, exists := idx[name]; !exists {
			idx[name] = i
		}
	}
	return idx
}

func (h headerIndex) has(name string) bool {
	_, ok := h[name]
	return ok
}

// value returns the trimmed cell under the named column, or "" when the
// column is absent or the row is too short.
func (h headerIndex) value(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h headerIndex) optional(row []string, name string) *string {
	if v := h.value(row, name); v != "" {
		return &v
	}
	return nil
}

// normalizeRow maps one parsed CSV row into an application shell. The
// scholarship id is returned raw so the pipeline can report a distinct error
// for unparseable ids; the date of birth likewise stays raw until validated.
func normalizeRow(idx headerIndex, row []string) (*models.Application, string) {
	app := &models.Application{
		FullName:            idx.value(row, colFullName),
		EmailAddress:        idx.value(row, colEmail),
		DateOfBirth:         idx.value(row, colDateOfBirth),
		Gender:              idx.optional(row, colGender),
		Phone:               idx.optional(row, colPhone),
		Address:             idx.optional(row, colAddress),
		AcademicLevel:       idx.optional(row, colAcademicLevel),
		IntendedMajor:       idx.optional(row, colIntendedMajor),
		GPA:                 idx.optional(row, colGPA),
		Country:             idx.optional(row, colCountry),
		Extracurricular:     idx.optional(row, colExtracurricular),
		ParentGuardianName:  idx.optional(row, colParentName),
		ParentGuardianPhone: idx.optional(row, colParentPhone),
		FinancialNeed:       idx.optional(row, colFinancialNeed),
		Motivation:          idx.optional(row, colMotivation),
		TermsAgreed:         parseBool(idx.value(row, colTermsAgreed)),
	}
	return app, idx.value(row, colScholarshipID)
}

// formAliases lists accepted field names for free-form single submissions,
// tried in order: canonical snake_case first, then camelCase and the legacy
// admin-form spellings.
var formAliases = map[string][]string{
	colFullName:        {"full_name", "fullName", "name", "applicant_name"},
	colEmail:           {"email_address", "emailAddress", "email"},
	colDateOfBirth:     {"date_of_birth", "dateOfBirth", "dob", "birth_date"},
	colScholarshipID:   {"scholarship_id", "scholarshipId"},
	colGender:          {"gender"},
	colPhone:           {"phone", "phone_number", "phoneNumber"},
	colAddress:         {"address"},
	colAcademicLevel:   {"academic_level", "academicLevel", "level"},
	colIntendedMajor:   {"intended_major", "intendedMajor", "major", "field_of_study"},
	colGPA:             {"gpa", "gpa_academic_performance", "academic_performance"},
	colCountry:         {"country", "nationality"},
	colExtracurricular: {"extracurricular", "extracurricular_activities", "extracurricularActivities"},
	colParentName:      {"parent_guardian_name", "parentGuardianName", "guardian_name"},
	colParentPhone:     {"parent_guardian_phone", "parentGuardianPhone", "guardian_phone"},
	colFinancialNeed:   {"financial_need_statement", "financialNeedStatement", "financial_need"},
	colMotivation:      {"motivation_statement", "motivationStatement", "motivation"},
	colTermsAgreed:     {"terms_agreed", "termsAgreed", "agree_terms"},
}

var emailShaped = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// formLookup resolves a logical field against arbitrary form keys using the
// ordered alias table. Keys are matched case-insensitively.
func formLookup(values map[string]string, field string) string {
	for _, alias := range formAliases[field] {
		for key, val := range values {
			if strings.EqualFold(strings.TrimSpace(key), alias) {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// inferEmail and inferName are the best-effort fallbacks for admin-entered
// free-form data: they fire only after every alias misses, and missing
// required fields after inference still fail validation outright.
func inferEmail(values map[string]string) string {
	for key, val := range values {
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			continue
		}
		if strings.Contains(strings.ToLower(key), "email") || emailShaped.MatchString(trimmed) {
			return trimmed
		}
	}
	return ""
}

func inferName(values map[string]string) string {
	for key, val := range values {
		trimmed := strings.TrimSpace(val)
		if trimmed == "" || emailShaped.MatchString(trimmed) {
			continue
		}
		if strings.Contains(strings.ToLower(key), "name") {
			return trimmed
		}
	}
	return ""
}

// NormalizeForm builds an application shell from arbitrary key/value form
// data using the alias table, falling back to heuristic inference for the
// name and email fields only.
func NormalizeForm(values map[string]string) (*models.Application, string) {
	optionalField := func(field string) *string {
		if v := formLookup(values, field); v != "" {
			return &v
		}
		return nil
	}

	app := &models.Application{
		FullName:            formLookup(values, colFullName),
		EmailAddress:        formLookup(values, colEmail),
		DateOfBirth:         formLookup(values, colDateOfBirth),
		Gender:              optionalField(colGender),
		Phone:               optionalField(colPhone),
		Address:             optionalField(colAddress),
		AcademicLevel:       optionalField(colAcademicLevel),
		IntendedMajor:       optionalField(colIntendedMajor),
		GPA:                 optionalField(colGPA),
		Country:             optionalField(colCountry),
		Extracurricular:     optionalField(colExtracurricular),
		ParentGuardianName:  optionalField(colParentName),
		ParentGuardianPhone: optionalField(colParentPhone),
		FinancialNeed:       optionalField(colFinancialNeed),
		Motivation:          optionalField(colMotivation),
		TermsAgreed:         parseBool(formLookup(values, colTermsAgreed)),
	}
	if app.EmailAddress == "" {
		app.EmailAddress = inferEmail(values)
	}
	if app.FullName == "" {
		app.FullName = inferName(values)
	}
	return app, formLookup(values, colScholarshipID)
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
