package service

import (
	"strings"

	"github.com/noah-isme/scholarship-intake-api/internal/dto"
	"github.com/noah-isme/scholarship-intake-api/internal/models"
)

// Suitability criterion keys, in the order they are scored and reported.
const (
	criterionAcademicLevel   = "academic_level"
	criterionGPA             = "gpa"
	criterionFieldOfStudy    = "field_of_study"
	criterionCountry         = "country"
	criterionDocuments       = "documents"
	criterionMotivation      = "motivation"
	criterionExtracurricular = "extracurricular"
)

// ScoreSuitability computes the 0-100 applicant fit estimate and its
// per-criterion breakdown. The score is advisory only and never gates
// admission; unlike eligibility it gives partial credit around the GPA floor
// and for unknown values. Pure and deterministic, so the breakdown order is
// stable for a given input.
func ScoreSuitability(app *models.Application, rule *models.Scholarship) (int, []dto.BreakdownItem) {
	breakdown := []dto.BreakdownItem{
		{Key: criterionAcademicLevel, Points: scoreAcademicLevel(app, rule)},
		{Key: criterionGPA, Points: scoreGPA(app, rule)},
		{Key: criterionFieldOfStudy, Points: scoreFieldOfStudy(app, rule)},
		{Key: criterionCountry, Points: scoreCountry(app, rule)},
		{Key: criterionDocuments, Points: scoreDocuments(app)},
		{Key: criterionMotivation, Points: scoreStatement(app.Motivation, 150, 60, 10, 6, 3)},
		{Key: criterionExtracurricular, Points: scoreStatement(app.Extracurricular, 80, 20, 5, 3, 2)},
	}

	total := 0
	for _, item := range breakdown {
		total += item.Points
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total, breakdown
}

func scoreAcademicLevel(app *models.Application, rule *models.Scholarship) int {
	applicant := deref(app.AcademicLevel)
	required := strings.TrimSpace(rule.AcademicLevel)
	if applicant == "" || required == "" {
		return 10
	}
	if strings.EqualFold(applicant, required) || strings.EqualFold(required, models.AcademicLevelAny) {
		return 20
	}
	return 0
}

func scoreGPA(app *models.Application, rule *models.Scholarship) int {
	gpa := ExtractGPA(app.GPA)
	if gpa == nil || rule.MinGPA == nil {
		return 10
	}
	switch {
	case *gpa >= *rule.MinGPA:
		return 25
	case *gpa >= *rule.MinGPA-0.2:
		return 15
	case *gpa >= *rule.MinGPA-0.5:
		return 8
	}
	return 0
}

func scoreFieldOfStudy(app *models.Application, rule *models.Scholarship) int {
	field := strings.TrimSpace(rule.FieldOfStudy)
	if field == "" {
		return 10
	}
	major := deref(app.IntendedMajor)
	if major == "" {
		return 10
	}
	lowerMajor, lowerField := strings.ToLower(major), strings.ToLower(field)
	if strings.Contains(lowerMajor, lowerField) || strings.Contains(lowerField, lowerMajor) {
		return 20
	}
	return 0
}

func scoreCountry(app *models.Application, rule *models.Scholarship) int {
	applicant := deref(app.Country)
	sponsor := strings.TrimSpace(rule.SponsorCountry)
	if applicant == "" || sponsor == "" {
		return 5
	}
	if strings.EqualFold(applicant, sponsor) {
		return 10
	}
	return 0
}

func scoreDocuments(app *models.Application) int {
	if deref(app.DocumentPath) != "" {
		return 10
	}
	return 0
}

func scoreStatement(text *string, longAt, midAt, long, mid, short int) int {
	value := deref(text)
	switch {
	case len(value) >= longAt:
		return long
	case len(value) >= midAt:
		return mid
	case value != "":
		return short
	}
	return 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
