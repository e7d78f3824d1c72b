package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-intake-api/pkg/csvline"
)

func TestHeaderIndexCaseInsensitive(t *testing.T) {
	idx := newHeaderIndex(csvline.Fields("Full_Name,EMAIL_ADDRESS,date_of_birth,Scholarship_ID"))

	assert.True(t, idx.has("full_name"))
	assert.True(t, idx.has("email_address"))
	assert.True(t, idx.has("scholarship_id"))
	assert.False(t, idx.has("gpa"))
}

func TestNormalizeRow(t *testing.T) {
	idx := newHeaderIndex(csvline.Fields("full_name,email_address,date_of_birth,scholarship_id,gpa,terms_agreed"))
	row := csvline.Fields(`"Doe, Jane",jane@example.com,2004-06-15,7,3.5,yes`)

	app, scholarshipRaw := normalizeRow(idx, row)
	assert.Equal(t, "Doe, Jane", app.FullName)
	assert.Equal(t, "jane@example.com", app.EmailAddress)
	assert.Equal(t, "2004-06-15", app.DateOfBirth)
	assert.Equal(t, "7", scholarshipRaw)
	require.NotNil(t, app.GPA)
	assert.Equal(t, "3.5", *app.GPA)
	assert.True(t, app.TermsAgreed)
	assert.Nil(t, app.Gender)
}

func TestNormalizeRowShortRow(t *testing.T) {
	idx := newHeaderIndex(csvline.Fields("full_name,email_address,date_of_birth,scholarship_id"))
	app, scholarshipRaw := normalizeRow(idx, csvline.Fields("Jane"))

	assert.Equal(t, "Jane", app.FullName)
	assert.Empty(t, app.EmailAddress)
	assert.Empty(t, scholarshipRaw)
}

func TestNormalizeFormAliases(t *testing.T) {
	app, scholarshipRaw := NormalizeForm(map[string]string{
		"fullName":                 "Jane Applicant",
		"email":                    "jane@example.com",
		"dob":                      "2004-06-15",
		"scholarshipId":            "7",
		"gpa_academic_performance": "3.2",
	})

	assert.Equal(t, "Jane Applicant", app.FullName)
	assert.Equal(t, "jane@example.com", app.EmailAddress)
	assert.Equal(t, "2004-06-15", app.DateOfBirth)
	assert.Equal(t, "7", scholarshipRaw)
	require.NotNil(t, app.GPA)
	assert.Equal(t, "3.2", *app.GPA)
}

func TestNormalizeFormCanonicalAliasWins(t *testing.T) {
	app, _ := NormalizeForm(map[string]string{
		"email_address": "primary@example.com",
		"contact_email": "other@example.com",
	})
	assert.Equal(t, "primary@example.com", app.EmailAddress)
}

func TestNormalizeFormHeuristicInference(t *testing.T) {
	app, _ := NormalizeForm(map[string]string{
		"applicant_contact": "jane@example.com",
		"candidate":         "Jane Applicant",
	})
	// no alias matches: the email is found by value shape, nothing else
	// resembles a name key, so full name stays empty rather than guessed.
	assert.Equal(t, "jane@example.com", app.EmailAddress)
	assert.Empty(t, app.FullName)

	app, _ = NormalizeForm(map[string]string{
		"student_email_addr": "jane@example.com",
		"student_name_field": "Jane Applicant",
	})
	assert.Equal(t, "jane@example.com", app.EmailAddress)
	assert.Equal(t, "Jane Applicant", app.FullName)
}
