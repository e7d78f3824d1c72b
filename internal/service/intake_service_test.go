package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-intake-api/internal/dto"
	"github.com/noah-isme/scholarship-intake-api/internal/models"
	"github.com/noah-isme/scholarship-intake-api/pkg/config"
	appErrors "github.com/noah-isme/scholarship-intake-api/pkg/errors"
)

type mockScholarshipRepo struct {
	scholarships map[int64]*models.Scholarship
	findCalls    int
}

func (m *mockScholarshipRepo) FindByID(ctx context.Context, id int64) (*models.Scholarship, error) {
	m.findCalls++
	return m.scholarships[id], nil
}

type mockApplicationRepo struct {
	persisted    map[string]bool
	counts       map[int64]int
	inserted     []models.Application
	insertErr    error
	reserveDeny  bool
	released     []int64
	existsErr    error
}

func (m *mockApplicationRepo) CountByScholarship(ctx context.Context, scholarshipID int64) (int, error) {
	return m.counts[scholarshipID], nil
}

func (m *mockApplicationRepo) ExistsByEmail(ctx context.Context, scholarshipID int64, email string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.persisted[DuplicateKey(scholarshipID, email)], nil
}

func (m *mockApplicationRepo) Insert(ctx context.Context, app *models.Application) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if app.ID == "" {
		app.ID = "generated"
	}
	m.inserted = append(m.inserted, *app)
	return nil
}

func (m *mockApplicationRepo) TryReserveSlot(ctx context.Context, scholarshipID int64) (bool, error) {
	return !m.reserveDeny, nil
}

func (m *mockApplicationRepo) ReleaseSlot(ctx context.Context, scholarshipID int64) error {
	m.released = append(m.released, scholarshipID)
	return nil
}

type mockNotifier struct {
	calls int
	score int
}

func (m *mockNotifier) NotifySuitability(app *models.Application, rule *models.Scholarship, score int, breakdown []dto.BreakdownItem) {
	m.calls++
	m.score = score
}

func newTestIntake(scholarships *mockScholarshipRepo, applications *mockApplicationRepo, notifier suitabilityNotifier) *IntakeService {
	svc := NewIntakeService(scholarships, applications, nil, notifier, nil, config.IntakeConfig{MaxRows: 1000}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return svc
}

func defaultScholarships() *mockScholarshipRepo {
	return &mockScholarshipRepo{scholarships: map[int64]*models.Scholarship{
		1: {
			ID:            1,
			Title:         "STEM Excellence",
			Status:        models.ScholarshipStatusActive,
			AcademicLevel: "undergraduate",
			MinGPA:        floatPtr(3.0),
		},
	}}
}

func defaultApplications() *mockApplicationRepo {
	return &mockApplicationRepo{
		persisted: make(map[string]bool),
		counts:    make(map[int64]int),
	}
}

const csvHeader = "full_name,email_address,date_of_birth,scholarship_id,academic_level,gpa"

func buildCSV(rows ...string) []byte {
	return []byte(csvHeader + "\n" + strings.Join(rows, "\n") + "\n")
}

func TestProcessBatchHappyPath(t *testing.T) {
	scholarships := defaultScholarships()
	applications := defaultApplications()
	svc := newTestIntake(scholarships, applications, nil)

	summary, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
		"John Roe,john@example.com,2003-01-20,1,undergraduate,3.2",
	), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 0, summary.Errors)
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, 2, summary.Rows[0].Row)
	assert.Equal(t, dto.RowStatusInserted, summary.Rows[0].Status)
	assert.Equal(t, "jane@example.com", summary.Rows[0].Email)
	assert.Equal(t, int64(1), summary.Rows[0].ScholarshipID)
	assert.Len(t, applications.inserted, 2)
	// rule loaded from storage once, then served from the batch cache
	assert.Equal(t, 1, scholarships.findCalls)
}

func TestProcessBatchConservation(t *testing.T) {
	scholarships := defaultScholarships()
	applications := defaultApplications()
	svc := newTestIntake(scholarships, applications, nil)

	summary, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
		"No Email,,2004-06-15,1,undergraduate,3.5",
		"Jane Doe, JANE@example.com ,2004-06-15,1,undergraduate,3.5",
		"Bad Date,bad@example.com,15th June,1,undergraduate,3.5",
		"Low GPA,low@example.com,2004-06-15,1,undergraduate,2.1",
		"Ghost,ghost@example.com,2004-06-15,99,undergraduate,3.5",
	), 0)
	require.NoError(t, err)

	assert.Equal(t, len(summary.Rows), summary.Inserted+summary.Duplicates+summary.Errors)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 4, summary.Errors)
}

func TestProcessBatchDuplicates(t *testing.T) {
	svc := newTestIntake(defaultScholarships(), defaultApplications(), nil)

	summary, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
		"Jane Doe,Jane@Example.com,2004-06-15,1,undergraduate,3.5",
		"Jane Doe,  jane@example.com,2004-06-15,1,undergraduate,3.5",
	), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 2, summary.Duplicates)
	assert.Equal(t, dto.RowStatusDuplicate, summary.Rows[1].Status)
	assert.Equal(t, dto.RowStatusDuplicate, summary.Rows[2].Status)
}

func TestProcessBatchPersistedDuplicate(t *testing.T) {
	applications := defaultApplications()
	applications.persisted[DuplicateKey(1, "jane@example.com")] = true
	svc := newTestIntake(defaultScholarships(), applications, nil)

	summary, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
	), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Duplicates)
}

func TestProcessBatchCapacity(t *testing.T) {
	scholarships := defaultScholarships()
	scholarships.scholarships[1].NumberOfAwards = intPtr(1)
	applications := defaultApplications()
	svc := newTestIntake(scholarships, applications, nil)

	summary, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
		"John Roe,john@example.com,2003-01-20,1,undergraduate,3.2",
	), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, dto.RowStatusError, summary.Rows[1].Status)
	assert.Contains(t, summary.Rows[1].Message, "no remaining award slots")
}

func TestProcessBatchCapacityCountsPersisted(t *testing.T) {
	scholarships := defaultScholarships()
	scholarships.scholarships[1].NumberOfAwards = intPtr(2)
	applications := defaultApplications()
	applications.counts[1] = 2
	svc := newTestIntake(scholarships, applications, nil)

	summary, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
	), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Errors)
}

func TestProcessBatchOverride(t *testing.T) {
	applications := defaultApplications()
	svc := newTestIntake(defaultScholarships(), applications, nil)

	raw := []byte("full_name,email_address,date_of_birth\nJane Doe,jane@example.com,2004-06-15\n")
	summary, err := svc.ProcessBatch(context.Background(), raw, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Inserted)
	require.Len(t, applications.inserted, 1)
	assert.Equal(t, int64(1), applications.inserted[0].ScholarshipID)
}

func TestProcessBatchMissingHeaders(t *testing.T) {
	svc := newTestIntake(defaultScholarships(), defaultApplications(), nil)

	_, err := svc.ProcessBatch(context.Background(), []byte("full_name,email_address\nJane,jane@example.com\n"), 0)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMissingHeaders.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "date_of_birth")
	assert.Contains(t, appErr.Message, "scholarship_id")
}

func TestProcessBatchEmptyCSV(t *testing.T) {
	svc := newTestIntake(defaultScholarships(), defaultApplications(), nil)

	for _, raw := range [][]byte{
		[]byte(""),
		[]byte(csvHeader + "\n"),
		[]byte(csvHeader + "\n\n\n"),
	} {
		_, err := svc.ProcessBatch(context.Background(), raw, 0)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrEmptyCSV.Code, appErrors.FromError(err).Code)
	}
}

func TestProcessBatchRowLimit(t *testing.T) {
	svc := NewIntakeService(defaultScholarships(), defaultApplications(), nil, nil, nil, config.IntakeConfig{MaxRows: 1}, zap.NewNop())

	_, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
		"John Roe,john@example.com,2003-01-20,1,undergraduate,3.2",
	), 0)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "row limit")
}

func TestProcessBatchInsertFailure(t *testing.T) {
	applications := defaultApplications()
	applications.insertErr = errors.New("connection reset")
	svc := newTestIntake(defaultScholarships(), applications, nil)

	summary, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
	), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, "failed to store application", summary.Rows[0].Message)
	// reserved slot is handed back when the write fails
	assert.Equal(t, []int64{1}, applications.released)
}

func TestProcessBatchReservationDenied(t *testing.T) {
	applications := defaultApplications()
	applications.reserveDeny = true
	svc := newTestIntake(defaultScholarships(), applications, nil)

	summary, err := svc.ProcessBatch(context.Background(), buildCSV(
		"Jane Doe,jane@example.com,2004-06-15,1,undergraduate,3.5",
	), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errors)
	assert.Contains(t, summary.Rows[0].Message, "no remaining award slots")
}

func TestSubmitScoresAndNotifies(t *testing.T) {
	applications := defaultApplications()
	notifier := &mockNotifier{}
	svc := newTestIntake(defaultScholarships(), applications, notifier)

	result, err := svc.Submit(context.Background(), map[string]string{
		"full_name":      "Jane Doe",
		"email":          "jane@example.com",
		"dateOfBirth":    "2004-06-15",
		"scholarship_id": "1",
		"academic_level": "undergraduate",
		"gpa":            "3.6",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.GreaterOrEqual(t, result.SuitabilityPercent, 0)
	assert.LessOrEqual(t, result.SuitabilityPercent, 100)
	assert.Len(t, result.SuitabilityBreakdown, 7)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, result.SuitabilityPercent, notifier.score)

	require.Len(t, applications.inserted, 1)
	require.NotNil(t, applications.inserted[0].SuitabilityScore)
	assert.Equal(t, result.SuitabilityPercent, *applications.inserted[0].SuitabilityScore)
}

func TestSubmitValidationError(t *testing.T) {
	svc := newTestIntake(defaultScholarships(), defaultApplications(), nil)

	_, err := svc.Submit(context.Background(), map[string]string{
		"full_name":      "Jane Doe",
		"scholarship_id": "1",
		"date_of_birth":  "2004-06-15",
	})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestSubmitDuplicateConflict(t *testing.T) {
	applications := defaultApplications()
	applications.persisted[DuplicateKey(1, "jane@example.com")] = true
	svc := newTestIntake(defaultScholarships(), applications, nil)

	_, err := svc.Submit(context.Background(), map[string]string{
		"full_name":      "Jane Doe",
		"email_address":  "jane@example.com",
		"date_of_birth":  "2004-06-15",
		"scholarship_id": "1",
		"gpa":            "3.6",
	})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestSubmitUnknownScholarship(t *testing.T) {
	svc := newTestIntake(defaultScholarships(), defaultApplications(), nil)

	_, err := svc.Submit(context.Background(), map[string]string{
		"full_name":      "Jane Doe",
		"email_address":  "jane@example.com",
		"date_of_birth":  "2004-06-15",
		"scholarship_id": "42",
		"gpa":            "3.6",
	})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
