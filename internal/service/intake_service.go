package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scholarship-intake-api/internal/dto"
	"github.com/noah-isme/scholarship-intake-api/internal/models"
	"github.com/noah-isme/scholarship-intake-api/pkg/config"
	"github.com/noah-isme/scholarship-intake-api/pkg/csvline"
	appErrors "github.com/noah-isme/scholarship-intake-api/pkg/errors"
)

type scholarshipRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Scholarship, error)
}

type applicationRepository interface {
	CountByScholarship(ctx context.Context, scholarshipID int64) (int, error)
	ExistsByEmail(ctx context.Context, scholarshipID int64, email string) (bool, error)
	Insert(ctx context.Context, app *models.Application) error
	TryReserveSlot(ctx context.Context, scholarshipID int64) (bool, error)
	ReleaseSlot(ctx context.Context, scholarshipID int64) error
}

type ruleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type suitabilityNotifier interface {
	NotifySuitability(app *models.Application, rule *models.Scholarship, score int, breakdown []dto.BreakdownItem)
}

// IntakeService runs the application ingestion pipeline: normalization,
// eligibility validation, duplicate detection, capacity admission and
// persistence, plus suitability scoring on the interactive path.
type IntakeService struct {
	scholarships scholarshipRepository
	applications applicationRepository
	cache        ruleCache
	notifier     suitabilityNotifier
	metrics      *MetricsService
	cfg          config.IntakeConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewIntakeService constructs the intake service.
func NewIntakeService(
	scholarships scholarshipRepository,
	applications applicationRepository,
	cache ruleCache,
	notifier suitabilityNotifier,
	metrics *MetricsService,
	cfg config.IntakeConfig,
	logger *zap.Logger,
) *IntakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		scholarships: scholarships,
		applications: applications,
		cache:        cache,
		notifier:     notifier,
		metrics:      metrics,
		cfg:          cfg,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// requiredCSVHeaders lists the columns every upload must carry. The
// scholarship_id column may be replaced by a request-level override.
var requiredCSVHeaders = []string{colFullName, colEmail, colDateOfBirth}

// ProcessBatch ingests a whole CSV upload sequentially. Rows share one
// BatchState, so capacity and duplicate decisions see earlier rows of the
// same upload; processing them in parallel would break both. Row failures
// become outcomes and never abort the batch, only pre-flight problems
// (empty file, missing headers) are returned as errors.
func (s *IntakeService) ProcessBatch(ctx context.Context, raw []byte, overrideID int64) (*dto.BatchSummary, error) {
	lines := splitLines(raw)
	if len(lines) < 2 {
		return nil, appErrors.Clone(appErrors.ErrEmptyCSV, "CSV must include a header and at least one data row")
	}

	idx := newHeaderIndex(csvline.Fields(lines[0]))
	var missing []string
	for _, name := range requiredCSVHeaders {
		if !idx.has(name) {
			missing = append(missing, name)
		}
	}
	if overrideID <= 0 && !idx.has(colScholarshipID) {
		missing = append(missing, colScholarshipID)
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrMissingHeaders, fmt.Sprintf("CSV is missing required headers: %s", strings.Join(missing, ", ")))
	}
	if s.cfg.MaxRows > 0 && len(lines)-1 > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("CSV exceeds the %d row limit", s.cfg.MaxRows))
	}

	state := NewBatchState()
	summary := &dto.BatchSummary{Rows: make([]dto.RowOutcome, 0, len(lines)-1)}

	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rowNum := i + 2
		app, scholarshipRaw := normalizeRow(idx, csvline.Fields(line))
		outcome := s.processRow(ctx, state, app, scholarshipRaw, overrideID, rowNum, false)
		recordOutcome(summary, outcome)
		if s.metrics != nil {
			s.metrics.ObserveIntakeRow(outcome.Status)
		}
	}

	if summary.Total() == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyCSV, "CSV must include a header and at least one data row")
	}
	if s.metrics != nil {
		s.metrics.ObserveBatch(summary.Total())
	}
	s.logger.Info("batch processed",
		zap.Int("rows", summary.Total()),
		zap.Int("inserted", summary.Inserted),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}

// Submit runs a single interactive application through the same pipeline and
// returns its suitability evaluation. The suitability email is enqueued
// fire-and-forget and can never fail the submission.
func (s *IntakeService) Submit(ctx context.Context, form map[string]string) (*dto.SubmitResult, error) {
	app, scholarshipRaw := NormalizeForm(form)

	state := NewBatchState()
	if rowErr := s.admitRow(ctx, state, app, scholarshipRaw, 0, true); rowErr != nil {
		return nil, httpErrorFromRow(rowErr)
	}

	rule, _ := state.Scholarship(app.ScholarshipID)
	score, breakdown := ScoreSuitability(app, rule)
	app.SuitabilityScore = &score

	if err := s.applications.Insert(ctx, app); err != nil {
		if releaseErr := s.applications.ReleaseSlot(ctx, app.ScholarshipID); releaseErr != nil {
			s.logger.Warn("release slot after failed insert", zap.Error(releaseErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store application")
	}

	if s.metrics != nil {
		s.metrics.ObserveIntakeRow(dto.RowStatusInserted)
	}
	if s.notifier != nil {
		s.notifier.NotifySuitability(app, rule, score, breakdown)
	}
	return &dto.SubmitResult{
		ID:                   app.ID,
		SuitabilityPercent:   score,
		SuitabilityBreakdown: breakdown,
	}, nil
}

// processRow runs one CSV row end to end and always produces an outcome.
// Unexpected storage failures are folded into the row result so the batch
// keeps going.
func (s *IntakeService) processRow(ctx context.Context, state *BatchState, app *models.Application, scholarshipRaw string, overrideID int64, rowNum int, viaCache bool) dto.RowOutcome {
	outcome := dto.RowOutcome{Row: rowNum, Email: strings.TrimSpace(app.EmailAddress)}

	if rowErr := s.admitRow(ctx, state, app, scholarshipRaw, overrideID, viaCache); rowErr != nil {
		outcome.ScholarshipID = app.ScholarshipID
		if rowErr.IsDuplicate() {
			outcome.Status = dto.RowStatusDuplicate
		} else {
			outcome.Status = dto.RowStatusError
			outcome.Message = rowErr.Message
		}
		return outcome
	}

	if err := s.applications.Insert(ctx, app); err != nil {
		s.logger.Error("row insert failed", zap.Int("row", rowNum), zap.Error(err))
		if releaseErr := s.applications.ReleaseSlot(ctx, app.ScholarshipID); releaseErr != nil {
			s.logger.Warn("release slot after failed insert", zap.Error(releaseErr))
		}
		outcome.ScholarshipID = app.ScholarshipID
		outcome.Status = dto.RowStatusError
		outcome.Message = "failed to store application"
		return outcome
	}

	state.MarkSeen(DuplicateKey(app.ScholarshipID, app.EmailAddress))
	state.RecordInsert(app.ScholarshipID)
	outcome.ScholarshipID = app.ScholarshipID
	outcome.Status = dto.RowStatusInserted
	return outcome
}

// admitRow performs validation, duplicate detection and capacity admission,
// short-circuiting on the first failure. On success the caller must insert
// the record and update the batch state.
func (s *IntakeService) admitRow(ctx context.Context, state *BatchState, app *models.Application, scholarshipRaw string, overrideID int64, viaCache bool) *RowError {
	if overrideID > 0 {
		app.ScholarshipID = overrideID
	} else {
		if strings.TrimSpace(scholarshipRaw) == "" {
			return rowError(RowErrMissingField, "scholarship_id is required")
		}
		id, rowErr := ParseScholarshipID(scholarshipRaw)
		if rowErr != nil {
			return rowErr
		}
		app.ScholarshipID = id
	}

	if rowErr := CheckRequired(app); rowErr != nil {
		return rowErr
	}

	normalized, rowErr := NormalizeDate(app.DateOfBirth)
	if rowErr != nil {
		return rowErr
	}
	app.DateOfBirth = normalized

	rule, err := s.loadRule(ctx, state, app.ScholarshipID, viaCache)
	if err != nil {
		s.logger.Error("scholarship lookup failed", zap.Int64("scholarship_id", app.ScholarshipID), zap.Error(err))
		return rowError(RowErrDbInsertFailure, "failed to load scholarship %d", app.ScholarshipID)
	}

	if rowErr := CheckEligibility(app, rule, s.now()); rowErr != nil {
		return rowErr
	}

	key := DuplicateKey(app.ScholarshipID, app.EmailAddress)
	if state.Seen(key) {
		return rowError(RowErrDuplicateInBatch, "duplicate application in this upload")
	}
	exists, err := s.applications.ExistsByEmail(ctx, app.ScholarshipID, app.EmailAddress)
	if err != nil {
		s.logger.Error("duplicate lookup failed", zap.Int64("scholarship_id", app.ScholarshipID), zap.Error(err))
		return rowError(RowErrDbInsertFailure, "failed to check for existing application")
	}
	if exists {
		return rowError(RowErrDuplicateInDb, "an application for this scholarship and email already exists")
	}

	if !state.HasPersistedCount(rule.ID) {
		count, err := s.applications.CountByScholarship(ctx, rule.ID)
		if err != nil {
			s.logger.Error("capacity baseline load failed", zap.Int64("scholarship_id", rule.ID), zap.Error(err))
			return rowError(RowErrDbInsertFailure, "failed to load capacity for scholarship %d", rule.ID)
		}
		state.SetPersistedCount(rule.ID, count)
	}
	if rowErr := CheckCapacity(rule, state); rowErr != nil {
		return rowErr
	}

	reserved, err := s.applications.TryReserveSlot(ctx, rule.ID)
	if err != nil {
		s.logger.Error("slot reservation failed", zap.Int64("scholarship_id", rule.ID), zap.Error(err))
		return rowError(RowErrDbInsertFailure, "failed to reserve an award slot")
	}
	if !reserved {
		return rowError(RowErrCapacityReached, "scholarship %d has no remaining award slots", rule.ID)
	}
	return nil
}

const ruleCacheKeyPrefix = "scholarship:rule:"

// loadRule resolves a scholarship through the batch cache, optionally (on the
// interactive path) consulting Redis before storage. Negative results are
// cached too, so an unknown id costs one query per batch.
func (s *IntakeService) loadRule(ctx context.Context, state *BatchState, id int64, viaCache bool) (*models.Scholarship, error) {
	if rule, ok := state.Scholarship(id); ok {
		return rule, nil
	}

	cacheKey := fmt.Sprintf("%s%d", ruleCacheKeyPrefix, id)
	if viaCache && s.cache != nil {
		var cached models.Scholarship
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			state.CacheScholarship(id, &cached)
			return &cached, nil
		}
	}

	rule, err := s.scholarships.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	state.CacheScholarship(id, rule)
	if rule != nil && viaCache && s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, rule, s.cfg.RuleCacheTTL); err != nil {
			s.logger.Warn("rule cache write failed", zap.Int64("scholarship_id", id), zap.Error(err))
		}
	}
	return rule, nil
}

func recordOutcome(summary *dto.BatchSummary, outcome dto.RowOutcome) {
	switch outcome.Status {
	case dto.RowStatusInserted:
		summary.Inserted++
	case dto.RowStatusDuplicate:
		summary.Duplicates++
	default:
		summary.Errors++
	}
	summary.Rows = append(summary.Rows, outcome)
}

// httpErrorFromRow maps a row failure onto the HTTP error taxonomy for the
// interactive path, where there is no summary to carry it.
func httpErrorFromRow(rowErr *RowError) error {
	switch rowErr.Code {
	case RowErrDuplicateInBatch, RowErrDuplicateInDb:
		return appErrors.New("DUPLICATE_APPLICATION", http.StatusConflict, rowErr.Message)
	case RowErrCapacityReached:
		return appErrors.New(RowErrCapacityReached, http.StatusConflict, rowErr.Message)
	case RowErrScholarshipNotFound:
		return appErrors.New(RowErrScholarshipNotFound, http.StatusNotFound, rowErr.Message)
	case RowErrDbInsertFailure:
		return appErrors.New(RowErrDbInsertFailure, http.StatusInternalServerError, rowErr.Message)
	}
	return appErrors.New(rowErr.Code, http.StatusBadRequest, rowErr.Message)
}

// splitLines breaks the upload into lines tolerating CRLF and bare CR
// endings and a trailing newline.
func splitLines(raw []byte) []string {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
