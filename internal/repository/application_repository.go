package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarship-intake-api/internal/models"
)

// ApplicationRepository manages persistence for application records.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// CountByScholarship returns the number of persisted applications for a
// scholarship, loaded once at batch start as the capacity baseline.
func (r *ApplicationRepository) CountByScholarship(ctx context.Context, scholarshipID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM applications WHERE scholarship_id = $1", scholarshipID); err != nil {
		return 0, fmt.Errorf("count applications for scholarship %d: %w", scholarshipID, err)
	}
	return count, nil
}

// ExistsByEmail checks for a persisted application with the same scholarship
// and email, case and surrounding-whitespace insensitive.
func (r *ApplicationRepository) ExistsByEmail(ctx context.Context, scholarshipID int64, email string) (bool, error) {
	const query = `SELECT 1 FROM applications
        WHERE scholarship_id = $1 AND LOWER(TRIM(email_address)) = LOWER(TRIM($2)) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, scholarshipID, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check duplicate application: %w", err)
	}
	return true, nil
}

// Insert stores a new application record.
func (r *ApplicationRepository) Insert(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	const query = `INSERT INTO applications (id, scholarship_id, full_name, email_address, date_of_birth,
        gender, phone, address, academic_level, intended_major, country, gpa, extracurricular,
        parent_guardian_name, parent_guardian_phone, financial_need_statement, motivation_statement,
        document_path, terms_agreed, suitability_score, created_at, updated_at)
        VALUES (:id, :scholarship_id, :full_name, :email_address, :date_of_birth,
        :gender, :phone, :address, :academic_level, :intended_major, :country, :gpa, :extracurricular,
        :parent_guardian_name, :parent_guardian_phone, :financial_need_statement, :motivation_statement,
        :document_path, :terms_agreed, :suitability_score, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// TryReserveSlot atomically claims one award slot. It is the authoritative
// capacity guard under concurrent requests: the conditional update only
// succeeds while awarded_count is below number_of_awards, and scholarships
// without a cap always succeed.
func (r *ApplicationRepository) TryReserveSlot(ctx context.Context, scholarshipID int64) (bool, error) {
	const query = `UPDATE scholarships SET awarded_count = awarded_count + 1, updated_at = $2
        WHERE id = $1 AND (number_of_awards IS NULL OR number_of_awards <= 0 OR awarded_count < number_of_awards)`
	result, err := r.db.ExecContext(ctx, query, scholarshipID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("reserve slot for scholarship %d: %w", scholarshipID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve slot rows affected: %w", err)
	}
	return affected > 0, nil
}

// ReleaseSlot undoes a reservation after a failed insert so capacity is not
// leaked by storage errors.
func (r *ApplicationRepository) ReleaseSlot(ctx context.Context, scholarshipID int64) error {
	const query = `UPDATE scholarships SET awarded_count = GREATEST(awarded_count - 1, 0), updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, scholarshipID, time.Now().UTC()); err != nil {
		return fmt.Errorf("release slot for scholarship %d: %w", scholarshipID, err)
	}
	return nil
}
