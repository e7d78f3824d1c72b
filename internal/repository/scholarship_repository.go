package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarship-intake-api/internal/models"
)

// ScholarshipRepository reads scholarship rule snapshots.
type ScholarshipRepository struct {
	db *sqlx.DB
}

// NewScholarshipRepository constructs a ScholarshipRepository.
func NewScholarshipRepository(db *sqlx.DB) *ScholarshipRepository {
	return &ScholarshipRepository{db: db}
}

// FindByID fetches one scholarship; a missing id yields (nil, nil) so callers
// can treat absence as a row-level outcome rather than a storage failure.
func (r *ScholarshipRepository) FindByID(ctx context.Context, id int64) (*models.Scholarship, error) {
	const query = `SELECT id, title, status, academic_level, field_of_study, sponsor_country,
        min_gpa, number_of_awards, awarded_count, application_deadline, created_at, updated_at
        FROM scholarships WHERE id = $1`
	var sch models.Scholarship
	if err := r.db.GetContext(ctx, &sch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find scholarship %d: %w", id, err)
	}
	return &sch, nil
}
