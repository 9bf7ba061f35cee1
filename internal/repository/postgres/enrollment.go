package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (id, user_id, course_id, payment_session_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	enrollment.ID = uuid.New()
	enrollment.CreatedAt = time.Now()

	start := time.Now()
	err := r.WithClaims(ctx, enrollment.UserID, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			enrollment.ID,
			enrollment.UserID,
			enrollment.CourseID,
			enrollment.PaymentSessionID,
			enrollment.CreatedAt,
		)
		return err
	})
	r.observe("enrollments.create", start, err)
	if err != nil {
		return fmt.Errorf("failed to create enrollment: %w", mapError(err, "enrollment"))
	}
	return nil
}

type enrollmentRow struct {
	model.Enrollment
	CourseSlug     string  `db:"course_slug"`
	CourseTitle    string  `db:"course_title"`
	CourseImageURL *string `db:"course_image_url"`
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Enrollment, error) {
	query := `
		SELECT e.id, e.user_id, e.course_id, e.payment_session_id, e.created_at,
		       c.slug AS course_slug, c.title AS course_title, c.image_url AS course_image_url
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.created_at DESC
	`
	var rows []*enrollmentRow
	err := r.WithClaims(ctx, userID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, query, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	enrollments := make([]*model.Enrollment, 0, len(rows))
	for _, row := range rows {
		e := row.Enrollment
		e.Course = &model.Course{
			Slug:     row.CourseSlug,
			Title:    row.CourseTitle,
			ImageURL: row.CourseImageURL,
		}
		e.Course.ID = row.CourseID
		enrollments = append(enrollments, &e)
	}
	return enrollments, nil
}

func (r *enrollmentRepository) Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`

	var exists bool
	err := r.WithClaims(ctx, userID, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &exists, query, userID, courseID)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return exists, nil
}
