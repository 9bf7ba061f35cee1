package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

func (r *progressRepository) CourseProgress(ctx context.Context, userID uuid.UUID) ([]*model.CourseProgress, error) {
	query := `
		SELECT course_id, course_title, course_slug, course_image_url,
		       total_lessons, completed_lessons, progress_percentage
		FROM get_my_course_progress()
	`
	start := time.Now()
	var progress []*model.CourseProgress
	err := r.WithClaims(ctx, userID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &progress, query)
	})
	r.observe("rpc.get_my_course_progress", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}
	return progress, nil
}

func (r *progressRepository) MarkComplete(ctx context.Context, progress *model.LessonProgress) error {
	query := `
		INSERT INTO lesson_progress (user_id, lesson_id, course_id, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, lesson_id) DO NOTHING
	`
	if progress.CompletedAt.IsZero() {
		progress.CompletedAt = time.Now()
	}
	err := r.WithClaims(ctx, progress.UserID, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, progress.UserID, progress.LessonID, progress.CourseID, progress.CompletedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mark lesson complete: %w", err)
	}
	return nil
}

func (r *progressRepository) MarkIncomplete(ctx context.Context, userID, lessonID uuid.UUID) error {
	err := r.WithClaims(ctx, userID, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mark lesson incomplete: %w", err)
	}
	return nil
}

func (r *progressRepository) CompletedLessons(ctx context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT lesson_id
		FROM lesson_progress
		WHERE user_id = $1 AND course_id = $2
		ORDER BY completed_at ASC
	`
	var ids []uuid.UUID
	err := r.WithClaims(ctx, userID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &ids, query, userID, courseID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list completed lessons: %w", err)
	}
	return ids, nil
}

func (r *accessRepository) IsCurrentUserAdmin(ctx context.Context, userID uuid.UUID) (*bool, error) {
	start := time.Now()
	var isAdmin *bool
	err := r.WithClaims(ctx, userID, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &isAdmin, `SELECT is_current_user_admin()`)
	})
	r.observe("rpc.is_current_user_admin", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to check admin role: %w", err)
	}
	return isAdmin, nil
}
