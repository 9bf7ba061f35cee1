package model

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID               uuid.UUID `db:"id" json:"id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	CourseID         uuid.UUID `db:"course_id" json:"course_id"`
	PaymentSessionID *string   `db:"payment_session_id" json:"payment_session_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	Course           *Course   `db:"-" json:"course,omitempty"`
}

// CourseProgress is one row of get_my_course_progress().
type CourseProgress struct {
	CourseID           uuid.UUID `db:"course_id" json:"course_id"`
	CourseTitle        string    `db:"course_title" json:"course_title"`
	CourseSlug         string    `db:"course_slug" json:"course_slug"`
	CourseImageURL     *string   `db:"course_image_url" json:"course_image_url,omitempty"`
	TotalLessons       int       `db:"total_lessons" json:"total_lessons"`
	CompletedLessons   int       `db:"completed_lessons" json:"completed_lessons"`
	ProgressPercentage float64   `db:"progress_percentage" json:"progress_percentage"`
}

type LessonProgress struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	LessonID    uuid.UUID `db:"lesson_id" json:"lesson_id"`
	CourseID    uuid.UUID `db:"course_id" json:"course_id"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

type EnrollRequest struct {
	CourseID uuid.UUID `json:"course_id" validate:"required"`
}
