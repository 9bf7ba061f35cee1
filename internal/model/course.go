package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type ContentType string

const (
	ContentTypeVideo ContentType = "video"
	ContentTypePDF   ContentType = "pdf"
	ContentTypeText  ContentType = "text"
)

type Course struct {
	Base
	Slug        string    `db:"slug" json:"slug"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Price       int       `db:"price" json:"price"`
	ImageURL    *string   `db:"image_url" json:"image_url,omitempty"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	Modules     []*Module `db:"-" json:"modules"`

	// Totals across all modules, filled by Arrange.
	LessonCount  int `db:"-" json:"lesson_count"`
	TotalMinutes int `db:"-" json:"total_minutes"`
}

type Module struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CourseID   uuid.UUID `db:"course_id" json:"course_id"`
	Title      string    `db:"title" json:"title"`
	OrderIndex int       `db:"order_index" json:"order_index"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	Lessons    []*Lesson `db:"-" json:"lessons"`
}

type Lesson struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	ModuleID        uuid.UUID   `db:"module_id" json:"module_id"`
	Title           string      `db:"title" json:"title"`
	ContentType     ContentType `db:"content_type" json:"content_type"`
	ContentURL      *string     `db:"content_url" json:"content_url,omitempty"`
	Body            *string     `db:"body" json:"body,omitempty"`
	DurationMinutes *int        `db:"duration_minutes" json:"duration_minutes,omitempty"`
	OrderIndex      int         `db:"order_index" json:"order_index"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

// Duration treats an absent duration as zero.
func (l *Lesson) Duration() int {
	if l.DurationMinutes == nil {
		return 0
	}
	return *l.DurationMinutes
}

// Arrange orders modules and each module's lessons by order_index and
// recomputes the lesson totals. Equal indexes keep the order the backend
// returned them in.
func (c *Course) Arrange() {
	sort.SliceStable(c.Modules, func(i, j int) bool {
		return c.Modules[i].OrderIndex < c.Modules[j].OrderIndex
	})
	c.LessonCount, c.TotalMinutes = 0, 0
	for _, m := range c.Modules {
		sort.SliceStable(m.Lessons, func(i, j int) bool {
			return m.Lessons[i].OrderIndex < m.Lessons[j].OrderIndex
		})
		c.LessonCount += len(m.Lessons)
		for _, l := range m.Lessons {
			c.TotalMinutes += l.Duration()
		}
	}
}

type CreateCourseRequest struct {
	Slug        string  `json:"slug" validate:"required,slug,max=120"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Price       int     `json:"price" validate:"gte=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	IsPublished bool    `json:"is_published"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       *int    `json:"price" validate:"omitempty,gte=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	IsPublished *bool   `json:"is_published"`
}

type CreateModuleRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	OrderIndex int    `json:"order_index" validate:"gte=0"`
}

type UpdateModuleRequest struct {
	Title      *string `json:"title" validate:"omitempty,max=200"`
	OrderIndex *int    `json:"order_index" validate:"omitempty,gte=0"`
}

type CreateLessonRequest struct {
	Title           string      `json:"title" validate:"required,max=200"`
	ContentType     ContentType `json:"content_type" validate:"required,oneof=video pdf text"`
	ContentURL      *string     `json:"content_url" validate:"omitempty,url"`
	Body            *string     `json:"body"`
	DurationMinutes *int        `json:"duration_minutes" validate:"omitempty,gte=0"`
	OrderIndex      int         `json:"order_index" validate:"gte=0"`
}

type UpdateLessonRequest struct {
	Title           *string      `json:"title" validate:"omitempty,max=200"`
	ContentType     *ContentType `json:"content_type" validate:"omitempty,oneof=video pdf text"`
	ContentURL      *string      `json:"content_url" validate:"omitempty,url"`
	Body            *string      `json:"body"`
	DurationMinutes *int         `json:"duration_minutes" validate:"omitempty,gte=0"`
	OrderIndex      *int         `json:"order_index" validate:"omitempty,gte=0"`
}
