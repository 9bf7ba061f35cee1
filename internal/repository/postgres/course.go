package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

const courseColumns = `
	id, slug, title, description, price, image_url, is_published, created_at, updated_at
`

func (r *courseRepository) ListPublished(ctx context.Context) ([]*model.Course, error) {
	start := time.Now()
	query := `SELECT ` + courseColumns + ` FROM courses WHERE is_published = true ORDER BY created_at DESC`

	var courses []*model.Course
	err := r.db.SelectContext(ctx, &courses, query)
	if err == nil {
		err = r.loadContents(ctx, courses)
	}
	r.observe("courses.list_published", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (r *courseRepository) GetPublishedBySlug(ctx context.Context, slug string) (*model.Course, error) {
	start := time.Now()
	query := `SELECT ` + courseColumns + ` FROM courses WHERE slug = $1 AND is_published = true`

	var course model.Course
	err := r.db.GetContext(ctx, &course, query, slug)
	if err == nil {
		err = r.loadContents(ctx, []*model.Course{&course})
	}
	r.observe("courses.get_by_slug", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", mapError(err, "course"))
	}
	return &course, nil
}

func (r *courseRepository) ListAll(ctx context.Context) ([]*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY created_at DESC`

	var courses []*model.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	if err := r.loadContents(ctx, courses); err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (r *courseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	var course model.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, fmt.Errorf("failed to get course: %w", mapError(err, "course"))
	}
	if err := r.loadContents(ctx, []*model.Course{&course}); err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

// loadContents fills Modules and their Lessons for courses with two
// batched queries.
func (r *courseRepository) loadContents(ctx context.Context, courses []*model.Course) error {
	if len(courses) == 0 {
		return nil
	}

	byCourse := make(map[uuid.UUID]*model.Course, len(courses))
	courseIDs := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		c.Modules = []*model.Module{}
		byCourse[c.ID] = c
		courseIDs = append(courseIDs, c.ID)
	}

	query, args, err := sqlx.In(`
		SELECT id, course_id, title, order_index, created_at
		FROM modules
		WHERE course_id IN (?)
		ORDER BY order_index ASC
	`, courseIDs)
	if err != nil {
		return err
	}
	var modules []*model.Module
	if err := r.db.SelectContext(ctx, &modules, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}
	if len(modules) == 0 {
		return nil
	}

	byModule := make(map[uuid.UUID]*model.Module, len(modules))
	moduleIDs := make([]uuid.UUID, 0, len(modules))
	for _, m := range modules {
		m.Lessons = []*model.Lesson{}
		byModule[m.ID] = m
		moduleIDs = append(moduleIDs, m.ID)
		if c, ok := byCourse[m.CourseID]; ok {
			c.Modules = append(c.Modules, m)
		}
	}

	query, args, err = sqlx.In(`
		SELECT id, module_id, title, content_type, content_url, body,
		       duration_minutes, order_index, created_at
		FROM lessons
		WHERE module_id IN (?)
		ORDER BY order_index ASC
	`, moduleIDs)
	if err != nil {
		return err
	}
	var lessons []*model.Lesson
	if err := r.db.SelectContext(ctx, &lessons, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load lessons: %w", err)
	}
	for _, l := range lessons {
		if m, ok := byModule[l.ModuleID]; ok {
			m.Lessons = append(m.Lessons, l)
		}
	}
	return nil
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	query := `
		INSERT INTO courses (
			id, slug, title, description, price, image_url,
			is_published, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	course.ID = uuid.New()
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		course.ID,
		course.Slug,
		course.Title,
		course.Description,
		course.Price,
		course.ImageURL,
		course.IsPublished,
		course.CreatedAt,
		course.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", mapError(err, "course"))
	}
	return nil
}

func (r *courseRepository) Update(ctx context.Context, course *model.Course) error {
	query := `
		UPDATE courses
		SET title = $1, description = $2, price = $3, image_url = $4,
		    is_published = $5, updated_at = $6
		WHERE id = $7
	`
	course.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		course.Title,
		course.Description,
		course.Price,
		course.ImageURL,
		course.IsPublished,
		course.UpdatedAt,
		course.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return requireAffected(result, "course")
}

func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return requireAffected(result, "course")
}

func (r *courseRepository) GetModule(ctx context.Context, id uuid.UUID) (*model.Module, error) {
	query := `SELECT id, course_id, title, order_index, created_at FROM modules WHERE id = $1`

	var module model.Module
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		return nil, fmt.Errorf("failed to get module: %w", mapError(err, "module"))
	}
	return &module, nil
}

func (r *courseRepository) CreateModule(ctx context.Context, module *model.Module) error {
	query := `
		INSERT INTO modules (id, course_id, title, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	module.ID = uuid.New()
	module.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, module.ID, module.CourseID, module.Title, module.OrderIndex, module.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	return nil
}

func (r *courseRepository) UpdateModule(ctx context.Context, module *model.Module) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE modules SET title = $1, order_index = $2 WHERE id = $3`,
		module.Title, module.OrderIndex, module.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	return requireAffected(result, "module")
}

func (r *courseRepository) DeleteModule(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete module: %w", err)
	}
	return requireAffected(result, "module")
}

func (r *courseRepository) GetLesson(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	query := `
		SELECT id, module_id, title, content_type, content_url, body,
		       duration_minutes, order_index, created_at
		FROM lessons
		WHERE id = $1
	`
	var lesson model.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", mapError(err, "lesson"))
	}
	return &lesson, nil
}

func (r *courseRepository) CreateLesson(ctx context.Context, lesson *model.Lesson) error {
	query := `
		INSERT INTO lessons (
			id, module_id, title, content_type, content_url, body,
			duration_minutes, order_index, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	lesson.ID = uuid.New()
	lesson.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		lesson.ID,
		lesson.ModuleID,
		lesson.Title,
		lesson.ContentType,
		lesson.ContentURL,
		lesson.Body,
		lesson.DurationMinutes,
		lesson.OrderIndex,
		lesson.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (r *courseRepository) UpdateLesson(ctx context.Context, lesson *model.Lesson) error {
	query := `
		UPDATE lessons
		SET title = $1, content_type = $2, content_url = $3, body = $4,
		    duration_minutes = $5, order_index = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		lesson.Title,
		lesson.ContentType,
		lesson.ContentURL,
		lesson.Body,
		lesson.DurationMinutes,
		lesson.OrderIndex,
		lesson.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return requireAffected(result, "lesson")
}

func (r *courseRepository) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return requireAffected(result, "lesson")
}

func (r *courseRepository) LessonCourseID(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT m.course_id
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE l.id = $1
	`
	var courseID uuid.UUID
	if err := r.db.GetContext(ctx, &courseID, query, lessonID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve lesson course: %w", mapError(err, "lesson"))
	}
	return courseID, nil
}
