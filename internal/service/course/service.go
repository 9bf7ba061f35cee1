package course

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/cachekey"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

type Service struct {
	repo     repository.CourseRepository
	queries  *query.Client
	validate validator.Validator
}

func NewService(repo repository.CourseRepository, queries *query.Client, validate validator.Validator) *Service {
	return &Service{
		repo:     repo,
		queries:  queries,
		validate: validate,
	}
}

// catalogKeys are dropped after any admin write to course content.
func catalogKeys() []query.Key {
	return []query.Key{cachekey.Courses(), cachekey.AllCourses(), cachekey.AdminCourses()}
}

// ListPublished returns published courses, newest first, with nested
// modules and lessons in display order.
func (s *Service) ListPublished(ctx context.Context) ([]*model.Course, error) {
	return query.Fetch(ctx, s.queries, cachekey.Courses(), s.fetchPublished)
}

func (s *Service) fetchPublished(ctx context.Context) ([]*model.Course, error) {
	courses, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		c.Arrange()
	}
	return courses, nil
}

// GetBySlug returns a published course. Unpublished and unknown slugs are
// both NotFound.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*model.Course, error) {
	return query.Fetch(ctx, s.queries, cachekey.Course(slug), func(ctx context.Context) (*model.Course, error) {
		c, err := s.repo.GetPublishedBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		c.Arrange()
		return c, nil
	})
}

// ObserveCatalog is ListPublished reported as a query state.
func (s *Service) ObserveCatalog(ctx context.Context) query.State[[]*model.Course] {
	return query.Observe(ctx, s.queries, cachekey.Courses(), s.fetchPublished)
}

func (s *Service) ListAll(ctx context.Context) ([]*model.Course, error) {
	return query.Fetch(ctx, s.queries, cachekey.AdminCourses(), func(ctx context.Context) ([]*model.Course, error) {
		courses, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range courses {
			c.Arrange()
		}
		return courses, nil
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return query.Fetch(ctx, s.queries, cachekey.AdminCourse(id.String()), func(ctx context.Context) (*model.Course, error) {
		c, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		c.Arrange()
		return c, nil
	})
}

func (s *Service) CreateCourse(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}

	c := &model.Course{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsPublished: req.IsPublished,
		Modules:     []*model.Module{},
	}
	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.Course, error) {
		if err := s.repo.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}, catalogKeys()...)
}

func (s *Service) UpdateCourse(ctx context.Context, id uuid.UUID, req *model.UpdateCourseRequest) (*model.Course, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Price != nil {
		c.Price = *req.Price
	}
	if req.ImageURL != nil {
		c.ImageURL = req.ImageURL
	}
	if req.IsPublished != nil {
		c.IsPublished = *req.IsPublished
	}

	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.Course, error) {
		if err := s.repo.Update(ctx, c); err != nil {
			return nil, err
		}
		c.Arrange()
		return c, nil
	}, catalogKeys()...)
}

func (s *Service) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*model.Course, error) {
	return s.UpdateCourse(ctx, id, &model.UpdateCourseRequest{IsPublished: &published})
}

func (s *Service) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	return s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}, catalogKeys()...)
}

func (s *Service) CreateModule(ctx context.Context, courseID uuid.UUID, req *model.CreateModuleRequest) (*model.Module, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}
	if _, err := s.repo.Get(ctx, courseID); err != nil {
		return nil, err
	}

	m := &model.Module{
		CourseID:   courseID,
		Title:      req.Title,
		OrderIndex: req.OrderIndex,
		Lessons:    []*model.Lesson{},
	}
	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.Module, error) {
		if err := s.repo.CreateModule(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}, catalogKeys()...)
}

func (s *Service) UpdateModule(ctx context.Context, id uuid.UUID, req *model.UpdateModuleRequest) (*model.Module, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}

	m, err := s.repo.GetModule(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		m.Title = *req.Title
	}
	if req.OrderIndex != nil {
		m.OrderIndex = *req.OrderIndex
	}

	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.Module, error) {
		if err := s.repo.UpdateModule(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}, catalogKeys()...)
}

func (s *Service) DeleteModule(ctx context.Context, id uuid.UUID) error {
	return s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.repo.DeleteModule(ctx, id)
	}, catalogKeys()...)
}

func (s *Service) CreateLesson(ctx context.Context, moduleID uuid.UUID, req *model.CreateLessonRequest) (*model.Lesson, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}
	if err := checkLessonContent(req.ContentType, req.ContentURL, req.Body); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}

	l := &model.Lesson{
		ModuleID:        moduleID,
		Title:           req.Title,
		ContentType:     req.ContentType,
		ContentURL:      req.ContentURL,
		Body:            req.Body,
		DurationMinutes: req.DurationMinutes,
		OrderIndex:      req.OrderIndex,
	}
	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.Lesson, error) {
		if err := s.repo.CreateLesson(ctx, l); err != nil {
			return nil, err
		}
		return l, nil
	}, catalogKeys()...)
}

func (s *Service) UpdateLesson(ctx context.Context, id uuid.UUID, req *model.UpdateLessonRequest) (*model.Lesson, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}

	l, err := s.repo.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.ContentType != nil {
		l.ContentType = *req.ContentType
	}
	if req.ContentURL != nil {
		l.ContentURL = req.ContentURL
	}
	if req.Body != nil {
		l.Body = req.Body
	}
	if req.DurationMinutes != nil {
		l.DurationMinutes = req.DurationMinutes
	}
	if req.OrderIndex != nil {
		l.OrderIndex = *req.OrderIndex
	}
	if err := checkLessonContent(l.ContentType, l.ContentURL, l.Body); err != nil {
		return nil, err
	}

	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.Lesson, error) {
		if err := s.repo.UpdateLesson(ctx, l); err != nil {
			return nil, err
		}
		return l, nil
	}, catalogKeys()...)
}

func (s *Service) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	return s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.repo.DeleteLesson(ctx, id)
	}, catalogKeys()...)
}

// checkLessonContent requires a URL for video and pdf lessons and a body
// for text lessons.
func checkLessonContent(ct model.ContentType, url, body *string) error {
	switch ct {
	case model.ContentTypeVideo, model.ContentTypePDF:
		if url == nil || *url == "" {
			return errors.Validation(fmt.Errorf("content_url is required for %s lessons", ct))
		}
	case model.ContentTypeText:
		if body == nil || *body == "" {
			return errors.Validation(fmt.Errorf("body is required for text lessons"))
		}
	}
	return nil
}
