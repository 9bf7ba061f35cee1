package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/cachekey"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
)

type Service struct {
	repo        repository.ProgressRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	queries     *query.Client
}

func NewService(repo repository.ProgressRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, queries *query.Client) *Service {
	return &Service{
		repo:        repo,
		courses:     courses,
		enrollments: enrollments,
		queries:     queries,
	}
}

// CourseProgress returns per-course completion for the user's enrollments.
func (s *Service) CourseProgress(ctx context.Context, user *auth.Session) ([]*model.CourseProgress, error) {
	if user == nil {
		return []*model.CourseProgress{}, nil
	}
	return query.Fetch(ctx, s.queries, cachekey.CourseProgress(user.UserID.String()), func(ctx context.Context) ([]*model.CourseProgress, error) {
		rows, err := s.repo.CourseProgress(ctx, user.UserID)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []*model.CourseProgress{}
		}
		return rows, nil
	})
}

// CompletedLessons lists the lessons of courseID the user has finished.
func (s *Service) CompletedLessons(ctx context.Context, user *auth.Session, courseID uuid.UUID) ([]uuid.UUID, error) {
	if user == nil {
		return []uuid.UUID{}, nil
	}
	key := cachekey.LessonProgress(user.UserID.String(), courseID.String())
	return query.Fetch(ctx, s.queries, key, func(ctx context.Context) ([]uuid.UUID, error) {
		ids, err := s.repo.CompletedLessons(ctx, user.UserID, courseID)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		return ids, nil
	})
}

func (s *Service) MarkComplete(ctx context.Context, user *auth.Session, lessonID uuid.UUID) error {
	return s.setComplete(ctx, user, lessonID, true)
}

func (s *Service) MarkIncomplete(ctx context.Context, user *auth.Session, lessonID uuid.UUID) error {
	return s.setComplete(ctx, user, lessonID, false)
}

func (s *Service) setComplete(ctx context.Context, user *auth.Session, lessonID uuid.UUID, done bool) error {
	if user == nil {
		return errors.Unauthenticated(nil)
	}

	courseID, err := s.courses.LessonCourseID(ctx, lessonID)
	if err != nil {
		return err
	}
	enrolled, err := s.enrollments.Exists(ctx, user.UserID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return errors.Forbidden(fmt.Errorf("user %s is not enrolled in course %s", user.UserID, courseID))
	}

	userID := user.UserID.String()
	return s.queries.Mutate(ctx, func(ctx context.Context) error {
		if done {
			return s.repo.MarkComplete(ctx, &model.LessonProgress{
				UserID:   user.UserID,
				LessonID: lessonID,
				CourseID: courseID,
			})
		}
		return s.repo.MarkIncomplete(ctx, user.UserID, lessonID)
	}, cachekey.LessonProgress(userID, courseID.String()), cachekey.CourseProgress(userID))
}
