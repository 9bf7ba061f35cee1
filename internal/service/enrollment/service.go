package enrollment

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/cachekey"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
)

type Service struct {
	repo    repository.EnrollmentRepository
	queries *query.Client
}

func NewService(repo repository.EnrollmentRepository, queries *query.Client) *Service {
	return &Service{repo: repo, queries: queries}
}

// List returns the user's enrollments, newest first. No user means an
// empty list, not an error.
func (s *Service) List(ctx context.Context, user *auth.Session) ([]*model.Enrollment, error) {
	if user == nil {
		return []*model.Enrollment{}, nil
	}
	return query.Fetch(ctx, s.queries, cachekey.Enrollments(user.UserID.String()), func(ctx context.Context) ([]*model.Enrollment, error) {
		return s.repo.ListByUser(ctx, user.UserID)
	})
}

// IsEnrolled reports whether user is enrolled in courseID. No user is false.
func (s *Service) IsEnrolled(ctx context.Context, user *auth.Session, courseID uuid.UUID) (bool, error) {
	if user == nil {
		return false, nil
	}
	key := cachekey.EnrollmentCheck(user.UserID.String(), courseID.String())
	return query.Fetch(ctx, s.queries, key, func(ctx context.Context) (bool, error) {
		return s.repo.Exists(ctx, user.UserID, courseID)
	})
}

// Enroll records an enrollment for user. A second enrollment in the same
// course fails with Conflict. On success every enrollment and progress
// read is invalidated.
func (s *Service) Enroll(ctx context.Context, user *auth.Session, courseID uuid.UUID, paymentSessionID *string) (*model.Enrollment, error) {
	if user == nil {
		return nil, errors.Unauthenticated(nil)
	}

	e := &model.Enrollment{
		UserID:           user.UserID,
		CourseID:         courseID,
		PaymentSessionID: paymentSessionID,
	}
	return query.Mutation(ctx, s.queries, func(ctx context.Context) (*model.Enrollment, error) {
		if err := s.repo.Create(ctx, e); err != nil {
			if errors.Is(err, errors.ErrConflict) {
				return nil, errors.Conflict("already enrolled in this course", err)
			}
			return nil, err
		}
		return e, nil
	}, cachekey.AllEnrollments(), cachekey.AllEnrollmentChecks(), cachekey.AllCourseProgress())
}
