package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
)

type fakeProgressRepo struct {
	done     map[uuid.UUID]uuid.UUID
	rpcCalls int
}

func (r *fakeProgressRepo) CourseProgress(ctx context.Context, userID uuid.UUID) ([]*model.CourseProgress, error) {
	r.rpcCalls++
	return nil, nil
}

func (r *fakeProgressRepo) MarkComplete(ctx context.Context, p *model.LessonProgress) error {
	r.done[p.LessonID] = p.CourseID
	return nil
}

func (r *fakeProgressRepo) MarkIncomplete(ctx context.Context, userID, lessonID uuid.UUID) error {
	delete(r.done, lessonID)
	return nil
}

func (r *fakeProgressRepo) CompletedLessons(ctx context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for lesson, course := range r.done {
		if course == courseID {
			ids = append(ids, lesson)
		}
	}
	return ids, nil
}

// lessonCourses resolves lessons to courses; only LessonCourseID is used.
type lessonCourses struct {
	repository.CourseRepository
	byLesson map[uuid.UUID]uuid.UUID
}

func (l *lessonCourses) LessonCourseID(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error) {
	id, ok := l.byLesson[lessonID]
	if !ok {
		return uuid.Nil, errors.NotFound("lesson", nil)
	}
	return id, nil
}

type enrolledIn struct {
	repository.EnrollmentRepository
	courses map[uuid.UUID]bool
}

func (e *enrolledIn) Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	return e.courses[courseID], nil
}

func TestMarkCompleteInvalidatesProgress(t *testing.T) {
	courseID, lessonID := uuid.New(), uuid.New()
	repo := &fakeProgressRepo{done: map[uuid.UUID]uuid.UUID{}}
	svc := NewService(repo,
		&lessonCourses{byLesson: map[uuid.UUID]uuid.UUID{lessonID: courseID}},
		&enrolledIn{courses: map[uuid.UUID]bool{courseID: true}},
		query.NewClient(query.Config{StaleTime: time.Minute}),
	)
	u := &auth.Session{ID: "s", UserID: uuid.New()}
	ctx := context.Background()

	ids, err := svc.CompletedLessons(ctx, u, courseID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, err = svc.CourseProgress(ctx, u)
	require.NoError(t, err)

	require.NoError(t, svc.MarkComplete(ctx, u, lessonID))

	ids, err = svc.CompletedLessons(ctx, u, courseID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{lessonID}, ids)

	_, err = svc.CourseProgress(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.rpcCalls)

	require.NoError(t, svc.MarkIncomplete(ctx, u, lessonID))
	ids, err = svc.CompletedLessons(ctx, u, courseID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMarkCompleteRequiresEnrollment(t *testing.T) {
	courseID, lessonID := uuid.New(), uuid.New()
	svc := NewService(&fakeProgressRepo{done: map[uuid.UUID]uuid.UUID{}},
		&lessonCourses{byLesson: map[uuid.UUID]uuid.UUID{lessonID: courseID}},
		&enrolledIn{courses: map[uuid.UUID]bool{}},
		query.NewClient(query.Config{}),
	)

	err := svc.MarkComplete(context.Background(), &auth.Session{UserID: uuid.New()}, lessonID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	err = svc.MarkComplete(context.Background(), nil, lessonID)
	assert.True(t, errors.Is(err, errors.ErrUnauthenticated))
}

func TestCourseProgressWithoutUserIsEmpty(t *testing.T) {
	repo := &fakeProgressRepo{}
	svc := NewService(repo, nil, nil, query.NewClient(query.Config{}))

	rows, err := svc.CourseProgress(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 0, repo.rpcCalls)
}
