package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

// All repository interfaces in one file. Methods taking a userID run under
// that user's claims so row-level policies apply.
type (
	CourseRepository interface {
		ListPublished(ctx context.Context) ([]*model.Course, error)
		GetPublishedBySlug(ctx context.Context, slug string) (*model.Course, error)
		ListAll(ctx context.Context) ([]*model.Course, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Course, error)
		Create(ctx context.Context, course *model.Course) error
		Update(ctx context.Context, course *model.Course) error
		Delete(ctx context.Context, id uuid.UUID) error

		GetModule(ctx context.Context, id uuid.UUID) (*model.Module, error)
		CreateModule(ctx context.Context, module *model.Module) error
		UpdateModule(ctx context.Context, module *model.Module) error
		DeleteModule(ctx context.Context, id uuid.UUID) error

		GetLesson(ctx context.Context, id uuid.UUID) (*model.Lesson, error)
		CreateLesson(ctx context.Context, lesson *model.Lesson) error
		UpdateLesson(ctx context.Context, lesson *model.Lesson) error
		DeleteLesson(ctx context.Context, id uuid.UUID) error
		LessonCourseID(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error)
	}

	EnrollmentRepository interface {
		Create(ctx context.Context, enrollment *model.Enrollment) error
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Enrollment, error)
		Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	}

	ProgressRepository interface {
		CourseProgress(ctx context.Context, userID uuid.UUID) ([]*model.CourseProgress, error)
		MarkComplete(ctx context.Context, progress *model.LessonProgress) error
		MarkIncomplete(ctx context.Context, userID, lessonID uuid.UUID) error
		CompletedLessons(ctx context.Context, userID, courseID uuid.UUID) ([]uuid.UUID, error)
	}

	// AccessRepository returns nil when the backend answers NULL.
	AccessRepository interface {
		IsCurrentUserAdmin(ctx context.Context, userID uuid.UUID) (*bool, error)
	}

	ClinicRepository interface {
		ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// BookAppointment stores a booking atomically: the patient is matched
		// by email or created, then the appointment is inserted for it.
		BookAppointment(ctx context.Context, patient *model.Patient, appointment *model.Appointment) error
		// TransitionAppointment moves id from one status to another and
		// fails with Conflict if the stored status is no longer from.
		TransitionAppointment(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error

		ListPatients(ctx context.Context, ids []uuid.UUID) ([]*model.Patient, error)

		ListProfessionals(ctx context.Context) ([]*model.Professional, error)
		GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error)
		ListConsultationTypes(ctx context.Context) ([]*model.ConsultationType, error)
		GetConsultationType(ctx context.Context, id uuid.UUID) (*model.ConsultationType, error)
	}

	BillingRepository interface {
		RevenueByMonth(ctx context.Context, from, to time.Time) ([]*model.RevenuePoint, error)
		RevenueByProfessional(ctx context.Context, from, to time.Time) ([]*model.RevenuePoint, error)
	}

	BlogRepository interface {
		ListPublished(ctx context.Context) ([]*model.BlogPost, error)
		GetPublishedBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
		ListAll(ctx context.Context) ([]*model.BlogPost, error)
		Get(ctx context.Context, id uuid.UUID) (*model.BlogPost, error)
		Create(ctx context.Context, post *model.BlogPost) error
		Update(ctx context.Context, post *model.BlogPost) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	IntegrationLogRepository interface {
		Create(ctx context.Context, entry *model.IntegrationLog) error
		List(ctx context.Context, eventType string, limit int) ([]*model.IntegrationLog, error)
		DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}
)
