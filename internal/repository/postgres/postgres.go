package postgres

import (
	"github.com/jwalitptl/clinic-portal/internal/repository"
)

type courseRepository struct {
	BaseRepository
}

type enrollmentRepository struct {
	BaseRepository
}

type progressRepository struct {
	BaseRepository
}

type accessRepository struct {
	BaseRepository
}

type clinicRepository struct {
	BaseRepository
}

type billingRepository struct {
	BaseRepository
}

type blogRepository struct {
	BaseRepository
}

type integrationLogRepository struct {
	BaseRepository
}

type userRepository struct {
	BaseRepository
}

func NewCourseRepository(base BaseRepository) repository.CourseRepository {
	return &courseRepository{base}
}

func NewEnrollmentRepository(base BaseRepository) repository.EnrollmentRepository {
	return &enrollmentRepository{base}
}

func NewProgressRepository(base BaseRepository) repository.ProgressRepository {
	return &progressRepository{base}
}

func NewAccessRepository(base BaseRepository) repository.AccessRepository {
	return &accessRepository{base}
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

func NewBillingRepository(base BaseRepository) repository.BillingRepository {
	return &billingRepository{base}
}

func NewBlogRepository(base BaseRepository) repository.BlogRepository {
	return &blogRepository{base}
}

func NewIntegrationLogRepository(base BaseRepository) repository.IntegrationLogRepository {
	return &integrationLogRepository{base}
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}
