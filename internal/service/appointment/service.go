package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/internal/cachekey"
	"github.com/jwalitptl/clinic-portal/internal/email"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

const (
	MaxAdvanceBooking = 90 * 24 * time.Hour
	MinAdvanceBooking = 1 * time.Hour

	eventBooked = "appointment.booked"
)

type AuditLogger interface {
	Log(ctx context.Context, eventType, source string, payload interface{}) error
}

type Service struct {
	repo      repository.ClinicRepository
	queries   *query.Client
	validator validator.Validator
	emailSvc  email.Service
	auditor   AuditLogger
	now       func() time.Time
}

func NewService(repo repository.ClinicRepository, queries *query.Client, v validator.Validator, emailSvc email.Service, auditor AuditLogger) *Service {
	return &Service{
		repo:      repo,
		queries:   queries,
		validator: v,
		emailSvc:  emailSvc,
		auditor:   auditor,
		now:       time.Now,
	}
}

func (s *Service) validateTime(at time.Time) error {
	now := s.now()
	if at.Before(now.Add(MinAdvanceBooking)) {
		return errors.Validation(fmt.Errorf("appointments must be booked at least %v ahead", MinAdvanceBooking))
	}
	if at.After(now.Add(MaxAdvanceBooking)) {
		return errors.Validation(fmt.Errorf("appointments cannot be booked more than %d days ahead", int(MaxAdvanceBooking.Hours()/24)))
	}
	return nil
}

// Book creates a scheduled appointment from the public booking form. The
// patient is matched by email and created on first booking. A failed
// confirmation email does not fail the booking.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, errors.Validation(err)
	}
	if err := s.validateTime(req.ScheduledAt); err != nil {
		return nil, err
	}

	professional, err := s.repo.GetProfessional(ctx, req.ProfessionalID)
	if err != nil {
		return nil, err
	}
	kind, err := s.repo.GetConsultationType(ctx, req.ConsultationTypeID)
	if err != nil {
		return nil, err
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))
	patient := &model.Patient{FullName: req.FullName, Email: &addr}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		patient.Phone = &phone
	}
	appointment := &model.Appointment{
		ProfessionalID:     professional.ID,
		ConsultationTypeID: kind.ID,
		ScheduledAt:        req.ScheduledAt,
		Status:             model.AppointmentStatusScheduled,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		appointment.Notes = &notes
	}

	err = s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.repo.BookAppointment(ctx, patient, appointment)
	}, cachekey.AllWaitingRoom(), cachekey.AllBilling())
	if err != nil {
		return nil, err
	}

	if err := s.emailSvc.SendBookingConfirmation(ctx, req.Email, &email.Booking{
		PatientName:      patient.FullName,
		ProfessionalName: professional.FullName,
		ConsultationType: kind.Name,
		ScheduledAt:      appointment.ScheduledAt,
	}); err != nil {
		log.Warn().Err(err).Str("appointment_id", appointment.ID.String()).Msg("failed to send booking confirmation")
	}

	if s.auditor != nil {
		_ = s.auditor.Log(ctx, eventBooked, "booking_form", map[string]interface{}{
			"appointment_id":  appointment.ID.String(),
			"professional_id": professional.ID.String(),
			"scheduled_at":    appointment.ScheduledAt.Format(time.RFC3339),
		})
	}
	return appointment, nil
}

// List returns appointments in a date range for the admin views.
func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters.To.IsZero() || !filters.To.After(filters.From) {
		return nil, errors.BadRequest("invalid date range", nil)
	}
	return s.repo.ListAppointments(ctx, filters)
}

func (s *Service) Professionals(ctx context.Context) ([]*model.Professional, error) {
	return query.Fetch(ctx, s.queries, cachekey.Professionals(), s.repo.ListProfessionals)
}

func (s *Service) ConsultationTypes(ctx context.Context) ([]*model.ConsultationType, error) {
	return query.Fetch(ctx, s.queries, cachekey.ConsultationTypes(), s.repo.ListConsultationTypes)
}
