package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusWaiting    AppointmentStatus = "waiting"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// AppointmentStatuses lists every status in board column order.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusWaiting,
	AppointmentStatusInProgress,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
	AppointmentStatusNoShow,
}

func (s AppointmentStatus) Valid() bool {
	for _, v := range AppointmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	PatientID          uuid.UUID         `db:"patient_id" json:"patient_id"`
	ProfessionalID     uuid.UUID         `db:"professional_id" json:"professional_id"`
	ConsultationTypeID uuid.UUID         `db:"consultation_type_id" json:"consultation_type_id"`
	ScheduledAt        time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status             AppointmentStatus `db:"status" json:"status"`
	Notes              *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
}

type Professional struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Specialty string    `db:"specialty" json:"specialty"`
	Color     *string   `db:"color" json:"color,omitempty"`
}

type ConsultationType struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Price           int       `db:"price" json:"price"`
}

type BookAppointmentRequest struct {
	FullName           string    `json:"full_name" validate:"required,max=200"`
	Email              string    `json:"email" validate:"required,email"`
	Phone              string    `json:"phone" validate:"omitempty,max=40"`
	ProfessionalID     uuid.UUID `json:"professional_id" validate:"required"`
	ConsultationTypeID uuid.UUID `json:"consultation_type_id" validate:"required"`
	ScheduledAt        time.Time `json:"scheduled_at" validate:"required"`
	Notes              string    `json:"notes" validate:"max=1000"`
}

type AppointmentFilters struct {
	ProfessionalID *uuid.UUID
	Status         *AppointmentStatus
	From           time.Time
	To             time.Time
}
