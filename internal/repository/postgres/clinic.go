package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
)

const appointmentColumns = `
	id, patient_id, professional_id, consultation_type_id,
	scheduled_at, status, notes, created_at
`

func (r *clinicRepository) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE scheduled_at >= $1 AND scheduled_at < $2`
	args := []interface{}{filters.From, filters.To}
	argCount := 3

	if filters.ProfessionalID != nil {
		query += fmt.Sprintf(" AND professional_id = $%d", argCount)
		args = append(args, *filters.ProfessionalID)
		argCount++
	}

	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filters.Status)
		argCount++
	}

	query += " ORDER BY scheduled_at ASC"

	start := time.Now()
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	r.observe("appointments.list", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *clinicRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", mapError(err, "appointment"))
	}
	return &appointment, nil
}

// BookAppointment matches the patient by email, creating it on first
// booking, and inserts the appointment in the same transaction. patient
// and appointment carry their stored ids on return.
func (r *clinicRepository) BookAppointment(ctx context.Context, patient *model.Patient, appointment *model.Appointment) error {
	start := time.Now()
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := matchOrCreatePatient(ctx, tx, patient); err != nil {
			return err
		}
		appointment.PatientID = patient.ID
		return insertAppointment(ctx, tx, appointment)
	})
	r.observe("appointments.book", start, err)
	return err
}

func matchOrCreatePatient(ctx context.Context, tx *sqlx.Tx, patient *model.Patient) error {
	if patient.Email != nil {
		var existing model.Patient
		err := tx.GetContext(ctx, &existing,
			`SELECT id, full_name, email, phone, created_at FROM patients WHERE lower(email) = lower($1)`,
			*patient.Email,
		)
		if err == nil {
			*patient = existing
			return nil
		}
		if err = mapError(err, "patient"); !errors.Is(err, errors.ErrNotFound) {
			return fmt.Errorf("failed to get patient: %w", err)
		}
	}

	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO patients (id, full_name, email, phone, created_at) VALUES ($1, $2, $3, $4, $5)`,
		patient.ID, patient.FullName, patient.Email, patient.Phone, patient.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", mapError(err, "patient"))
	}
	return nil
}

func insertAppointment(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, professional_id, consultation_type_id,
			scheduled_at, status, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.ProfessionalID,
		appointment.ConsultationTypeID,
		appointment.ScheduledAt,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapError(err, "appointment"))
	}
	return nil
}

func (r *clinicRepository) TransitionAppointment(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	start := time.Now()
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	r.observe("appointments.transition", start, err)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.Conflict("appointment status changed since it was loaded", nil)
	}
	return nil
}

func (r *clinicRepository) ListPatients(ctx context.Context, ids []uuid.UUID) ([]*model.Patient, error) {
	if len(ids) == 0 {
		return []*model.Patient{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, full_name, email, phone, created_at FROM patients WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build patient query: %w", err)
	}

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *clinicRepository) ListProfessionals(ctx context.Context) ([]*model.Professional, error) {
	var professionals []*model.Professional
	err := r.db.SelectContext(ctx, &professionals, `SELECT id, full_name, specialty, color FROM professionals ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list professionals: %w", err)
	}
	return professionals, nil
}

func (r *clinicRepository) GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	var professional model.Professional
	err := r.db.GetContext(ctx, &professional, `SELECT id, full_name, specialty, color FROM professionals WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get professional: %w", mapError(err, "professional"))
	}
	return &professional, nil
}

func (r *clinicRepository) ListConsultationTypes(ctx context.Context) ([]*model.ConsultationType, error) {
	var types []*model.ConsultationType
	err := r.db.SelectContext(ctx, &types, `SELECT id, name, duration_minutes, price FROM consultation_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultation types: %w", err)
	}
	return types, nil
}

func (r *clinicRepository) GetConsultationType(ctx context.Context, id uuid.UUID) (*model.ConsultationType, error) {
	var ct model.ConsultationType
	err := r.db.GetContext(ctx, &ct, `SELECT id, name, duration_minutes, price FROM consultation_types WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation type: %w", mapError(err, "consultation type"))
	}
	return &ct, nil
}

func (r *billingRepository) RevenueByMonth(ctx context.Context, from, to time.Time) ([]*model.RevenuePoint, error) {
	query := `
		SELECT to_char(date_trunc('month', a.scheduled_at), 'YYYY-MM') AS label,
		       COALESCE(SUM(ct.price), 0) AS revenue,
		       COUNT(*) AS appointments
		FROM appointments a
		JOIN consultation_types ct ON ct.id = a.consultation_type_id
		WHERE a.status = 'completed'
		AND a.scheduled_at >= $1 AND a.scheduled_at < $2
		GROUP BY 1
		ORDER BY 1
	`
	var points []*model.RevenuePoint
	if err := r.db.SelectContext(ctx, &points, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue by month: %w", err)
	}
	return points, nil
}

func (r *billingRepository) RevenueByProfessional(ctx context.Context, from, to time.Time) ([]*model.RevenuePoint, error) {
	query := `
		SELECT p.full_name AS label,
		       COALESCE(SUM(ct.price), 0) AS revenue,
		       COUNT(*) AS appointments
		FROM appointments a
		JOIN consultation_types ct ON ct.id = a.consultation_type_id
		JOIN professionals p ON p.id = a.professional_id
		WHERE a.status = 'completed'
		AND a.scheduled_at >= $1 AND a.scheduled_at < $2
		GROUP BY p.full_name
		ORDER BY revenue DESC
	`
	var points []*model.RevenuePoint
	if err := r.db.SelectContext(ctx, &points, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue by professional: %w", err)
	}
	return points, nil
}
