package waitingroom

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/clinic-portal/internal/cachekey"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
)

// Card visuals while a card is being dragged.
const (
	DraggingOpacity = 0.5
	DraggingScale   = 1.05
)

// transitions lists the statuses a card may be dropped into from each column.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusScheduled: {
		model.AppointmentStatusWaiting,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
	model.AppointmentStatusWaiting: {
		model.AppointmentStatusScheduled,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
	model.AppointmentStatusInProgress: {
		model.AppointmentStatusWaiting,
		model.AppointmentStatusCompleted,
	},
	model.AppointmentStatusCancelled: {
		model.AppointmentStatusScheduled,
	},
	model.AppointmentStatusNoShow: {
		model.AppointmentStatusScheduled,
	},
}

// CanTransition reports whether a card in from may be dropped into to.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DragPayload is carried by a card from pickup to drop.
type DragPayload struct {
	AppointmentID uuid.UUID               `json:"appointment_id" validate:"required"`
	Status        model.AppointmentStatus `json:"status" validate:"required"`
}

type CardView struct {
	Opacity float64 `json:"opacity"`
	Scale   float64 `json:"scale"`
}

// View returns the visual state of a card.
func View(dragging bool) CardView {
	if dragging {
		return CardView{Opacity: DraggingOpacity, Scale: DraggingScale}
	}
	return CardView{Opacity: 1, Scale: 1}
}

type Card struct {
	Appointment       *model.Appointment        `json:"appointment"`
	PatientName       string                    `json:"patient_name"`
	ProfessionalName  string                    `json:"professional_name"`
	ProfessionalColor *string                   `json:"professional_color,omitempty"`
	ConsultationType  string                    `json:"consultation_type"`
	Payload           DragPayload               `json:"payload"`
	Targets           []model.AppointmentStatus `json:"targets"`
}

type Column struct {
	Status model.AppointmentStatus `json:"status"`
	Cards  []*Card                 `json:"cards"`
}

type Board struct {
	Day     string    `json:"day"`
	Columns []*Column `json:"columns"`
}

type Service struct {
	repo    repository.ClinicRepository
	queries *query.Client
	loc     *time.Location
}

func NewService(repo repository.ClinicRepository, queries *query.Client) *Service {
	return &Service{repo: repo, queries: queries, loc: time.UTC}
}

// Board returns the day's appointments grouped by status, in column order.
func (s *Service) Board(ctx context.Context, day time.Time) (*Board, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	return query.Fetch(ctx, s.queries, cachekey.WaitingRoom(from), func(ctx context.Context) (*Board, error) {
		return s.load(ctx, from)
	})
}

func (s *Service) load(ctx context.Context, from time.Time) (*Board, error) {
	appointments, err := s.repo.ListAppointments(ctx, &model.AppointmentFilters{
		From: from,
		To:   from.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}

	patientIDs := make([]uuid.UUID, 0, len(appointments))
	seen := make(map[uuid.UUID]bool)
	for _, a := range appointments {
		if !seen[a.PatientID] {
			seen[a.PatientID] = true
			patientIDs = append(patientIDs, a.PatientID)
		}
	}

	var (
		patients      []*model.Patient
		professionals []*model.Professional
		types         []*model.ConsultationType
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patients, err = s.repo.ListPatients(gctx, patientIDs)
		return err
	})
	g.Go(func() error {
		var err error
		professionals, err = s.repo.ListProfessionals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = s.repo.ListConsultationTypes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load waiting room: %w", err)
	}

	patientByID := make(map[uuid.UUID]*model.Patient, len(patients))
	for _, p := range patients {
		patientByID[p.ID] = p
	}
	professionalByID := make(map[uuid.UUID]*model.Professional, len(professionals))
	for _, p := range professionals {
		professionalByID[p.ID] = p
	}
	typeByID := make(map[uuid.UUID]*model.ConsultationType, len(types))
	for _, t := range types {
		typeByID[t.ID] = t
	}

	board := &Board{Day: from.Format("2006-01-02")}
	columns := make(map[model.AppointmentStatus]*Column, len(model.AppointmentStatuses))
	for _, status := range model.AppointmentStatuses {
		col := &Column{Status: status, Cards: []*Card{}}
		columns[status] = col
		board.Columns = append(board.Columns, col)
	}

	for _, a := range appointments {
		card := &Card{
			Appointment: a,
			Payload:     DragPayload{AppointmentID: a.ID, Status: a.Status},
			Targets:     transitions[a.Status],
		}
		if p, ok := patientByID[a.PatientID]; ok {
			card.PatientName = p.FullName
		}
		if p, ok := professionalByID[a.ProfessionalID]; ok {
			card.ProfessionalName = p.FullName
			card.ProfessionalColor = p.Color
		}
		if t, ok := typeByID[a.ConsultationTypeID]; ok {
			card.ConsultationType = t.Name
		}

		col, ok := columns[a.Status]
		if !ok {
			log.Warn().Str("appointment_id", a.ID.String()).Str("status", string(a.Status)).Msg("appointment with unknown status left off the board")
			continue
		}
		col.Cards = append(col.Cards, card)
	}
	return board, nil
}

// Drop moves the dragged appointment into target. Dropping a card back on
// its own column does nothing. A payload whose status no longer matches the
// stored appointment fails with Conflict.
func (s *Service) Drop(ctx context.Context, payload DragPayload, target model.AppointmentStatus) (*model.Appointment, error) {
	if !target.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("unknown status %q", target), nil)
	}

	current, err := s.repo.GetAppointment(ctx, payload.AppointmentID)
	if err != nil {
		return nil, err
	}
	if current.Status != payload.Status {
		return nil, errors.Conflict("appointment was moved by someone else", nil)
	}
	if target == payload.Status {
		return current, nil
	}
	if !CanTransition(payload.Status, target) {
		return nil, errors.BadRequest(fmt.Sprintf("cannot move appointment from %s to %s", payload.Status, target), nil)
	}

	err = s.queries.Mutate(ctx, func(ctx context.Context) error {
		return s.repo.TransitionAppointment(ctx, payload.AppointmentID, payload.Status, target)
	}, cachekey.AllWaitingRoom(), cachekey.AllBilling())
	if err != nil {
		return nil, err
	}

	current.Status = target
	return current, nil
}
