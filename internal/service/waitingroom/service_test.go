package waitingroom

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
)

type fakeClinic struct {
	repository.ClinicRepository

	mu            sync.Mutex
	appointments  map[uuid.UUID]*model.Appointment
	patients      []*model.Patient
	professionals []*model.Professional
	types         []*model.ConsultationType
	listCalls     int
	transitions   int
}

func (f *fakeClinic) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var out []*model.Appointment
	for _, a := range f.appointments {
		if !a.ScheduledAt.Before(filters.From) && a.ScheduledAt.Before(filters.To) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeClinic) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, errors.NotFound("appointment", nil)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeClinic) TransitionAppointment(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.appointments[id]
	if a.Status != from {
		return errors.Conflict("appointment status changed", nil)
	}
	a.Status = to
	f.transitions++
	return nil
}

func (f *fakeClinic) ListPatients(ctx context.Context, ids []uuid.UUID) ([]*model.Patient, error) {
	return f.patients, nil
}

func (f *fakeClinic) ListProfessionals(ctx context.Context) ([]*model.Professional, error) {
	return f.professionals, nil
}

func (f *fakeClinic) ListConsultationTypes(ctx context.Context) ([]*model.ConsultationType, error) {
	return f.types, nil
}

var today = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func newFixture() (*fakeClinic, *model.Appointment) {
	color := "#3b82f6"
	patient := &model.Patient{ID: uuid.New(), FullName: "Ana Souza"}
	pro := &model.Professional{ID: uuid.New(), FullName: "Dr. Lima", Color: &color}
	kind := &model.ConsultationType{ID: uuid.New(), Name: "Acupuncture"}
	a := &model.Appointment{
		ID:                 uuid.New(),
		PatientID:          patient.ID,
		ProfessionalID:     pro.ID,
		ConsultationTypeID: kind.ID,
		ScheduledAt:        today.Add(10 * time.Hour),
		Status:             model.AppointmentStatusScheduled,
	}
	tomorrow := &model.Appointment{ID: uuid.New(), ScheduledAt: today.Add(30 * time.Hour), Status: model.AppointmentStatusScheduled}
	return &fakeClinic{
		appointments:  map[uuid.UUID]*model.Appointment{a.ID: a, tomorrow.ID: tomorrow},
		patients:      []*model.Patient{patient},
		professionals: []*model.Professional{pro},
		types:         []*model.ConsultationType{kind},
	}, a
}

func newService(repo *fakeClinic) *Service {
	return NewService(repo, query.NewClient(query.Config{StaleTime: time.Minute}))
}

func TestBoardResolvesLookups(t *testing.T) {
	repo, a := newFixture()
	svc := newService(repo)

	board, err := svc.Board(context.Background(), today.Add(15*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14", board.Day)
	require.Len(t, board.Columns, len(model.AppointmentStatuses))
	scheduled := board.Columns[0]
	assert.Equal(t, model.AppointmentStatusScheduled, scheduled.Status)
	require.Len(t, scheduled.Cards, 1)

	card := scheduled.Cards[0]
	assert.Equal(t, "Ana Souza", card.PatientName)
	assert.Equal(t, "Dr. Lima", card.ProfessionalName)
	assert.Equal(t, "#3b82f6", *card.ProfessionalColor)
	assert.Equal(t, "Acupuncture", card.ConsultationType)
	assert.Equal(t, DragPayload{AppointmentID: a.ID, Status: model.AppointmentStatusScheduled}, card.Payload)

	for _, col := range board.Columns[1:] {
		assert.Empty(t, col.Cards)
	}
}

func TestDropPersistsAllowedTransition(t *testing.T) {
	repo, a := newFixture()
	svc := newService(repo)
	ctx := context.Background()

	_, err := svc.Board(ctx, today)
	require.NoError(t, err)

	moved, err := svc.Drop(ctx, DragPayload{AppointmentID: a.ID, Status: a.Status}, model.AppointmentStatusWaiting)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusWaiting, moved.Status)

	board, err := svc.Board(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	assert.Empty(t, board.Columns[0].Cards)
	assert.Len(t, board.Columns[1].Cards, 1)
}

func TestDropRejectsDisallowedTransition(t *testing.T) {
	repo, a := newFixture()
	svc := newService(repo)

	_, err := svc.Drop(context.Background(), DragPayload{AppointmentID: a.ID, Status: a.Status}, model.AppointmentStatusCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	assert.Equal(t, 0, repo.transitions)
}

func TestDropRejectsStalePayload(t *testing.T) {
	repo, a := newFixture()
	svc := newService(repo)

	_, err := svc.Drop(context.Background(), DragPayload{AppointmentID: a.ID, Status: model.AppointmentStatusWaiting}, model.AppointmentStatusInProgress)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Equal(t, 0, repo.transitions)
}

func TestDropOnSameColumnIsNoop(t *testing.T) {
	repo, a := newFixture()
	svc := newService(repo)

	got, err := svc.Drop(context.Background(), DragPayload{AppointmentID: a.ID, Status: a.Status}, a.Status)
	require.NoError(t, err)
	assert.Equal(t, a.Status, got.Status)
	assert.Equal(t, 0, repo.transitions)
}

func TestDropUnknownStatus(t *testing.T) {
	repo, a := newFixture()
	svc := newService(repo)

	_, err := svc.Drop(context.Background(), DragPayload{AppointmentID: a.ID, Status: a.Status}, "archived")
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestCardView(t *testing.T) {
	assert.Equal(t, CardView{Opacity: 0.5, Scale: 1.05}, View(true))
	assert.Equal(t, CardView{Opacity: 1, Scale: 1}, View(false))
	assert.False(t, CanTransition(model.AppointmentStatusCompleted, model.AppointmentStatusWaiting))
	assert.True(t, CanTransition(model.AppointmentStatusInProgress, model.AppointmentStatusCompleted))
}
