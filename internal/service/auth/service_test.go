package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/security"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

type fakeUserRepo struct {
	byID map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range r.byID {
		if u.Email == user.Email {
			return errors.Conflict("user already exists", nil)
		}
	}
	cp := *user
	r.byID[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("user", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NotFound("user", nil)
}

func newService(t *testing.T) (*Service, *auth.Context, *fakeUserRepo) {
	t.Helper()
	tokens := auth.NewTokenIssuer("test-secret", 24*time.Hour)
	sessions := auth.NewContext(auth.NewMemoryStore(), tokens)
	require.NoError(t, sessions.Start(context.Background()))
	t.Cleanup(sessions.Close)

	repo := &fakeUserRepo{byID: map[uuid.UUID]*model.User{}}
	svc := NewService(repo, sessions, tokens, security.NewBcryptHasher(bcrypt.MinCost), validator.New(), nil, nil)
	return svc, sessions, repo
}

func register(t *testing.T, svc *Service) *model.User {
	t.Helper()
	u, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "Student@Academy.test",
		Password: "correct horse",
		FullName: "Student One",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterThenLogin(t *testing.T) {
	svc, sessions, _ := newService(t)
	u := register(t, svc)
	assert.Equal(t, "student@academy.test", u.Email)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{Email: "student@academy.test", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), resp.ExpiresAt, time.Minute)

	st := sessions.Resolve(context.Background(), resp.Token)
	require.NotNil(t, st.User)
	assert.Equal(t, u.ID, st.User.UserID)
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	svc, _, _ := newService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "student@academy.test",
		Password: "another password",
		FullName: "Second",
	})
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	svc, _, repo := newService(t)
	u := register(t, svc)
	ctx := context.Background()

	_, err := svc.Login(ctx, &model.LoginRequest{Email: "student@academy.test", Password: "wrong password"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnauthenticated))
	assert.Equal(t, "invalid credentials", err.Error())

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "nobody@academy.test", Password: "correct horse"})
	assert.Equal(t, "invalid credentials", err.Error())

	repo.byID[u.ID].IsActive = false
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "student@academy.test", Password: "correct horse"})
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestLogoutEndsSession(t *testing.T) {
	svc, sessions, _ := newService(t)
	register(t, svc)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "student@academy.test", Password: "correct horse"})
	require.NoError(t, err)
	st := sessions.Resolve(ctx, resp.Token)
	require.NotNil(t, st.User)

	require.NoError(t, svc.Logout(ctx, st.User))
	assert.Nil(t, sessions.Resolve(ctx, resp.Token).User)
}

func TestRefreshIssuesWorkingToken(t *testing.T) {
	svc, sessions, _ := newService(t)
	register(t, svc)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "student@academy.test", Password: "correct horse"})
	require.NoError(t, err)
	st := sessions.Resolve(ctx, resp.Token)

	refreshed, err := svc.Refresh(ctx, st.User)
	require.NoError(t, err)
	assert.NotNil(t, sessions.Resolve(ctx, refreshed.Token).User)
	assert.Nil(t, sessions.Resolve(ctx, resp.Token).User)

	_, err = svc.Refresh(ctx, nil)
	assert.True(t, errors.Is(err, errors.ErrUnauthenticated))
}

func TestRegisterValidates(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{Email: "not-an-email", Password: "x", FullName: ""})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
