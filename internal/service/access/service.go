package access

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/internal/auth"
	"github.com/jwalitptl/clinic-portal/internal/cachekey"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
	"github.com/jwalitptl/clinic-portal/pkg/query"
)

// errNullAnswer keeps a NULL answer out of the cache.
var errNullAnswer = errors.New("admin check returned null")

type Service struct {
	repo    repository.AccessRepository
	queries *query.Client
	metrics *metrics.Metrics
}

func NewService(repo repository.AccessRepository, queries *query.Client, m *metrics.Metrics) *Service {
	return &Service{repo: repo, queries: queries, metrics: m}
}

// IsAdmin asks the backend whether user holds the admin role. Anything
// short of an explicit true is false: no user, a failed call and a NULL
// answer all deny.
func (s *Service) IsAdmin(ctx context.Context, user *auth.Session) bool {
	if user == nil {
		s.record("no_user")
		return false
	}

	isAdmin, err := query.Fetch(ctx, s.queries, cachekey.IsAdmin(user.UserID.String()), func(ctx context.Context) (bool, error) {
		v, err := s.repo.IsCurrentUserAdmin(ctx, user.UserID)
		if err != nil {
			return false, err
		}
		if v == nil {
			return false, errNullAnswer
		}
		return *v, nil
	})
	if err != nil {
		if !errors.Is(err, errNullAnswer) {
			log.Error().Err(err).Str("user_id", user.UserID.String()).Msg("admin check failed")
		}
		s.record("error")
		return false
	}

	if isAdmin {
		s.record("admin")
	} else {
		s.record("denied")
	}
	return isAdmin
}

// Peek reports the cached admin answer without calling the backend.
// loading is true when no answer is cached yet.
func (s *Service) Peek(user *auth.Session) (isAdmin, loading bool) {
	if user == nil {
		return false, false
	}
	st := query.Peek[bool](s.queries, cachekey.IsAdmin(user.UserID.String()))
	if st.Status == query.StatusLoading {
		return false, true
	}
	return st.Data, false
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.AdminChecks.WithLabelValues(result).Inc()
	}
}
