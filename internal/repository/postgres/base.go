package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
)

const uniqueViolation = "23505"

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository. m may be nil.
func NewBaseRepository(db *sqlx.DB, m *metrics.Metrics) BaseRepository {
	return BaseRepository{db: db, metrics: m}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// WithClaims runs fn in a transaction that carries userID as the request
// identity, so row-level policies and auth.uid() see the caller.
func (r *BaseRepository) WithClaims(ctx context.Context, userID uuid.UUID, fn func(*sqlx.Tx) error) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			SELECT set_config('request.jwt.claim.sub', $1, true),
			       set_config('request.jwt.claims', json_build_object('sub', $1::text, 'role', 'authenticated')::text, true)
		`, userID.String())
		if err != nil {
			return errors.Transport(err)
		}
		return fn(tx)
	})
}

// observe records one database operation.
func (r *BaseRepository) observe(op string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
	r.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// mapError turns driver errors into application errors: no rows becomes
// NotFound and a unique violation becomes Conflict.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource, err)
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.Conflict(resource+" already exists", err)
	}
	return err
}

func requireAffected(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound(resource, nil)
	}
	return nil
}
