package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-portal/pkg/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{"no rows", sql.ErrNoRows, errors.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", sql.ErrNoRows), errors.ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505"}, errors.ErrConflict},
		{"other pq error", &pq.Error{Code: "42501"}, errors.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, errors.CodeOf(mapError(tt.err, "enrollment")))
		})
	}
	assert.NoError(t, mapError(nil, "enrollment"))
}
